package stream

import (
	"context"
	"sync"
	"time"

	"guidewell/internal/domain/models"
)

// Registry manages all active AnswerExecutor instances.
//
// Design:
//   - One executor per result (keyed by result_id)
//   - Thread-safe access via RWMutex
//   - Background cleanup removes terminal executors after the retention period
//
// Lifecycle:
//  1. The search handler creates an executor and registers it
//  2. SSE writers read the executor's client channel
//  3. Executor reaches a terminal status
//  4. Cleanup goroutine removes old executors
type Registry struct {
	executors map[string]*AnswerExecutor
	mu        sync.RWMutex

	cleanupInterval time.Duration
	retentionPeriod time.Duration

	completionTimes map[string]time.Time
	timesMu         sync.RWMutex
}

// NewRegistry creates a registry with default cleanup settings.
func NewRegistry() *Registry {
	return NewRegistryWithIntervals(1*time.Minute, 10*time.Minute)
}

// NewRegistryWithIntervals creates a registry with explicit cleanup settings.
func NewRegistryWithIntervals(cleanupInterval, retentionPeriod time.Duration) *Registry {
	return &Registry{
		executors:       make(map[string]*AnswerExecutor),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		completionTimes: make(map[string]time.Time),
	}
}

// Register registers an executor for a result.
// Returns false if an executor already exists for this result.
func (r *Registry) Register(resultID string, executor *AnswerExecutor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[resultID]; exists {
		return false
	}

	r.executors[resultID] = executor
	return true
}

// Get retrieves the executor for a result. Returns nil if none exists.
func (r *Registry) Get(resultID string) *AnswerExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.executors[resultID]
}

// Remove removes an executor. Safe to call even if none exists.
func (r *Registry) Remove(resultID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.executors, resultID)

	r.timesMu.Lock()
	delete(r.completionTimes, resultID)
	r.timesMu.Unlock()
}

// Replace removes any existing executor for the result, interrupting it
// first, then registers the new one. Used for regenerate.
func (r *Registry) Replace(resultID string, executor *AnswerExecutor) {
	r.mu.Lock()
	if prev, exists := r.executors[resultID]; exists {
		prev.Interrupt()
	}
	r.executors[resultID] = executor
	r.mu.Unlock()

	r.timesMu.Lock()
	delete(r.completionTimes, resultID)
	r.timesMu.Unlock()
}

// MarkCompleted records when an executor reached a terminal state so the
// cleanup pass can age it out.
func (r *Registry) MarkCompleted(resultID string) {
	r.timesMu.Lock()
	defer r.timesMu.Unlock()

	r.completionTimes[resultID] = time.Now()
}

// StartCleanup runs the background cleanup loop until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *Registry) cleanup() {
	now := time.Now()

	var toRemove []string

	r.mu.RLock()
	for resultID, executor := range r.executors {
		status := executor.GetStatus()
		if status == models.ResultStatusStreaming {
			continue
		}

		r.timesMu.RLock()
		completionTime, exists := r.completionTimes[resultID]
		r.timesMu.RUnlock()

		if exists && now.Sub(completionTime) > r.retentionPeriod {
			toRemove = append(toRemove, resultID)
		} else if !exists {
			r.MarkCompleted(resultID)
		}
	}
	r.mu.RUnlock()

	if len(toRemove) == 0 {
		return
	}

	r.mu.Lock()
	for _, resultID := range toRemove {
		delete(r.executors, resultID)
	}
	r.mu.Unlock()

	r.timesMu.Lock()
	for _, resultID := range toRemove {
		delete(r.completionTimes, resultID)
	}
	r.timesMu.Unlock()
}

// Count returns the number of registered executors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.executors)
}
