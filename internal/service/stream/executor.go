package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
	domainguide "guidewell/internal/domain/services/guide"
)

// AnswerExecutor orchestrates streaming execution for a single result.
//
// Responsibilities:
//   - Coordinate provider streaming
//   - Accumulate deltas into the full answer via AnswerAccumulator
//   - Broadcast SSE-formatted envelopes to all connected clients
//   - Handle context cancellation (interruption, regenerate)
//   - Persist the final (or partial) answer and status
//
// Thread-safety: Methods are thread-safe. Multiple SSE clients can connect
// concurrently, though the common case is a single response writer.
type AnswerExecutor struct {
	resultID   string
	model      string
	resultRepo repositories.ResultRepository
	provider   domainguide.Provider
	logger     *slog.Logger

	ctx         context.Context
	cancelFunc  context.CancelFunc
	accumulator *AnswerAccumulator

	clients   map[string]chan string
	clientsMu sync.RWMutex

	status    string
	statusErr error
	statusMu  sync.RWMutex
}

// NewAnswerExecutor creates an executor for a result.
func NewAnswerExecutor(
	parentCtx context.Context,
	resultID string,
	model string,
	resultRepo repositories.ResultRepository,
	provider domainguide.Provider,
	logger *slog.Logger,
) *AnswerExecutor {
	// Detach from the request context: streaming must survive the client
	// disconnecting mid-answer.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parentCtx))

	return &AnswerExecutor{
		resultID:    resultID,
		model:       model,
		resultRepo:  resultRepo,
		provider:    provider,
		logger:      logger,
		ctx:         ctx,
		cancelFunc:  cancel,
		accumulator: NewAnswerAccumulator(),
		clients:     make(map[string]chan string),
		status:      models.ResultStatusStreaming,
	}
}

// Start begins streaming execution (non-blocking).
func (e *AnswerExecutor) Start(req *domainguide.GenerateRequest) {
	go e.executeStreaming(req)
}

// AddClient registers a new SSE client for this result.
// Returns a channel of SSE-formatted event strings; the client reads until
// the channel closes.
func (e *AnswerExecutor) AddClient(clientID string) <-chan string {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	eventChan := make(chan string, 20)
	e.clients[clientID] = eventChan

	return eventChan
}

// RemoveClient unregisters an SSE client.
func (e *AnswerExecutor) RemoveClient(clientID string) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	if ch, exists := e.clients[clientID]; exists {
		close(ch)
		delete(e.clients, clientID)
	}
}

// Interrupt cancels the streaming answer. Safe to call multiple times.
func (e *AnswerExecutor) Interrupt() {
	e.cancelFunc()

	e.statusMu.Lock()
	if e.status == models.ResultStatusStreaming {
		e.status = models.ResultStatusCancelled
	}
	e.statusMu.Unlock()
}

// GetStatus returns the current execution status.
func (e *AnswerExecutor) GetStatus() string {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// GetError returns the error if status is "error", nil otherwise.
func (e *AnswerExecutor) GetError() error {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.statusErr
}

// Snapshot returns the answer accumulated so far.
func (e *AnswerExecutor) Snapshot() string {
	return e.accumulator.Snapshot()
}

// executeStreaming is the main streaming loop (runs in goroutine).
func (e *AnswerExecutor) executeStreaming(req *domainguide.GenerateRequest) {
	streamChan, err := e.provider.StreamAnswer(e.ctx, req)
	if err != nil {
		e.handleError(fmt.Errorf("failed to start provider streaming: %w", err))
		return
	}

	for streamEvent := range streamChan {
		if streamEvent.Err != nil {
			e.handleError(streamEvent.Err)
			return
		}

		if streamEvent.Metadata != nil {
			e.handleCompletion(streamEvent.Metadata)
			return
		}

		if !e.accumulator.Append(streamEvent.Delta) {
			continue
		}

		env := models.NewReplyEnvelope(streamEvent.Delta)
		event, err := env.FormatSSE()
		if err != nil {
			e.handleError(fmt.Errorf("failed to encode reply envelope: %w", err))
			return
		}
		e.broadcast(event)
	}

	// Channel closed without a terminal event
	e.handleError(fmt.Errorf("stream closed without metadata"))
}

// handleCompletion persists the finished answer and closes clients.
func (e *AnswerExecutor) handleCompletion(metadata *domainguide.Metadata) {
	answer := e.accumulator.Snapshot()

	if err := e.resultRepo.FinishResult(e.ctx, e.resultID, answer, models.ResultStatusComplete, nil, metadata.Model); err != nil {
		e.handleError(fmt.Errorf("failed to persist answer: %w", err))
		return
	}

	e.statusMu.Lock()
	e.status = models.ResultStatusComplete
	e.statusMu.Unlock()

	e.logger.Info("answer complete",
		"result_id", e.resultID,
		"model", metadata.Model,
		"stop_reason", metadata.StopReason,
		"answer_bytes", len(answer),
	)

	e.broadcastAnswer(answer)
	e.closeClients()
}

// handleError persists the partial answer with an error status.
// Interruption (context cancelled) is stored as cancelled, not error.
func (e *AnswerExecutor) handleError(err error) {
	answer := e.accumulator.Snapshot()

	status := models.ResultStatusError
	e.statusMu.Lock()
	if e.status == models.ResultStatusCancelled {
		status = models.ResultStatusCancelled
	} else {
		e.status = models.ResultStatusError
		e.statusErr = err
	}
	e.statusMu.Unlock()

	errText := err.Error()
	// Persist with a fresh context: e.ctx may already be cancelled.
	persistCtx := context.WithoutCancel(e.ctx)
	if persistErr := e.resultRepo.FinishResult(persistCtx, e.resultID, answer, status, &errText, e.model); persistErr != nil {
		e.logger.Error("failed to persist partial answer",
			"result_id", e.resultID,
			"error", persistErr,
		)
	}

	e.logger.Warn("answer stream ended abnormally",
		"result_id", e.resultID,
		"status", status,
		"error", err,
	)

	e.broadcastAnswer(answer)
	e.closeClients()
}

// broadcast sends an SSE event to all connected clients. A client whose
// buffer is full misses the delta; the closing answer envelope carries
// the full text, so a lagging client still converges.
func (e *AnswerExecutor) broadcast(event string) {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	for _, ch := range e.clients {
		select {
		case ch <- event:
		default:
			// Client channel full, skip
		}
	}
}

// broadcastAnswer sends the closing full-answer envelope. Unlike delta
// broadcasts it must not be dropped: if a client's buffer is full, stale
// deltas are evicted until the snapshot fits. The executor goroutine is
// the only sender, so eviction frees a slot it can immediately reuse.
func (e *AnswerExecutor) broadcastAnswer(answer string) {
	env := models.NewAnswerEnvelope(answer)
	event, err := env.FormatSSE()
	if err != nil {
		e.logger.Error("failed to encode answer envelope",
			"result_id", e.resultID,
			"error", err,
		)
		return
	}

	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	for _, ch := range e.clients {
		for {
			select {
			case ch <- event:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (e *AnswerExecutor) closeClients() {
	e.clientsMu.Lock()
	for clientID, ch := range e.clients {
		close(ch)
		delete(e.clients, clientID)
	}
	e.clientsMu.Unlock()
}
