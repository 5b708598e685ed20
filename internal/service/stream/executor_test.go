package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"guidewell/internal/domain/models"
	domainguide "guidewell/internal/domain/services/guide"
)

// fakeProvider replays a scripted sequence of stream events.
type fakeProvider struct {
	events []domainguide.StreamEvent
}

func (p *fakeProvider) Name() string                   { return "fake" }
func (p *fakeProvider) SupportsModel(model string) bool { return true }

func (p *fakeProvider) StreamAnswer(ctx context.Context, req *domainguide.GenerateRequest) (<-chan domainguide.StreamEvent, error) {
	ch := make(chan domainguide.StreamEvent, len(p.events))
	go func() {
		defer close(ch)
		for _, ev := range p.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				ch <- domainguide.StreamEvent{Err: ctx.Err()}
				return
			}
		}
	}()
	return ch, nil
}

// fakeResultRepo records FinishResult calls.
type fakeResultRepo struct {
	mu     sync.Mutex
	answer string
	status string
	errTxt *string
	model  string
	calls  int
}

func (r *fakeResultRepo) CreateResult(ctx context.Context, result *models.Result) error { return nil }
func (r *fakeResultRepo) GetResult(ctx context.Context, resultID string) (*models.Result, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeResultRepo) ListByChat(ctx context.Context, chatID string) ([]models.Result, error) {
	return nil, nil
}
func (r *fakeResultRepo) ResetForRegenerate(ctx context.Context, resultID string) error { return nil }

func (r *fakeResultRepo) FinishResult(ctx context.Context, resultID, answer, status string, errText *string, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answer = answer
	r.status = status
	r.errTxt = errText
	r.model = model
	r.calls++
	return nil
}

func (r *fakeResultRepo) finished() (string, string, *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer, r.status, r.errTxt
}

func deltaEvents(deltas ...string) []domainguide.StreamEvent {
	events := make([]domainguide.StreamEvent, 0, len(deltas)+1)
	for _, d := range deltas {
		events = append(events, domainguide.StreamEvent{Delta: d})
	}
	events = append(events, domainguide.StreamEvent{Metadata: &domainguide.Metadata{
		Model:      "lorem-fast",
		StopReason: "end_turn",
	}})
	return events
}

func parseEnvelope(t *testing.T, event string) *models.SearchEnvelope {
	t.Helper()
	payload := strings.TrimSuffix(strings.TrimPrefix(event, "data: "), "\n\n")
	var env models.SearchEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("parse envelope %q: %v", event, err)
	}
	return &env
}

func drain(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var events []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func TestAnswerExecutorCompletes(t *testing.T) {
	repo := &fakeResultRepo{}
	provider := &fakeProvider{events: deltaEvents("IBS ", "is a ", "condition.")}

	exec := NewAnswerExecutor(context.Background(), "result-1", "lorem-fast", repo, provider, slog.Default())
	clientChan := exec.AddClient("client-1")
	exec.Start(&domainguide.GenerateRequest{Model: "lorem-fast"})

	events := drain(t, clientChan)

	// Three deltas plus the closing full-answer envelope
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %v", len(events), events)
	}
	for _, ev := range events {
		if !strings.HasPrefix(ev, "data: ") || !strings.HasSuffix(ev, "\n\n") {
			t.Errorf("event not SSE-framed: %q", ev)
		}
	}
	last := parseEnvelope(t, events[len(events)-1])
	if last.Answer == nil || *last.Answer != "IBS is a condition." {
		t.Errorf("closing envelope = %+v, want full answer", last)
	}

	answer, status, errTxt := repo.finished()
	if answer != "IBS is a condition." {
		t.Errorf("persisted answer = %q, want %q", answer, "IBS is a condition.")
	}
	if status != models.ResultStatusComplete {
		t.Errorf("persisted status = %q, want %q", status, models.ResultStatusComplete)
	}
	if errTxt != nil {
		t.Errorf("persisted error = %q, want nil", *errTxt)
	}
	if exec.GetStatus() != models.ResultStatusComplete {
		t.Errorf("executor status = %q, want complete", exec.GetStatus())
	}
}

func TestAnswerExecutorSlowClientConvergesOnFullAnswer(t *testing.T) {
	repo := &fakeResultRepo{}

	// More deltas than a client channel can buffer
	var deltas []string
	var want strings.Builder
	for i := 0; i < 40; i++ {
		d := fmt.Sprintf("w%d ", i)
		deltas = append(deltas, d)
		want.WriteString(d)
	}
	provider := &fakeProvider{events: deltaEvents(deltas...)}

	exec := NewAnswerExecutor(context.Background(), "result-slow", "lorem-fast", repo, provider, slog.Default())
	clientChan := exec.AddClient("client-1")
	exec.Start(&domainguide.GenerateRequest{Model: "lorem-fast"})

	// Client reads nothing until the stream finishes, so its buffer
	// overflows and deltas get dropped
	deadline := time.After(5 * time.Second)
	for exec.GetStatus() == models.ResultStatusStreaming {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for completion")
		case <-time.After(5 * time.Millisecond):
		}
	}

	events := drain(t, clientChan)
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}

	last := parseEnvelope(t, events[len(events)-1])
	if last.Answer == nil {
		t.Fatalf("last event %q is not the closing answer envelope", events[len(events)-1])
	}
	if *last.Answer != want.String() {
		t.Errorf("closing answer = %q, want full accumulation", *last.Answer)
	}
}

func TestAnswerExecutorPersistsPartialOnError(t *testing.T) {
	repo := &fakeResultRepo{}
	provider := &fakeProvider{events: []domainguide.StreamEvent{
		{Delta: "partial "},
		{Delta: "answer"},
		{Err: errors.New("upstream reset")},
	}}

	exec := NewAnswerExecutor(context.Background(), "result-2", "gpt-4o-mini", repo, provider, slog.Default())
	clientChan := exec.AddClient("client-1")
	exec.Start(&domainguide.GenerateRequest{Model: "gpt-4o-mini"})

	events := drain(t, clientChan)
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}
	last := parseEnvelope(t, events[len(events)-1])
	if last.Answer == nil || *last.Answer != "partial answer" {
		t.Errorf("closing envelope = %+v, want partial answer snapshot", last)
	}

	answer, status, errTxt := repo.finished()
	if answer != "partial answer" {
		t.Errorf("persisted answer = %q, want partial text retained", answer)
	}
	if status != models.ResultStatusError {
		t.Errorf("persisted status = %q, want %q", status, models.ResultStatusError)
	}
	if errTxt == nil || !strings.Contains(*errTxt, "upstream reset") {
		t.Errorf("persisted error = %v, want upstream reset", errTxt)
	}
}

func TestAnswerExecutorInterrupt(t *testing.T) {
	repo := &fakeResultRepo{}
	// A provider that never finishes on its own
	blocked := make(chan struct{})
	provider := &blockingProvider{release: blocked}

	exec := NewAnswerExecutor(context.Background(), "result-3", "lorem-slow", repo, provider, slog.Default())
	clientChan := exec.AddClient("client-1")
	exec.Start(&domainguide.GenerateRequest{Model: "lorem-slow"})

	exec.Interrupt()
	drain(t, clientChan)

	_, status, _ := repo.finished()
	if status != models.ResultStatusCancelled {
		t.Errorf("persisted status = %q, want %q", status, models.ResultStatusCancelled)
	}
}

type blockingProvider struct {
	release chan struct{}
}

func (p *blockingProvider) Name() string                    { return "blocking" }
func (p *blockingProvider) SupportsModel(model string) bool { return true }

func (p *blockingProvider) StreamAnswer(ctx context.Context, req *domainguide.GenerateRequest) (<-chan domainguide.StreamEvent, error) {
	ch := make(chan domainguide.StreamEvent, 1)
	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			ch <- domainguide.StreamEvent{Err: ctx.Err()}
		case <-p.release:
		}
	}()
	return ch, nil
}

func TestRegistryReplaceInterruptsPrevious(t *testing.T) {
	registry := NewRegistryWithIntervals(time.Minute, time.Minute)
	repo := &fakeResultRepo{}

	first := NewAnswerExecutor(context.Background(), "r", "m", repo, &blockingProvider{release: make(chan struct{})}, slog.Default())
	firstChan := first.AddClient("c")
	first.Start(&domainguide.GenerateRequest{Model: "m"})

	if !registry.Register("r", first) {
		t.Fatal("first Register returned false")
	}
	if registry.Register("r", first) {
		t.Error("duplicate Register returned true")
	}

	second := NewAnswerExecutor(context.Background(), "r", "m", repo, &fakeProvider{events: deltaEvents("x")}, slog.Default())
	registry.Replace("r", second)

	drain(t, firstChan)
	if first.GetStatus() != models.ResultStatusCancelled {
		t.Errorf("replaced executor status = %q, want cancelled", first.GetStatus())
	}
	if registry.Get("r") != second {
		t.Error("Get after Replace did not return the new executor")
	}
}
