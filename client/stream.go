package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Accumulator states.
type StreamState int

const (
	StateIdle StreamState = iota
	StateOpening
	StateStreaming
	StateCompleted
	StateFailed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream error taxonomy. None of these are retried automatically; retry is
// a user-initiated re-submit.
var (
	// ErrOpenRejected is returned when the server rejects the stream open
	// with a 4xx status other than 429.
	ErrOpenRejected = errors.New("stream open rejected")

	// ErrTransport is returned on a network-level failure mid-stream.
	ErrTransport = errors.New("stream transport error")
)

// Envelope is the JSON payload of one stream event. All fields are
// optional; an event may carry only identifiers, only a delta, or nothing.
type Envelope struct {
	Reply            *string `json:"reply"`
	Answer           *string `json:"answer"`
	SearchedResultID *string `json:"searched_result_id"`
	ChatID           *string `json:"chat_id"`
}

// StreamAccumulator assembles streamed fragments into one turn's answer.
//
// Fragments are applied in arrival order. After every fragment the turn's
// Answer holds the full accumulated text, so a renderer can display
// partial output without its own buffering. Malformed fragments are
// skipped, not fatal; only open rejections and transport errors fail the
// stream.
//
// Not safe for concurrent use: the owning conversation feeds it from a
// single reader loop.
type StreamAccumulator struct {
	state     StreamState
	turn      *ConversationTurn
	set       *ConversationSet
	err       error
	malformed int

	// onUpdate fires after every applied fragment and on terminal
	// transitions, with the turn reflecting all fragments so far.
	onUpdate func(*ConversationTurn)
}

// NewStreamAccumulator creates an accumulator for one turn of a
// conversation. onUpdate may be nil.
func NewStreamAccumulator(set *ConversationSet, turn *ConversationTurn, onUpdate func(*ConversationTurn)) *StreamAccumulator {
	return &StreamAccumulator{
		state:    StateIdle,
		turn:     turn,
		set:      set,
		onUpdate: onUpdate,
	}
}

// State returns the accumulator's current state.
func (a *StreamAccumulator) State() StreamState {
	return a.state
}

// Err returns the terminal error, if the stream failed.
func (a *StreamAccumulator) Err() error {
	return a.err
}

// Malformed returns the number of fragments skipped as unparseable.
func (a *StreamAccumulator) Malformed() int {
	return a.malformed
}

// Opening marks the request as issued but not yet acknowledged.
func (a *StreamAccumulator) Opening() {
	a.state = StateOpening
}

// OnOpen handles the transport's open acknowledgement. A 2xx status moves
// to Streaming. A 4xx status other than 429 is a fatal open rejection;
// 429 is left to the transport's retry policy and treated the same as
// other non-2xx statuses.
func (a *StreamAccumulator) OnOpen(status int) error {
	if status >= 200 && status < 300 {
		a.state = StateStreaming
		return nil
	}

	if status >= 400 && status < 500 && status != 429 {
		err := fmt.Errorf("%w: status %d", ErrOpenRejected, status)
		a.fail(err)
		return err
	}

	err := fmt.Errorf("%w: unexpected open status %d", ErrTransport, status)
	a.fail(err)
	return err
}

// Feed applies one fragment's data payload. A payload that fails to parse
// is skipped. Deltas append to the turn's answer, a full-answer snapshot
// replaces it, and a result or chat identifier is adopted if the turn or
// conversation does not have one yet.
func (a *StreamAccumulator) Feed(data []byte) {
	if a.state != StateStreaming {
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Skipped, not fatal: only transport errors kill the stream
		a.malformed++
		return
	}

	changed := false
	if env.Reply != nil && *env.Reply != "" {
		a.turn.Answer += *env.Reply
		changed = true
	}
	if env.Answer != nil && *env.Answer != a.turn.Answer {
		// Closing snapshot supersedes accumulated deltas; it corrects
		// any fragment the transport dropped
		a.turn.Answer = *env.Answer
		changed = true
	}
	if env.SearchedResultID != nil && a.turn.ID == "" {
		a.turn.ID = *env.SearchedResultID
		changed = true
	}
	if env.ChatID != nil && a.turn.ChatID == "" {
		a.turn.ChatID = *env.ChatID
		a.set.adoptChatID(*env.ChatID)
		changed = true
	}

	if changed && a.onUpdate != nil {
		a.onUpdate(a.turn)
	}
}

// Complete handles a clean transport close. The answer freezes, any
// pending attachment reference is cleared, and the conversation's busy
// flag drops.
func (a *StreamAccumulator) Complete() {
	if a.state != StateStreaming {
		return
	}

	a.state = StateCompleted
	a.turn.AttachedFile = nil
	a.set.setIdle()

	if a.onUpdate != nil {
		a.onUpdate(a.turn)
	}
}

// Fail handles a transport-level error. The turn keeps whatever partial
// answer accumulated; the busy flag drops.
func (a *StreamAccumulator) Fail(err error) {
	if a.state == StateCompleted || a.state == StateFailed {
		return
	}
	a.fail(fmt.Errorf("%w: %v", ErrTransport, err))
}

func (a *StreamAccumulator) fail(err error) {
	a.state = StateFailed
	a.err = err
	a.set.setIdle()

	if a.onUpdate != nil {
		a.onUpdate(a.turn)
	}
}
