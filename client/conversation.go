package client

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a submission arrives while a stream is already
// in flight for this conversation. All streams are serialized per
// conversation, regenerate included, so identifier adoption can never race.
var ErrBusy = errors.New("conversation is busy")

// Attachment is a user-supplied file sent with a prompt.
type Attachment struct {
	Name string
	Data []byte
}

// ConversationTurn is one question/answer exchange. The answer grows
// monotonically while its stream is live and freezes on completion.
type ConversationTurn struct {
	ID           string
	ChatID       string
	Question     string
	Answer       string
	AttachedFile *Attachment
}

// ConversationSet is an ordered sequence of turns, insertion order being
// chronological. At most one turn is mutable (streaming) at a time.
type ConversationSet struct {
	mu     sync.Mutex
	turns  []*ConversationTurn
	chatID string
	busy   bool

	// cancel aborts the in-flight stream, if any
	cancel context.CancelFunc
}

// NewConversationSet creates an empty conversation.
func NewConversationSet() *ConversationSet {
	return &ConversationSet{}
}

// NewConversationSetWithHistory creates a conversation pre-loaded with a
// fetched transcript. All turns start frozen.
func NewConversationSetWithHistory(chatID string, turns []*ConversationTurn) *ConversationSet {
	return &ConversationSet{
		chatID: chatID,
		turns:  turns,
	}
}

// ChatID returns the server-assigned chat identifier, or "" for a
// conversation the server has not named yet.
func (s *ConversationSet) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Busy reports whether a stream is in flight.
func (s *ConversationSet) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Len returns the number of turns.
func (s *ConversationSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Turn returns the turn at index i.
func (s *ConversationSet) Turn(i int) *ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[i]
}

// beginSubmit appends a fresh turn and takes the busy flag.
func (s *ConversationSet) beginSubmit(question string, attachment *Attachment, cancel context.CancelFunc) (*ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return nil, ErrBusy
	}

	turn := &ConversationTurn{
		Question:     question,
		ChatID:       s.chatID,
		AttachedFile: attachment,
	}
	s.turns = append(s.turns, turn)
	s.busy = true
	s.cancel = cancel

	return turn, nil
}

// beginRegenerate resets the turn at index in place and takes the busy
// flag. Any stream still targeting that slot was already serialized away
// by the busy flag, but a stale cancel function is invoked regardless so
// an overwritten stream can never write into the new buffer.
func (s *ConversationSet) beginRegenerate(index int, cancel context.CancelFunc) (*ConversationTurn, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return nil, "", ErrBusy
	}
	if index < 0 || index >= len(s.turns) {
		return nil, "", errors.New("turn index out of range")
	}

	if s.cancel != nil {
		s.cancel()
	}

	turn := s.turns[index]
	priorID := turn.ID
	turn.ID = ""
	turn.Answer = ""

	s.busy = true
	s.cancel = cancel

	return turn, priorID, nil
}

// adoptChatID records the server-assigned chat identifier the first time
// a stream surfaces one.
func (s *ConversationSet) adoptChatID(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatID == "" {
		s.chatID = chatID
	}
}

// setIdle drops the busy flag when a stream reaches a terminal state.
func (s *ConversationSet) setIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.cancel = nil
}
