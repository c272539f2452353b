// Copyright (c) Microsoft. All rights reserved.

package agent

import (
	"sync"

	"github.com/google/uuid"
)

// Conversation is an in-memory, append-only message transcript shared across
// agent runs. It is safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	id       string
	messages []Message
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString()}
}

// ID returns the conversation's unique identifier.
func (c *Conversation) ID() string { return c.id }

// Append adds messages to the end of the transcript.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of messages in the transcript.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Clear removes all messages, keeping the conversation ID.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
