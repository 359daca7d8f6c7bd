// Copyright (C) 2023 The Atari VCS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"io"
	"sync"
)

// Handler is the interface implemented by objects that consume log messages.
type Handler interface {
	Handle(*Message)
	Close()
}

type handler struct {
	handle func(*Message)
	close  func()
}

func (h handler) Handle(m *Message) { h.handle(m) }
func (h handler) Close()            { h.close() }

// NewHandler returns a Handler that calls handle for each message and close
// (if not nil) when the handler is closed.
func NewHandler(handle func(*Message), close func()) Handler {
	if close == nil {
		close = func() {}
	}
	return handler{handle, close}
}

// Writer returns a Handler that writes each message as a single line to w.
// Writes are serialized with an internal mutex so the handler is safe to
// share between contexts.
func Writer(w io.Writer) Handler {
	mu := sync.Mutex{}
	return NewHandler(func(m *Message) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, m.String())
	}, nil)
}

// Buffer is a Handler that stores messages in memory; it is used by tests
// that need to inspect the planner's debug trace.
type Buffer struct {
	mu       sync.Mutex
	messages []*Message
}

// NewBuffer returns a new, empty Buffer handler.
func NewBuffer() *Buffer { return &Buffer{} }

// Handle stores m in the buffer.
func (b *Buffer) Handle(m *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, m)
}

// Close discards the stored messages.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

// Messages returns a copy of the messages handled so far.
func (b *Buffer) Messages() []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Message, len(b.messages))
	copy(out, b.messages)
	return out
}
