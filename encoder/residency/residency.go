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

// Package residency accumulates the buffers a batch references so the
// submission layer can pin them and honor cache domains. One entry per
// buffer; repeated uses join monotonically.
package residency

import (
	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
)

// Entry is the final residency record for one buffer.
type Entry struct {
	Buffer   encoder.BufferID
	Writable bool
	Domain   sync.Domain
}

// Ledger collects per-batch residency. The zero value is ready to use.
type Ledger struct {
	entries map[encoder.BufferID]Entry
	order   []encoder.BufferID
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: map[encoder.BufferID]Entry{}}
}

// Use records a reference to buf. Calls for the same buffer join: the
// write intent ORs, and the strongest domain wins.
func (l *Ledger) Use(buf encoder.BufferID, writable bool, domain sync.Domain) {
	if l.entries == nil {
		l.entries = map[encoder.BufferID]Entry{}
	}
	e, ok := l.entries[buf]
	if !ok {
		l.entries[buf] = Entry{Buffer: buf, Writable: writable, Domain: domain}
		l.order = append(l.order, buf)
		return
	}
	e.Writable = e.Writable || writable
	e.Domain = sync.Strongest(e.Domain, domain)
	l.entries[buf] = e
}

// Lookup returns the current record for buf.
func (l *Ledger) Lookup(buf encoder.BufferID) (Entry, bool) {
	e, ok := l.entries[buf]
	return e, ok
}

// Len returns the number of distinct buffers recorded.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Snapshot returns the entries in first-use order and clears the ledger
// for the next batch.
func (l *Ledger) Snapshot() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id])
	}
	l.entries = map[encoder.BufferID]Entry{}
	l.order = l.order[:0]
	return out
}
