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

// Package batch holds the append-only DWord stream a draw is encoded
// into. Synchronization accounting brackets runs of emissions into
// regions; the sync planner charges its pipe controls to the open
// region.
package batch

import "encoding/binary"

// Buffer is an append-only command stream.
type Buffer struct {
	dwords     []uint32
	regionOpen bool
	regions    []Region
}

// Region is a half-open DWord range [Start, End) of related emissions.
type Region struct {
	Start, End uint32
}

// New returns an empty batch buffer.
func New() *Buffer {
	return &Buffer{}
}

// Emit appends dwords to the stream. The first emission of a batch
// implicitly opens a sync region.
func (b *Buffer) Emit(dwords ...uint32) {
	if !b.regionOpen {
		b.SyncRegionStart()
	}
	b.dwords = append(b.dwords, dwords...)
}

// Reserve appends n zero DWords and returns the window for the caller
// to fill. The window is only valid until the next Emit or Reserve.
func (b *Buffer) Reserve(n int) []uint32 {
	if !b.regionOpen {
		b.SyncRegionStart()
	}
	start := len(b.dwords)
	for i := 0; i < n; i++ {
		b.dwords = append(b.dwords, 0)
	}
	return b.dwords[start : start+n]
}

// Offset returns the current byte offset of the stream tail.
func (b *Buffer) Offset() uint32 {
	return uint32(len(b.dwords)) * 4
}

// SyncRegionStart opens a new region, closing any open one.
func (b *Buffer) SyncRegionStart() {
	if b.regionOpen {
		b.SyncRegionEnd()
	}
	b.regionOpen = true
	b.regions = append(b.regions, Region{Start: uint32(len(b.dwords))})
}

// SyncRegionEnd closes the open region.
func (b *Buffer) SyncRegionEnd() {
	if !b.regionOpen {
		return
	}
	b.regionOpen = false
	b.regions[len(b.regions)-1].End = uint32(len(b.dwords))
}

// Regions returns the closed regions recorded so far.
func (b *Buffer) Regions() []Region {
	return b.regions
}

// DWords returns the raw stream.
func (b *Buffer) DWords() []uint32 {
	return b.dwords
}

// Len returns the stream length in DWords.
func (b *Buffer) Len() int {
	return len(b.dwords)
}

// Reset drops all content; the handle stays usable for the next batch.
func (b *Buffer) Reset() {
	b.dwords = b.dwords[:0]
	b.regions = b.regions[:0]
	b.regionOpen = false
}

// Serialize returns the stream as little-endian bytes.
func (b *Buffer) Serialize() []byte {
	out := make([]byte, 4*len(b.dwords))
	for i, dw := range b.dwords {
		binary.LittleEndian.PutUint32(out[4*i:], dw)
	}
	return out
}
