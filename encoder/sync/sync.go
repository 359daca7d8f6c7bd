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

// Package sync plans the pipe-control packets that keep the hardware
// caches coherent across state changes. Domain-driven dependencies
// (read-after-write, write-after-write) and per-generation errata both
// feed the same raw emitter.
package sync

import "strings"

// Domain is a hardware cache domain. Lower values are stronger; writes
// dominate reads.
type Domain int

const (
	RenderTargetWrite Domain = iota
	DepthWrite
	OtherWrite
	OtherRead
	RenderTargetRead
	DepthRead
	None

	domainCount
)

func (d Domain) String() string {
	switch d {
	case RenderTargetWrite:
		return "rt-write"
	case DepthWrite:
		return "depth-write"
	case OtherWrite:
		return "other-write"
	case OtherRead:
		return "other-read"
	case RenderTargetRead:
		return "rt-read"
	case DepthRead:
		return "depth-read"
	case None:
		return "none"
	}
	return "?"
}

// Strongest returns the stronger of two domains. The join is
// commutative, so residency entries may arrive in any order.
func Strongest(a, b Domain) Domain {
	if a < b {
		return a
	}
	return b
}

// writeCounterpart maps a read domain to the write domain whose output
// it observes.
func writeCounterpart(d Domain) Domain {
	switch d {
	case RenderTargetRead:
		return RenderTargetWrite
	case DepthRead:
		return DepthWrite
	case OtherRead:
		return OtherWrite
	}
	return d
}

// DomainSet is a small set of domains.
type DomainSet uint8

// DS builds a DomainSet.
func DS(ds ...Domain) DomainSet {
	s := DomainSet(0)
	for _, d := range ds {
		if d != None {
			s |= 1 << uint(d)
		}
	}
	return s
}

// Has reports set membership.
func (s DomainSet) Has(d Domain) bool { return s&(1<<uint(d)) != 0 }

// Flags is the planned pipe-control bit set.
type Flags uint32

const (
	FlushRenderTarget Flags = 1 << iota
	FlushDepth
	FlushDC
	FlushHDC
	StallCS
	StallDepth
	StallScoreboard
	InvalidateTexture
	InvalidateConstant
	InvalidateState
	InvalidateInstruction
	InvalidateVF
	InvalidateTLB
	PostSyncWrite
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlushRenderTarget, "flush-rt"},
	{FlushDepth, "flush-depth"},
	{FlushDC, "flush-dc"},
	{FlushHDC, "flush-hdc"},
	{StallCS, "cs-stall"},
	{StallDepth, "depth-stall"},
	{StallScoreboard, "scoreboard-stall"},
	{InvalidateTexture, "inv-tex"},
	{InvalidateConstant, "inv-const"},
	{InvalidateState, "inv-state"},
	{InvalidateInstruction, "inv-instr"},
	{InvalidateVF, "inv-vf"},
	{InvalidateTLB, "inv-tlb"},
	{PostSyncWrite, "post-sync-write"},
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "+")
}

// flushFor returns the flush flag that makes a write domain visible.
func flushFor(d Domain) Flags {
	switch d {
	case RenderTargetWrite:
		return FlushRenderTarget
	case DepthWrite:
		return FlushDepth
	case OtherWrite:
		return FlushDC
	}
	return 0
}

// invalidateFor returns the invalidation that refreshes a read domain.
func invalidateFor(d Domain) Flags {
	switch d {
	case RenderTargetRead:
		return InvalidateTexture
	case DepthRead:
		return InvalidateTexture
	case OtherRead:
		return InvalidateTexture | InvalidateConstant
	}
	return 0
}
