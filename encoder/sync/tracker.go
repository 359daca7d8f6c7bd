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

package sync

import (
	"context"

	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/encoder/batch"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Tracker plans and emits pipe controls for one context. It keeps,
// per cache domain, whether a write has happened since the last flush
// and whether the read caches were invalidated since the last write.
type Tracker struct {
	inf *devinfo.Info
	set *cmds.Set
	out *batch.Buffer

	// WorkaroundAddr is the GPU address post-sync writes scribble on.
	WorkaroundAddr uint64

	unflushed   [domainCount]bool
	invalidated [domainCount]bool

	inWorkaround bool
}

// NewTracker returns a tracker emitting into out.
func NewTracker(inf *devinfo.Info, out *batch.Buffer) *Tracker {
	return &Tracker{inf: inf, set: cmds.For(inf), out: out}
}

// Reset forgets all domain history. Called at batch boundaries.
func (t *Tracker) Reset() {
	for d := range t.unflushed {
		t.unflushed[d] = false
		t.invalidated[d] = false
	}
}

// DeclareAccess plans the syncs an operation needs given the domains it
// writes and reads, emits them, and updates the domain history.
func (t *Tracker) DeclareAccess(ctx context.Context, writes, reads DomainSet) {
	flags := Flags(0)
	flushedNow := DomainSet(0)
	invalidatedNow := DomainSet(0)
	for d := Domain(0); d < domainCount; d++ {
		if !reads.Has(d) {
			continue
		}
		w := writeCounterpart(d)
		if t.unflushed[w] {
			flags |= flushFor(w)
			flushedNow |= DS(w)
			if !t.invalidated[d] {
				flags |= invalidateFor(d)
				invalidatedNow |= DS(d)
			}
		}
	}
	for d := Domain(0); d < domainCount; d++ {
		if writes.Has(d) && t.unflushed[d] {
			// Write after an unflushed write: order with a stall.
			flags |= StallCS
		}
	}
	if flags != 0 {
		t.PipeControl(ctx, flags)
		for d := Domain(0); d < domainCount; d++ {
			if flushedNow.Has(d) {
				t.unflushed[d] = false
			}
			if invalidatedNow.Has(d) {
				t.invalidated[d] = true
			}
		}
	}
	for d := Domain(0); d < domainCount; d++ {
		if writes.Has(d) {
			t.unflushed[d] = true
			// A fresh write stales every read cache over this domain.
			for r := Domain(0); r < domainCount; r++ {
				if writeCounterpart(r) == d && r != d {
					t.invalidated[r] = false
				}
			}
		}
	}
}

// PipeControl applies the generation's errata to the requested flags
// and emits the result. This is the only path that writes PIPE_CONTROL
// into the batch.
func (t *Tracker) PipeControl(ctx context.Context, flags Flags) {
	if t.inf.Has(devinfo.WaDepthStallBeforeDepthFlush) && flags&FlushDepth != 0 {
		flags |= StallDepth
	}
	if t.inf.Has(devinfo.WaVFCacheInvalidatePostSyncWrite) && flags&InvalidateVF != 0 {
		flags |= StallCS | PostSyncWrite
	}
	t.emitRaw(ctx, flags)
}

// emitRaw packs the packet. Workaround application must have finished
// by now; re-entry means an erratum tried to sync its own sync.
func (t *Tracker) emitRaw(ctx context.Context, flags Flags) {
	if t.inWorkaround {
		panic("sync: recursive pipe control emission")
	}
	t.inWorkaround = true
	defer func() { t.inWorkaround = false }()

	log.D(ctx, "pipe control: %v", flags)

	f := cmds.F{}
	set := func(name string, on Flags) {
		if flags&on != 0 {
			f[name] = 1
		}
	}
	set("RenderTargetCacheFlushEnable", FlushRenderTarget)
	set("DepthCacheFlushEnable", FlushDepth)
	set("DCFlushEnable", FlushDC)
	set("HDCPipelineFlushEnable", FlushHDC)
	set("CommandStreamerStallEnable", StallCS)
	set("DepthStallEnable", StallDepth)
	set("StallAtPixelScoreboard", StallScoreboard)
	set("TextureCacheInvalidationEnable", InvalidateTexture)
	set("ConstantCacheInvalidationEnable", InvalidateConstant)
	set("StateCacheInvalidationEnable", InvalidateState)
	set("InstructionCacheInvalidateEnable", InvalidateInstruction)
	set("VFCacheInvalidationEnable", InvalidateVF)
	set("TLBInvalidate", InvalidateTLB)
	if flags&PostSyncWrite != 0 {
		f["PostSyncOperation"] = 1
		f["Address"] = t.WorkaroundAddr >> 2
	}
	t.out.Emit(t.set.Lookup("PIPE_CONTROL").Pack(f)...)
}

// EndOfPipe emits a full drain: stall plus post-sync write.
func (t *Tracker) EndOfPipe(ctx context.Context) {
	t.PipeControl(ctx, StallCS|PostSyncWrite)
}

// NonPipelined precedes any non-pipelined state command.
func (t *Tracker) NonPipelined(ctx context.Context) {
	if t.inf.Has(devinfo.WaHDCFlushBeforeNonPipelined) {
		t.PipeControl(ctx, FlushHDC)
	}
}

// PreStateBaseAddress drains the write caches before the base
// addresses move.
func (t *Tracker) PreStateBaseAddress(ctx context.Context) {
	t.NonPipelined(ctx)
	t.PipeControl(ctx, FlushRenderTarget|FlushDepth|FlushDC|StallCS|PostSyncWrite)
	for d := range t.unflushed {
		t.unflushed[d] = false
	}
}

// PostStateBaseAddress refreshes every read cache that captured
// state-relative addresses.
func (t *Tracker) PostStateBaseAddress(ctx context.Context) {
	t.PipeControl(ctx,
		InvalidateTexture|InvalidateConstant|InvalidateState|StallCS|PostSyncWrite)
}

// PipelineSelect emits the cache maintenance around a pipeline switch.
// The caller emits the PIPELINE_SELECT packet itself afterwards.
func (t *Tracker) PipelineSelect(ctx context.Context) {
	t.NonPipelined(ctx)
	if t.inf.Has(devinfo.WaPipelineSelectCacheFlushes) {
		// Two packets: drain write caches first, then refresh reads.
		t.PipeControl(ctx, FlushRenderTarget|FlushDepth|FlushDC|StallCS)
		t.PipeControl(ctx,
			InvalidateTexture|InvalidateConstant|InvalidateState|InvalidateInstruction)
	}
}

// InvalidateVFCache covers the vertex-buffer rebind hazards; the
// erratum co-requirements are applied by PipeControl.
func (t *Tracker) InvalidateVFCache(ctx context.Context) {
	t.PipeControl(ctx, InvalidateVF)
}
