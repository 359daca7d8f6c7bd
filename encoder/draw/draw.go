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

// Package draw turns the accumulated dirty state into batch commands.
// Each draw walks the dirty bits in a fixed order, re-emits only what
// changed, clears exactly those bits and finishes with 3DPRIMITIVE.
package draw

import (
	"context"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/batch"
	"github.com/atari-vcs/mesa-sub000/encoder/residency"
	"github.com/atari-vcs/mesa-sub000/encoder/state"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
	"github.com/atari-vcs/mesa-sub000/encoder/upload"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Context owns one rendering context's encoding state: the batch under
// construction, the dirty tracker, the sync planner and the residency
// ledger. All methods run on the context's owning execution.
type Context struct {
	Inf    *devinfo.Info
	Set    *cmds.Set
	Batch  *batch.Buffer
	Upload *upload.Uploader
	State  *state.Tracker
	Sync   *sync.Tracker
	Ledger *residency.Ledger

	Resources encoder.ResourceMap

	// Process-wide shared resources, pinned into every batch.
	Binder           encoder.BufferID
	BorderColorPool  encoder.BufferID
	WorkaroundBuffer encoder.BufferID
	WorkaroundAddr   uint64

	// ScratchAddr is the base of the per-context scratch pool; stages
	// carve fixed 64KB slices out of it.
	ScratchAddr uint64

	firstDraw      bool
	declaredWrites sync.DomainSet
	vbAddrHi       map[uint8]uint64
	bindingTables  [encoder.StageCount]uint32
	samplerTables  [encoder.StageCount]uint32
	preemptionOff  bool
}

// New builds a context around an upload manager and a resource map.
func New(inf *devinfo.Info, mgr encoder.UploadManager, rm encoder.ResourceMap) *Context {
	out := &batch.Buffer{}
	ledger := residency.NewLedger()
	c := &Context{
		Inf:       inf,
		Set:       cmds.For(inf),
		Batch:     out,
		Upload:    upload.New(mgr, ledger),
		State:     state.NewTracker(inf),
		Sync:      sync.NewTracker(inf, out),
		Ledger:    ledger,
		Resources: rm,
		firstDraw: true,
		vbAddrHi:  map[uint8]uint64{},
	}
	return c
}

// drawStages are the stages with pipelined state packets, in emission
// order.
var drawStages = []encoder.Stage{
	encoder.StageVertex,
	encoder.StageTessCtrl,
	encoder.StageTessEval,
	encoder.StageGeometry,
	encoder.StageFragment,
}

// Draw encodes one draw call. Pipe controls planned by the sync tracker
// land before the state they guard; the primitive goes out last.
func (c *Context) Draw(ctx context.Context, info *encoder.DrawInfo) error {
	st := c.State
	st.SetTopology(info.Topology)
	st.SetPrimitiveRestart(info.PrimitiveRestart, info.RestartIndex)

	c.pinShared()
	if c.firstDraw {
		c.firstDraw = false
		// A new batch starts on a context the hardware may have
		// reloaded; anything it does not preserve must go out again.
		if c.Inf.Has(devinfo.WaPushConstantReemitOnContextSwitch) {
			st.Mask.SetStageAll(state.StageDirtyConstants)
		}
		c.Batch.Emit(c.Set.Lookup("3DSTATE_VF_STATISTICS").Pack(cmds.F{
			"StatisticsEnable": 1,
		})...)
	}

	c.declareDrawAccess(ctx)

	// The walk consults a snapshot so that a bit consumed early (blend,
	// say) still gates the packets later in the order that share it.
	was := st.Mask

	if err := c.emitViewports(&was); err != nil {
		return err
	}
	c.emitURB(&was)
	if err := c.emitBlend(&was); err != nil {
		return err
	}
	if err := c.emitColorCalc(&was); err != nil {
		return err
	}
	c.emitPushConstants(&was)
	if err := c.emitBindingTables(&was); err != nil {
		return err
	}
	if err := c.emitSamplers(&was); err != nil {
		return err
	}
	c.emitMultisample(&was)
	c.emitPrograms(&was)
	if err := c.emitStreamout(&was); err != nil {
		return err
	}
	c.emitRasterizer(&was)
	c.emitPSBlend(&was)
	c.emitDepthStencil(&was)
	if err := c.emitScissors(&was); err != nil {
		return err
	}
	c.emitDepthBuffer(&was)
	c.emitStipples(&was)
	c.emitTopology(&was)
	c.emitVertexBuffers(ctx, &was)
	c.emitVertexElements(&was)
	c.emitVFState(&was)
	c.emitPreemption()

	c.emitPrimitive(info)
	return nil
}

// pinShared lists the always-referenced buffers. The binder is pinned
// every draw; the pools ride along with it.
func (c *Context) pinShared() {
	if c.Binder != 0 {
		c.Ledger.Use(c.Binder, false, sync.OtherRead)
	}
	if c.BorderColorPool != 0 {
		c.Ledger.Use(c.BorderColorPool, false, sync.OtherRead)
	}
	if c.WorkaroundBuffer != 0 {
		c.Ledger.Use(c.WorkaroundBuffer, true, sync.OtherWrite)
		c.Sync.WorkaroundAddr = c.WorkaroundAddr
	}
}

// declareDrawAccess tells the sync planner what this draw touches, so
// any needed flushes precede the state it emits.
func (c *Context) declareDrawAccess(ctx context.Context) {
	st := c.State
	writes := sync.DS(sync.RenderTargetWrite)
	if st.DSA != nil && (st.DSA.DepthWrites || st.DSA.StencilWrites) {
		writes |= sync.DS(sync.DepthWrite)
	}
	if len(st.SOTargets) > 0 {
		writes |= sync.DS(sync.OtherWrite)
	}
	reads := sync.DS(sync.OtherRead)
	for _, stage := range drawStages {
		if len(st.SamplerViews[stage]) > 0 {
			reads |= sync.DS(sync.RenderTargetRead)
		}
	}
	// Consecutive draws through the same write domains are ordered by
	// the pipeline itself; only newly-entered domains are declared.
	newWrites := writes &^ c.declaredWrites
	c.declaredWrites |= writes
	c.Sync.DeclareAccess(ctx, newWrites, reads)
}

// emitPrimitive writes the 3DPRIMITIVE packet.
func (c *Context) emitPrimitive(info *encoder.DrawInfo) {
	f := cmds.F{
		"PrimitiveTopologyType":  uint64(info.Topology),
		"VertexCountPerInstance": uint64(info.VertexCount),
		"StartVertexLocation":    uint64(info.StartVertex),
		"InstanceCount":          uint64(info.InstanceCount),
		"StartInstanceLocation":  uint64(info.StartInstance),
	}
	if info.Indexed {
		f["VertexAccessType"] = 1
		f["BaseVertexLocation"] = uint64(uint32(info.BaseVertex))
	}
	c.Batch.Emit(c.Set.Lookup("3DPRIMITIVE").Pack(f)...)
}

// BaseAddresses holds the five state base addresses, 4KB aligned.
type BaseAddresses struct {
	General        uint64
	SurfaceState   uint64
	DynamicState   uint64
	IndirectObject uint64
	Instruction    uint64
}

// SetBaseAddresses moves the base addresses, bracketed by the flush
// and invalidate sequences the hardware requires. Everything keyed off
// the old bases must go out again.
func (c *Context) SetBaseAddresses(ctx context.Context, ba BaseAddresses) {
	c.Sync.PreStateBaseAddress(ctx)
	c.Batch.Emit(c.Set.Lookup("STATE_BASE_ADDRESS").Pack(cmds.F{
		"GeneralBaseModifyEnable":           1,
		"GeneralBaseAddress":                ba.General >> 12,
		"SurfaceStateBaseModifyEnable":      1,
		"SurfaceStateBaseAddress":           ba.SurfaceState >> 12,
		"DynamicStateBaseModifyEnable":      1,
		"DynamicStateBaseAddress":           ba.DynamicState >> 12,
		"IndirectObjectBaseModifyEnable":    1,
		"IndirectObjectBaseAddress":         ba.IndirectObject >> 12,
		"InstructionBaseModifyEnable":       1,
		"InstructionBaseAddress":            ba.Instruction >> 12,
		"GeneralBufferSizeModifyEnable":     1,
		"GeneralBufferSize":                 0xfffff,
		"DynamicBufferSizeModifyEnable":     1,
		"DynamicBufferSize":                 0xfffff,
		"IndirectBufferSizeModifyEnable":    1,
		"IndirectBufferSize":                0xfffff,
		"InstructionBufferSizeModifyEnable": 1,
		"InstructionBufferSize":             0xfffff,
	})...)
	c.Sync.PostStateBaseAddress(ctx)
	c.State.Mask.RaiseAll()
}

// Pipelines for PIPELINE_SELECT.
const (
	Pipeline3D    = 0
	PipelineMedia = 1
	PipelineGPGPU = 2
)

// SelectPipeline switches the command streamer pipeline with the
// generation's cache maintenance around it.
func (c *Context) SelectPipeline(ctx context.Context, pipeline uint64) {
	c.Sync.PipelineSelect(ctx)
	c.Batch.Emit(c.Set.Lookup("PIPELINE_SELECT").Pack(cmds.F{
		"PipelineSelection": pipeline,
		"MaskBits":          3,
	})...)
}

// FlushBatch closes the batch: residency snapshot, batch end marker,
// and a full dirty raise since the next batch starts from nothing.
// The ended batch stays in Batch; the caller serializes its DWords and
// calls Batch.Reset before encoding into the context again.
func (c *Context) FlushBatch(ctx context.Context) []residency.Entry {
	c.Batch.SyncRegionStart()
	c.Batch.Emit(c.Set.Lookup("MI_BATCH_BUFFER_END").Pack(cmds.F{})...)
	entries := c.Ledger.Snapshot()
	c.State.Mask.RaiseAll()
	c.Sync.Reset()
	c.firstDraw = true
	c.declaredWrites = 0
	c.vbAddrHi = map[uint8]uint64{}
	c.preemptionOff = false
	return entries
}
