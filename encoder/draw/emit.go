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

package draw

import (
	"context"
	"fmt"
	"math"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/so"
	"github.com/atari-vcs/mesa-sub000/encoder/state"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
	"github.com/atari-vcs/mesa-sub000/encoder/upload"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

func (c *Context) emitViewports(was *state.DirtyMask) error {
	if !was.Test(state.DirtyViewports) || len(c.State.Viewports) == 0 {
		return nil
	}
	ccLayout := c.Set.Lookup("CC_VIEWPORT")
	sfLayout := c.Set.Lookup("SF_CLIP_VIEWPORT")
	var cc, sf []uint32
	for _, vp := range c.State.Viewports {
		zmin, zmax := vp.Translate[2], vp.Translate[2]+vp.Scale[2]
		if zmax < zmin {
			zmin, zmax = zmax, zmin
		}
		cc = append(cc, ccLayout.Pack(cmds.F{
			"MinimumDepth": f32(zmin),
			"MaximumDepth": f32(zmax),
		})...)

		xext := abs32(vp.Scale[0])
		yext := abs32(vp.Scale[1])
		sf = append(sf, sfLayout.Pack(cmds.F{
			"ViewportMatrixElementm00": f32(vp.Scale[0]),
			"ViewportMatrixElementm11": f32(vp.Scale[1]),
			"ViewportMatrixElementm22": f32(vp.Scale[2]),
			"ViewportMatrixElementm30": f32(vp.Translate[0]),
			"ViewportMatrixElementm31": f32(vp.Translate[1]),
			"ViewportMatrixElementm32": f32(vp.Translate[2]),
			"XMinClipGuardband":        f32(-guardband),
			"XMaxClipGuardband":        f32(guardband),
			"YMinClipGuardband":        f32(-guardband),
			"YMaxClipGuardband":        f32(guardband),
			"XMinViewPort":             f32(vp.Translate[0] - xext),
			"XMaxViewPort":             f32(vp.Translate[0] + xext - 1),
			"YMinViewPort":             f32(vp.Translate[1] - yext),
			"YMaxViewPort":             f32(vp.Translate[1] + yext - 1),
		})...)
	}

	ccOff, err := c.Upload.Upload(cc, upload.AlignViewport)
	if err != nil {
		return err
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_VIEWPORT_STATE_POINTERS_CC").Pack(cmds.F{
		"CCViewportPointer": uint64(ccOff) >> 5,
	})...)
	sfOff, err := c.Upload.Upload(sf, upload.AlignViewport)
	if err != nil {
		return err
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_VIEWPORT_STATE_POINTERS_SF_CLIP").Pack(cmds.F{
		"SFClipViewportPointer": uint64(sfOff) >> 6,
	})...)
	c.State.Mask.Clear(state.DirtyViewports)
	return nil
}

const guardband = 32768

// emitURB splits the URB between the four vertex-pipeline stages:
// push constants first, then half for the VS and a sixth for each of
// HS, DS and GS.
func (c *Context) emitURB(was *state.DirtyMask) {
	if !was.Test(state.DirtyURB) {
		return
	}
	push := 32
	if c.Inf.URBSizeKB <= 2*push {
		push = c.Inf.URBSizeKB / 4
	}
	avail := c.Inf.URBSizeKB - push
	sizes := [4]int{avail / 2, avail / 6, avail / 6, avail / 6}

	const allocKB = 8 // start addresses count 8KB chunks
	names := [4]string{"3DSTATE_URB_VS", "3DSTATE_URB_HS", "3DSTATE_URB_DS", "3DSTATE_URB_GS"}
	start := push
	for i, name := range names {
		// 128-byte entries throughout.
		entries := sizes[i] * 1024 / 128
		c.Batch.Emit(c.Set.Lookup(name).Pack(cmds.F{
			"URBStartingAddress":     uint64(start / allocKB),
			"URBEntryAllocationSize": 1,
			"NumberOfURBEntries":     uint64(entries),
		})...)
		start += sizes[i]
	}
	c.State.Mask.Clear(state.DirtyURB)
}

func (c *Context) emitBlend(was *state.DirtyMask) error {
	if !was.Test(state.DirtyBlend) || c.State.Blend == nil {
		return nil
	}
	off, err := c.Upload.Upload(c.State.Blend.Record, upload.AlignViewport)
	if err != nil {
		return err
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_BLEND_STATE_POINTERS").Pack(cmds.F{
		"BlendStatePointer":      uint64(off) >> 6,
		"BlendStatePointerValid": 1,
	})...)
	c.State.Mask.Clear(state.DirtyBlend)
	return nil
}

func (c *Context) emitColorCalc(was *state.DirtyMask) error {
	if !was.Test(state.DirtyColorCalc) {
		return nil
	}
	st := c.State
	f := cmds.F{
		"StencilReferenceValue":         uint64(st.StencilRef[0]),
		"BackfaceStencilReferenceValue": uint64(st.StencilRef[1]),
		"BlendConstantColorRed":         f32(st.BlendColor[0]),
		"BlendConstantColorGreen":       f32(st.BlendColor[1]),
		"BlendConstantColorBlue":        f32(st.BlendColor[2]),
		"BlendConstantColorAlpha":       f32(st.BlendColor[3]),
	}
	if st.DSA != nil {
		f["AlphaReferenceValue"] = f32(st.DSA.AlphaRefValue)
	}
	off, err := c.Upload.Upload(c.Set.Lookup("COLOR_CALC_STATE").Pack(f), upload.AlignViewport)
	if err != nil {
		return err
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_CC_STATE_POINTERS").Pack(cmds.F{
		"ColorCalcStatePointer":      uint64(off) >> 6,
		"ColorCalcStatePointerValid": 1,
	})...)
	c.State.Mask.Clear(state.DirtyColorCalc)
	return nil
}

// emitPushConstants emits a 3DSTATE_CONSTANT_* per stage that needs
// one. Stages with nothing to push are coalesced into a single
// CONSTANT_ALL on generations that have it.
func (c *Context) emitPushConstants(was *state.DirtyMask) {
	st := c.State
	rebind := c.Inf.Has(devinfo.WaReemitConstantsAfterBindingTable) &&
		was.AnyStage(state.StageDirtyBindings)

	var coalesce uint64
	for i, stage := range drawStages {
		if !was.TestStage(stage, state.StageDirtyConstants) && !rebind {
			continue
		}
		var ranges []encoder.PushRange
		if p := st.Programs[stage]; p != nil {
			ranges = p.Data.PushRanges
		}
		if len(ranges) == 0 && c.Inf.HasConstantAll {
			coalesce |= 1 << uint(i)
			st.Mask.ClearStage(stage, state.StageDirtyConstants)
			continue
		}
		f := cmds.F{}
		for j, r := range ranges {
			if j == 4 {
				break
			}
			cbs := st.ConstantBuffers[stage]
			if int(r.Buffer) >= len(cbs) {
				continue
			}
			cb := cbs[r.Buffer]
			addr := c.Resources.Address(cb.Buffer) + uint64(cb.Offset) + uint64(r.Offset)<<5
			f[fmt.Sprintf("ReadLength%d", j)] = uint64(r.Length)
			f[fmt.Sprintf("Buffer%d", j)] = addr
			c.Ledger.Use(cb.Buffer, false, sync.OtherRead)
		}
		c.Batch.Emit(c.Set.Lookup("3DSTATE_CONSTANT_"+stage.String()).Pack(f)...)
		st.Mask.ClearStage(stage, state.StageDirtyConstants)
	}
	if coalesce != 0 {
		dw := c.Set.Lookup("3DSTATE_CONSTANT_ALL").Pack(cmds.F{
			"EnabledStages": coalesce,
		})
		c.Batch.Emit(dw...)
	}
}

func (c *Context) emitBindingTables(was *state.DirtyMask) error {
	st := c.State
	for _, stage := range drawStages {
		if !was.TestStage(stage, state.StageDirtyBindings) {
			continue
		}
		var table []uint32
		for _, view := range st.SamplerViews[stage] {
			table = append(table, view.SurfaceOffset)
			c.Ledger.Use(view.Buffer, false, sync.RenderTargetRead)
		}
		for _, buf := range st.ShaderBuffers[stage] {
			table = append(table, buf.SurfaceOffset)
			if buf.Writable {
				c.Ledger.Use(buf.Buffer, true, sync.OtherWrite)
			} else {
				c.Ledger.Use(buf.Buffer, false, sync.OtherRead)
			}
		}
		st.Mask.ClearStage(stage, state.StageDirtyBindings)
		if len(table) == 0 {
			continue
		}
		off, err := c.Upload.Upload(table, upload.AlignState)
		if err != nil {
			return err
		}
		c.bindingTables[stage] = off
		c.Batch.Emit(c.Set.Lookup("3DSTATE_BINDING_TABLE_POINTERS_"+stage.String()).Pack(cmds.F{
			"Pointer": uint64(off) >> 5,
		})...)
	}
	return nil
}

// emitSamplers uploads the stage's SAMPLER_STATE records contiguously,
// patching each border color pointer in on the way out.
func (c *Context) emitSamplers(was *state.DirtyMask) error {
	st := c.State
	layout := c.Set.Lookup("SAMPLER_STATE")
	for _, stage := range drawStages {
		if !was.TestStage(stage, state.StageDirtySamplers) {
			continue
		}
		st.Mask.ClearStage(stage, state.StageDirtySamplers)
		samplers := st.Samplers[stage]
		if len(samplers) == 0 {
			continue
		}
		var table []uint32
		for _, s := range samplers {
			if s == nil {
				table = append(table, make([]uint32, layout.Length)...)
				continue
			}
			border := []uint32{
				uint32(f32(s.BorderColor[0])),
				uint32(f32(s.BorderColor[1])),
				uint32(f32(s.BorderColor[2])),
				uint32(f32(s.BorderColor[3])),
			}
			bcOff, err := c.Upload.Upload(border, upload.AlignViewport)
			if err != nil {
				return err
			}
			rec := make([]uint32, layout.Length)
			copy(rec, s.Record)
			cmds.Merge(rec, layout.Pack(cmds.F{
				"BorderColorPointer": uint64(bcOff) >> 5,
			}))
			table = append(table, rec...)
		}
		off, err := c.Upload.Upload(table, upload.AlignState)
		if err != nil {
			return err
		}
		c.samplerTables[stage] = off
		c.Batch.Emit(c.Set.Lookup("3DSTATE_SAMPLER_STATE_POINTERS_"+stage.String()).Pack(cmds.F{
			"Pointer": uint64(off) >> 5,
		})...)
	}
	return nil
}

func (c *Context) emitMultisample(was *state.DirtyMask) {
	st := c.State
	if was.Test(state.DirtyMultisample) {
		c.Batch.Emit(c.Set.Lookup("3DSTATE_MULTISAMPLE").Pack(cmds.F{
			"NumberOfMultisamples": log2(st.Framebuffer.Samples),
		})...)
		st.Mask.Clear(state.DirtyMultisample)
	}
	if was.Test(state.DirtySampleMask) {
		c.Batch.Emit(c.Set.Lookup("3DSTATE_SAMPLE_MASK").Pack(cmds.F{
			"SampleMask": uint64(st.SampleMask & 0xffff),
		})...)
		st.Mask.Clear(state.DirtySampleMask)
	}
}

// emitPrograms merges the draw-time fields into each dirty stage's
// prepacked packet. A stage without a program gets its disable packet.
func (c *Context) emitPrograms(was *state.DirtyMask) {
	st := c.State
	for _, stage := range drawStages {
		if !was.TestStage(stage, state.StageDirtyProgram) {
			continue
		}
		st.Mask.ClearStage(stage, state.StageDirtyProgram)
		p := st.Programs[stage]
		if p == nil {
			c.Batch.Emit(c.Set.Lookup("3DSTATE_"+stage.String()).Pack(cmds.F{})...)
			if stage == encoder.StageFragment {
				c.Batch.Emit(c.Set.Lookup("3DSTATE_PS_EXTRA").Pack(cmds.F{})...)
			}
			continue
		}
		late := cmds.F{}
		if p.Data.ScratchSize > 0 {
			late["PerThreadScratchSpace"] = scratchEncode(p.Data.ScratchSize)
			late["ScratchSpaceBasePointer"] = c.scratchFor(stage) >> 10
		}
		if stage == encoder.StageFragment {
			late["DispatchGRFStartRegisterConstantData0"] = uint64(p.Data.DispatchGRF[0])
			late["DispatchGRFStartRegisterConstantData1"] = uint64(p.Data.DispatchGRF[1])
			late["DispatchGRFStartRegisterConstantData2"] = uint64(p.Data.DispatchGRF[2])
		}
		c.Batch.Emit(p.Tmpl.Emit(late)...)
		if stage == encoder.StageFragment {
			c.Batch.Emit(p.Extra.Emit(cmds.F{})...)
		}
	}
}

// scratchFor carves a fixed per-stage slice out of the scratch pool.
func (c *Context) scratchFor(stage encoder.Stage) uint64 {
	return c.ScratchAddr + uint64(stage)<<16
}

func (c *Context) emitStreamout(was *state.DirtyMask) error {
	st := c.State
	if was.Test(state.DirtySOTargets) {
		layout := c.Set.Lookup("3DSTATE_SO_BUFFER")
		for i := 0; i < 4; i++ {
			f := cmds.F{"SOBufferIndex": uint64(i)}
			if i < len(st.SOTargets) && st.SOTargets[i].Buffer != 0 {
				tgt := st.SOTargets[i]
				addr := c.Resources.Address(tgt.Buffer) + uint64(tgt.Offset)
				f["SOBufferEnable"] = 1
				f["SurfaceBaseAddress"] = addr >> 2
				f["SurfaceSize"] = uint64(tgt.Size>>2) - 1
				c.Ledger.Use(tgt.Buffer, true, sync.OtherWrite)
			}
			c.Batch.Emit(layout.Pack(f)...)
		}
		st.Mask.Clear(state.DirtySOTargets)
	}
	if was.Test(state.DirtySODecls) {
		if m := c.soMap(); m != nil {
			d := so.Build(c.Set, m)
			c.Batch.Emit(d.Packet...)
			c.Batch.Emit(so.StreamoutPacket(c.Set, m, len(st.SOTargets) > 0, false)...)
		} else {
			c.Batch.Emit(c.Set.Lookup("3DSTATE_STREAMOUT").Pack(cmds.F{})...)
		}
		st.Mask.Clear(state.DirtySODecls)
	}
	return nil
}

// soMap returns the routing of the last enabled geometry stage.
func (c *Context) soMap() *encoder.SOMap {
	for _, stage := range []encoder.Stage{
		encoder.StageGeometry, encoder.StageTessEval, encoder.StageVertex,
	} {
		if p := c.State.Programs[stage]; p != nil {
			if p.Data.SO != nil {
				return p.Data.SO
			}
			return nil
		}
	}
	return nil
}

// emitRasterizer merges the dynamic fields into the rasterizer CSO's
// CLIP, SF and WM fragments. A fragment program change re-emits WM for
// its barycentric modes, so all three ride the same walk slot.
func (c *Context) emitRasterizer(was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyRasterizer) &&
		!was.TestStage(encoder.StageFragment, state.StageDirtyProgram) {
		return
	}
	r := st.Rasterizer
	if r == nil {
		return
	}
	maxVP := uint64(0)
	if n := len(st.Viewports); n > 0 {
		maxVP = uint64(n - 1)
	}
	c.Batch.Emit(r.Clip.Emit(cmds.F{
		"ClipEnable":               1,
		"ViewportXYClipTestEnable": b2u(!r.ScissorEnable),
		"MaximumVPIndex":           maxVP,
		"ForceZeroRTAIndexEnable":  1,
	})...)
	c.Batch.Emit(r.SF.Emit(cmds.F{
		"ViewportTransformEnable": 1,
	})...)
	c.Batch.Emit(r.Raster.Emit(cmds.F{})...)

	bary := uint64(0)
	early := uint64(0)
	if ps := st.Programs[encoder.StageFragment]; ps != nil {
		bary = uint64(ps.Data.BarycentricModes)
		if ps.Data.KillsPixel && st.DSA != nil &&
			(st.DSA.DepthWrites || st.DSA.StencilWrites) {
			early = 1 // PSEXEC: the kill must resolve before depth writes
		}
	}
	c.Batch.Emit(r.WM.Emit(cmds.F{
		"BarycentricInterpolationMode": bary,
		"EarlyDepthStencilControl":     early,
	})...)
	st.Mask.Clear(state.DirtyRasterizer)
}

func (c *Context) emitPSBlend(was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyBlend) &&
		!was.Test(state.DirtyDepthStencilAlpha) &&
		!was.Test(state.DirtyFramebuffer) {
		return
	}
	b := st.Blend
	if b == nil {
		return
	}
	alpha := st.DSA != nil && st.DSA.AlphaEnabled
	c.Batch.Emit(b.PSBlend.Emit(cmds.F{
		"HasWriteableRT":  b2u(st.Framebuffer.NumColor > 0),
		"AlphaTestEnable": b2u(alpha),
	})...)
}

func (c *Context) emitDepthStencil(was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyDepthStencilAlpha) || st.DSA == nil {
		return
	}
	c.Batch.Emit(st.DSA.WMDS.Emit(cmds.F{
		"StencilReferenceValue":         uint64(st.StencilRef[0]),
		"BackfaceStencilReferenceValue": uint64(st.StencilRef[1]),
	})...)
	st.Mask.Clear(state.DirtyDepthStencilAlpha)
}

func (c *Context) emitScissors(was *state.DirtyMask) error {
	st := c.State
	if !was.Test(state.DirtyScissors) || len(st.Scissors) == 0 {
		return nil
	}
	layout := c.Set.Lookup("SCISSOR_RECT")
	var recs []uint32
	for _, s := range st.Scissors {
		recs = append(recs, layout.Pack(cmds.F{
			"ScissorRectangleXMin": uint64(s.MinX),
			"ScissorRectangleYMin": uint64(s.MinY),
			"ScissorRectangleXMax": uint64(s.MaxX),
			"ScissorRectangleYMax": uint64(s.MaxY),
		})...)
	}
	off, err := c.Upload.Upload(recs, upload.AlignViewport)
	if err != nil {
		return err
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_SCISSOR_STATE_POINTERS").Pack(cmds.F{
		"ScissorRectPointer": uint64(off) >> 5,
	})...)
	st.Mask.Clear(state.DirtyScissors)
	return nil
}

// Depth buffer surface types.
const (
	surfType2D   = 1
	surfTypeNull = 7
)

func (c *Context) emitDepthBuffer(was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyFramebuffer) {
		return
	}
	fb := st.Framebuffer
	for i := 0; i < fb.NumColor; i++ {
		if fb.Color[i] != 0 {
			c.Ledger.Use(fb.Color[i], true, sync.RenderTargetWrite)
		}
	}

	f := cmds.F{"SurfaceType": surfTypeNull}
	if fb.Depth != 0 {
		f["SurfaceType"] = surfType2D
		f["SurfaceFormat"] = uint64(fb.DepthFormat)
		f["SurfacePitch"] = uint64(fb.DepthPitch) - 1
		f["SurfaceBaseAddress"] = c.Resources.Address(fb.Depth)
		if st.DSA != nil {
			f["DepthWriteEnable"] = b2u(st.DSA.DepthWrites)
			f["StencilWriteEnable"] = b2u(st.DSA.StencilWrites)
		}
		c.Ledger.Use(fb.Depth, true, sync.DepthWrite)
	}
	if fb.Width > 0 {
		f["Width"] = uint64(fb.Width) - 1
		f["Height"] = uint64(fb.Height) - 1
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_DEPTH_BUFFER").Pack(f)...)

	sf := cmds.F{}
	if fb.Stencil != 0 {
		sf["StencilBufferEnable"] = 1
		sf["SurfacePitch"] = uint64(fb.StencilPitch) - 1
		sf["SurfaceBaseAddress"] = c.Resources.Address(fb.Stencil)
		c.Ledger.Use(fb.Stencil, true, sync.DepthWrite)
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_STENCIL_BUFFER").Pack(sf)...)
	st.Mask.Clear(state.DirtyFramebuffer)
}

func (c *Context) emitStipples(was *state.DirtyMask) {
	st := c.State
	if was.Test(state.DirtyPolyStipple) {
		c.Batch.Emit(c.Set.Lookup("3DSTATE_POLY_STIPPLE_OFFSET").Pack(cmds.F{})...)
		f := cmds.F{}
		for i, row := range st.PolyStipple {
			f[fmt.Sprintf("PatternRow%d", i)] = uint64(row)
		}
		c.Batch.Emit(c.Set.Lookup("3DSTATE_POLY_STIPPLE_PATTERN").Pack(f)...)
		st.Mask.Clear(state.DirtyPolyStipple)
	}
	if was.Test(state.DirtyLineStipple) && st.Rasterizer != nil {
		c.Batch.Emit(st.Rasterizer.LineStipple...)
		st.Mask.Clear(state.DirtyLineStipple)
	}
}

func (c *Context) emitTopology(was *state.DirtyMask) {
	if !was.Test(state.DirtyTopology) {
		return
	}
	c.Batch.Emit(c.Set.Lookup("3DSTATE_VF_TOPOLOGY").Pack(cmds.F{
		"PrimitiveTopologyType": uint64(c.State.Topology),
	})...)
	c.State.Mask.Clear(state.DirtyTopology)
}

// emitVertexBuffers writes the buffer packet. On generations whose VF
// cache is keyed by the low 32 address bits only, a slot whose high
// bits changed needs a VF cache invalidate first.
func (c *Context) emitVertexBuffers(ctx context.Context, was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyVertexBuffers) || len(st.VertexBuffers) == 0 {
		return
	}
	rec := c.Set.Lookup("VERTEX_BUFFER_STATE")
	var records []uint32
	invalidate := false
	for i, vb := range st.VertexBuffers {
		addr := c.Resources.Address(vb.Buffer) + uint64(vb.Offset)
		size := c.Resources.Size(vb.Buffer) - vb.Offset
		if c.Inf.VFCacheAddressOnly {
			hi := addr >> 32
			if old, ok := c.vbAddrHi[uint8(i)]; ok && old != hi {
				invalidate = true
			}
			c.vbAddrHi[uint8(i)] = hi
		}
		records = append(records, rec.Pack(cmds.F{
			"VertexBufferIndex":     uint64(i),
			"AddressModifyEnable":   1,
			"BufferPitch":           uint64(vb.Stride),
			"BufferStartingAddress": addr,
			"BufferSize":            uint64(size),
		})...)
		c.Ledger.Use(vb.Buffer, false, sync.OtherRead)
	}
	if invalidate {
		c.Sync.InvalidateVFCache(ctx)
	}
	head := c.Set.Lookup("3DSTATE_VERTEX_BUFFERS").Pack(cmds.F{})
	head[0] |= uint32(1 + len(records) - 2)
	c.Batch.Emit(head...)
	c.Batch.Emit(records...)
	st.Mask.Clear(state.DirtyVertexBuffers)
}

// Vertex element component controls.
const (
	compNothing  = 0
	compStoreSrc = 1
	comp0        = 2
	comp1Int     = 4
	compVertexID = 6
	compInstID   = 7
)

// emitVertexElements writes the element packet, appending a generated
// element for draw-id / base-instance on generations without the SGVS
// bypass.
func (c *Context) emitVertexElements(was *state.DirtyMask) {
	st := c.State
	if !was.Test(state.DirtyVertexElements) || st.VertexElements == nil {
		return
	}
	records := make([]uint32, len(st.VertexElements.Records))
	copy(records, st.VertexElements.Records)

	if vs := st.Programs[encoder.StageVertex]; vs != nil && !c.Inf.HasSGVBypass {
		needDraw := vs.Data.UsesSGVDrawID
		needBase := vs.Data.UsesSGVBaseInst
		if needDraw || needBase {
			f := cmds.F{
				"Valid":             1,
				"Component0Control": comp0,
				"Component1Control": comp0,
				"Component2Control": comp0,
				"Component3Control": comp0,
			}
			if needBase {
				f["Component0Control"] = compInstID
			}
			if needDraw {
				f["Component1Control"] = compVertexID
			}
			records = append(records, c.Set.Lookup("VERTEX_ELEMENT_STATE").Pack(f)...)
		}
	}

	head := c.Set.Lookup("3DSTATE_VERTEX_ELEMENTS").Pack(cmds.F{})
	head[0] |= uint32(1 + len(records) - 2)
	c.Batch.Emit(head...)
	c.Batch.Emit(records...)
	st.Mask.Clear(state.DirtyVertexElements)
}

// emitVFState covers the SGVS bypass and the cut index.
func (c *Context) emitVFState(was *state.DirtyMask) {
	st := c.State
	if c.Set.Has("3DSTATE_VF_SGVS") && c.Inf.HasSGVBypass &&
		was.TestStage(encoder.StageVertex, state.StageDirtyProgram) {
		f := cmds.F{}
		if vs := st.Programs[encoder.StageVertex]; vs != nil {
			slot := uint64(0)
			if st.VertexElements != nil {
				slot = uint64(st.VertexElements.Count)
			}
			if vs.Data.UsesSGVBaseInst {
				f["InstanceIDEnable"] = 1
				f["InstanceIDComponentNumber"] = 0
				f["InstanceIDElementOffset"] = slot
			}
			if vs.Data.UsesSGVDrawID {
				f["VertexIDEnable"] = 1
				f["VertexIDComponentNumber"] = 1
				f["VertexIDElementOffset"] = slot
			}
		}
		c.Batch.Emit(c.Set.Lookup("3DSTATE_VF_SGVS").Pack(f)...)
	}
	if was.Test(state.DirtyPrimitiveRestart) && c.Set.Has("3DSTATE_VF") {
		c.Batch.Emit(c.Set.Lookup("3DSTATE_VF").Pack(cmds.F{
			"IndexedDrawCutIndexEnable": b2u(st.PrimitiveRestart),
			"CutIndex":                  uint64(st.RestartIndex),
		})...)
		st.Mask.Clear(state.DirtyPrimitiveRestart)
	}
}

// csChicken1 controls mid-draw preemption.
const csChicken1 = 0x2580

// emitPreemption toggles object-level preemption off while stippled
// rendering is bound, per the gen9 erratum.
func (c *Context) emitPreemption() {
	if !c.Inf.Has(devinfo.WaPreemptionDisableForWM) {
		return
	}
	st := c.State
	want := st.Rasterizer != nil &&
		(st.Rasterizer.PolyStippleEnable || st.Rasterizer.LineStippleEnable)
	if want == c.preemptionOff {
		return
	}
	c.preemptionOff = want
	data := uint64(1) << 16 // mask bit
	if want {
		data |= 1
	}
	c.Batch.Emit(c.Set.Lookup("MI_LOAD_REGISTER_IMM").Pack(cmds.F{
		"RegisterOffset": csChicken1 >> 2,
		"DataDWord":      data,
	})...)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func f32(f float32) uint64 {
	return uint64(math.Float32bits(f))
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// scratchEncode turns a per-thread scratch size in bytes into the
// log2(KB) field encoding.
func scratchEncode(size uint32) uint64 {
	n := uint64(0)
	for s := size >> 10; s > 1; s >>= 1 {
		n++
	}
	return n
}

func log2(v uint8) uint64 {
	n := uint64(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
