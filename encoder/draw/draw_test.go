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

package draw_test

import (
	"context"
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/draw"
	"github.com/atari-vcs/mesa-sub000/encoder/state"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

type bumpAlloc struct {
	head uint32
}

func (b *bumpAlloc) Alloc(size, align uint32) (encoder.Allocation, error) {
	b.head = (b.head + align - 1) &^ (align - 1)
	a := encoder.Allocation{CPU: make([]uint32, size/4), Buffer: 99, Offset: b.head}
	b.head += size
	return a, nil
}

func (b *bumpAlloc) Generation() uint64 { return 0 }

type resMap map[encoder.BufferID]struct {
	addr uint64
	size uint32
}

func (m resMap) Address(b encoder.BufferID) uint64 { return m[b].addr }
func (m resMap) Size(b encoder.BufferID) uint32    { return m[b].size }

const (
	bufColor   = encoder.BufferID(10)
	bufDepth   = encoder.BufferID(11)
	bufVerts   = encoder.BufferID(20)
	bufVertsHi = encoder.BufferID(21)
)

func newCtx(gen devinfo.Gen) *draw.Context {
	rm := resMap{
		bufColor:   {addr: 0x100000, size: 1 << 20},
		bufDepth:   {addr: 0x200000, size: 1 << 20},
		bufVerts:   {addr: 0x300000, size: 4096},
		bufVertsHi: {addr: 1<<32 | 0x300000, size: 4096},
	}
	c := draw.New(devinfo.Lookup(gen, 0), &bumpAlloc{}, rm)
	c.Binder = 50
	c.WorkaroundBuffer = 51
	c.WorkaroundAddr = 0x8000
	c.ScratchAddr = 0x40000000
	return c
}

// bindBaseline sets up a complete drawable state.
func bindBaseline(ctx context.Context, t *testing.T, c *draw.Context) {
	st := c.State
	blend, err := st.CreateBlend(&encoder.BlendState{
		RT: [8]encoder.RTBlend{{
			BlendEnable:  true,
			RGBSrcFactor: encoder.FactorSrcAlpha, RGBDstFactor: encoder.FactorInvSrcAlpha,
			AlphaSrcFactor: encoder.FactorSrcAlpha, AlphaDstFactor: encoder.FactorInvSrcAlpha,
			ColorMask: 0xf,
		}},
	})
	assert.For(ctx, "blend").ThatError(err).Succeeded()
	st.BindBlend(blend)

	dsa, err := st.CreateDSA(&encoder.DepthStencilAlphaState{
		DepthEnabled: true, DepthWriteMask: true, DepthFunc: encoder.CompareLEqual,
	})
	assert.For(ctx, "dsa").ThatError(err).Succeeded()
	st.BindDSA(dsa)

	rast, err := st.CreateRasterizer(&encoder.RasterizerState{
		Cull: encoder.CullBack, FrontCCW: true, DepthClipEnable: true, LineWidth: 1,
	})
	assert.For(ctx, "rasterizer").ThatError(err).Succeeded()
	st.BindRasterizer(rast)

	ve, err := st.CreateVertexElements(&encoder.VertexElementsState{
		Elements: []encoder.VertexElement{{Format: 0x55}},
	})
	assert.For(ctx, "elements").ThatError(err).Succeeded()
	st.BindVertexElements(ve)

	st.SetProgram(encoder.StageVertex, st.NewProgram(encoder.StageVertex, encoder.ProgramData{
		KSP:            [3]uint32{0x4000},
		DispatchEnable: [3]bool{true, false, false},
		URBReadLength:  2,
	}))
	st.SetProgram(encoder.StageFragment, st.NewProgram(encoder.StageFragment, encoder.ProgramData{
		KSP:            [3]uint32{0x8000},
		DispatchEnable: [3]bool{true, true, false},
		DispatchGRF:    [3]uint8{2, 4, 0},
	}))

	st.SetViewports([]encoder.Viewport{{
		Scale:     [3]float32{320, -240, 0.5},
		Translate: [3]float32{320, 240, 0.5},
	}})
	st.SetScissors([]encoder.ScissorRect{{MaxX: 639, MaxY: 479}})
	st.SetFramebuffer(encoder.Framebuffer{
		Width: 640, Height: 480, Samples: 1,
		NumColor: 1, Color: [8]encoder.BufferID{bufColor},
		Depth: bufDepth, DepthFormat: 1, DepthPitch: 2560,
	})
	st.SetVertexBuffers([]encoder.VertexBufferBinding{{Buffer: bufVerts, Stride: 16}})
}

var triangles = &encoder.DrawInfo{Topology: 4, VertexCount: 3, InstanceCount: 1}

// findPacket returns the offsets of every full-header match.
func findPacket(dw []uint32, set *cmds.Set, name string) []int {
	h := set.Lookup(name).Header
	var out []int
	for i, v := range dw {
		if v == h && v != 0 {
			out = append(out, i)
		}
	}
	return out
}

func TestFirstDrawEmitsBaseline(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)

	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()
	dw := c.Batch.DWords()

	for _, name := range []string{
		"3DSTATE_VIEWPORT_STATE_POINTERS_CC",
		"3DSTATE_VIEWPORT_STATE_POINTERS_SF_CLIP",
		"3DSTATE_URB_VS",
		"3DSTATE_BLEND_STATE_POINTERS",
		"3DSTATE_CC_STATE_POINTERS",
		"3DSTATE_MULTISAMPLE",
		"3DSTATE_SAMPLE_MASK",
		"3DSTATE_VS",
		"3DSTATE_PS",
		"3DSTATE_PS_EXTRA",
		"3DSTATE_PS_BLEND",
		"3DSTATE_WM_DEPTH_STENCIL",
		"3DSTATE_CLIP",
		"3DSTATE_SF",
		"3DSTATE_RASTER",
		"3DSTATE_WM",
		"3DSTATE_SCISSOR_STATE_POINTERS",
		"3DSTATE_DEPTH_BUFFER",
		"3DSTATE_VF_TOPOLOGY",
		"3DPRIMITIVE",
	} {
		assert.For(ctx, "has %s", name).That(len(findPacket(dw, c.Set, name)) > 0).Equals(true)
	}

	// Global dirty bits covered by the baseline are now clean.
	for _, d := range []state.Dirty{
		state.DirtyBlend, state.DirtyColorCalc, state.DirtyDepthStencilAlpha,
		state.DirtyRasterizer, state.DirtyViewports, state.DirtyScissors,
		state.DirtyFramebuffer, state.DirtyURB, state.DirtyVertexBuffers,
		state.DirtyVertexElements, state.DirtyTopology,
	} {
		assert.For(ctx, "clean %d", d).That(c.State.Mask.Test(d)).Equals(false)
	}
}

// A draw with nothing dirty emits only the primitive.
func TestCleanDrawEmitsPrimitiveOnly(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "first").ThatError(c.Draw(ctx, triangles)).Succeeded()

	mark := c.Batch.Len()
	assert.For(ctx, "second").ThatError(c.Draw(ctx, triangles)).Succeeded()
	delta := c.Batch.DWords()[mark:]

	prim := c.Set.Lookup("3DPRIMITIVE")
	assert.For(ctx, "size").That(len(delta)).Equals(prim.Length)
	assert.For(ctx, "header").That(delta[0]).Equals(prim.Header)
	assert.For(ctx, "count").That(prim.Field(delta, "VertexCountPerInstance")).Equals(uint64(3))
}

// Binding a blend CSO that differs only in alpha-to-coverage re-emits
// the blend pointer, the PS blend merge and the primitive — nothing
// else.
func TestBlendOnlyDelta(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "first").ThatError(c.Draw(ctx, triangles)).Succeeded()

	blend, err := c.State.CreateBlend(&encoder.BlendState{
		AlphaToCoverage: true,
		RT: [8]encoder.RTBlend{{
			BlendEnable:  true,
			RGBSrcFactor: encoder.FactorSrcAlpha, RGBDstFactor: encoder.FactorInvSrcAlpha,
			AlphaSrcFactor: encoder.FactorSrcAlpha, AlphaDstFactor: encoder.FactorInvSrcAlpha,
			ColorMask: 0xf,
		}},
	})
	assert.For(ctx, "create").ThatError(err).Succeeded()
	c.State.BindBlend(blend)

	mark := c.Batch.Len()
	assert.For(ctx, "second").ThatError(c.Draw(ctx, triangles)).Succeeded()
	delta := c.Batch.DWords()[mark:]

	ptrs := c.Set.Lookup("3DSTATE_BLEND_STATE_POINTERS")
	psb := c.Set.Lookup("3DSTATE_PS_BLEND")
	prim := c.Set.Lookup("3DPRIMITIVE")
	assert.For(ctx, "size").That(len(delta)).Equals(ptrs.Length + psb.Length + prim.Length)
	assert.For(ctx, "pointer first").That(delta[0]).Equals(ptrs.Header)
	assert.For(ctx, "valid").That(ptrs.Field(delta[:2], "BlendStatePointerValid")).Equals(uint64(1))
	assert.For(ctx, "ps blend").That(delta[2]).Equals(psb.Header)
	assert.For(ctx, "a2c").That(psb.Field(delta[2:4], "AlphaToCoverageEnable")).Equals(uint64(1))
	assert.For(ctx, "writeable rt").That(psb.Field(delta[2:4], "HasWriteableRT")).Equals(uint64(1))
	assert.For(ctx, "primitive last").That(delta[4]).Equals(prim.Header)
}

func TestScratchMergedIntoProgram(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	c.State.SetProgram(encoder.StageVertex, c.State.NewProgram(encoder.StageVertex,
		encoder.ProgramData{
			KSP:            [3]uint32{0x4000},
			DispatchEnable: [3]bool{true, false, false},
			ScratchSize:    2048,
		}))

	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()
	dw := c.Batch.DWords()
	vs := c.Set.Lookup("3DSTATE_VS")
	at := findPacket(dw, c.Set, "3DSTATE_VS")
	assert.For(ctx, "found").That(len(at)).Equals(1)
	pkt := dw[at[0] : at[0]+vs.Length]
	assert.For(ctx, "scratch size").That(vs.Field(pkt, "PerThreadScratchSpace")).Equals(uint64(1))
	assert.For(ctx, "scratch base").That(vs.Field(pkt, "ScratchSpaceBasePointer")).
		Equals(uint64(0x40000000) >> 10)
}

func TestPSDispatchGRFMerge(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()

	dw := c.Batch.DWords()
	ps := c.Set.Lookup("3DSTATE_PS")
	at := findPacket(dw, c.Set, "3DSTATE_PS")
	assert.For(ctx, "found").That(len(at)).Equals(1)
	pkt := dw[at[0] : at[0]+ps.Length]
	assert.For(ctx, "grf 0").That(ps.Field(pkt, "DispatchGRFStartRegisterConstantData0")).Equals(uint64(2))
	assert.For(ctx, "grf 1").That(ps.Field(pkt, "DispatchGRFStartRegisterConstantData1")).Equals(uint64(4))
	assert.For(ctx, "ksp").That(ps.Field(pkt, "KernelStartPointer0")).Equals(uint64(0x8000) >> 6)
}

// Rebinding a vertex buffer whose address differs in the high 32 bits
// must insert a VF cache invalidate on address-keyed generations.
func TestVFCacheHighBitsInvalidate(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen12)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "first").ThatError(c.Draw(ctx, triangles)).Succeeded()

	c.State.SetVertexBuffers([]encoder.VertexBufferBinding{{Buffer: bufVertsHi, Stride: 16}})
	mark := c.Batch.Len()
	assert.For(ctx, "second").ThatError(c.Draw(ctx, triangles)).Succeeded()
	delta := c.Batch.DWords()[mark:]

	pc := c.Set.Lookup("PIPE_CONTROL")
	at := findPacket(delta, c.Set, "PIPE_CONTROL")
	assert.For(ctx, "pipe control").That(len(at)).Equals(1)
	pkt := delta[at[0] : at[0]+pc.Length]
	assert.For(ctx, "vf invalidate").That(pc.Field(pkt, "VFCacheInvalidationEnable")).Equals(uint64(1))

	// Same buffer again: no further invalidate.
	c.State.SetVertexBuffers([]encoder.VertexBufferBinding{{Buffer: bufVertsHi, Stride: 16}})
	mark = c.Batch.Len()
	assert.For(ctx, "third").ThatError(c.Draw(ctx, triangles)).Succeeded()
	at = findPacket(c.Batch.DWords()[mark:], c.Set, "PIPE_CONTROL")
	assert.For(ctx, "settled").That(len(at)).Equals(0)
}

// Gen9 must turn object preemption off while stippled rendering is
// bound and back on when it goes away.
func TestPreemptionToggle(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "first").ThatError(c.Draw(ctx, triangles)).Succeeded()
	assert.For(ctx, "no toggle yet").
		That(len(findPacket(c.Batch.DWords(), c.Set, "MI_LOAD_REGISTER_IMM"))).Equals(0)

	stippled, err := c.State.CreateRasterizer(&encoder.RasterizerState{
		LineStippleEnable: true, LineStipplePattern: 0x5555, LineWidth: 1,
	})
	assert.For(ctx, "create").ThatError(err).Succeeded()
	c.State.BindRasterizer(stippled)
	mark := c.Batch.Len()
	assert.For(ctx, "second").ThatError(c.Draw(ctx, triangles)).Succeeded()
	delta := c.Batch.DWords()[mark:]

	lri := c.Set.Lookup("MI_LOAD_REGISTER_IMM")
	at := findPacket(delta, c.Set, "MI_LOAD_REGISTER_IMM")
	assert.For(ctx, "toggled").That(len(at)).Equals(1)
	pkt := delta[at[0] : at[0]+lri.Length]
	assert.For(ctx, "disable bit").That(lri.Field(pkt, "DataDWord") & 1).Equals(uint64(1))
}

// Gen12 coalesces stages with no push ranges into one CONSTANT_ALL.
func TestConstantAllCoalescing(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen12)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()

	dw := c.Batch.DWords()
	all := c.Set.Lookup("3DSTATE_CONSTANT_ALL")
	// The stage enables ride in the header DWord; mask them off to find
	// the packet.
	var at []int
	for i, v := range dw {
		if v&^uint32(0x7fff) == all.Header {
			at = append(at, i)
		}
	}
	assert.For(ctx, "coalesced").That(len(at)).Equals(1)
	pkt := dw[at[0] : at[0]+all.Length]
	assert.For(ctx, "all five stages").That(all.Field(pkt, "EnabledStages")).Equals(uint64(0x1f))
	assert.For(ctx, "no per-stage packets").
		That(len(findPacket(dw, c.Set, "3DSTATE_CONSTANT_VS"))).Equals(0)
}

func TestSGVSBypass(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	c.State.SetProgram(encoder.StageVertex, c.State.NewProgram(encoder.StageVertex,
		encoder.ProgramData{
			KSP:             [3]uint32{0x4000},
			DispatchEnable:  [3]bool{true, false, false},
			UsesSGVBaseInst: true,
		}))

	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()
	dw := c.Batch.DWords()
	sgvs := c.Set.Lookup("3DSTATE_VF_SGVS")
	at := findPacket(dw, c.Set, "3DSTATE_VF_SGVS")
	assert.For(ctx, "present").That(len(at)).Equals(1)
	pkt := dw[at[0] : at[0]+sgvs.Length]
	assert.For(ctx, "instance id").That(sgvs.Field(pkt, "InstanceIDEnable")).Equals(uint64(1))
	assert.For(ctx, "slot").That(sgvs.Field(pkt, "InstanceIDElementOffset")).Equals(uint64(1))
}

func TestBaseAddressSequence(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)

	c.SetBaseAddresses(ctx, draw.BaseAddresses{
		General:      0x10000,
		SurfaceState: 0x20000,
		DynamicState: 0x30000,
	})
	dw := c.Batch.DWords()
	pcs := findPacket(dw, c.Set, "PIPE_CONTROL")
	sbas := findPacket(dw, c.Set, "STATE_BASE_ADDRESS")
	assert.For(ctx, "two pipe controls").That(len(pcs)).Equals(2)
	assert.For(ctx, "one sba").That(len(sbas)).Equals(1)
	assert.For(ctx, "flush before").That(pcs[0] < sbas[0]).Equals(true)
	assert.For(ctx, "invalidate after").That(sbas[0] < pcs[1]).Equals(true)

	pc := c.Set.Lookup("PIPE_CONTROL")
	pre := dw[pcs[0] : pcs[0]+pc.Length]
	post := dw[pcs[1] : pcs[1]+pc.Length]
	assert.For(ctx, "pre flushes rt").That(pre[0:2][0]).Equals(pc.Header)
	assert.For(ctx, "pre rt flush").That(pc.Field(pre, "RenderTargetCacheFlushEnable")).Equals(uint64(1))
	assert.For(ctx, "pre dc flush").That(pc.Field(pre, "DCFlushEnable")).Equals(uint64(1))
	assert.For(ctx, "post tex inv").That(pc.Field(post, "TextureCacheInvalidationEnable")).Equals(uint64(1))
	assert.For(ctx, "post state inv").That(pc.Field(post, "StateCacheInvalidationEnable")).Equals(uint64(1))

	sba := c.Set.Lookup("STATE_BASE_ADDRESS")
	pkt := dw[sbas[0] : sbas[0]+sba.Length]
	assert.For(ctx, "surface base").That(sba.Field(pkt, "SurfaceStateBaseAddress")).Equals(uint64(0x20000) >> 12)
	assert.For(ctx, "all dirty again").That(c.State.Mask.Test(state.DirtyBlend)).Equals(true)
}

func TestFlushBatchCycle(t *testing.T) {
	ctx := log.Testing(t)
	c := newCtx(devinfo.Gen9)
	bindBaseline(ctx, t, c)
	assert.For(ctx, "draw").ThatError(c.Draw(ctx, triangles)).Succeeded()

	entries := c.FlushBatch(ctx)
	assert.For(ctx, "residency").That(len(entries) > 0).Equals(true)
	found := false
	for _, e := range entries {
		if e.Buffer == bufColor {
			found = true
			assert.For(ctx, "rt writable").That(e.Writable).Equals(true)
		}
	}
	assert.For(ctx, "color target listed").That(found).Equals(true)

	dw := c.Batch.DWords()
	bbe := c.Set.Lookup("MI_BATCH_BUFFER_END")
	assert.For(ctx, "batch end").That(dw[len(dw)-1]).Equals(bbe.Header)
	assert.For(ctx, "ledger cleared").That(c.Ledger.Len()).Equals(0)
	assert.For(ctx, "all dirty").That(c.State.Mask.Test(state.DirtyURB)).Equals(true)

	// The next draw rebuilds the baseline from scratch.
	c.Batch.Reset()
	assert.For(ctx, "redraw").ThatError(c.Draw(ctx, triangles)).Succeeded()
	assert.For(ctx, "baseline again").
		That(len(findPacket(c.Batch.DWords(), c.Set, "3DSTATE_VS"))).Equals(1)
}
