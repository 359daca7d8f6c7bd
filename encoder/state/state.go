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

// Package state keeps the frontend-facing constant state objects and
// the dirty mask that drives re-emission. CSO creation prepacks every
// packet fragment derivable from the CSO inputs alone; binding swaps a
// context pointer and raises dirty bits.
package state

import (
	"math"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Tracker is the per-context state store: bound CSOs, dynamic state,
// and the dirty mask. All mutation happens on the context's own
// execution; nothing here is shared between contexts.
type Tracker struct {
	Inf  *devinfo.Info
	Set  *cmds.Set
	Mask DirtyMask

	Blend          *Blend
	DSA            *DepthStencilAlpha
	Rasterizer     *Rasterizer
	VertexElements *VertexElements
	Samplers       [encoder.StageCount][]*Sampler
	Programs       [encoder.StageCount]*Program

	Viewports   []encoder.Viewport
	Scissors    []encoder.ScissorRect
	Framebuffer encoder.Framebuffer
	BlendColor  [4]float32
	StencilRef  [2]uint8
	SampleMask  uint32

	VertexBuffers   []encoder.VertexBufferBinding
	ConstantBuffers [encoder.StageCount][]encoder.ConstantBuffer
	SamplerViews    [encoder.StageCount][]encoder.SamplerView
	ShaderBuffers   [encoder.StageCount][]encoder.ShaderBuffer
	SOTargets       []encoder.StreamOutputTarget

	Topology         uint8
	PrimitiveRestart bool
	RestartIndex     uint32
	PolyStipple      [32]uint32
}

// NewTracker returns a tracker with everything dirty, as a fresh
// hardware context preserves nothing.
func NewTracker(inf *devinfo.Info) *Tracker {
	t := &Tracker{Inf: inf, Set: cmds.For(inf), SampleMask: 0xffffffff}
	t.Mask.RaiseAll()
	return t
}

// Blend CSO: the BLEND_STATE indirect record plus the PS_BLEND packet
// fragment, both fully derived from the frontend blend state.
type Blend struct {
	AlphaToCoverage bool
	BlendEnables    uint8
	Record          []uint32
	PSBlend         cmds.Template
}

// CreateBlend prepacks a blend CSO.
func (t *Tracker) CreateBlend(bs *encoder.BlendState) (*Blend, error) {
	head := t.Set.Lookup("BLEND_STATE")
	entry := t.Set.Lookup("BLEND_STATE_ENTRY")

	b := &Blend{AlphaToCoverage: bs.AlphaToCoverage}
	b.Record = append(b.Record, head.Pack(cmds.F{
		"AlphaToCoverageEnable":       b2u(bs.AlphaToCoverage),
		"IndependentAlphaBlendEnable": b2u(independentAlpha(bs)),
		"ColorDitherEnable":           b2u(bs.DitherEnable),
	})...)
	for i := 0; i < 8; i++ {
		rt := bs.RT[0]
		if bs.IndependentBlendEnable {
			rt = bs.RT[i]
		}
		if rt.BlendEnable {
			b.BlendEnables |= 1 << i
		}
		b.Record = append(b.Record, entry.Pack(cmds.F{
			"ColorBufferBlendEnable":      b2u(rt.BlendEnable),
			"SourceBlendFactor":           hwBlendFactor(rt.RGBSrcFactor),
			"DestinationBlendFactor":      hwBlendFactor(rt.RGBDstFactor),
			"ColorBlendFunction":          hwBlendFunc(rt.RGBFunc),
			"SourceAlphaBlendFactor":      hwBlendFactor(rt.AlphaSrcFactor),
			"DestinationAlphaBlendFactor": hwBlendFactor(rt.AlphaDstFactor),
			"AlphaBlendFunction":          hwBlendFunc(rt.AlphaFunc),
			"WriteDisableRed":             b2u(rt.ColorMask&1 == 0),
			"WriteDisableGreen":           b2u(rt.ColorMask&2 == 0),
			"WriteDisableBlue":            b2u(rt.ColorMask&4 == 0),
			"WriteDisableAlpha":           b2u(rt.ColorMask&8 == 0),
			"LogicOpEnable":               b2u(bs.LogicOpEnable),
			"LogicOpFunction":             uint64(bs.LogicOp),
		})...)
	}

	rt0 := bs.RT[0]
	b.PSBlend = t.Set.Lookup("3DSTATE_PS_BLEND").Prepack(cmds.F{
		"AlphaToCoverageEnable":       b2u(bs.AlphaToCoverage),
		"ColorBufferBlendEnable":      b2u(rt0.BlendEnable),
		"SourceBlendFactor":           hwBlendFactor(rt0.RGBSrcFactor),
		"DestinationBlendFactor":      hwBlendFactor(rt0.RGBDstFactor),
		"SourceAlphaBlendFactor":      hwBlendFactor(rt0.AlphaSrcFactor),
		"DestinationAlphaBlendFactor": hwBlendFactor(rt0.AlphaDstFactor),
		"IndependentAlphaBlendEnable": b2u(independentAlpha(bs)),
	})
	return b, nil
}

func independentAlpha(bs *encoder.BlendState) bool {
	rt := bs.RT[0]
	return rt.AlphaFunc != rt.RGBFunc ||
		rt.AlphaSrcFactor != rt.RGBSrcFactor ||
		rt.AlphaDstFactor != rt.RGBDstFactor
}

// BindBlend swaps the bound blend CSO.
func (t *Tracker) BindBlend(b *Blend) {
	t.Blend = b
	t.Mask.Set(DirtyBlend)
}

// DeleteBlend frees the CPU side. In-flight GPU references are covered
// by the residency snapshot of the batch that used them.
func (t *Tracker) DeleteBlend(b *Blend) {
	if t.Blend == b {
		t.Blend = nil
	}
}

// DepthStencilAlpha CSO: the WM_DEPTH_STENCIL fragment with reference
// values left for draw time, plus the alpha-test facts PS_BLEND and
// color-calc need.
type DepthStencilAlpha struct {
	AlphaEnabled  bool
	AlphaFunc     encoder.CompareFunc
	AlphaRefValue float32
	DepthWrites   bool
	StencilWrites bool
	WMDS          cmds.Template
}

// CreateDSA prepacks a depth-stencil-alpha CSO.
func (t *Tracker) CreateDSA(ds *encoder.DepthStencilAlphaState) (*DepthStencilAlpha, error) {
	front, back := ds.Stencil[0], ds.Stencil[1]
	d := &DepthStencilAlpha{
		AlphaEnabled:  ds.AlphaEnabled,
		AlphaFunc:     ds.AlphaFunc,
		AlphaRefValue: ds.AlphaRefValue,
		DepthWrites:   ds.DepthEnabled && ds.DepthWriteMask,
		StencilWrites: front.Enabled && (front.WriteMask != 0 || back.WriteMask != 0),
	}
	d.WMDS = t.Set.Lookup("3DSTATE_WM_DEPTH_STENCIL").Prepack(cmds.F{
		"DepthTestEnable":             b2u(ds.DepthEnabled),
		"DepthBufferWriteEnable":      b2u(d.DepthWrites),
		"DepthTestFunction":           hwCompareFunc(ds.DepthFunc),
		"StencilTestEnable":           b2u(front.Enabled),
		"StencilBufferWriteEnable":    b2u(d.StencilWrites),
		"StencilTestFunction":         hwCompareFunc(front.Func),
		"StencilFailOp":               hwStencilOp(front.FailOp),
		"StencilPassDepthPassOp":      hwStencilOp(front.ZPassOp),
		"StencilPassDepthFailOp":      hwStencilOp(front.ZFailOp),
		"DoubleSidedStencilEnable":    b2u(back.Enabled),
		"BackfaceStencilTestFunction": hwCompareFunc(back.Func),
		"StencilTestMask":             uint64(front.ValueMask),
		"StencilWriteMask":            uint64(front.WriteMask),
		"BackfaceStencilTestMask":     uint64(back.ValueMask),
		"BackfaceStencilWriteMask":    uint64(back.WriteMask),
	})
	return d, nil
}

// BindDSA swaps the bound depth-stencil-alpha CSO.
func (t *Tracker) BindDSA(d *DepthStencilAlpha) {
	t.DSA = d
	t.Mask.Set(DirtyDepthStencilAlpha)
	t.Mask.Set(DirtyColorCalc) // alpha reference rides COLOR_CALC_STATE
}

// DeleteDSA frees the CPU side.
func (t *Tracker) DeleteDSA(d *DepthStencilAlpha) {
	if t.DSA == d {
		t.DSA = nil
	}
}

// Rasterizer CSO: SF/RASTER/CLIP/WM fragments plus the line stipple
// packet.
type Rasterizer struct {
	ScissorEnable     bool
	Multisample       bool
	PolyStippleEnable bool
	LineStippleEnable bool
	FlatshadeFirst    bool

	SF          cmds.Template
	Raster      cmds.Template
	Clip        cmds.Template
	WM          cmds.Template
	LineStipple []uint32
}

// CreateRasterizer prepacks a rasterizer CSO.
func (t *Tracker) CreateRasterizer(rs *encoder.RasterizerState) (*Rasterizer, error) {
	r := &Rasterizer{
		ScissorEnable:     rs.ScissorEnable,
		Multisample:       rs.Multisample,
		PolyStippleEnable: rs.PolyStippleEnable,
		LineStippleEnable: rs.LineStippleEnable,
		FlatshadeFirst:    rs.FlatshadeFirst,
	}
	provoking := uint64(2) // last vertex
	if rs.FlatshadeFirst {
		provoking = 0
	}
	r.SF = t.Set.Lookup("3DSTATE_SF").Prepack(cmds.F{
		"LineWidth":                              u11_7(rs.LineWidth),
		"AALineDistanceMode":                     1,
		"SmoothPointEnable":                      b2u(rs.PointSmooth),
		"TriangleStripListProvokingVertexSelect": provoking,
		"LineStripListProvokingVertexSelect":     provoking,
	})
	r.Raster = t.Set.Lookup("3DSTATE_RASTER").Prepack(cmds.F{
		"CullMode":                         hwCullMode(rs.Cull),
		"FrontWinding":                     b2u(!rs.FrontCCW),
		"FrontFaceFillMode":                hwFillMode(rs.FillFront),
		"BackFaceFillMode":                 hwFillMode(rs.FillBack),
		"ScissorRectangleEnable":           b2u(rs.ScissorEnable),
		"ViewportZClipTestEnable":          b2u(rs.DepthClipEnable),
		"SmoothPointEnable":                b2u(rs.PointSmooth),
		"DXMultisampleRasterizationEnable": b2u(rs.Multisample),
		"GlobalDepthOffsetEnableSolid":     b2u(rs.OffsetTri),
		"GlobalDepthOffsetConstant":        f32(rs.OffsetUnits),
		"GlobalDepthOffsetScale":           f32(rs.OffsetScale),
		"GlobalDepthOffsetClamp":           f32(rs.OffsetClamp),
	})
	r.Clip = t.Set.Lookup("3DSTATE_CLIP").Prepack(cmds.F{
		"GuardbandClipTestEnable":                1,
		"TriangleStripListProvokingVertexSelect": provoking,
	})
	r.WM = t.Set.Lookup("3DSTATE_WM").Prepack(cmds.F{
		"PolygonStippleEnable":           b2u(rs.PolyStippleEnable),
		"LineStippleEnable":              b2u(rs.LineStippleEnable),
		"LegacyDiamondLineRasterization": b2u(!rs.LineSmooth),
	})
	r.LineStipple = t.Set.Lookup("3DSTATE_LINE_STIPPLE").Pack(cmds.F{
		"LineStipplePattern":     uint64(rs.LineStipplePattern),
		"LineStippleRepeatCount": uint64(rs.LineStippleFactor),
	})
	return r, nil
}

// BindRasterizer swaps the bound rasterizer CSO.
func (t *Tracker) BindRasterizer(r *Rasterizer) {
	t.Rasterizer = r
	t.Mask.Set(DirtyRasterizer)
	t.Mask.Set(DirtyLineStipple)
}

// DeleteRasterizer frees the CPU side.
func (t *Tracker) DeleteRasterizer(r *Rasterizer) {
	if t.Rasterizer == r {
		t.Rasterizer = nil
	}
}

// Sampler CSO: the 4-DWord SAMPLER_STATE record with the border color
// pointer left for upload time.
type Sampler struct {
	Record      []uint32
	BorderColor [4]float32
}

// CreateSampler prepacks a sampler CSO. Wrap modes without a hardware
// encoding fail with ErrNotSupported and a nil handle.
func (t *Tracker) CreateSampler(ss *encoder.SamplerState) (*Sampler, error) {
	wx, wy, wz := hwWrapMode(ss.WrapS), hwWrapMode(ss.WrapT), hwWrapMode(ss.WrapR)
	if wx < 0 || wy < 0 || wz < 0 {
		return nil, encoder.ErrNotSupported
	}
	shadow := uint64(0)
	if ss.CompareEnable {
		shadow = hwCompareFunc(ss.CompareFunc)
	}
	s := &Sampler{BorderColor: ss.BorderColor}
	s.Record = t.Set.Lookup("SAMPLER_STATE").Pack(cmds.F{
		"MinModeFilter":                 hwFilter(ss.MinFilter),
		"MagModeFilter":                 hwFilter(ss.MagFilter),
		"MipModeFilter":                 hwMipFilter(ss.MipFilter),
		"TextureLODBias":                s4_8(ss.LODBias),
		"MinLOD":                        u4_8(ss.MinLOD),
		"MaxLOD":                        u4_8(ss.MaxLOD),
		"ShadowFunction":                shadow,
		"MaximumAnisotropy":             uint64(ss.MaxAnisotropy / 2),
		"NonNormalizedCoordinateEnable": b2u(!ss.NormalizedCoords),
		"TCXAddressControlMode":         uint64(wx),
		"TCYAddressControlMode":         uint64(wy),
		"TCZAddressControlMode":         uint64(wz),
	})
	return s, nil
}

// BindSamplers binds the stage's sampler list.
func (t *Tracker) BindSamplers(stage encoder.Stage, ss []*Sampler) {
	t.Samplers[stage] = ss
	t.Mask.SetStage(stage, StageDirtySamplers)
}

// DeleteSampler frees the CPU side.
func (t *Tracker) DeleteSampler(s *Sampler) {
	for stage := range t.Samplers {
		for i, bound := range t.Samplers[stage] {
			if bound == s {
				t.Samplers[stage][i] = nil
			}
		}
	}
}

// VertexElements CSO: the prepacked VERTEX_ELEMENT_STATE pairs.
type VertexElements struct {
	Count   int
	Records []uint32
}

// CreateVertexElements prepacks a vertex-elements CSO.
func (t *Tracker) CreateVertexElements(ve *encoder.VertexElementsState) (*VertexElements, error) {
	entry := t.Set.Lookup("VERTEX_ELEMENT_STATE")
	out := &VertexElements{Count: len(ve.Elements)}
	for _, e := range ve.Elements {
		out.Records = append(out.Records, entry.Pack(cmds.F{
			"VertexBufferIndex":   uint64(e.VertexBufferIndex),
			"Valid":               1,
			"SourceElementFormat": uint64(e.Format),
			"SourceElementOffset": uint64(e.SrcOffset),
			"Component0Control":   compStoreSrc,
			"Component1Control":   compStoreSrc,
			"Component2Control":   compStoreSrc,
			"Component3Control":   compStoreSrc,
		})...)
	}
	return out, nil
}

// BindVertexElements swaps the bound vertex-elements CSO.
func (t *Tracker) BindVertexElements(ve *VertexElements) {
	t.VertexElements = ve
	t.Mask.Set(DirtyVertexElements)
}

// DeleteVertexElements frees the CPU side.
func (t *Tracker) DeleteVertexElements(ve *VertexElements) {
	if t.VertexElements == ve {
		t.VertexElements = nil
	}
}

// Vertex element component controls.
const (
	compNothing  = 0
	compStoreSrc = 1
	comp0        = 2
	comp1Fp      = 3
	comp1Int     = 4
	compVertexID = 6
	compInstID   = 7
)

// Program wraps the compiled-shader data with the stage packet
// template. Scratch address and, for the pixel shader, the dispatch
// GRF starts are merged at draw time.
type Program struct {
	Stage encoder.Stage
	Data  encoder.ProgramData
	Tmpl  cmds.Template
	Extra cmds.Template // PS only
}

// NewProgram prepacks the stage command for a compiled shader.
func (t *Tracker) NewProgram(stage encoder.Stage, data encoder.ProgramData) *Program {
	p := &Program{Stage: stage, Data: data}
	switch stage {
	case encoder.StageFragment:
		p.Tmpl = t.Set.Lookup("3DSTATE_PS").Prepack(cmds.F{
			"KernelStartPointer0":          uint64(data.KSP[0]) >> 6,
			"8PixelDispatchEnable":         b2u(data.DispatchEnable[0]),
			"16PixelDispatchEnable":        b2u(data.DispatchEnable[1]),
			"32PixelDispatchEnable":        b2u(data.DispatchEnable[2]),
			"MaximumNumberOfThreadsPerPSD": uint64(t.Inf.MaxPSThreads - 1),
			"PushConstantEnable":           b2u(len(data.PushRanges) > 0),
			"KernelStartPointer1":          uint64(data.KSP[1]) >> 6,
			"KernelStartPointer2":          uint64(data.KSP[2]) >> 6,
		})
		p.Extra = t.Set.Lookup("3DSTATE_PS_EXTRA").Prepack(cmds.F{
			"PixelShaderValid":             1,
			"PixelShaderKillsPixel":        b2u(data.KillsPixel),
			"PixelShaderComputedDepthMode": uint64(data.ComputedDepth),
			"PixelShaderUsesSourceDepth":   b2u(data.UsesSourceDepth),
			"AttributeEnable":              b2u(data.URBReadLength > 0),
		})
	case encoder.StageCompute:
		// Compute has no pipelined stage packet; the compute compiler
		// builds the interface descriptor instead.
	default:
		p.Tmpl = t.stageLayout(stage).Prepack(cmds.F{
			"KernelStartPointer":       uint64(data.KSP[0]) >> 6,
			"VertexURBEntryReadLength": uint64(data.URBReadLength),
			"VertexURBEntryReadOffset": uint64(data.URBReadOffset),
			"SamplerCount":             uint64((data.SamplerCount + 3) / 4),
			"BindingTableEntryCount":   uint64(data.BindingCount),
			"DispatchGRFStartRegister": uint64(data.DispatchGRF[0]),
			"MaximumNumberOfThreads":   uint64(t.Inf.MaxVSThreads - 1),
			"StatisticsEnable":         1,
			"FunctionEnable":           1,
			"SIMD8DispatchEnable":      b2u(data.DispatchEnable[0]),
		})
	}
	return p
}

func (t *Tracker) stageLayout(stage encoder.Stage) *cmds.Layout {
	switch stage {
	case encoder.StageVertex:
		return t.Set.Lookup("3DSTATE_VS")
	case encoder.StageTessCtrl:
		return t.Set.Lookup("3DSTATE_HS")
	case encoder.StageTessEval:
		return t.Set.Lookup("3DSTATE_DS")
	case encoder.StageGeometry:
		return t.Set.Lookup("3DSTATE_GS")
	}
	panic("state: no stage packet for " + stage.String())
}

// SetProgram binds a program to its stage.
func (t *Tracker) SetProgram(stage encoder.Stage, p *Program) {
	t.Programs[stage] = p
	t.Mask.SetStage(stage, StageDirtyProgram)
	t.Mask.Set(DirtyURB)
	if p != nil && p.Data.SO != nil {
		t.Mask.Set(DirtySODecls)
	}
}

// Dynamic state setters.

func (t *Tracker) SetViewports(vps []encoder.Viewport) {
	t.Viewports = vps
	t.Mask.Set(DirtyViewports)
}

func (t *Tracker) SetScissors(srs []encoder.ScissorRect) {
	t.Scissors = srs
	t.Mask.Set(DirtyScissors)
}

func (t *Tracker) SetFramebuffer(fb encoder.Framebuffer) {
	t.Framebuffer = fb
	t.Mask.Set(DirtyFramebuffer)
	t.Mask.Set(DirtyMultisample)
	t.Mask.Set(DirtySampleMask)
}

func (t *Tracker) SetSampleMask(mask uint32) {
	t.SampleMask = mask
	t.Mask.Set(DirtySampleMask)
}

func (t *Tracker) SetBlendColor(color [4]float32) {
	t.BlendColor = color
	t.Mask.Set(DirtyColorCalc)
}

func (t *Tracker) SetStencilRef(ref [2]uint8) {
	t.StencilRef = ref
	t.Mask.Set(DirtyDepthStencilAlpha)
}

func (t *Tracker) SetVertexBuffers(vbs []encoder.VertexBufferBinding) {
	t.VertexBuffers = vbs
	t.Mask.Set(DirtyVertexBuffers)
}

func (t *Tracker) SetConstantBuffers(stage encoder.Stage, cbs []encoder.ConstantBuffer) {
	t.ConstantBuffers[stage] = cbs
	t.Mask.SetStage(stage, StageDirtyConstants)
}

func (t *Tracker) SetSamplerViews(stage encoder.Stage, views []encoder.SamplerView) {
	t.SamplerViews[stage] = views
	t.Mask.SetStage(stage, StageDirtyBindings)
}

func (t *Tracker) SetShaderBuffers(stage encoder.Stage, bufs []encoder.ShaderBuffer) {
	t.ShaderBuffers[stage] = bufs
	t.Mask.SetStage(stage, StageDirtyBindings)
}

func (t *Tracker) SetSOTargets(targets []encoder.StreamOutputTarget) {
	t.SOTargets = targets
	t.Mask.Set(DirtySOTargets)
}

func (t *Tracker) SetPolyStipple(pattern [32]uint32) {
	t.PolyStipple = pattern
	t.Mask.Set(DirtyPolyStipple)
}

func (t *Tracker) SetTopology(topology uint8) {
	if t.Topology != topology {
		t.Topology = topology
		t.Mask.Set(DirtyTopology)
	}
}

func (t *Tracker) SetPrimitiveRestart(enable bool, index uint32) {
	if t.PrimitiveRestart != enable || t.RestartIndex != index {
		t.PrimitiveRestart = enable
		t.RestartIndex = index
		t.Mask.Set(DirtyPrimitiveRestart)
	}
}

// Fixed-point conversions for packet fields.

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func f32(f float32) uint64 {
	return uint64(math.Float32bits(f))
}

// u11_7 is the unsigned 11.7 fixed-point line width.
func u11_7(f float32) uint64 {
	if f < 0 {
		f = 0
	}
	v := uint64(f * 128)
	if v > 0x3ffff {
		v = 0x3ffff
	}
	return v
}

// u4_8 is the unsigned 4.8 fixed-point LOD clamp.
func u4_8(f float32) uint64 {
	if f < 0 {
		f = 0
	}
	if f > 14 {
		f = 14
	}
	return uint64(f * 256)
}

// s4_8 is the signed 4.8 fixed-point LOD bias, 13 bits two's complement.
func s4_8(f float32) uint64 {
	if f > 15.996 {
		f = 15.996
	}
	if f < -16 {
		f = -16
	}
	return uint64(int64(f*256)) & 0x1fff
}
