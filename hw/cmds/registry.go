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

package cmds

import (
	"fmt"
	"sort"

	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Set is the command vocabulary of one hardware generation.
type Set struct {
	gen     devinfo.Gen
	layouts map[string]*Layout
}

// Lookup returns the layout for the named command. Asking for a command
// the generation does not have is a programming error and panics.
func (s *Set) Lookup(name string) *Layout {
	l, ok := s.layouts[name]
	if !ok {
		panic(fmt.Errorf("cmds: %v has no command %s", s.gen, name))
	}
	return l
}

// Has reports whether the generation has the named command.
func (s *Set) Has(name string) bool {
	_, ok := s.layouts[name]
	return ok
}

// Gen returns the generation the set was built for.
func (s *Set) Gen() devinfo.Gen { return s.gen }

// All returns every layout in the set, ordered by name.
func (s *Set) All() []*Layout {
	out := make([]*Layout, 0, len(s.layouts))
	for _, l := range s.layouts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var sets = map[devinfo.Gen]*Set{}

// For returns the command set for the generation described by inf.
func For(inf *devinfo.Info) *Set {
	s, ok := sets[inf.Gen]
	if !ok {
		panic(fmt.Errorf("cmds: no command set for %v", inf.Gen))
	}
	return s
}

func (s *Set) add(l *Layout) {
	if _, dup := s.layouts[l.Name]; dup {
		panic(fmt.Errorf("cmds: duplicate layout %s", l.Name))
	}
	s.layouts[l.Name] = l
}

// The GFXPIPE pipeline selectors.
const (
	pipeCommon      = 0
	pipeSingleDWord = 1
	pipeMedia       = 2
	pipe3D          = 3
)

// gfx1 builds a single-DWord GFXPIPE command; the length field is absent.
func gfx1(name string, pipeline, op, subop uint32, fields ...FieldDesc) *Layout {
	h := 3<<29 | pipeline<<27 | op<<24 | subop<<16
	return &Layout{Name: name, Header: h, Length: 1, Fields: fields}
}

// gfxVar builds the fixed header of a variable-length command. The
// emitter ORs the bias-2 DWord count into DW0 at emit time.
func gfxVar(name string, pipeline, op, subop uint32, length int, fields ...FieldDesc) *Layout {
	h := 3<<29 | pipeline<<27 | op<<24 | subop<<16
	return &Layout{Name: name, Header: h, Length: length, Fields: fields}
}

// xsFields is the shared shape of the 3DSTATE_VS/HS/DS/GS packets. The
// per-stage packets differ in header only; the draw compiler merges the
// late-bound scratch and dispatch fields into prepacked templates.
func xsFields() []FieldDesc {
	return []FieldDesc{
		fd("KernelStartPointer", 63, 38),
		fd("FloatingPointMode", 112, 112),
		fd("BindingTableEntryCount", 121, 114),
		fd("SamplerCount", 124, 122),
		fd("PerThreadScratchSpace", 131, 128),
		fd("ScratchSpaceBasePointer", 159, 138),
		fd("VertexURBEntryReadOffset", 169, 164),
		fd("VertexURBEntryReadLength", 176, 171),
		fd("DispatchGRFStartRegister", 184, 180),
		fd("StatisticsEnable", 202, 202),
		fd("MaximumNumberOfThreads", 223, 215),
		fd("FunctionEnable", 224, 224),
		fd("SIMD8DispatchEnable", 226, 226),
	}
}

func urbFields() []FieldDesc {
	return []FieldDesc{
		fd("URBStartingAddress", 63, 57),
		fd("URBEntryAllocationSize", 56, 48),
		fd("NumberOfURBEntries", 47, 32),
	}
}

func buildSet(gen devinfo.Gen) *Set {
	s := &Set{gen: gen, layouts: map[string]*Layout{}}

	// MI block.
	s.add(mi("MI_NOOP", 0x00, 1))
	s.add(mi("MI_BATCH_BUFFER_END", 0x0a, 1))
	s.add(mi("MI_LOAD_REGISTER_IMM", 0x22, 3,
		fd("RegisterOffset", 54, 34),
		fd("DataDWord", 95, 64),
	))

	// Non-pipelined state.
	s.add(gfx1("PIPELINE_SELECT", pipeSingleDWord, 1, 4,
		fd("PipelineSelection", 1, 0),
		fd("MaskBits", 15, 8),
	))
	s.add(gfx("STATE_BASE_ADDRESS", pipeCommon, 1, 1, 16,
		fd("GeneralBaseModifyEnable", 32, 32),
		fd("GeneralBaseAddress", 95, 44),
		fd("SurfaceStateBaseModifyEnable", 128, 128),
		fd("SurfaceStateBaseAddress", 191, 140),
		fd("DynamicStateBaseModifyEnable", 192, 192),
		fd("DynamicStateBaseAddress", 255, 204),
		fd("IndirectObjectBaseModifyEnable", 256, 256),
		fd("IndirectObjectBaseAddress", 319, 268),
		fd("InstructionBaseModifyEnable", 320, 320),
		fd("InstructionBaseAddress", 383, 332),
		fd("GeneralBufferSizeModifyEnable", 384, 384),
		fd("GeneralBufferSize", 415, 396),
		fd("DynamicBufferSizeModifyEnable", 416, 416),
		fd("DynamicBufferSize", 447, 428),
		fd("IndirectBufferSizeModifyEnable", 448, 448),
		fd("IndirectBufferSize", 479, 460),
		fd("InstructionBufferSizeModifyEnable", 480, 480),
		fd("InstructionBufferSize", 511, 492),
	))

	// Synchronization.
	s.add(gfx("PIPE_CONTROL", pipe3D, 2, 0, 6,
		fd("DepthCacheFlushEnable", 32, 32),
		fd("StallAtPixelScoreboard", 33, 33),
		fd("StateCacheInvalidationEnable", 34, 34),
		fd("ConstantCacheInvalidationEnable", 35, 35),
		fd("VFCacheInvalidationEnable", 36, 36),
		fd("DCFlushEnable", 37, 37),
		fd("PipeControlFlushEnable", 39, 39),
		fd("NotifyEnable", 40, 40),
		fd("IndirectStatePointersDisable", 41, 41),
		fd("TextureCacheInvalidationEnable", 42, 42),
		fd("InstructionCacheInvalidateEnable", 43, 43),
		fd("RenderTargetCacheFlushEnable", 44, 44),
		fd("DepthStallEnable", 45, 45),
		fd("PostSyncOperation", 47, 46),
		fd("TLBInvalidate", 50, 50),
		fd("CommandStreamerStallEnable", 52, 52),
		fd("HDCPipelineFlushEnable", 53, 53),
		fd("Address", 127, 66),
		fd("ImmediateData", 191, 128),
	))

	// Pointer packets into dynamic state.
	s.add(gfx("3DSTATE_VIEWPORT_STATE_POINTERS_CC", pipe3D, 0, 0x23, 2,
		fd("CCViewportPointer", 63, 37)))
	s.add(gfx("3DSTATE_VIEWPORT_STATE_POINTERS_SF_CLIP", pipe3D, 0, 0x21, 2,
		fd("SFClipViewportPointer", 63, 38)))
	s.add(gfx("3DSTATE_BLEND_STATE_POINTERS", pipe3D, 0, 0x24, 2,
		fd("BlendStatePointer", 63, 38),
		fd("BlendStatePointerValid", 32, 32)))
	s.add(gfx("3DSTATE_CC_STATE_POINTERS", pipe3D, 0, 0x0e, 2,
		fd("ColorCalcStatePointer", 63, 38),
		fd("ColorCalcStatePointerValid", 32, 32)))
	s.add(gfx("3DSTATE_SCISSOR_STATE_POINTERS", pipe3D, 0, 0x0f, 2,
		fd("ScissorRectPointer", 63, 37)))

	// URB partition.
	s.add(gfx("3DSTATE_URB_VS", pipeCommon, 0, 0x30, 2, urbFields()...))
	s.add(gfx("3DSTATE_URB_HS", pipeCommon, 0, 0x31, 2, urbFields()...))
	s.add(gfx("3DSTATE_URB_DS", pipeCommon, 0, 0x32, 2, urbFields()...))
	s.add(gfx("3DSTATE_URB_GS", pipeCommon, 0, 0x33, 2, urbFields()...))

	// Push constants.
	constantFields := []FieldDesc{
		fd("ReadLength0", 47, 32),
		fd("ReadLength1", 63, 48),
		fd("ReadLength2", 79, 64),
		fd("ReadLength3", 95, 80),
		fd("Buffer0", 159, 96),
		fd("Buffer1", 223, 160),
		fd("Buffer2", 287, 224),
		fd("Buffer3", 351, 288),
	}
	s.add(gfx("3DSTATE_CONSTANT_VS", pipe3D, 0, 0x15, 11, constantFields...))
	s.add(gfx("3DSTATE_CONSTANT_HS", pipe3D, 0, 0x19, 11, constantFields...))
	s.add(gfx("3DSTATE_CONSTANT_DS", pipe3D, 0, 0x1a, 11, constantFields...))
	s.add(gfx("3DSTATE_CONSTANT_GS", pipe3D, 0, 0x16, 11, constantFields...))
	s.add(gfx("3DSTATE_CONSTANT_PS", pipe3D, 0, 0x17, 11, constantFields...))
	if gen >= devinfo.Gen12 {
		s.add(gfxVar("3DSTATE_CONSTANT_ALL", pipe3D, 0, 0x6d, 2,
			fd("EnabledStages", 14, 8),
			fd("PointerBufferMask", 47, 32)))
		s.add(record("CONSTANT_ALL_DATA", 3,
			fd("ReadLength", 15, 0),
			fd("PointerToConstantBuffer", 95, 37)))
	}

	// Binding tables and samplers.
	s.add(gfx("3DSTATE_BINDING_TABLE_POINTERS_VS", pipe3D, 0, 0x26, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_BINDING_TABLE_POINTERS_HS", pipe3D, 0, 0x27, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_BINDING_TABLE_POINTERS_DS", pipe3D, 0, 0x28, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_BINDING_TABLE_POINTERS_GS", pipe3D, 0, 0x29, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_BINDING_TABLE_POINTERS_PS", pipe3D, 0, 0x2a, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_SAMPLER_STATE_POINTERS_VS", pipe3D, 0, 0x2b, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_SAMPLER_STATE_POINTERS_HS", pipe3D, 0, 0x2c, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_SAMPLER_STATE_POINTERS_DS", pipe3D, 0, 0x2d, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_SAMPLER_STATE_POINTERS_GS", pipe3D, 0, 0x2e, 2, fd("Pointer", 63, 37)))
	s.add(gfx("3DSTATE_SAMPLER_STATE_POINTERS_PS", pipe3D, 0, 0x2f, 2, fd("Pointer", 63, 37)))

	// Multisampling.
	s.add(gfx("3DSTATE_MULTISAMPLE", pipe3D, 0, 0x0d, 2,
		fd("NumberOfMultisamples", 35, 33),
		fd("PixelLocation", 36, 36)))
	s.add(gfx("3DSTATE_SAMPLE_MASK", pipe3D, 0, 0x18, 2,
		fd("SampleMask", 47, 32)))

	// Shader stage programs.
	s.add(gfx("3DSTATE_VS", pipe3D, 0, 0x10, 9, xsFields()...))
	s.add(gfx("3DSTATE_HS", pipe3D, 0, 0x1b, 9, xsFields()...))
	s.add(gfx("3DSTATE_DS", pipe3D, 0, 0x1d, 9, xsFields()...))
	s.add(gfx("3DSTATE_GS", pipe3D, 0, 0x11, 9, xsFields()...))
	s.add(gfx("3DSTATE_PS", pipe3D, 0, 0x20, 12,
		fd("KernelStartPointer0", 63, 38),
		fd("PerThreadScratchSpace", 131, 128),
		fd("ScratchSpaceBasePointer", 159, 138),
		fd("8PixelDispatchEnable", 192, 192),
		fd("16PixelDispatchEnable", 193, 193),
		fd("32PixelDispatchEnable", 194, 194),
		fd("RenderTargetFastClearEnable", 200, 200),
		fd("PushConstantEnable", 203, 203),
		fd("MaximumNumberOfThreadsPerPSD", 223, 215),
		fd("DispatchGRFStartRegisterConstantData0", 230, 224),
		fd("DispatchGRFStartRegisterConstantData1", 238, 232),
		fd("DispatchGRFStartRegisterConstantData2", 246, 240),
		fd("KernelStartPointer1", 287, 262),
		fd("KernelStartPointer2", 351, 326),
	))
	s.add(gfx("3DSTATE_PS_EXTRA", pipe3D, 0, 0x4f, 2,
		fd("PixelShaderValid", 63, 63),
		fd("PixelShaderKillsPixel", 62, 62),
		fd("oMaskPresentToRenderTarget", 61, 61),
		fd("PixelShaderIsPerSample", 35, 35),
		fd("PixelShaderComputedDepthMode", 38, 37),
		fd("PixelShaderUsesSourceDepth", 39, 39),
		fd("AttributeEnable", 40, 40),
	))
	s.add(gfx("3DSTATE_PS_BLEND", pipe3D, 0, 0x4d, 2,
		fd("AlphaToCoverageEnable", 63, 63),
		fd("HasWriteableRT", 62, 62),
		fd("ColorBufferBlendEnable", 61, 61),
		fd("SourceBlendFactor", 60, 56),
		fd("DestinationBlendFactor", 55, 51),
		fd("SourceAlphaBlendFactor", 50, 46),
		fd("DestinationAlphaBlendFactor", 45, 41),
		fd("AlphaTestEnable", 40, 40),
		fd("IndependentAlphaBlendEnable", 39, 39),
	))
	s.add(gfx("3DSTATE_WM", pipe3D, 0, 0x14, 2,
		fd("ForceThreadDispatchEnable", 51, 50),
		fd("EarlyDepthStencilControl", 54, 53),
		fd("BarycentricInterpolationMode", 48, 43),
		fd("LegacyDiamondLineRasterization", 58, 58),
		fd("PolygonStippleEnable", 36, 36),
		fd("LineStippleEnable", 35, 35),
	))
	s.add(gfx("3DSTATE_WM_DEPTH_STENCIL", pipe3D, 0, 0x4e, 4,
		fd("StencilTestEnable", 63, 63),
		fd("StencilBufferWriteEnable", 62, 62),
		fd("DepthTestEnable", 61, 61),
		fd("DepthBufferWriteEnable", 60, 60),
		fd("DepthTestFunction", 59, 57),
		fd("StencilTestFunction", 56, 54),
		fd("StencilFailOp", 53, 51),
		fd("StencilPassDepthPassOp", 50, 48),
		fd("StencilPassDepthFailOp", 43, 41),
		fd("DoubleSidedStencilEnable", 47, 47),
		fd("BackfaceStencilTestFunction", 46, 44),
		fd("StencilTestMask", 71, 64),
		fd("StencilWriteMask", 79, 72),
		fd("BackfaceStencilTestMask", 87, 80),
		fd("BackfaceStencilWriteMask", 95, 88),
		fd("StencilReferenceValue", 103, 96),
		fd("BackfaceStencilReferenceValue", 111, 104),
	))
	s.add(gfx("3DSTATE_SF", pipe3D, 0, 0x13, 4,
		fd("ViewportTransformEnable", 33, 33),
		fd("LineWidth", 59, 42),
		fd("AALineDistanceMode", 78, 78),
		fd("TriangleStripListProvokingVertexSelect", 100, 98),
		fd("LineStripListProvokingVertexSelect", 103, 101),
		fd("SmoothPointEnable", 109, 109),
	))
	s.add(gfx("3DSTATE_CLIP", pipe3D, 0, 0x12, 4,
		fd("ClipEnable", 63, 63),
		fd("ViewportXYClipTestEnable", 60, 60),
		fd("GuardbandClipTestEnable", 58, 58),
		fd("ClipMode", 45, 43),
		fd("TriangleStripListProvokingVertexSelect", 100, 98),
		fd("MaximumVPIndex", 67, 64),
		fd("ForceZeroRTAIndexEnable", 69, 69),
	))
	s.add(gfx("3DSTATE_RASTER", pipe3D, 0, 0x50, 5,
		fd("ViewportZClipTestEnable", 32, 32),
		fd("ScissorRectangleEnable", 41, 41),
		fd("SmoothPointEnable", 42, 42),
		fd("DXMultisampleRasterizationEnable", 43, 43),
		fd("FrontFaceFillMode", 45, 44),
		fd("BackFaceFillMode", 47, 46),
		fd("CullMode", 49, 48),
		fd("FrontWinding", 53, 53),
		fd("GlobalDepthOffsetEnableSolid", 55, 55),
		fd("GlobalDepthOffsetConstant", 95, 64),
		fd("GlobalDepthOffsetScale", 127, 96),
		fd("GlobalDepthOffsetClamp", 159, 128),
	))
	s.add(gfx("3DSTATE_DEPTH_BUFFER", pipe3D, 0, 0x05, 8,
		fd("SurfaceType", 63, 61),
		fd("DepthWriteEnable", 60, 60),
		fd("StencilWriteEnable", 59, 59),
		fd("SurfaceFormat", 52, 50),
		fd("SurfacePitch", 49, 32),
		fd("SurfaceBaseAddress", 127, 64),
		fd("Width", 145, 132),
		fd("Height", 159, 146),
		fd("LOD", 163, 160),
	))
	s.add(gfx("3DSTATE_STENCIL_BUFFER", pipe3D, 0, 0x06, 5,
		fd("StencilBufferEnable", 63, 63),
		fd("SurfacePitch", 48, 32),
		fd("SurfaceBaseAddress", 127, 64),
	))
	s.add(gfx("3DSTATE_LINE_STIPPLE", pipe3D, 1, 0x08, 3,
		fd("LineStipplePattern", 47, 32),
		fd("LineStippleRepeatCount", 72, 64),
	))
	s.add(gfx("3DSTATE_POLY_STIPPLE_OFFSET", pipe3D, 1, 0x06, 2,
		fd("PolygonStippleXOffset", 44, 40),
		fd("PolygonStippleYOffset", 36, 32),
	))
	stipple := make([]FieldDesc, 32)
	for i := range stipple {
		lo := uint(32 * (i + 1))
		stipple[i] = fd(fmt.Sprintf("PatternRow%d", i), lo+31, lo)
	}
	s.add(gfx("3DSTATE_POLY_STIPPLE_PATTERN", pipe3D, 1, 0x07, 33, stipple...))

	// Vertex fetch.
	s.add(gfx("3DSTATE_VF_TOPOLOGY", pipe3D, 0, 0x4b, 2,
		fd("PrimitiveTopologyType", 37, 32)))
	s.add(gfxVar("3DSTATE_VERTEX_BUFFERS", pipe3D, 0, 0x08, 1))
	s.add(record("VERTEX_BUFFER_STATE", 4,
		fd("VertexBufferIndex", 31, 26),
		fd("AddressModifyEnable", 14, 14),
		fd("BufferPitch", 11, 0),
		fd("BufferStartingAddress", 95, 32),
		fd("BufferSize", 127, 96),
	))
	s.add(gfxVar("3DSTATE_VERTEX_ELEMENTS", pipe3D, 0, 0x09, 1))
	s.add(record("VERTEX_ELEMENT_STATE", 2,
		fd("VertexBufferIndex", 31, 26),
		fd("Valid", 25, 25),
		fd("SourceElementFormat", 24, 16),
		fd("SourceElementOffset", 11, 0),
		fd("Component0Control", 62, 60),
		fd("Component1Control", 58, 56),
		fd("Component2Control", 54, 52),
		fd("Component3Control", 50, 48),
	))
	s.add(gfx1("3DSTATE_VF_STATISTICS", pipeSingleDWord, 0, 0x0b,
		fd("StatisticsEnable", 0, 0)))
	if gen >= devinfo.Gen8 {
		s.add(gfx("3DSTATE_VF_SGVS", pipe3D, 0, 0x4a, 2,
			fd("InstanceIDEnable", 63, 63),
			fd("InstanceIDComponentNumber", 61, 60),
			fd("InstanceIDElementOffset", 53, 48),
			fd("VertexIDEnable", 47, 47),
			fd("VertexIDComponentNumber", 45, 44),
			fd("VertexIDElementOffset", 37, 32),
		))
		s.add(gfx("3DSTATE_VF", pipe3D, 0, 0x0c, 2,
			fd("IndexedDrawCutIndexEnable", 8, 8),
			fd("CutIndex", 63, 32),
		))
	}

	// Streamout.
	s.add(gfx("3DSTATE_SO_BUFFER", pipe3D, 1, 0x18, 8,
		fd("SOBufferEnable", 63, 63),
		fd("SOBufferIndex", 62, 61),
		fd("SurfaceBaseAddress", 127, 66),
		fd("SurfaceSize", 191, 162),
		fd("StreamOffsetWriteEnable", 149, 149),
		fd("StreamOffset", 255, 224),
	))
	s.add(gfxVar("3DSTATE_SO_DECL_LIST", pipe3D, 1, 0x17, 3,
		fd("StreamtoBufferSelects0", 35, 32),
		fd("StreamtoBufferSelects1", 39, 36),
		fd("StreamtoBufferSelects2", 43, 40),
		fd("StreamtoBufferSelects3", 47, 44),
		fd("NumEntries0", 71, 64),
		fd("NumEntries1", 79, 72),
		fd("NumEntries2", 87, 80),
		fd("NumEntries3", 95, 88),
	))
	s.add(record("SO_DECL", 1,
		fd("ComponentMask", 3, 0),
		fd("RegisterIndex", 9, 4),
		fd("HoleFlag", 11, 11),
		fd("OutputBufferSlot", 13, 12),
	))
	s.add(gfx("3DSTATE_STREAMOUT", pipe3D, 1, 0x1e, 6,
		fd("SOFunctionEnable", 63, 63),
		fd("RenderingDisable", 62, 62),
		fd("RenderStreamSelect", 60, 59),
		fd("ReorderMode", 58, 58),
		fd("SOStatisticsEnable", 57, 57),
		fd("Stream0VertexReadOffset", 68, 64),
		fd("Stream0VertexReadLength", 76, 72),
		fd("Stream1VertexReadOffset", 84, 80),
		fd("Stream1VertexReadLength", 92, 88),
		fd("Stream2VertexReadOffset", 100, 96),
		fd("Stream2VertexReadLength", 108, 104),
		fd("Stream3VertexReadOffset", 116, 112),
		fd("Stream3VertexReadLength", 124, 120),
		fd("Buffer0SurfacePitch", 143, 128),
		fd("Buffer1SurfacePitch", 159, 144),
		fd("Buffer2SurfacePitch", 175, 160),
		fd("Buffer3SurfacePitch", 191, 176),
	))

	// Primitives.
	s.add(gfx("3DPRIMITIVE", pipe3D, 3, 0, 7,
		fd("VertexAccessType", 40, 40),
		fd("PrimitiveTopologyType", 37, 32),
		fd("VertexCountPerInstance", 95, 64),
		fd("StartVertexLocation", 127, 96),
		fd("InstanceCount", 159, 128),
		fd("StartInstanceLocation", 191, 160),
		fd("BaseVertexLocation", 223, 192),
	))

	// Compute.
	if gen >= devinfo.Gen12 {
		s.add(gfx("CFE_STATE", pipeMedia, 2, 0, 6,
			fd("NumberOfWalkers", 47, 40),
			fd("MaximumNumberOfThreads", 63, 48),
			fd("ScratchSpaceBuffer", 95, 74),
		))
		s.add(gfx("COMPUTE_WALKER", pipeMedia, 2, 2, 10,
			fd("IndirectDataLength", 48, 32),
			fd("SIMDSize", 95, 94),
			fd("ExecutionMask", 127, 96),
			fd("ThreadGroupIDXDimension", 159, 128),
			fd("ThreadGroupIDYDimension", 191, 160),
			fd("ThreadGroupIDZDimension", 223, 192),
			fd("InterfaceDescriptorPointer", 255, 230),
			fd("LocalXMaximum", 265, 256),
			fd("LocalYMaximum", 275, 266),
			fd("LocalZMaximum", 285, 276),
		))
	} else {
		s.add(gfx("MEDIA_VFE_STATE", pipeMedia, 0, 0, 9,
			fd("StackSize", 35, 32),
			fd("PerThreadScratchSpace", 39, 36),
			fd("ScratchSpaceBasePointer", 63, 42),
			fd("NumberOfURBEntries", 79, 72),
			fd("MaximumNumberOfThreads", 95, 80),
			fd("CURBEAllocationSize", 143, 128),
			fd("URBEntryAllocationSize", 159, 144),
		))
		s.add(gfx("MEDIA_INTERFACE_DESCRIPTOR_LOAD", pipeMedia, 0, 2, 4,
			fd("InterfaceDescriptorTotalLength", 95, 64),
			fd("InterfaceDescriptorDataStartAddress", 127, 96),
		))
		s.add(gfx("MEDIA_STATE_FLUSH", pipeMedia, 0, 4, 2,
			fd("InterfaceDescriptorOffset", 37, 32)))
		s.add(gfx("GPGPU_WALKER", pipeMedia, 1, 5, 15,
			fd("InterfaceDescriptorOffset", 37, 32),
			fd("IndirectDataLength", 80, 64),
			fd("ThreadGroupIDStartingX", 159, 128),
			fd("ThreadGroupIDXDimension", 191, 160),
			fd("ThreadGroupIDYDimension", 255, 224),
			fd("ThreadGroupIDZDimension", 319, 288),
			fd("ThreadDepthCounterMaximum", 325, 320),
			fd("ThreadHeightCounterMaximum", 333, 328),
			fd("ThreadWidthCounterMaximum", 341, 336),
			fd("SIMDSize", 351, 350),
			fd("RightExecutionMask", 415, 384),
			fd("BottomExecutionMask", 447, 416),
		))
	}
	s.add(record("INTERFACE_DESCRIPTOR_DATA", 8,
		fd("KernelStartPointer", 31, 6),
		fd("SamplerStatePointer", 95, 69),
		fd("SamplerCount", 68, 66),
		fd("BindingTablePointer", 127, 101),
		fd("BindingTableEntryCount", 100, 96),
		fd("ConstantURBEntryReadLength", 143, 128),
		fd("NumberOfThreadsInGPGPUThreadGroup", 169, 160),
		fd("SharedLocalMemorySize", 180, 176),
		fd("BarrierEnable", 181, 181),
		fd("CrossThreadConstantDataReadLength", 199, 192),
	))

	// Indirect state records.
	s.add(record("SF_CLIP_VIEWPORT", 16,
		fd("ViewportMatrixElementm00", 31, 0),
		fd("ViewportMatrixElementm11", 63, 32),
		fd("ViewportMatrixElementm22", 95, 64),
		fd("ViewportMatrixElementm30", 127, 96),
		fd("ViewportMatrixElementm31", 159, 128),
		fd("ViewportMatrixElementm32", 191, 160),
		fd("XMinClipGuardband", 287, 256),
		fd("XMaxClipGuardband", 319, 288),
		fd("YMinClipGuardband", 351, 320),
		fd("YMaxClipGuardband", 383, 352),
		fd("XMinViewPort", 415, 384),
		fd("XMaxViewPort", 447, 416),
		fd("YMinViewPort", 479, 448),
		fd("YMaxViewPort", 511, 480),
	))
	s.add(record("CC_VIEWPORT", 2,
		fd("MinimumDepth", 31, 0),
		fd("MaximumDepth", 63, 32),
	))
	s.add(record("SCISSOR_RECT", 2,
		fd("ScissorRectangleYMin", 15, 0),
		fd("ScissorRectangleXMin", 31, 16),
		fd("ScissorRectangleYMax", 47, 32),
		fd("ScissorRectangleXMax", 63, 48),
	))
	s.add(record("BLEND_STATE", 1,
		fd("AlphaToCoverageEnable", 31, 31),
		fd("IndependentAlphaBlendEnable", 30, 30),
		fd("AlphaTestEnable", 27, 27),
		fd("AlphaTestFunction", 26, 24),
		fd("ColorDitherEnable", 23, 23),
	))
	s.add(record("BLEND_STATE_ENTRY", 2,
		fd("ColorBufferBlendEnable", 31, 31),
		fd("SourceBlendFactor", 30, 26),
		fd("DestinationBlendFactor", 25, 21),
		fd("ColorBlendFunction", 20, 18),
		fd("SourceAlphaBlendFactor", 17, 13),
		fd("DestinationAlphaBlendFactor", 12, 8),
		fd("AlphaBlendFunction", 7, 5),
		fd("WriteDisableAlpha", 36, 36),
		fd("WriteDisableRed", 35, 35),
		fd("WriteDisableGreen", 34, 34),
		fd("WriteDisableBlue", 33, 33),
		fd("LogicOpEnable", 63, 63),
		fd("LogicOpFunction", 62, 59),
	))
	s.add(record("COLOR_CALC_STATE", 6,
		fd("StencilReferenceValue", 7, 0),
		fd("BackfaceStencilReferenceValue", 15, 8),
		fd("AlphaReferenceValue", 63, 32),
		fd("BlendConstantColorRed", 95, 64),
		fd("BlendConstantColorGreen", 127, 96),
		fd("BlendConstantColorBlue", 159, 128),
		fd("BlendConstantColorAlpha", 191, 160),
	))
	s.add(record("SAMPLER_STATE", 4,
		fd("SamplerDisable", 31, 31),
		fd("TextureBorderColorMode", 29, 29),
		fd("LODPreClampMode", 28, 27),
		fd("BaseMipLevel", 26, 22),
		fd("MipModeFilter", 21, 20),
		fd("MagModeFilter", 19, 17),
		fd("MinModeFilter", 16, 14),
		fd("TextureLODBias", 13, 1),
		fd("MinLOD", 63, 52),
		fd("MaxLOD", 51, 40),
		fd("ShadowFunction", 38, 36),
		fd("BorderColorPointer", 87, 69),
		fd("MaximumAnisotropy", 117, 115),
		fd("NonNormalizedCoordinateEnable", 106, 106),
		fd("TCXAddressControlMode", 104, 102),
		fd("TCYAddressControlMode", 101, 99),
		fd("TCZAddressControlMode", 98, 96),
	))

	return s
}

func init() {
	for _, gen := range devinfo.Gens() {
		s := buildSet(gen)
		for _, l := range s.layouts {
			validate(l)
		}
		sets[gen] = s
	}
}

// validate asserts that every declared field fits the packet and that no
// two fields overlap. Runs once at load; a bad table dies at first touch.
func validate(l *Layout) {
	claimed := make([]uint32, l.Length)
	for _, f := range l.Fields {
		if f.Hi < f.Lo || f.Hi >= uint(l.Length*32) {
			panic(fmt.Errorf("cmds: %s field %s range [%d..%d] exceeds %d DWords",
				l.Name, f.Name, f.Lo, f.Hi, l.Length))
		}
		for bit := f.Lo; bit <= f.Hi; bit++ {
			if claimed[bit/32]&(1<<(bit%32)) != 0 {
				panic(fmt.Errorf("cmds: %s fields overlap at bit %d (%s)", l.Name, bit, f.Name))
			}
			claimed[bit/32] |= 1 << (bit % 32)
		}
	}
}
