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

package encoder

// Comparison functions, shared by depth, stencil, alpha and samplers.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLEqual
	CompareGreater
	CompareNotEqual
	CompareGEqual
	CompareAlways
)

// Blend factors.
type BlendFactor uint8

const (
	FactorZero BlendFactor = iota
	FactorOne
	FactorSrcColor
	FactorInvSrcColor
	FactorSrcAlpha
	FactorInvSrcAlpha
	FactorDstColor
	FactorInvDstColor
	FactorDstAlpha
	FactorInvDstAlpha
	FactorConstColor
	FactorInvConstColor
	FactorConstAlpha
	FactorInvConstAlpha
	FactorSrcAlphaSaturate
)

// Blend equations.
type BlendFunc uint8

const (
	BlendAdd BlendFunc = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// Stencil operations.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrClamp
	StencilDecrClamp
	StencilInvert
	StencilIncrWrap
	StencilDecrWrap
)

// Texture wrap modes. Not every mode exists on every generation; the
// sampler CSO constructor rejects the unsupported ones.
type WrapMode uint8

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapClampToBorder
	WrapMirrorRepeat
	WrapMirrorClampToEdge
	WrapMirrorClampToBorder
)

// Texture filters.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterAnisotropic
)

type MipFilter uint8

const (
	MipNone MipFilter = iota
	MipNearest
	MipLinear
)

// Polygon fill modes and face culling.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
	FillPoint
)

type CullFace uint8

const (
	CullNone CullFace = iota
	CullFront
	CullBack
	CullBoth
)

// RTBlend is the per-render-target slice of a blend state.
type RTBlend struct {
	BlendEnable    bool
	RGBFunc        BlendFunc
	RGBSrcFactor   BlendFactor
	RGBDstFactor   BlendFactor
	AlphaFunc      BlendFunc
	AlphaSrcFactor BlendFactor
	AlphaDstFactor BlendFactor
	ColorMask      uint8 // bit 0 = R .. bit 3 = A
}

// BlendState mirrors the frontend's blend CSO input.
type BlendState struct {
	IndependentBlendEnable bool
	AlphaToCoverage        bool
	LogicOpEnable          bool
	LogicOp                uint8
	DitherEnable           bool
	RT                     [8]RTBlend
}

// StencilFace is one side of the stencil state.
type StencilFace struct {
	Enabled   bool
	Func      CompareFunc
	FailOp    StencilOp
	ZFailOp   StencilOp
	ZPassOp   StencilOp
	ValueMask uint8
	WriteMask uint8
}

// DepthStencilAlphaState mirrors the frontend's DSA CSO input.
type DepthStencilAlphaState struct {
	DepthEnabled    bool
	DepthWriteMask  bool
	DepthFunc       CompareFunc
	Stencil         [2]StencilFace // front, back
	AlphaEnabled    bool
	AlphaFunc       CompareFunc
	AlphaRefValue   float32
}

// RasterizerState mirrors the frontend's rasterizer CSO input.
type RasterizerState struct {
	Cull                CullFace
	FrontCCW            bool
	FillFront           FillMode
	FillBack            FillMode
	ScissorEnable       bool
	LineWidth           float32
	LineSmooth          bool
	PointSmooth         bool
	FlatshadeFirst      bool
	DepthClipEnable     bool
	Multisample         bool
	OffsetTri           bool
	OffsetUnits         float32
	OffsetScale         float32
	OffsetClamp         float32
	PolyStippleEnable   bool
	LineStippleEnable   bool
	LineStipplePattern  uint16
	LineStippleFactor   uint8
}

// SamplerState mirrors the frontend's sampler CSO input.
type SamplerState struct {
	WrapS            WrapMode
	WrapT            WrapMode
	WrapR            WrapMode
	MinFilter        Filter
	MagFilter        Filter
	MipFilter        MipFilter
	MinLOD           float32
	MaxLOD           float32
	LODBias          float32
	MaxAnisotropy    uint8
	CompareEnable    bool
	CompareFunc      CompareFunc
	NormalizedCoords bool
	BorderColor      [4]float32
}

// VertexElement describes one fetched attribute.
type VertexElement struct {
	VertexBufferIndex uint8
	SrcOffset         uint16
	Format            uint16 // hardware surface format code
	InstanceDivisor   uint32
}

// VertexElementsState mirrors the frontend's vertex-element CSO input.
type VertexElementsState struct {
	Elements []VertexElement
}

// Viewport is a scale/translate transform plus depth range.
type Viewport struct {
	Scale     [3]float32
	Translate [3]float32
}

// ScissorRect is an inclusive pixel rectangle.
type ScissorRect struct {
	MinX, MinY uint16
	MaxX, MaxY uint16
}

// Framebuffer names the bound targets by buffer identity.
type Framebuffer struct {
	Width, Height uint16
	Samples       uint8
	NumColor      int
	Color         [8]BufferID
	Depth         BufferID
	DepthFormat   uint8
	DepthPitch    uint32
	Stencil       BufferID
	StencilPitch  uint32
}

// ConstantBuffer is one bound uniform range.
type ConstantBuffer struct {
	Buffer BufferID
	Offset uint32
	Size   uint32
}

// ShaderBuffer is an SSBO-style binding; SurfaceOffset is the binder
// offset of its prewritten surface state.
type ShaderBuffer struct {
	Buffer        BufferID
	Offset        uint32
	Size          uint32
	SurfaceOffset uint32
	Writable      bool
}

// ShaderImage is a storage-image binding.
type ShaderImage struct {
	Buffer        BufferID
	SurfaceOffset uint32
	Writable      bool
}

// SamplerView is a texture binding.
type SamplerView struct {
	Buffer        BufferID
	SurfaceOffset uint32
}

// StreamOutputTarget is one transform-feedback buffer binding.
type StreamOutputTarget struct {
	Buffer BufferID
	Offset uint32
	Size   uint32
}

// PushRange is one block of a uniform buffer pushed into the URB.
type PushRange struct {
	Buffer uint8  // index into the stage's constant buffers
	Offset uint16 // in 32-byte units
	Length uint16 // in 32-byte units
}

// SOOutput is one varying routed to a streamout buffer.
type SOOutput struct {
	Buffer         uint8
	DstOffset      uint16 // in DWords
	StartComponent uint8
	NumComponents  uint8
	Stream         uint8
	Register       uint8
}

// SOMap is the shader's varying-to-streamout routing plus per-buffer
// strides in DWords.
type SOMap struct {
	Outputs []SOOutput
	Stride  [4]uint16
}

// ProgramData carries the compiled-shader facts a stage packet needs.
// The three KSP slots are the SIMD8/16/32 entry points; stages other
// than the pixel shader use slot 0 only.
type ProgramData struct {
	KSP              [3]uint32
	DispatchGRF      [3]uint8
	DispatchEnable   [3]bool
	ScratchSize      uint32 // bytes per thread, power of two or zero
	URBReadLength    uint8
	URBReadOffset    uint8
	SamplerCount     uint8
	BindingCount     uint8
	PushRanges       []PushRange
	BarycentricModes uint8
	ComputedDepth    uint8
	UsesSourceDepth  bool
	KillsPixel       bool
	UsesSGVDrawID    bool
	UsesSGVBaseInst  bool
	WorkgroupSize    [3]uint16 // compute only
	SharedLocalSize  uint32    // compute only, bytes
	SO               *SOMap
}

// DrawInfo is the per-draw dynamic input.
type DrawInfo struct {
	Topology         uint8
	VertexCount      uint32
	InstanceCount    uint32
	StartVertex      uint32
	StartInstance    uint32
	BaseVertex       int32
	Indexed          bool
	PrimitiveRestart bool
	RestartIndex     uint32
}

// GridInfo is the per-dispatch dynamic input.
type GridInfo struct {
	Grid [3]uint32 // workgroup counts
}

// VertexBufferBinding is one bound vertex buffer.
type VertexBufferBinding struct {
	Buffer BufferID
	Offset uint32
	Stride uint16
}
