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

package state

import "github.com/atari-vcs/mesa-sub000/encoder"

// Frontend enum values to hardware encodings. A return of -1 means the
// combination has no encoding on the generations this encoder targets;
// CSO creation surfaces that as ErrNotSupported.

func hwCompareFunc(f encoder.CompareFunc) uint64 {
	switch f {
	case encoder.CompareAlways:
		return 0
	case encoder.CompareNever:
		return 1
	case encoder.CompareLess:
		return 2
	case encoder.CompareEqual:
		return 3
	case encoder.CompareLEqual:
		return 4
	case encoder.CompareGreater:
		return 5
	case encoder.CompareNotEqual:
		return 6
	case encoder.CompareGEqual:
		return 7
	}
	return 0
}

func hwBlendFactor(f encoder.BlendFactor) uint64 {
	switch f {
	case encoder.FactorOne:
		return 0x01
	case encoder.FactorSrcColor:
		return 0x02
	case encoder.FactorSrcAlpha:
		return 0x03
	case encoder.FactorDstAlpha:
		return 0x04
	case encoder.FactorDstColor:
		return 0x05
	case encoder.FactorSrcAlphaSaturate:
		return 0x06
	case encoder.FactorConstColor:
		return 0x07
	case encoder.FactorConstAlpha:
		return 0x08
	case encoder.FactorZero:
		return 0x11
	case encoder.FactorInvSrcColor:
		return 0x12
	case encoder.FactorInvSrcAlpha:
		return 0x13
	case encoder.FactorInvDstAlpha:
		return 0x14
	case encoder.FactorInvDstColor:
		return 0x15
	case encoder.FactorInvConstColor:
		return 0x17
	case encoder.FactorInvConstAlpha:
		return 0x18
	}
	return 0x01
}

func hwBlendFunc(f encoder.BlendFunc) uint64 {
	return uint64(f) // ADD..MAX match the hardware encoding
}

func hwStencilOp(op encoder.StencilOp) uint64 {
	switch op {
	case encoder.StencilKeep:
		return 0
	case encoder.StencilZero:
		return 1
	case encoder.StencilReplace:
		return 2
	case encoder.StencilIncrClamp:
		return 3
	case encoder.StencilDecrClamp:
		return 4
	case encoder.StencilIncrWrap:
		return 5
	case encoder.StencilDecrWrap:
		return 6
	case encoder.StencilInvert:
		return 7
	}
	return 0
}

func hwWrapMode(w encoder.WrapMode) int {
	switch w {
	case encoder.WrapRepeat:
		return 0
	case encoder.WrapMirrorRepeat:
		return 1
	case encoder.WrapClampToEdge:
		return 2
	case encoder.WrapClampToBorder:
		return 4
	case encoder.WrapMirrorClampToEdge:
		return 5
	}
	return -1
}

func hwFilter(f encoder.Filter) uint64 {
	switch f {
	case encoder.FilterNearest:
		return 0
	case encoder.FilterLinear:
		return 1
	case encoder.FilterAnisotropic:
		return 2
	}
	return 0
}

func hwMipFilter(f encoder.MipFilter) uint64 {
	switch f {
	case encoder.MipNone:
		return 0
	case encoder.MipNearest:
		return 1
	case encoder.MipLinear:
		return 3
	}
	return 0
}

func hwCullMode(c encoder.CullFace) uint64 {
	switch c {
	case encoder.CullBoth:
		return 0
	case encoder.CullNone:
		return 1
	case encoder.CullFront:
		return 2
	case encoder.CullBack:
		return 3
	}
	return 1
}

func hwFillMode(f encoder.FillMode) uint64 {
	switch f {
	case encoder.FillSolid:
		return 0
	case encoder.FillWireframe:
		return 1
	case encoder.FillPoint:
		return 2
	}
	return 0
}
