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

package eu

import (
	"github.com/atari-vcs/mesa-sub000/core/math/bits"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// compactImm squeezes a 32-bit immediate into the 13-bit compacted slot.
// ok is false when the value is not representable.
//
// Before gen12 the rule is uniform: the immediate must equal the sign
// extension of its own low 13 bits. Gen12 reuses the slot per-type.
func compactImm(inf *devinfo.Info, t RegType, imm uint32) (uint64, bool) {
	if inf.Gen < devinfo.Gen12 {
		if uint32(bits.SignExtend(uint64(imm)&0x1fff, 13)) != imm {
			return 0, false
		}
		return uint64(imm) & 0x1fff, true
	}

	switch t {
	case TypeF:
		// Upper 12 bits of the float; the mantissa tail must be clean.
		if imm&0xfffff != 0 {
			return 0, false
		}
		return uint64(imm) >> 20, true
	case TypeHF:
		// Half floats ride replicated in both 16-bit halves.
		if imm>>16 != imm&0xffff {
			return 0, false
		}
		h := imm & 0xffff
		if h&0xf != 0 {
			return 0, false
		}
		return uint64(h) >> 4, true
	case TypeUD, TypeV, TypeUV, TypeVF:
		if imm >= 1<<12 {
			return 0, false
		}
		return uint64(imm), true
	case TypeUW:
		if imm>>16 != 0 || imm >= 1<<12 {
			return 0, false
		}
		return uint64(imm), true
	case TypeD:
		if uint32(bits.SignExtend(uint64(imm)&0xfff, 12)) != imm {
			return 0, false
		}
		return uint64(imm) & 0xfff, true
	case TypeW:
		// Words ride replicated; the low half must sign-extend from 12
		// bits.
		if imm>>16 != imm&0xffff {
			return 0, false
		}
		w := imm & 0xffff
		if uint32(bits.SignExtend(uint64(w)&0xfff, 12))&0xffff != w {
			return 0, false
		}
		return uint64(w) & 0xfff, true
	default:
		// 64-bit and byte immediates never compact.
		return 0, false
	}
}

// uncompactImm is the inverse of compactImm.
func uncompactImm(inf *devinfo.Info, t RegType, slot uint64) uint32 {
	slot &= 0x1fff
	if inf.Gen < devinfo.Gen12 {
		return uint32(bits.SignExtend(slot, 13))
	}

	switch t {
	case TypeF:
		return uint32(slot&0xfff) << 20
	case TypeHF:
		h := uint32(slot) << 4 & 0xffff
		return h<<16 | h
	case TypeUD, TypeV, TypeUV, TypeVF, TypeUW:
		return uint32(slot)
	case TypeD:
		return uint32(bits.SignExtend(slot&0xfff, 12))
	case TypeW:
		w := uint32(bits.SignExtend(slot&0xfff, 12)) & 0xffff
		return w<<16 | w
	default:
		return uint32(slot)
	}
}
