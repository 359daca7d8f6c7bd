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

// Three-source instructions share DW0 and the destination fields with the
// two-source layout but pack their operands differently:
//
//	[57:56]   shared source type (0=f, 1=d, 2=ud, 3=hf)
//	[68:64]   src0 subreg nr     [98:91]   src1 reg nr
//	[76:69]   src0 reg nr        [100:99]  src1 neg/abs
//	[78:77]   src0 neg/abs       [105:101] src2 subreg nr
//	[85]      src0 replicate     [113:106] src2 reg nr
//	[90:86]   src1 subreg nr     [115:114] src2 neg/abs
//
// Bits [55:54], [63:58], [84:79] and [127:116] are reserved.
//
// The compacted form:
//
//	[6:0]    opcode             [37:30]  dst reg nr
//	[7]      debug control      [45:38]  src0 reg nr
//	[12:8]   control index      [53:46]  src1 reg nr
//	[17:13]  source index       [61:54]  src2 reg nr
//	[22:18]  subreg index       [63:62]  zero
//	[27:23]  modifier index
//	[29]     cmpt control = 1

// Src3Type values for the shared three-source type field.
const (
	Src3F  uint64 = 0
	Src3D  uint64 = 1
	Src3UD uint64 = 2
	Src3HF uint64 = 3
)

func (i *Inst) Src3Type() uint64     { return i.Bits(57, 56) }
func (i *Inst) SetSrc3Type(v uint64) { i.SetBits(57, 56, v) }

func (i *Inst) Src13RegNr() uint64        { return i.Bits(98, 91) }
func (i *Inst) SetSrc13RegNr(v uint64)    { i.SetBits(98, 91, v) }
func (i *Inst) Src13SubregNr() uint64     { return i.Bits(90, 86) }
func (i *Inst) SetSrc13SubregNr(v uint64) { i.SetBits(90, 86, v) }
func (i *Inst) Src23RegNr() uint64        { return i.Bits(113, 106) }
func (i *Inst) SetSrc23RegNr(v uint64)    { i.SetBits(113, 106, v) }
func (i *Inst) Src23SubregNr() uint64     { return i.Bits(105, 101) }
func (i *Inst) SetSrc23SubregNr(v uint64) { i.SetBits(105, 101, v) }

func src3TypeOf(t RegType) uint64 {
	switch t {
	case TypeF:
		return Src3F
	case TypeD:
		return Src3D
	case TypeUD:
		return Src3UD
	case TypeHF:
		return Src3HF
	}
	panic("unsupported three-source operand type")
}

// ALU3 builds a three-source instruction. All sources must be direct GRF
// references sharing one type.
func ALU3(op Opcode, execSize uint64, dst, src0, src1, src2 Reg) Inst {
	i := Inst{}
	i.SetOpcode(op)
	i.SetExecSize(execSize)
	i.SetDstRegFile(GRF)
	i.SetDstRegType(dst.Type)
	i.SetDstSubregNr(uint64(dst.Subreg))
	i.SetDstRegNr(uint64(dst.Nr))
	i.SetSrc3Type(src3TypeOf(src0.Type))
	i.SetSrc0SubregNr(uint64(src0.Subreg))
	i.SetSrc0RegNr(uint64(src0.Nr))
	i.SetBits(77, 77, b2u(src0.Negate))
	i.SetBits(78, 78, b2u(src0.Abs))
	i.SetSrc13SubregNr(uint64(src1.Subreg))
	i.SetSrc13RegNr(uint64(src1.Nr))
	i.SetBits(99, 99, b2u(src1.Negate))
	i.SetBits(100, 100, b2u(src1.Abs))
	i.SetSrc23SubregNr(uint64(src2.Subreg))
	i.SetSrc23RegNr(uint64(src2.Nr))
	i.SetBits(114, 114, b2u(src2.Negate))
	i.SetBits(115, 115, b2u(src2.Abs))
	return i
}

func compact3(inf *devinfo.Info, i *Inst) (Compacted, error) {
	// The compacted form can only name GRF destinations and has no slots
	// for the reserved windows.
	if i.DstRegFile() != GRF {
		return 0, ErrNotCompactable
	}
	if i.Bits(7, 7) != 0 || i.Bits(55, 54) != 0 || i.Bits(63, 58) != 0 ||
		i.Bits(84, 79) != 0 || i.Bits(127, 116) != 0 {
		return 0, ErrNotCompactable
	}

	ts := tablesFor(inf.Gen)
	ctrlIdx, ok := lookup(&ts.control3, gather(i, control3Ranges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}
	srcIdx, ok := lookup(&ts.source3, gather(i, source3Ranges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}
	subIdx, ok := lookup(&ts.subreg3, gather(i, subreg3Ranges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}
	modIdx, ok := lookup(&ts.modifier3, gather(i, modifier3Ranges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}

	c := uint64(0)
	c = bits.Set64(c, 6, 0, uint64(i.Opcode()))
	c = bits.Set64(c, 7, 7, i.DebugControl())
	c = bits.Set64(c, 12, 8, ctrlIdx)
	c = bits.Set64(c, 17, 13, srcIdx)
	c = bits.Set64(c, 22, 18, subIdx)
	c = bits.Set64(c, 27, 23, modIdx)
	c = bits.Set64(c, 29, 29, 1)
	c = bits.Set64(c, 37, 30, i.DstRegNr())
	c = bits.Set64(c, 45, 38, i.Src0RegNr())
	c = bits.Set64(c, 53, 46, i.Src13RegNr())
	c = bits.Set64(c, 61, 54, i.Src23RegNr())
	return Compacted(c), nil
}

func uncompact3(inf *devinfo.Info, c Compacted) Inst {
	ts := tablesFor(inf.Gen)
	i := Inst{}
	i.SetOpcode(c.Opcode())
	i.SetDebugControl(bits.Get64(uint64(c), 7, 7))
	i.SetDstRegFile(GRF)

	scatter(&i, control3Ranges, 128, uint64(ts.control3[bits.Get64(uint64(c), 12, 8)]))
	scatter(&i, source3Ranges, 128, uint64(ts.source3[bits.Get64(uint64(c), 17, 13)]))
	scatter(&i, subreg3Ranges, 128, uint64(ts.subreg3[bits.Get64(uint64(c), 22, 18)]))
	scatter(&i, modifier3Ranges, 128, uint64(ts.modifier3[bits.Get64(uint64(c), 27, 23)]))

	i.SetDstRegNr(bits.Get64(uint64(c), 37, 30))
	i.SetSrc0RegNr(bits.Get64(uint64(c), 45, 38))
	i.SetSrc13RegNr(bits.Get64(uint64(c), 53, 46))
	i.SetSrc23RegNr(bits.Get64(uint64(c), 61, 54))
	return i
}
