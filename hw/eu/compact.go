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
	"github.com/atari-vcs/mesa-sub000/core/fault"
	"github.com/atari-vcs/mesa-sub000/core/math/bits"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// ErrNotCompactable is returned when an instruction has no 64-bit
// encoding. This is a normal outcome; the caller emits the full 128-bit
// form.
const ErrNotCompactable = fault.Const("instruction not compactable")

// Compacted is a 64-bit compacted instruction word.
//
// Layout:
//
//	[6:0]    opcode            [34:30]  src1 index / imm[12:8]
//	[7]      debug control     [42:35]  dst reg nr
//	[12:8]   control index     [50:43]  src0 reg nr
//	[17:13]  datatype index    [58:51]  src1 reg nr / imm[7:0]
//	[22:18]  subreg index      [63:59]  scheduling (gen12+), else zero
//	[27:23]  src0 index
//	[29]     cmpt control = 1
//
// Three-source instructions use the layout in compact3.go; the two forms
// share the opcode and cmpt control positions.
type Compacted uint64

// CmptControl reports whether the word is marked compacted. The bit
// position matches the uncompacted form, which is how a mixed program
// stream is walked.
func (c Compacted) CmptControl() uint64 { return bits.Get64(uint64(c), 29, 29) }

// Opcode returns the opcode of the compacted word.
func (c Compacted) Opcode() Opcode { return Opcode(bits.Get64(uint64(c), 6, 0)) }

// Compact attempts to encode i as a 64-bit compacted word. On failure the
// result is zero and ErrNotCompactable is returned; i is never modified.
//
// Compact does not run the precompaction rewrites; callers that want the
// better hit rate apply Precompact first (the stream pass does).
func Compact(inf *devinfo.Info, i *Inst) (Compacted, error) {
	op := i.Opcode()
	if op.Is3Src() {
		return compact3(inf, i)
	}

	// Bit 7 is reserved in the uncompacted form and has no compacted slot.
	if i.Bits(7, 7) != 0 {
		return 0, ErrNotCompactable
	}

	isImm := i.HasImm()
	isBranch := op.IsBranch()

	var imm13 uint64
	switch {
	case isImm:
		v, ok := compactImm(inf, i.ImmType(), i.Imm())
		if !ok {
			return 0, ErrNotCompactable
		}
		imm13 = v
	case isBranch:
		// The jump offset rides in the immediate slot. A live UIP has no
		// compacted home.
		if i.Bits(95, 64) != 0 {
			return 0, ErrNotCompactable
		}
		jip := i.JIP()
		if jip < -(1<<12) || jip >= 1<<12 {
			return 0, ErrNotCompactable
		}
		imm13 = uint64(uint32(jip)) & 0x1fff
	default:
		// Reserved bits and the EOT bit have no compacted slot.
		if i.Bits(127, 121) != 0 {
			return 0, ErrNotCompactable
		}
	}

	// Bits at or above the immediate slot are reconstituted from it on
	// decode rather than through the tables.
	maskFrom := uint(128)
	if isImm || isBranch {
		maskFrom = 96
	}

	ts := tablesFor(inf.Gen)
	ctrlIdx, ok := lookup(&ts.control, gather(i, controlRanges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}
	dtIdx, ok := lookup(&ts.datatype, gather(i, dataRanges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}
	subIdx, ok := lookup(&ts.subreg, gather(i, subregRanges, maskFrom))
	if !ok {
		return 0, ErrNotCompactable
	}
	src0Idx, ok := lookup(&ts.src0, gather(i, src0Ranges, 128))
	if !ok {
		return 0, ErrNotCompactable
	}

	var src1Slot, src1Nr uint64
	if isImm || isBranch {
		src1Slot = imm13 >> 8
		src1Nr = imm13 & 0xff
	} else {
		src1Slot, ok = lookup(&ts.src1, gather(i, src1Ranges, 128))
		if !ok {
			return 0, ErrNotCompactable
		}
		src1Nr = i.Src1RegNr()
	}

	c := uint64(0)
	c = bits.Set64(c, 6, 0, uint64(op))
	c = bits.Set64(c, 7, 7, i.DebugControl())
	c = bits.Set64(c, 12, 8, ctrlIdx)
	c = bits.Set64(c, 17, 13, dtIdx)
	c = bits.Set64(c, 22, 18, subIdx)
	c = bits.Set64(c, 27, 23, src0Idx)
	c = bits.Set64(c, 29, 29, 1)
	c = bits.Set64(c, 34, 30, src1Slot)
	c = bits.Set64(c, 42, 35, i.DstRegNr())
	c = bits.Set64(c, 50, 43, i.Src0RegNr())
	c = bits.Set64(c, 58, 51, src1Nr)
	return Compacted(c), nil
}

// Uncompact decodes a compacted word back into its 128-bit form. It is
// the exact inverse of Compact on the image of Compact.
func Uncompact(inf *devinfo.Info, c Compacted) Inst {
	op := c.Opcode()
	if op.Is3Src() {
		return uncompact3(inf, c)
	}

	ts := tablesFor(inf.Gen)
	i := Inst{}
	i.SetOpcode(op)
	i.SetDebugControl(bits.Get64(uint64(c), 7, 7))

	scatter(&i, controlRanges, 128, uint64(ts.control[bits.Get64(uint64(c), 12, 8)]))
	scatter(&i, dataRanges, 128, uint64(ts.datatype[bits.Get64(uint64(c), 17, 13)]))

	// The datatype bits decide how the src1/immediate slot reads.
	isImm := i.HasImm()
	isBranch := op.IsBranch()
	maskFrom := uint(128)
	if isImm || isBranch {
		maskFrom = 96
	}

	scatter(&i, subregRanges, maskFrom, uint64(ts.subreg[bits.Get64(uint64(c), 22, 18)]))
	scatter(&i, src0Ranges, 128, uint64(ts.src0[bits.Get64(uint64(c), 27, 23)]))

	i.SetDstRegNr(bits.Get64(uint64(c), 42, 35))
	i.SetSrc0RegNr(bits.Get64(uint64(c), 50, 43))

	slot13 := bits.Get64(uint64(c), 34, 30)<<8 | bits.Get64(uint64(c), 58, 51)
	switch {
	case isImm:
		i.SetImm(uncompactImm(inf, i.ImmType(), slot13))
	case isBranch:
		i.SetJIP(int32(bits.SignExtend(slot13, 13)))
	default:
		scatter(&i, src1Ranges, 128, uint64(ts.src1[bits.Get64(uint64(c), 34, 30)]))
		i.SetSrc1RegNr(bits.Get64(uint64(c), 58, 51))
	}
	return i
}
