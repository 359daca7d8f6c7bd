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

// Package eu implements the execution-unit instruction codec: 128-bit
// uncompacted and 64-bit compacted instruction words, the per-generation
// compaction lookup tables, and the whole-program compaction pass with
// branch rewriting.
package eu

import (
	"fmt"

	"github.com/atari-vcs/mesa-sub000/core/math/bits"
)

// Inst is a 128-bit uncompacted instruction word. Bit 0 is the LSB of the
// first DWord; bit numbers increase across DWords.
//
// The native field layout used by every generation this module supports:
//
//	[6:0]     opcode              [45:41]   dst subreg nr
//	[8]       access mode         [53:46]   dst reg nr
//	[10:9]    dep control         [55:54]   dst hstride
//	[11]      nib control         [57:56]   src0 reg file
//	[13:12]   qtr control         [61:58]   src0 reg type
//	[15:14]   thread control      [68:64]   src0 subreg nr
//	[19:16]   pred control        [76:69]   src0 reg nr
//	[20]      pred inverse        [77]      src0 abs
//	[23:21]   exec size           [78]      src0 negate
//	[27:24]   cond modifier       [82:79]   src0 vstride
//	[28]      acc wr control      [86:83]   src0 width
//	[29]      cmpt control        [88:87]   src0 hstride
//	[30]      debug control       [90:89]   src1 reg file
//	[31]      saturate            [94:91]   src1 reg type
//	[33:32]   flag reg            [100:96]  src1 subreg nr
//	[34]      mask control        [108:101] src1 reg nr
//	[36:35]   dst reg file        [109]     src1 abs
//	[40:37]   dst reg type        [110]     src1 negate
//	                              [114:111] src1 vstride
//	                              [118:115] src1 width
//	                              [120:119] src1 hstride
//	                              [127]     eot
//
// When src0 or src1 is an immediate, the 32-bit immediate occupies
// [127:96]. Jump-bearing instructions carry JIP in [127:96] and UIP in
// [95:64]. Three-source instructions share DW0 and the dst fields and
// use the layout described in compact3.go for the source operands.
type Inst [4]uint32

// Bits returns the inclusive bit range [lo..hi] of the instruction.
func (i *Inst) Bits(hi, lo uint) uint64 { return bits.Get(i[:], hi, lo) }

// SetBits writes v into the inclusive bit range [lo..hi].
func (i *Inst) SetBits(hi, lo uint, v uint64) { bits.Set(i[:], hi, lo, v) }

// Opcode is an execution-unit opcode.
type Opcode uint8

// The opcodes the codec knows about. Only control-flow and send opcodes
// need dedicated handling; everything else flows through the generic
// two-source or three-source paths.
const (
	OpIllegal Opcode = 0x00
	OpMov     Opcode = 0x01
	OpSel     Opcode = 0x02
	OpNot     Opcode = 0x04
	OpAnd     Opcode = 0x05
	OpOr      Opcode = 0x06
	OpXor     Opcode = 0x07
	OpShr     Opcode = 0x08
	OpShl     Opcode = 0x09
	OpAsr     Opcode = 0x0c
	OpCmp     Opcode = 0x10
	OpCmpn    Opcode = 0x11
	OpCsel    Opcode = 0x12
	OpBfe     Opcode = 0x18
	OpBfi2    Opcode = 0x1a
	OpJmpi    Opcode = 0x20
	OpIf      Opcode = 0x22
	OpElse    Opcode = 0x24
	OpEndif   Opcode = 0x25
	OpWhile   Opcode = 0x27
	OpBreak   Opcode = 0x28
	OpCont    Opcode = 0x29
	OpHalt    Opcode = 0x2a
	OpNenop   Opcode = 0x30
	OpAdd     Opcode = 0x40
	OpMul     Opcode = 0x41
	OpAvg     Opcode = 0x42
	OpFrc     Opcode = 0x43
	OpRndu    Opcode = 0x44
	OpRndd    Opcode = 0x45
	OpMac     Opcode = 0x48
	OpLzd     Opcode = 0x4a
	OpAddc    Opcode = 0x4e
	OpSubb    Opcode = 0x4f
	OpSad2    Opcode = 0x50
	OpMad     Opcode = 0x5a
	OpLrp     Opcode = 0x5b
	OpMath    Opcode = 0x38
	OpSend    Opcode = 0x31
	OpSendc   Opcode = 0x32
	OpNop     Opcode = 0x7e
)

// RegFile is a register file selector.
type RegFile uint8

// The register files.
const (
	ARF RegFile = 0
	GRF RegFile = 1
	MRF RegFile = 2
	IMM RegFile = 3
)

// RegType is a hardware operand data type.
type RegType uint8

// The operand data types.
const (
	TypeUD RegType = 0
	TypeD  RegType = 1
	TypeUW RegType = 2
	TypeW  RegType = 3
	TypeUB RegType = 4
	TypeB  RegType = 5
	TypeDF RegType = 6
	TypeF  RegType = 7
	TypeUQ RegType = 8
	TypeQ  RegType = 9
	TypeHF RegType = 10
	TypeVF RegType = 11
	TypeV  RegType = 12
	TypeUV RegType = 13
)

// Accessors for the named fields.

func (i *Inst) Opcode() Opcode        { return Opcode(i.Bits(6, 0)) }
func (i *Inst) SetOpcode(op Opcode)   { i.SetBits(6, 0, uint64(op)) }
func (i *Inst) AccessMode() uint64    { return i.Bits(8, 8) }
func (i *Inst) SetAccessMode(v uint64) { i.SetBits(8, 8, v) }
func (i *Inst) QtrControl() uint64    { return i.Bits(13, 12) }
func (i *Inst) SetQtrControl(v uint64) { i.SetBits(13, 12, v) }
func (i *Inst) PredControl() uint64   { return i.Bits(19, 16) }
func (i *Inst) SetPredControl(v uint64) { i.SetBits(19, 16, v) }
func (i *Inst) PredInverse() uint64   { return i.Bits(20, 20) }
func (i *Inst) SetPredInverse(v uint64) { i.SetBits(20, 20, v) }
func (i *Inst) ExecSize() uint64      { return i.Bits(23, 21) }
func (i *Inst) SetExecSize(v uint64)  { i.SetBits(23, 21, v) }
func (i *Inst) CondModifier() uint64  { return i.Bits(27, 24) }
func (i *Inst) SetCondModifier(v uint64) { i.SetBits(27, 24, v) }
func (i *Inst) AccWrControl() uint64  { return i.Bits(28, 28) }
func (i *Inst) SetAccWrControl(v uint64) { i.SetBits(28, 28, v) }
func (i *Inst) CmptControl() uint64   { return i.Bits(29, 29) }
func (i *Inst) SetCmptControl(v uint64) { i.SetBits(29, 29, v) }
func (i *Inst) DebugControl() uint64  { return i.Bits(30, 30) }
func (i *Inst) SetDebugControl(v uint64) { i.SetBits(30, 30, v) }
func (i *Inst) Saturate() uint64      { return i.Bits(31, 31) }
func (i *Inst) SetSaturate(v uint64)  { i.SetBits(31, 31, v) }
func (i *Inst) MaskControl() uint64   { return i.Bits(34, 34) }
func (i *Inst) SetMaskControl(v uint64) { i.SetBits(34, 34, v) }

func (i *Inst) DstRegFile() RegFile    { return RegFile(i.Bits(36, 35)) }
func (i *Inst) SetDstRegFile(f RegFile) { i.SetBits(36, 35, uint64(f)) }
func (i *Inst) DstRegType() RegType    { return RegType(i.Bits(40, 37)) }
func (i *Inst) SetDstRegType(t RegType) { i.SetBits(40, 37, uint64(t)) }
func (i *Inst) DstSubregNr() uint64    { return i.Bits(45, 41) }
func (i *Inst) SetDstSubregNr(v uint64) { i.SetBits(45, 41, v) }
func (i *Inst) DstRegNr() uint64       { return i.Bits(53, 46) }
func (i *Inst) SetDstRegNr(v uint64)   { i.SetBits(53, 46, v) }
func (i *Inst) DstHStride() uint64     { return i.Bits(55, 54) }
func (i *Inst) SetDstHStride(v uint64) { i.SetBits(55, 54, v) }

func (i *Inst) Src0RegFile() RegFile    { return RegFile(i.Bits(57, 56)) }
func (i *Inst) SetSrc0RegFile(f RegFile) { i.SetBits(57, 56, uint64(f)) }
func (i *Inst) Src0RegType() RegType    { return RegType(i.Bits(61, 58)) }
func (i *Inst) SetSrc0RegType(t RegType) { i.SetBits(61, 58, uint64(t)) }
func (i *Inst) Src0SubregNr() uint64    { return i.Bits(68, 64) }
func (i *Inst) SetSrc0SubregNr(v uint64) { i.SetBits(68, 64, v) }
func (i *Inst) Src0RegNr() uint64       { return i.Bits(76, 69) }
func (i *Inst) SetSrc0RegNr(v uint64)   { i.SetBits(76, 69, v) }
func (i *Inst) Src0VStride() uint64     { return i.Bits(82, 79) }
func (i *Inst) SetSrc0VStride(v uint64) { i.SetBits(82, 79, v) }
func (i *Inst) Src0Width() uint64       { return i.Bits(86, 83) }
func (i *Inst) SetSrc0Width(v uint64)   { i.SetBits(86, 83, v) }
func (i *Inst) Src0HStride() uint64     { return i.Bits(88, 87) }
func (i *Inst) SetSrc0HStride(v uint64) { i.SetBits(88, 87, v) }

func (i *Inst) Src1RegFile() RegFile    { return RegFile(i.Bits(90, 89)) }
func (i *Inst) SetSrc1RegFile(f RegFile) { i.SetBits(90, 89, uint64(f)) }
func (i *Inst) Src1RegType() RegType    { return RegType(i.Bits(94, 91)) }
func (i *Inst) SetSrc1RegType(t RegType) { i.SetBits(94, 91, uint64(t)) }
func (i *Inst) Src1SubregNr() uint64    { return i.Bits(100, 96) }
func (i *Inst) SetSrc1SubregNr(v uint64) { i.SetBits(100, 96, v) }
func (i *Inst) Src1RegNr() uint64       { return i.Bits(108, 101) }
func (i *Inst) SetSrc1RegNr(v uint64)   { i.SetBits(108, 101, v) }

func (i *Inst) EOT() uint64     { return i.Bits(127, 127) }
func (i *Inst) SetEOT(v uint64) { i.SetBits(127, 127, v) }

// Imm returns the 32-bit immediate carried in [127:96].
func (i *Inst) Imm() uint32     { return uint32(i.Bits(127, 96)) }
func (i *Inst) SetImm(v uint32) { i.SetBits(127, 96, uint64(v)) }

// JIP returns the signed jump offset in [127:96].
func (i *Inst) JIP() int32     { return int32(i.Bits(127, 96)) }
func (i *Inst) SetJIP(v int32) { i.SetBits(127, 96, uint64(uint32(v))) }

// UIP returns the secondary (loop/halt re-convergence) jump offset in
// [95:64].
func (i *Inst) UIP() int32     { return int32(i.Bits(95, 64)) }
func (i *Inst) SetUIP(v int32) { i.SetBits(95, 64, uint64(uint32(v))) }

// Is3Src returns true for three-source opcodes.
func (op Opcode) Is3Src() bool {
	switch op {
	case OpMad, OpLrp, OpBfe, OpBfi2, OpCsel:
		return true
	}
	return false
}

// IsBranch returns true for jump-bearing opcodes that carry a JIP.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpJmpi, OpIf, OpElse, OpEndif, OpWhile, OpBreak, OpCont, OpHalt:
		return true
	}
	return false
}

// HasUIP returns true for branch opcodes that also carry a UIP.
func (op Opcode) HasUIP() bool {
	switch op {
	case OpIf, OpElse, OpBreak, OpCont, OpHalt:
		return true
	}
	return false
}

// HasImm returns true if either source operand is an immediate.
func (i *Inst) HasImm() bool {
	if i.Opcode().Is3Src() || i.Opcode().IsBranch() {
		return false
	}
	return i.Src0RegFile() == IMM || i.Src1RegFile() == IMM
}

// ImmType returns the type of the immediate operand. Only valid when
// HasImm is true.
func (i *Inst) ImmType() RegType {
	if i.Src0RegFile() == IMM {
		return i.Src0RegType()
	}
	return i.Src1RegType()
}

// Reg is a register operand reference used by the instruction builders.
type Reg struct {
	File   RegFile
	Type   RegType
	Nr     uint8
	Subreg uint8
	// Region description; the encoded vstride/width/hstride values.
	VStride uint8
	Width   uint8
	HStride uint8
	Abs     bool
	Negate  bool
}

// R returns a direct GRF region <8;8,1> reference of the given type.
func R(nr uint8, t RegType) Reg {
	return Reg{File: GRF, Type: t, Nr: nr, VStride: 4, Width: 3, HStride: 1}
}

// RScalar returns a direct GRF scalar <0;1,0> reference of the given type.
func RScalar(nr uint8, sub uint8, t RegType) Reg {
	return Reg{File: GRF, Type: t, Nr: nr, Subreg: sub, Width: 0}
}

// ImmRef returns an immediate operand reference of the given type.
func ImmRef(t RegType) Reg {
	return Reg{File: IMM, Type: t}
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// ALU1 builds a single-source instruction. execSize is the encoded
// execution size (0=1 ... 5=32). The destination stride defaults to <1>.
func ALU1(op Opcode, execSize uint64, dst, src0 Reg) Inst {
	i := Inst{}
	i.SetOpcode(op)
	i.SetExecSize(execSize)
	i.SetDstRegFile(dst.File)
	i.SetDstRegType(dst.Type)
	i.SetDstRegNr(uint64(dst.Nr))
	i.SetDstSubregNr(uint64(dst.Subreg))
	i.SetDstHStride(1)
	setSrc0(&i, src0)
	return i
}

// ALU2 builds a two-source instruction.
func ALU2(op Opcode, execSize uint64, dst, src0, src1 Reg) Inst {
	i := ALU1(op, execSize, dst, src0)
	setSrc1(&i, src1)
	return i
}

// ALU2Imm builds a two-source instruction whose src1 is the immediate v.
func ALU2Imm(op Opcode, execSize uint64, dst, src0 Reg, t RegType, v uint32) Inst {
	i := ALU1(op, execSize, dst, src0)
	i.SetSrc1RegFile(IMM)
	i.SetSrc1RegType(t)
	i.SetImm(v)
	return i
}

// Branch builds a jump-bearing instruction with the given JIP and UIP in
// raw units (bytes or compacted units per the generation).
func Branch(op Opcode, execSize uint64, jip, uip int32) Inst {
	i := Inst{}
	i.SetOpcode(op)
	i.SetExecSize(execSize)
	i.SetJIP(jip)
	if op.HasUIP() {
		i.SetUIP(uip)
	}
	return i
}

func setSrc0(i *Inst, src Reg) {
	i.SetSrc0RegFile(src.File)
	i.SetSrc0RegType(src.Type)
	if src.File == IMM {
		return
	}
	i.SetSrc0RegNr(uint64(src.Nr))
	i.SetSrc0SubregNr(uint64(src.Subreg))
	i.SetSrc0VStride(uint64(src.VStride))
	i.SetSrc0Width(uint64(src.Width))
	i.SetSrc0HStride(uint64(src.HStride))
	i.SetBits(77, 77, b2u(src.Abs))
	i.SetBits(78, 78, b2u(src.Negate))
}

func setSrc1(i *Inst, src Reg) {
	i.SetSrc1RegFile(src.File)
	i.SetSrc1RegType(src.Type)
	if src.File == IMM {
		return
	}
	i.SetSrc1RegNr(uint64(src.Nr))
	i.SetSrc1SubregNr(uint64(src.Subreg))
	i.SetBits(114, 111, uint64(src.VStride))
	i.SetBits(118, 115, uint64(src.Width))
	i.SetBits(120, 119, uint64(src.HStride))
	i.SetBits(109, 109, b2u(src.Abs))
	i.SetBits(110, 110, b2u(src.Negate))
}

func (i Inst) String() string {
	return fmt.Sprintf("inst{%08x %08x %08x %08x}", i[3], i[2], i[1], i[0])
}
