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
	"context"
	"fmt"

	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// The ip register in the architecture file. ADD instructions targeting it
// are in-stream jumps whose immediate is a byte offset.
const arfIP = 0x10

// Relocation is a byte offset into the uncompacted program that must be
// carried over to the compacted layout (send immediates, surface
// references patched later by the kernel loader).
type Relocation struct {
	Offset uint32
}

// CompactedProgram is the result of a whole-program compaction pass.
type CompactedProgram struct {
	// Words is the packed instruction stream: a mix of 64-bit compacted
	// and 128-bit uncompacted words, DWord by DWord.
	Words []uint32

	// CompactedBefore[i] is the net number of 8-byte slots saved before
	// old instruction i; the final element is the total. Old instruction
	// i starts at byte 16*i - 8*CompactedBefore[i] of the new stream.
	CompactedBefore []int

	// OldIndexFor maps each 8-byte slot of Words to the old instruction
	// index it came from.
	OldIndexFor []int

	// Relocations are the input relocations re-pointed at the new layout.
	Relocations []Relocation
}

// ByteOffset returns the new-stream byte offset of old instruction i.
func (p *CompactedProgram) ByteOffset(i int) uint32 {
	return uint32(16*i - 8*p.CompactedBefore[i])
}

// isIPAdd reports an ADD writing the ip register with an immediate, the
// in-stream jump idiom used for computed returns.
func isIPAdd(i *Inst) bool {
	return i.Opcode() == OpAdd &&
		i.DstRegFile() == ARF && i.DstRegNr() == arfIP &&
		i.Src1RegFile() == IMM
}

// CompactProgram rewrites a program into its compacted layout. Every
// instruction is precompacted and then compacted when a 64-bit encoding
// exists; jump offsets and relocations are rewritten for the new layout.
// The input slice is not modified.
func CompactProgram(ctx context.Context, inf *devinfo.Info, insts []Inst, relocs []Relocation) *CompactedProgram {
	work := make([]Inst, len(insts))
	copy(work, insts)
	for idx := range work {
		Precompact(inf, &work[idx])
	}

	p := &CompactedProgram{
		CompactedBefore: make([]int, len(work)+1),
	}
	slotOf := make([]int, len(work))
	compacted := make([]bool, len(work))
	net := 0

	for idx := range work {
		inst := &work[idx]
		c, err := Compact(inf, inst)
		if err == nil {
			if Strict {
				verifyRoundTrip(ctx, inf, inst, c)
			}
			p.CompactedBefore[idx] = net
			slotOf[idx] = len(p.Words) / 2
			compacted[idx] = true
			p.Words = append(p.Words, uint32(c), uint32(c>>32))
			p.OldIndexFor = append(p.OldIndexFor, idx)
			net++
			continue
		}

		// Some cores require full-width instructions to keep 16-byte
		// alignment; pad with a compacted nenop when they would not.
		if inf.Has(devinfo.WaAlignedUncompactedInst) && len(p.Words)%4 != 0 {
			pad := Inst{}
			pad.SetOpcode(OpNenop)
			pc, err := Compact(inf, &pad)
			if err != nil {
				panic(fmt.Errorf("eu: nenop did not compact on %v", inf.Gen))
			}
			p.Words = append(p.Words, uint32(pc), uint32(pc>>32))
			p.OldIndexFor = append(p.OldIndexFor, idx)
			net--
		}

		p.CompactedBefore[idx] = net
		slotOf[idx] = len(p.Words) / 2
		p.Words = append(p.Words, inst[0], inst[1], inst[2], inst[3])
		p.OldIndexFor = append(p.OldIndexFor, idx, idx)
	}
	p.CompactedBefore[len(work)] = net

	// Jump offsets were computed against the uncompacted layout; rewrite
	// them now that every instruction's position is known.
	for idx := range work {
		inst := &work[idx]
		op := inst.Opcode()
		switch {
		case op.IsBranch():
			changed := false
			if jip := inst.JIP(); jip != 0 {
				if v, ok := rewriteJump(inf, p, idx, jip); ok {
					inst.SetJIP(v)
					changed = true
				}
			}
			if uip := inst.UIP(); op.HasUIP() && uip != 0 {
				if v, ok := rewriteJump(inf, p, idx, uip); ok {
					inst.SetUIP(v)
					changed = true
				}
			}
			if !changed {
				continue
			}
			patch(ctx, inf, p, inst, slotOf[idx], compacted[idx])
		case isIPAdd(inst):
			old := int32(inst.Imm())
			target := idx + int(old)/16
			delta := int32(p.CompactedBefore[target] - p.CompactedBefore[idx])
			if delta == 0 {
				continue
			}
			inst.SetImm(uint32(old - 8*delta))
			patch(ctx, inf, p, inst, slotOf[idx], compacted[idx])
		}
	}

	for _, r := range relocs {
		saved := p.CompactedBefore[min(int(r.Offset)/16, len(work))]
		p.Relocations = append(p.Relocations, Relocation{
			Offset: r.Offset - uint32(8*saved),
		})
	}
	return p
}

// jumpTargetDelta converts a raw jump offset into an instruction-index
// delta. Offsets count bytes on generations with BranchUnitsBytes and
// 8-byte compacted units before that.
func jumpTargetDelta(inf *devinfo.Info, jip int32) int {
	if inf.BranchUnitsBytes {
		return int(jip) / 16
	}
	return int(jip) / 2
}

// rewriteJump adjusts one jump offset of the branch at idx for the
// compactions strictly between the branch and its target. ok is false
// when nothing moved.
func rewriteJump(inf *devinfo.Info, p *CompactedProgram, idx int, old int32) (int32, bool) {
	target := idx + jumpTargetDelta(inf, old)
	delta := int32(p.CompactedBefore[target] - p.CompactedBefore[idx])
	if delta == 0 {
		return old, false
	}
	if inf.BranchUnitsBytes {
		return old - 8*delta, true
	}
	return old - delta, true
}

// patch re-emits a rewritten instruction into the packed stream.
func patch(ctx context.Context, inf *devinfo.Info, p *CompactedProgram, inst *Inst, slot int, wasCompacted bool) {
	dw := slot * 2
	if !wasCompacted {
		// JIP and ip-add immediates live in DW3; UIP in DW2.
		p.Words[dw+2] = inst[2]
		p.Words[dw+3] = inst[3]
		return
	}
	c, err := Compact(inf, inst)
	if err != nil {
		// Rewriting only ever shrinks the offset magnitude, so the
		// compacted encoding cannot be lost.
		panic(fmt.Errorf("eu: rewritten jump no longer compacts: %v", inst))
	}
	if Strict {
		verifyRoundTrip(ctx, inf, inst, c)
	}
	p.Words[dw] = uint32(c)
	p.Words[dw+1] = uint32(c >> 32)
}

// DecodeProgram expands a packed stream back into 128-bit instructions,
// returning each instruction's byte offset alongside. Nenop padding is
// returned as-is.
func DecodeProgram(inf *devinfo.Info, words []uint32) ([]Inst, []uint32) {
	var insts []Inst
	var offsets []uint32
	for dw := 0; dw < len(words); {
		offsets = append(offsets, uint32(dw*4))
		if words[dw]>>29&1 != 0 {
			c := Compacted(uint64(words[dw]) | uint64(words[dw+1])<<32)
			insts = append(insts, Uncompact(inf, c))
			dw += 2
			continue
		}
		insts = append(insts, Inst{words[dw], words[dw+1], words[dw+2], words[dw+3]})
		dw += 4
	}
	return insts, offsets
}

// Serialize packs the DWord stream into little-endian bytes for upload.
func (p *CompactedProgram) Serialize() []byte {
	out := make([]byte, 0, len(p.Words)*4)
	for _, w := range p.Words {
		out = append(out,
			byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}
