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

import "github.com/atari-vcs/mesa-sub000/hw/devinfo"

// Precompact rewrites i into a semantically identical form that is more
// likely to hit the compaction tables. The stream pass applies it to every
// instruction before attempting compaction; the rewritten form is what a
// round trip reproduces.
func Precompact(inf *devinfo.Info, i *Inst) {
	if !i.HasImm() {
		return
	}

	// When src0 carries the immediate the src1 operand fields are dead;
	// zero them so they do not miss the datatype table.
	if i.Src0RegFile() == IMM {
		i.SetSrc1RegFile(ARF)
		i.SetSrc1RegType(TypeUD)
	}

	// A float 0.0 immediate re-expresses as a vector-float zero, whose
	// datatype combination has a table entry. Gen12 floats compact
	// directly, so the retype would only cost a table slot there.
	if inf.Gen < devinfo.Gen12 && i.ImmType() == TypeF && i.Imm() == 0 {
		if i.Src0RegFile() == IMM {
			i.SetSrc0RegType(TypeVF)
		} else {
			i.SetSrc1RegType(TypeVF)
		}
	}

	// Gen12 signed-dword immediates only compact through the 12-bit sign
	// path; small non-negative ones do better as unsigned. A conditional
	// modifier or saturate reads the signedness, so those keep their
	// types.
	if inf.Gen >= devinfo.Gen12 &&
		i.CondModifier() == 0 && i.Saturate() == 0 &&
		i.DstRegType() == TypeD && i.Src0RegType() == TypeD &&
		i.Src1RegFile() == IMM && i.Src1RegType() == TypeD &&
		i.Imm() < 1<<12 {
		i.SetDstRegType(TypeUD)
		i.SetSrc0RegType(TypeUD)
		i.SetSrc1RegType(TypeUD)
	}
}
