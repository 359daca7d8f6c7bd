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

// Package so builds the transform-feedback declaration list and the
// streamout control packet from a shader's varying-to-buffer routing.
package so

import (
	"fmt"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
)

const (
	maxStreams        = 4
	maxDeclsPerStream = 128
)

// DeclList is the built declaration list. Decl offsets count DWords.
type DeclList struct {
	Entries    [maxStreams][]uint16
	BufferMask [maxStreams]uint8
	NextOffset [4]uint16
	Packet     []uint32
}

// Build walks the outputs in order, padding holes of one to four
// components until each output lands on its declared offset. More than
// 128 declarations on a stream is a programming error.
func Build(set *cmds.Set, m *encoder.SOMap) *DeclList {
	decl := set.Lookup("SO_DECL")
	pack16 := func(f cmds.F) uint16 {
		return uint16(decl.Pack(f)[0])
	}

	d := &DeclList{}
	for _, out := range m.Outputs {
		if out.Stream >= maxStreams {
			panic(fmt.Errorf("so: stream %d out of range", out.Stream))
		}
		s, buf := out.Stream, out.Buffer
		for d.NextOffset[buf] < out.DstOffset {
			hole := out.DstOffset - d.NextOffset[buf]
			if hole > 4 {
				hole = 4
			}
			d.Entries[s] = append(d.Entries[s], pack16(cmds.F{
				"HoleFlag":         1,
				"OutputBufferSlot": uint64(buf),
				"ComponentMask":    uint64(1<<hole - 1),
			}))
			d.NextOffset[buf] += hole
		}
		mask := uint64(1<<out.NumComponents-1) << out.StartComponent
		d.Entries[s] = append(d.Entries[s], pack16(cmds.F{
			"OutputBufferSlot": uint64(buf),
			"RegisterIndex":    uint64(out.Register),
			"ComponentMask":    mask,
		}))
		d.NextOffset[buf] += uint16(out.NumComponents)
		d.BufferMask[s] |= 1 << buf
	}

	rows := 0
	for s := 0; s < maxStreams; s++ {
		if n := len(d.Entries[s]); n > rows {
			rows = n
		}
		if len(d.Entries[s]) > maxDeclsPerStream {
			panic(fmt.Errorf("so: %d declarations on stream %d", len(d.Entries[s]), s))
		}
	}

	layout := set.Lookup("3DSTATE_SO_DECL_LIST")
	head := layout.Pack(cmds.F{
		"StreamtoBufferSelects0": uint64(d.BufferMask[0]),
		"StreamtoBufferSelects1": uint64(d.BufferMask[1]),
		"StreamtoBufferSelects2": uint64(d.BufferMask[2]),
		"StreamtoBufferSelects3": uint64(d.BufferMask[3]),
		"NumEntries0":            uint64(len(d.Entries[0])),
		"NumEntries1":            uint64(len(d.Entries[1])),
		"NumEntries2":            uint64(len(d.Entries[2])),
		"NumEntries3":            uint64(len(d.Entries[3])),
	})
	total := layout.Length + 2*rows
	head[0] |= uint32(total - 2)
	d.Packet = head
	for row := 0; row < rows; row++ {
		at := func(s int) uint32 {
			if row < len(d.Entries[s]) {
				return uint32(d.Entries[s][row])
			}
			return 0
		}
		d.Packet = append(d.Packet,
			at(0)|at(1)<<16,
			at(2)|at(3)<<16)
	}
	return d
}

// StreamoutPacket builds 3DSTATE_STREAMOUT. Every stream reads the full
// vertex, so the read length covers the highest register any output
// touches; pitches come from the map's per-buffer strides in DWords.
func StreamoutPacket(set *cmds.Set, m *encoder.SOMap, enable bool, renderDisable bool) []uint32 {
	var maxReg [maxStreams]uint8
	seen := [maxStreams]bool{}
	for _, out := range m.Outputs {
		if out.Register >= maxReg[out.Stream] {
			maxReg[out.Stream] = out.Register
		}
		seen[out.Stream] = true
	}
	readLen := func(s int) uint64 {
		if !seen[s] {
			return 0
		}
		// Two vec4 varyings per 256-bit URB row.
		return uint64(maxReg[s])/2 + 1
	}
	f := cmds.F{
		"SOFunctionEnable":    b2u(enable),
		"RenderingDisable":    b2u(renderDisable),
		"SOStatisticsEnable":  b2u(enable),
		"Buffer0SurfacePitch": uint64(m.Stride[0]) * 4,
		"Buffer1SurfacePitch": uint64(m.Stride[1]) * 4,
		"Buffer2SurfacePitch": uint64(m.Stride[2]) * 4,
		"Buffer3SurfacePitch": uint64(m.Stride[3]) * 4,
	}
	for s := 0; s < maxStreams; s++ {
		f[fmt.Sprintf("Stream%dVertexReadOffset", s)] = 0
		f[fmt.Sprintf("Stream%dVertexReadLength", s)] = readLen(s)
	}
	return set.Lookup("3DSTATE_STREAMOUT").Pack(f)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
