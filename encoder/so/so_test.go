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

package so_test

import (
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/so"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

func set() *cmds.Set {
	return cmds.For(devinfo.Lookup(devinfo.Gen9, 0))
}

func declField(d uint16, name string) uint64 {
	return set().Lookup("SO_DECL").Field([]uint32{uint32(d)}, name)
}

// Two full-vec4 varyings with a four-component gap between them: the
// real entries are separated by exactly one hole declaration.
func TestBuildPadsHoles(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 0, DstOffset: 0, StartComponent: 0, NumComponents: 4, Register: 2},
			{Buffer: 0, DstOffset: 8, StartComponent: 0, NumComponents: 4, Register: 3},
		},
		Stride: [4]uint16{12},
	}
	d := so.Build(set(), m)

	s0 := d.Entries[0]
	assert.For(ctx, "entries").That(len(s0)).Equals(3)
	assert.For(ctx, "a register").That(declField(s0[0], "RegisterIndex")).Equals(uint64(2))
	assert.For(ctx, "a mask").That(declField(s0[0], "ComponentMask")).Equals(uint64(0xf))
	assert.For(ctx, "hole flag").That(declField(s0[1], "HoleFlag")).Equals(uint64(1))
	assert.For(ctx, "hole size").That(declField(s0[1], "ComponentMask")).Equals(uint64(0xf))
	assert.For(ctx, "b register").That(declField(s0[2], "RegisterIndex")).Equals(uint64(3))
	assert.For(ctx, "next offset").That(d.NextOffset[0]).Equals(uint16(12))
	assert.For(ctx, "buffer mask").That(d.BufferMask[0]).Equals(uint8(1))
}

// A three-DWord gap pads with a single size-3 hole; a six-DWord gap
// takes a size-4 then a size-2 hole.
func TestBuildHoleSizes(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 1, DstOffset: 3, NumComponents: 1, Register: 0},
			{Buffer: 1, DstOffset: 10, NumComponents: 2, Register: 1},
		},
	}
	d := so.Build(set(), m)
	s0 := d.Entries[0]
	assert.For(ctx, "entries").That(len(s0)).Equals(5)
	assert.For(ctx, "hole 3").That(declField(s0[0], "ComponentMask")).Equals(uint64(0x7))
	assert.For(ctx, "hole 4").That(declField(s0[2], "ComponentMask")).Equals(uint64(0xf))
	assert.For(ctx, "hole 2").That(declField(s0[3], "ComponentMask")).Equals(uint64(0x3))
	assert.For(ctx, "next offset").That(d.NextOffset[1]).Equals(uint16(12))
}

// Two vec4 varyings declared sixteen DWords apart: the twelve-DWord gap
// pads with three maximal holes and the write cursor lands one vec4
// past the second varying.
func TestBuildVec4PairWideGap(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 0, DstOffset: 0, StartComponent: 0, NumComponents: 4, Register: 2},
			{Buffer: 0, DstOffset: 16, StartComponent: 0, NumComponents: 4, Register: 3},
		},
		Stride: [4]uint16{20},
	}
	d := so.Build(set(), m)

	s0 := d.Entries[0]
	assert.For(ctx, "entries").That(len(s0)).Equals(5)
	assert.For(ctx, "a register").That(declField(s0[0], "RegisterIndex")).Equals(uint64(2))
	for n := 1; n <= 3; n++ {
		assert.For(ctx, "hole %d flag", n).That(declField(s0[n], "HoleFlag")).Equals(uint64(1))
		assert.For(ctx, "hole %d size", n).That(declField(s0[n], "ComponentMask")).Equals(uint64(0xf))
	}
	assert.For(ctx, "b register").That(declField(s0[4], "RegisterIndex")).Equals(uint64(3))
	assert.For(ctx, "next offset").That(d.NextOffset[0]).Equals(uint16(20))
}

func TestBuildPartialComponents(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 0, DstOffset: 0, StartComponent: 1, NumComponents: 2, Register: 5},
		},
	}
	d := so.Build(set(), m)
	assert.For(ctx, "mask").That(declField(d.Entries[0][0], "ComponentMask")).Equals(uint64(0x6))
	assert.For(ctx, "advance").That(d.NextOffset[0]).Equals(uint16(2))
}

func TestBuildPacketShape(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 0, DstOffset: 0, NumComponents: 4, Register: 0},
			{Buffer: 2, DstOffset: 0, NumComponents: 4, Register: 1, Stream: 1},
		},
	}
	d := so.Build(set(), m)

	// Header + selects + counts + one 2-DWord row.
	assert.For(ctx, "length").That(len(d.Packet)).Equals(5)
	assert.For(ctx, "bias-2 count").That(d.Packet[0] & 0xff).Equals(uint32(3))
	layout := set().Lookup("3DSTATE_SO_DECL_LIST")
	assert.For(ctx, "stream0 selects").That(layout.Field(d.Packet, "StreamtoBufferSelects0")).Equals(uint64(1))
	assert.For(ctx, "stream1 selects").That(layout.Field(d.Packet, "StreamtoBufferSelects1")).Equals(uint64(4))
	assert.For(ctx, "stream0 entries").That(layout.Field(d.Packet, "NumEntries0")).Equals(uint64(1))
	assert.For(ctx, "stream1 entries").That(layout.Field(d.Packet, "NumEntries1")).Equals(uint64(1))

	// Row 0 packs stream 0 in the low half and stream 1 above it.
	assert.For(ctx, "row dw0").That(d.Packet[3]).Equals(uint32(d.Entries[0][0]) | uint32(d.Entries[1][0])<<16)
	assert.For(ctx, "row dw1").That(d.Packet[4]).Equals(uint32(0))
}

func TestStreamoutPacket(t *testing.T) {
	ctx := log.Testing(t)
	m := &encoder.SOMap{
		Outputs: []encoder.SOOutput{
			{Buffer: 0, DstOffset: 0, NumComponents: 4, Register: 0},
			{Buffer: 0, DstOffset: 4, NumComponents: 4, Register: 3},
		},
		Stride: [4]uint16{8},
	}
	dw := so.StreamoutPacket(set(), m, true, false)
	layout := set().Lookup("3DSTATE_STREAMOUT")
	assert.For(ctx, "enable").That(layout.Field(dw, "SOFunctionEnable")).Equals(uint64(1))
	assert.For(ctx, "read offset").That(layout.Field(dw, "Stream0VertexReadOffset")).Equals(uint64(0))
	assert.For(ctx, "read length").That(layout.Field(dw, "Stream0VertexReadLength")).Equals(uint64(2))
	assert.For(ctx, "pitch bytes").That(layout.Field(dw, "Buffer0SurfacePitch")).Equals(uint64(32))
	assert.For(ctx, "idle stream").That(layout.Field(dw, "Stream3VertexReadLength")).Equals(uint64(0))
}
