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

package cmds_test

import (
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Every declared field of every command must survive a pack/unpack round
// trip, with the header DWord intact.
func TestPackFieldIdentity(t *testing.T) {
	ctx := log.Testing(t)
	const pattern = uint64(0xdeadbeefcafef00d)
	for _, gen := range devinfo.Gens() {
		set := cmds.For(devinfo.Lookup(gen, 0))
		for _, l := range set.All() {
			fields := cmds.F{}
			want := map[string]uint64{}
			for _, f := range l.Fields {
				width := f.Hi - f.Lo + 1
				v := pattern
				if width < 64 {
					v &= 1<<width - 1
				}
				fields[f.Name] = v
				want[f.Name] = v
			}
			dw := l.Pack(fields)
			assert.For(ctx, "%s length on %v", l.Name, gen).That(len(dw)).Equals(l.Length)
			assert.For(ctx, "%s header on %v", l.Name, gen).That(dw[0] & l.Header).Equals(l.Header)
			for name, v := range want {
				assert.For(ctx, "%s.%s on %v", l.Name, name, gen).That(l.Field(dw, name)).Equals(v)
			}
		}
	}
}

func TestPackUnknownFieldPanics(t *testing.T) {
	ctx := log.Testing(t)
	set := cmds.For(devinfo.Lookup(devinfo.Gen9, 0))
	l := set.Lookup("3DSTATE_SAMPLE_MASK")
	defer func() {
		assert.For(ctx, "recovered").That(recover() != nil).Equals(true)
	}()
	l.Pack(cmds.F{"NoSuchField": 1})
}

func TestPackCollisionPanics(t *testing.T) {
	ctx := log.Testing(t)
	// A deliberately broken layout; the registry's own layouts are
	// validated overlap-free at load.
	l := &cmds.Layout{
		Name:   "BROKEN",
		Length: 2,
		Fields: []cmds.FieldDesc{
			{Name: "A", Hi: 40, Lo: 32},
			{Name: "B", Hi: 36, Lo: 34},
		},
	}
	defer func() {
		assert.For(ctx, "recovered").That(recover() != nil).Equals(true)
	}()
	l.Pack(cmds.F{"A": 0x1ff, "B": 0x7})
}

func TestMerge(t *testing.T) {
	ctx := log.Testing(t)
	dst := []uint32{0xf0f0f0f0, 0x00000001}
	cmds.Merge(dst, []uint32{0x0f0f0f0f, 0x80000000})
	assert.For(ctx, "dw0").That(dst[0]).Equals(uint32(0xffffffff))
	assert.For(ctx, "dw1").That(dst[1]).Equals(uint32(0x80000001))
}

func TestTemplatePrepackEmit(t *testing.T) {
	ctx := log.Testing(t)
	set := cmds.For(devinfo.Lookup(devinfo.Gen9, 0))
	pc := set.Lookup("PIPE_CONTROL")

	tmpl := pc.Prepack(cmds.F{
		"CommandStreamerStallEnable":   1,
		"RenderTargetCacheFlushEnable": 1,
	})
	dw := tmpl.Emit(cmds.F{"Address": 0xabcd0})
	assert.For(ctx, "cs stall").That(pc.Field(dw, "CommandStreamerStallEnable")).Equals(uint64(1))
	assert.For(ctx, "rt flush").That(pc.Field(dw, "RenderTargetCacheFlushEnable")).Equals(uint64(1))
	assert.For(ctx, "address").That(pc.Field(dw, "Address")).Equals(uint64(0xabcd0))

	// The template itself is untouched by Emit.
	assert.For(ctx, "template address").That(pc.Field(tmpl.DWords(), "Address")).Equals(uint64(0))
}

func TestGenerationGating(t *testing.T) {
	ctx := log.Testing(t)

	g8 := cmds.For(devinfo.Lookup(devinfo.Gen8, 0))
	assert.For(ctx, "gen8 gpgpu").That(g8.Has("GPGPU_WALKER")).Equals(true)
	assert.For(ctx, "gen8 compute walker").That(g8.Has("COMPUTE_WALKER")).Equals(false)
	assert.For(ctx, "gen8 constant all").That(g8.Has("3DSTATE_CONSTANT_ALL")).Equals(false)
	assert.For(ctx, "gen8 sgvs").That(g8.Has("3DSTATE_VF_SGVS")).Equals(true)

	g7 := cmds.For(devinfo.Lookup(devinfo.Gen7, 0))
	assert.For(ctx, "gen7 sgvs").That(g7.Has("3DSTATE_VF_SGVS")).Equals(false)

	g12 := cmds.For(devinfo.Lookup(devinfo.Gen12, 0))
	assert.For(ctx, "gen12 cfe").That(g12.Has("CFE_STATE")).Equals(true)
	assert.For(ctx, "gen12 media vfe").That(g12.Has("MEDIA_VFE_STATE")).Equals(false)
	assert.For(ctx, "gen12 constant all").That(g12.Has("3DSTATE_CONSTANT_ALL")).Equals(true)
}

func TestHeaderEncoding(t *testing.T) {
	ctx := log.Testing(t)
	set := cmds.For(devinfo.Lookup(devinfo.Gen9, 0))

	// MI commands carry the opcode at [28:23]; single-DWord commands have
	// no length field.
	end := set.Lookup("MI_BATCH_BUFFER_END")
	assert.For(ctx, "bbe").That(end.Header).Equals(uint32(0x0a << 23))
	assert.For(ctx, "noop").That(set.Lookup("MI_NOOP").Header).Equals(uint32(0))

	// GFXPIPE: type 3, pipeline, opcode, subopcode, bias-2 length.
	sm := set.Lookup("3DSTATE_SAMPLE_MASK")
	assert.For(ctx, "sample mask").That(sm.Header).Equals(uint32(3<<29 | 3<<27 | 0x18<<16 | 0))

	// Variable-length commands leave the length bits for the emitter.
	vb := set.Lookup("3DSTATE_VERTEX_BUFFERS")
	assert.For(ctx, "vb length bits").That(vb.Header & 0xff).Equals(uint32(0))
	assert.For(ctx, "vb opcode").That(vb.Header >> 16).Equals(uint32(3<<13 | 3<<11 | 0x08))
}

func TestIndirectRecordsHaveNoHeader(t *testing.T) {
	ctx := log.Testing(t)
	set := cmds.For(devinfo.Lookup(devinfo.Gen9, 0))
	for _, name := range []string{
		"SF_CLIP_VIEWPORT", "CC_VIEWPORT", "SCISSOR_RECT", "BLEND_STATE",
		"BLEND_STATE_ENTRY", "COLOR_CALC_STATE", "SAMPLER_STATE",
		"INTERFACE_DESCRIPTOR_DATA", "VERTEX_BUFFER_STATE",
		"VERTEX_ELEMENT_STATE", "SO_DECL",
	} {
		assert.For(ctx, "%s header", name).That(set.Lookup(name).Header).Equals(uint32(0))
	}
}
