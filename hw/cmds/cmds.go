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

// Package cmds declares the command packet layouts per hardware
// generation and packs field values into DWord streams.
//
// A Layout names a command, carries its fully-encoded header DWord and
// DWord length, and lists its fields by absolute bit position (LSB = 0 of
// DWord 0, increasing across DWords). Packing an unknown field or letting
// two writes collide is a programming error and panics.
package cmds

import (
	"fmt"

	"github.com/atari-vcs/mesa-sub000/core/math/bits"
)

// FieldDesc is one named field of a command layout.
type FieldDesc struct {
	Name   string
	Hi, Lo uint
}

// Layout describes a single command's packet format for one generation.
// Layouts are immutable after registry construction.
type Layout struct {
	Name   string
	Header uint32 // DWord 0, including the encoded length
	Length int    // total DWords
	Fields []FieldDesc
}

// F is a packed map of field values by name.
type F map[string]uint64

func (l *Layout) field(name string) FieldDesc {
	for _, f := range l.Fields {
		if f.Name == name {
			return f
		}
	}
	panic(fmt.Errorf("cmds: %s has no field %q", l.Name, name))
}

// Pack encodes the command with the given field values. Unspecified
// fields are zero. Field values wider than their range panic, as do
// overlapping field writes.
func (l *Layout) Pack(fields F) []uint32 {
	dw := make([]uint32, l.Length)
	dw[0] = l.Header
	written := make([]uint32, l.Length)
	for name, v := range fields {
		f := l.field(name)
		for bit := f.Lo; bit <= f.Hi; bit++ {
			if written[bit/32]&(1<<(bit%32)) != 0 {
				panic(fmt.Errorf("cmds: %s field %q collides at bit %d", l.Name, name, bit))
			}
			written[bit/32] |= 1 << (bit % 32)
		}
		bits.Set(dw, f.Hi, f.Lo, v)
	}
	return dw
}

// Field reads a named field back out of a packed command. Pack followed
// by Field is an identity on every declared field.
func (l *Layout) Field(dw []uint32, name string) uint64 {
	f := l.field(name)
	return bits.Get(dw, f.Hi, f.Lo)
}

// Merge ORs the overlay into dst DWord by DWord. The slices must be the
// same length.
func Merge(dst, overlay []uint32) {
	if len(dst) != len(overlay) {
		panic(fmt.Errorf("cmds: merge length mismatch %d != %d", len(dst), len(overlay)))
	}
	for i, v := range overlay {
		dst[i] |= v
	}
}

// Template is an immutable prepacked command fragment. State objects
// prepack what they can at create time and merge the per-draw remainder
// at emit time.
type Template struct {
	Layout *Layout
	dwords []uint32
}

// Prepack builds a template with the given fields already encoded.
func (l *Layout) Prepack(fields F) Template {
	return Template{Layout: l, dwords: l.Pack(fields)}
}

// Emit returns a fresh copy of the template with the late-bound fields
// filled in. The prepacked bits are untouched; late fields must not
// overlap them.
func (t Template) Emit(late F) []uint32 {
	dw := make([]uint32, len(t.dwords))
	copy(dw, t.dwords)
	for name, v := range late {
		f := t.Layout.field(name)
		bits.Set(dw, f.Hi, f.Lo, v)
	}
	return dw
}

// DWords returns the raw prepacked fragment.
func (t Template) DWords() []uint32 { return t.dwords }

// Header construction. The opcode block encodings follow the command
// streamer's DW0 format: MI commands carry their opcode at [28:23],
// GFXPIPE commands carry pipeline [28:27], opcode [26:24], subopcode
// [23:16] and a bias-2 DWord length at [7:0].

func mi(name string, op uint32, length int, fields ...FieldDesc) *Layout {
	h := op << 23
	if length > 1 {
		h |= uint32(length - 2)
	}
	return &Layout{Name: name, Header: h, Length: length, Fields: fields}
}

func gfx(name string, pipeline, op, subop uint32, length int, fields ...FieldDesc) *Layout {
	h := 3<<29 | pipeline<<27 | op<<24 | subop<<16 | uint32(length-2)
	return &Layout{Name: name, Header: h, Length: length, Fields: fields}
}

// record declares a headerless indirect-state record packed into upload
// memory rather than the batch.
func record(name string, length int, fields ...FieldDesc) *Layout {
	return &Layout{Name: name, Length: length, Fields: fields}
}

func fd(name string, hi, lo uint) FieldDesc { return FieldDesc{Name: name, Hi: hi, Lo: lo} }
