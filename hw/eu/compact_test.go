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

package eu_test

import (
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
	"github.com/atari-vcs/mesa-sub000/hw/eu"
)

func TestCompactMovRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	// mov(8) r2<1>:f r0<8;8,1>:f compacts on every generation.
	src := eu.ALU1(eu.OpMov, 3, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF))
	for _, gen := range devinfo.Gens() {
		inf := devinfo.Lookup(gen, 0)
		c, err := eu.Compact(inf, &src)
		assert.For(ctx, "compact on %v", gen).ThatError(err).Succeeded()
		assert.For(ctx, "cmpt bit on %v", gen).That(c.CmptControl()).Equals(uint64(1))
		got := eu.Uncompact(inf, c)
		assert.For(ctx, "round trip on %v", gen).That(got).Equals(src)
	}
}

func TestCompactRoundTripVariants(t *testing.T) {
	ctx := log.Testing(t)
	nenop := eu.Inst{}
	nenop.SetOpcode(eu.OpNenop)
	variants := []struct {
		name string
		inst eu.Inst
	}{
		{"mov scalar", eu.ALU1(eu.OpMov, 0, eu.R(4, eu.TypeUD), eu.RScalar(1, 2, eu.TypeUD))},
		{"add grf grf", eu.ALU2(eu.OpAdd, 3, eu.R(3, eu.TypeD), eu.R(1, eu.TypeD), eu.R(2, eu.TypeD))},
		{"mul f", eu.ALU2(eu.OpMul, 4, eu.R(8, eu.TypeF), eu.R(6, eu.TypeF), eu.R(7, eu.TypeF))},
		{"nenop", nenop},
	}
	for _, gen := range devinfo.Gens() {
		inf := devinfo.Lookup(gen, 0)
		for _, v := range variants {
			src := v.inst
			eu.Precompact(inf, &src)
			c, err := eu.Compact(inf, &src)
			if !assert.For(ctx, "%s on %v", v.name, gen).ThatError(err).Succeeded() {
				continue
			}
			got := eu.Uncompact(inf, c)
			assert.For(ctx, "%s round trip on %v", v.name, gen).That(got).Equals(src)
		}
	}
}

func TestPrecompactFloatZeroBecomesVF(t *testing.T) {
	ctx := log.Testing(t)
	src := eu.ALU2Imm(eu.OpAdd, 4, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF), eu.TypeF, 0)

	pre := src
	inf := devinfo.Lookup(devinfo.Gen8, 0)
	eu.Precompact(inf, &pre)
	assert.For(ctx, "gen8 retype").That(pre.Src1RegType()).Equals(eu.TypeVF)
	c, err := eu.Compact(inf, &pre)
	assert.For(ctx, "gen8 compact").ThatError(err).Succeeded()
	assert.For(ctx, "gen8 round trip").That(eu.Uncompact(inf, c)).Equals(pre)

	// Gen12 floats compact natively; the retype is not applied.
	pre = src
	inf = devinfo.Lookup(devinfo.Gen12, 0)
	eu.Precompact(inf, &pre)
	assert.For(ctx, "gen12 type").That(pre.Src1RegType()).Equals(eu.TypeF)
	c, err = eu.Compact(inf, &pre)
	assert.For(ctx, "gen12 compact").ThatError(err).Succeeded()
	assert.For(ctx, "gen12 round trip").That(eu.Uncompact(inf, c)).Equals(pre)
}

func TestCompactImmediateRange(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen7, 0)
	build := func(v uint32) eu.Inst {
		return eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, eu.TypeD), eu.R(0, eu.TypeD), eu.TypeD, v)
	}
	for _, v := range []uint32{0, 1, 4095, ^uint32(0) /* -1 */, 0xfffff000 /* -4096 */} {
		src := build(v)
		c, err := eu.Compact(inf, &src)
		if !assert.For(ctx, "imm %#x compacts", v).ThatError(err).Succeeded() {
			continue
		}
		assert.For(ctx, "imm %#x round trip", v).That(eu.Uncompact(inf, c)).Equals(src)
	}
	for _, v := range []uint32{4096, 0xffffefff /* -4097 */, 0x12345678} {
		src := build(v)
		_, err := eu.Compact(inf, &src)
		assert.For(ctx, "imm %#x rejected", v).ThatError(err).Equals(eu.ErrNotCompactable)
	}
}

func TestCompactImmediateGen12(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen12, 0)

	// Floats store their upper 12 bits when the mantissa tail is clean.
	f := eu.ALU2Imm(eu.OpAdd, 4, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF), eu.TypeF, 0x3f800000)
	c, err := eu.Compact(inf, &f)
	assert.For(ctx, "f imm 1.0").ThatError(err).Succeeded()
	assert.For(ctx, "f imm 1.0 round trip").That(eu.Uncompact(inf, c)).Equals(f)

	f = eu.ALU2Imm(eu.OpAdd, 4, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF), eu.TypeF, 0x3f800001)
	_, err = eu.Compact(inf, &f)
	assert.For(ctx, "f imm dirty tail").ThatError(err).Equals(eu.ErrNotCompactable)

	// Small signed dwords ride the unsigned path after precompaction.
	d := eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, eu.TypeD), eu.R(0, eu.TypeD), eu.TypeD, 5)
	eu.Precompact(inf, &d)
	assert.For(ctx, "d retype").That(d.Src1RegType()).Equals(eu.TypeUD)
	c, err = eu.Compact(inf, &d)
	assert.For(ctx, "d imm 5").ThatError(err).Succeeded()
	assert.For(ctx, "d imm 5 round trip").That(eu.Uncompact(inf, c)).Equals(d)

	// Half floats must be replicated with a clean low nibble.
	hf := eu.ALU2Imm(eu.OpAdd, 4, eu.R(2, eu.TypeHF), eu.R(0, eu.TypeHF), eu.TypeHF, 0x3c003c00)
	c, err = eu.Compact(inf, &hf)
	assert.For(ctx, "hf imm").ThatError(err).Succeeded()
	assert.For(ctx, "hf imm round trip").That(eu.Uncompact(inf, c)).Equals(hf)

	hf = eu.ALU2Imm(eu.OpAdd, 4, eu.R(2, eu.TypeHF), eu.R(0, eu.TypeHF), eu.TypeHF, 0x3c013c00)
	_, err = eu.Compact(inf, &hf)
	assert.For(ctx, "hf imm unreplicated").ThatError(err).Equals(eu.ErrNotCompactable)
}

func TestCompactImmediateGen12Bounds(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen12, 0)
	build := func(rt eu.RegType, v uint32) eu.Inst {
		return eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, rt), eu.R(0, rt), rt, v)
	}

	// A float with bit 19 set has a dirty mantissa tail.
	f := build(eu.TypeF, 0x00080000)
	_, err := eu.Compact(inf, &f)
	assert.For(ctx, "f imm bit 19").ThatError(err).Equals(eu.ErrNotCompactable)

	// Signed dwords sign-extend from 12 bits: -2048 fits, -4096 and
	// +2048 do not.
	d := build(eu.TypeD, 0xfffff800)
	c, err := eu.Compact(inf, &d)
	assert.For(ctx, "d imm -2048").ThatError(err).Succeeded()
	assert.For(ctx, "d imm -2048 round trip").That(eu.Uncompact(inf, c)).Equals(d)
	for _, v := range []uint32{0xfffff000, 0x800} {
		d = build(eu.TypeD, v)
		_, err = eu.Compact(inf, &d)
		assert.For(ctx, "d imm %#x rejected", v).ThatError(err).Equals(eu.ErrNotCompactable)
	}

	// Replicated words follow the same 12-bit rule per half.
	w := eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, eu.TypeUD), eu.R(0, eu.TypeUD), eu.TypeW, 0xf800f800)
	c, err = eu.Compact(inf, &w)
	assert.For(ctx, "w imm -2048").ThatError(err).Succeeded()
	assert.For(ctx, "w imm -2048 round trip").That(eu.Uncompact(inf, c)).Equals(w)
	w = eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, eu.TypeUD), eu.R(0, eu.TypeUD), eu.TypeW, 0xf000f000)
	_, err = eu.Compact(inf, &w)
	assert.For(ctx, "w imm -4096 rejected").ThatError(err).Equals(eu.ErrNotCompactable)
}

func TestPrecompactKeepsSignedModifiers(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen12, 0)
	build := func() eu.Inst {
		return eu.ALU2Imm(eu.OpAdd, 3, eu.R(1, eu.TypeD), eu.R(0, eu.TypeD), eu.TypeD, 5)
	}

	// A conditional modifier compares the signed result; the unsigned
	// retype would flip it.
	cm := build()
	cm.SetCondModifier(5)
	eu.Precompact(inf, &cm)
	assert.For(ctx, "cmod dst type").That(cm.DstRegType()).Equals(eu.TypeD)
	assert.For(ctx, "cmod src1 type").That(cm.Src1RegType()).Equals(eu.TypeD)

	// Saturation clamps to the destination type's bounds.
	sat := build()
	sat.SetSaturate(1)
	eu.Precompact(inf, &sat)
	assert.For(ctx, "sat dst type").That(sat.DstRegType()).Equals(eu.TypeD)

	plain := build()
	eu.Precompact(inf, &plain)
	assert.For(ctx, "plain retypes").That(plain.DstRegType()).Equals(eu.TypeUD)
}

func TestCompact3Src(t *testing.T) {
	ctx := log.Testing(t)
	src := eu.ALU3(eu.OpMad, 3,
		eu.R(10, eu.TypeF), eu.R(2, eu.TypeF), eu.R(4, eu.TypeF), eu.R(6, eu.TypeF))
	for _, gen := range devinfo.Gens() {
		inf := devinfo.Lookup(gen, 0)
		c, err := eu.Compact(inf, &src)
		assert.For(ctx, "mad on %v", gen).ThatError(err).Succeeded()
		got := eu.Uncompact(inf, c)
		assert.For(ctx, "mad round trip on %v", gen).That(got).Equals(src)
	}
}

func TestCompact3SrcModifiers(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen9, 0)
	neg := eu.R(4, eu.TypeF)
	neg.Negate = true
	src := eu.ALU3(eu.OpMad, 3, eu.R(10, eu.TypeF), eu.R(2, eu.TypeF), neg, eu.R(6, eu.TypeF))
	c, err := eu.Compact(inf, &src)
	assert.For(ctx, "mad -src1").ThatError(err).Succeeded()
	assert.For(ctx, "mad -src1 round trip").That(eu.Uncompact(inf, c)).Equals(src)
}

func TestNotCompactable(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen8, 0)

	// EOT has no compacted slot.
	eot := eu.ALU1(eu.OpMov, 3, eu.R(127, eu.TypeUD), eu.R(126, eu.TypeUD))
	eot.SetEOT(1)
	_, err := eu.Compact(inf, &eot)
	assert.For(ctx, "eot").ThatError(err).Equals(eu.ErrNotCompactable)

	// A subreg combination outside the table.
	odd := eu.ALU1(eu.OpMov, 3, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF))
	odd.SetDstSubregNr(3)
	_, err = eu.Compact(inf, &odd)
	assert.For(ctx, "subreg miss").ThatError(err).Equals(eu.ErrNotCompactable)
}

func TestBranchCompaction(t *testing.T) {
	ctx := log.Testing(t)
	inf := devinfo.Lookup(devinfo.Gen8, 0)

	w := eu.Branch(eu.OpWhile, 3, -32, 0)
	c, err := eu.Compact(inf, &w)
	assert.For(ctx, "while").ThatError(err).Succeeded()
	got := eu.Uncompact(inf, c)
	assert.For(ctx, "while round trip").That(got).Equals(w)
	assert.For(ctx, "while jip").That(got.JIP()).Equals(int32(-32))

	// A live UIP cannot ride the immediate slot.
	i := eu.Branch(eu.OpIf, 3, 64, 128)
	_, err = eu.Compact(inf, &i)
	assert.For(ctx, "if with uip").ThatError(err).Equals(eu.ErrNotCompactable)

	// Offsets beyond 13 signed bits stay full-width.
	far := eu.Branch(eu.OpWhile, 3, -8192, 0)
	_, err = eu.Compact(inf, &far)
	assert.For(ctx, "far while").ThatError(err).Equals(eu.ErrNotCompactable)
}

func TestTablesDistinctTerminalEntries(t *testing.T) {
	ctx := log.Testing(t)
	// The terminal entry of every table is generation-specific; a codec
	// built against the wrong generation must miss rather than alias.
	for _, gen := range devinfo.Gens() {
		inf := devinfo.Lookup(gen, 0)
		src := eu.ALU1(eu.OpMov, 3, eu.R(2, eu.TypeF), eu.R(0, eu.TypeF))
		c, err := eu.Compact(inf, &src)
		assert.For(ctx, "compact on %v", gen).ThatError(err).Succeeded()
		assert.For(ctx, "decode on %v", gen).That(eu.Uncompact(inf, c)).Equals(src)
	}
}
