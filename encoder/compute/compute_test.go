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

package compute_test

import (
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/batch"
	"github.com/atari-vcs/mesa-sub000/encoder/compute"
	"github.com/atari-vcs/mesa-sub000/encoder/residency"
	"github.com/atari-vcs/mesa-sub000/encoder/state"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
	"github.com/atari-vcs/mesa-sub000/encoder/upload"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

type bumpAlloc struct {
	head uint32
}

func (b *bumpAlloc) Alloc(size, align uint32) (encoder.Allocation, error) {
	b.head = (b.head + align - 1) &^ (align - 1)
	a := encoder.Allocation{CPU: make([]uint32, size/4), Buffer: 7, Offset: b.head}
	b.head += size
	return a, nil
}

func (b *bumpAlloc) Generation() uint64 { return 0 }

type fixture struct {
	inf *devinfo.Info
	set *cmds.Set
	out *batch.Buffer
	c   *compute.Compiler
}

func newFixture(gen devinfo.Gen) *fixture {
	inf := devinfo.Lookup(gen, 0)
	out := &batch.Buffer{}
	ledger := residency.NewLedger()
	set := cmds.For(inf)
	return &fixture{
		inf: inf,
		set: set,
		out: out,
		c: &compute.Compiler{
			Inf:    inf,
			Set:    set,
			Batch:  out,
			Upload: upload.New(&bumpAlloc{}, ledger),
			State:  state.NewTracker(inf),
			Sync:   sync.NewTracker(inf, out),
		},
	}
}

func (f *fixture) bind(data encoder.ProgramData) {
	f.c.State.Programs[encoder.StageCompute] = &state.Program{
		Stage: encoder.StageCompute,
		Data:  data,
	}
}

// find locates the only instance of a command in the batch and returns
// its dwords, or nil.
func (f *fixture) find(name string) []uint32 {
	l := f.set.Lookup(name)
	dw := f.out.DWords()
	for i := 0; i+l.Length <= len(dw); i++ {
		if dw[i]&^uint32(0xff) == l.Header&^uint32(0xff) && dw[i] != 0 {
			return dw[i : i+l.Length]
		}
	}
	return nil
}

func TestDispatchMediaPath(t *testing.T) {
	ctx := log.Testing(t)
	f := newFixture(devinfo.Gen9)
	f.bind(encoder.ProgramData{
		KSP:            [3]uint32{0x1000},
		WorkgroupSize:  [3]uint16{64, 1, 1},
		DispatchEnable: [3]bool{false, true, false},
	})

	err := f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{10, 2, 3}})
	assert.For(ctx, "dispatch").ThatError(err).Succeeded()

	assert.For(ctx, "vfe").That(f.find("MEDIA_VFE_STATE") != nil).Equals(true)
	assert.For(ctx, "idl").That(f.find("MEDIA_INTERFACE_DESCRIPTOR_LOAD") != nil).Equals(true)
	assert.For(ctx, "flush").That(f.find("MEDIA_STATE_FLUSH") != nil).Equals(true)

	w := f.find("GPGPU_WALKER")
	assert.For(ctx, "walker").That(w != nil).Equals(true)
	l := f.set.Lookup("GPGPU_WALKER")
	assert.For(ctx, "simd").That(l.Field(w, "SIMDSize")).Equals(uint64(1))
	// 64 invocations over SIMD16 is four threads.
	assert.For(ctx, "threads").That(l.Field(w, "ThreadWidthCounterMaximum")).Equals(uint64(3))
	assert.For(ctx, "right mask").That(l.Field(w, "RightExecutionMask")).Equals(uint64(0xffff))
	assert.For(ctx, "x").That(l.Field(w, "ThreadGroupIDXDimension")).Equals(uint64(10))
	assert.For(ctx, "y").That(l.Field(w, "ThreadGroupIDYDimension")).Equals(uint64(2))
	assert.For(ctx, "z").That(l.Field(w, "ThreadGroupIDZDimension")).Equals(uint64(3))

	// The VFE state is batch-scoped: a second dispatch reuses it.
	mark := f.out.Len()
	err = f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{1, 1, 1}})
	assert.For(ctx, "second dispatch").ThatError(err).Succeeded()
	vfe := f.set.Lookup("MEDIA_VFE_STATE")
	for _, dw := range f.out.DWords()[mark:] {
		assert.For(ctx, "no second vfe").That(dw != vfe.Header).Equals(true)
	}
}

func TestDispatchCFEPath(t *testing.T) {
	ctx := log.Testing(t)
	f := newFixture(devinfo.Gen12)
	f.bind(encoder.ProgramData{
		WorkgroupSize:  [3]uint16{8, 8, 1},
		DispatchEnable: [3]bool{false, false, true},
	})

	err := f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{4, 4, 1}})
	assert.For(ctx, "dispatch").ThatError(err).Succeeded()

	assert.For(ctx, "cfe").That(f.find("CFE_STATE") != nil).Equals(true)
	assert.For(ctx, "no media vfe").That(f.set.Has("MEDIA_VFE_STATE")).Equals(false)

	w := f.find("COMPUTE_WALKER")
	assert.For(ctx, "walker").That(w != nil).Equals(true)
	l := f.set.Lookup("COMPUTE_WALKER")
	assert.For(ctx, "simd").That(l.Field(w, "SIMDSize")).Equals(uint64(2))
	assert.For(ctx, "mask").That(l.Field(w, "ExecutionMask")).Equals(uint64(0xffffffff))
	assert.For(ctx, "local x").That(l.Field(w, "LocalXMaximum")).Equals(uint64(7))
	assert.For(ctx, "local y").That(l.Field(w, "LocalYMaximum")).Equals(uint64(7))
	assert.For(ctx, "local z").That(l.Field(w, "LocalZMaximum")).Equals(uint64(0))
}

// A workgroup that does not fill the last thread gets a partial lane
// mask on the trailing thread.
func TestPartialThreadMask(t *testing.T) {
	ctx := log.Testing(t)
	f := newFixture(devinfo.Gen9)
	f.bind(encoder.ProgramData{
		WorkgroupSize: [3]uint16{20, 1, 1},
	})

	err := f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{1, 1, 1}})
	assert.For(ctx, "dispatch").ThatError(err).Succeeded()

	w := f.find("GPGPU_WALKER")
	l := f.set.Lookup("GPGPU_WALKER")
	// SIMD8, three threads, four live lanes in the last one.
	assert.For(ctx, "simd").That(l.Field(w, "SIMDSize")).Equals(uint64(0))
	assert.For(ctx, "threads").That(l.Field(w, "ThreadWidthCounterMaximum")).Equals(uint64(2))
	assert.For(ctx, "right mask").That(l.Field(w, "RightExecutionMask")).Equals(uint64(0xf))
}

func TestDispatchWithoutProgramFails(t *testing.T) {
	ctx := log.Testing(t)
	f := newFixture(devinfo.Gen9)
	err := f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{1, 1, 1}})
	assert.For(ctx, "no program").ThatError(err).Failed()
}

func TestInterfaceDescriptorThreads(t *testing.T) {
	ctx := log.Testing(t)
	f := newFixture(devinfo.Gen9)
	f.bind(encoder.ProgramData{
		KSP:             [3]uint32{0x4000},
		WorkgroupSize:   [3]uint16{16, 16, 1},
		DispatchEnable:  [3]bool{false, true, false},
		SharedLocalSize: 16 * 1024,
		SamplerCount:    2,
		BindingCount:    5,
	})
	err := f.c.Dispatch(ctx, &encoder.GridInfo{Grid: [3]uint32{1, 1, 1}})
	assert.For(ctx, "dispatch").ThatError(err).Succeeded()

	idl := f.find("MEDIA_INTERFACE_DESCRIPTOR_LOAD")
	l := f.set.Lookup("MEDIA_INTERFACE_DESCRIPTOR_LOAD")
	assert.For(ctx, "length").That(l.Field(idl, "InterfaceDescriptorTotalLength")).Equals(uint64(32))
	assert.For(ctx, "start").That(l.Field(idl, "InterfaceDescriptorDataStartAddress")).Equals(uint64(0))
}
