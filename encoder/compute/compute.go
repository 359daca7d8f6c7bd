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

// Package compute encodes dispatches: the interface descriptor carrying
// the kernel's pointers, then the generation's walker command pair.
package compute

import (
	"context"

	"github.com/pkg/errors"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/batch"
	"github.com/atari-vcs/mesa-sub000/encoder/state"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
	"github.com/atari-vcs/mesa-sub000/encoder/upload"
	"github.com/atari-vcs/mesa-sub000/hw/cmds"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Compiler encodes compute dispatches for one context.
type Compiler struct {
	Inf    *devinfo.Info
	Set    *cmds.Set
	Batch  *batch.Buffer
	Upload *upload.Uploader
	State  *state.Tracker
	Sync   *sync.Tracker

	// Binding table and sampler table offsets for the compute stage,
	// maintained by the owning context.
	BindingTable uint32
	SamplerTable uint32

	vfeEmitted bool
}

// SIMD width encodings shared by the walker commands.
const (
	simd8 = iota
	simd16
	simd32
)

// dispatchWidth picks the widest enabled SIMD mode and the thread
// count that covers the workgroup with it.
func dispatchWidth(data *encoder.ProgramData) (mode, threads, total int) {
	total = int(data.WorkgroupSize[0]) * int(data.WorkgroupSize[1]) * int(data.WorkgroupSize[2])
	if total == 0 {
		total = 1
	}
	mode = simd8
	for m := simd32; m > simd8; m-- {
		if data.DispatchEnable[m] {
			mode = m
			break
		}
	}
	lanes := 8 << uint(mode)
	threads = (total + lanes - 1) / lanes
	return mode, threads, total
}

// Dispatch encodes one grid launch.
func (c *Compiler) Dispatch(ctx context.Context, grid *encoder.GridInfo) error {
	prog := c.State.Programs[encoder.StageCompute]
	if prog == nil {
		return errors.New("compute: no program bound")
	}
	data := &prog.Data
	mode, threads, total := dispatchWidth(data)

	idOffset, err := c.uploadInterfaceDescriptor(data, threads)
	if err != nil {
		return err
	}

	c.Sync.DeclareAccess(ctx, sync.DS(sync.OtherWrite), sync.DS(sync.OtherRead))
	if c.Inf.HasCFE {
		c.emitCFEWalker(data, grid, mode, threads, total, idOffset)
	} else {
		c.emitMediaWalker(data, grid, mode, threads, total, idOffset)
	}
	return nil
}

func (c *Compiler) uploadInterfaceDescriptor(data *encoder.ProgramData, threads int) (uint32, error) {
	slm := uint64(0)
	for sz := data.SharedLocalSize; sz > 4096 && slm < 7; sz >>= 1 {
		slm++
	}
	if data.SharedLocalSize > 0 && slm == 0 {
		slm = 1
	}
	id := c.Set.Lookup("INTERFACE_DESCRIPTOR_DATA").Pack(cmds.F{
		"KernelStartPointer":                uint64(data.KSP[0]) >> 6,
		"SamplerStatePointer":               uint64(c.SamplerTable) >> 5,
		"SamplerCount":                      uint64((data.SamplerCount + 3) / 4),
		"BindingTablePointer":               uint64(c.BindingTable) >> 5,
		"BindingTableEntryCount":            uint64(data.BindingCount),
		"ConstantURBEntryReadLength":        uint64(len(data.PushRanges)),
		"NumberOfThreadsInGPGPUThreadGroup": uint64(threads),
		"SharedLocalMemorySize":             slm,
		"BarrierEnable":                     0,
		"CrossThreadConstantDataReadLength": 0,
	})
	return c.Upload.Upload(id, upload.AlignState)
}

// executionMasks derives the partial-thread lane masks.
func executionMasks(mode, threads, total int) (right, bottom uint64) {
	width := 8 << uint(mode)
	rem := total - (threads-1)*width
	if rem <= 0 || rem >= 32 {
		right = 0xffffffff
	} else {
		right = 1<<uint(rem) - 1
	}
	return right, 0xffffffff
}

func (c *Compiler) emitMediaWalker(data *encoder.ProgramData, grid *encoder.GridInfo, mode, threads, total int, idOffset uint32) {
	if !c.vfeEmitted {
		c.Batch.Emit(c.Set.Lookup("MEDIA_VFE_STATE").Pack(cmds.F{
			"MaximumNumberOfThreads": uint64(c.Inf.MaxCSThreads - 1),
			"NumberOfURBEntries":     2,
			"URBEntryAllocationSize": 2,
			"CURBEAllocationSize":    uint64(len(data.PushRanges)) * 2,
		})...)
		c.vfeEmitted = true
	}
	idl := c.Set.Lookup("MEDIA_INTERFACE_DESCRIPTOR_LOAD")
	c.Batch.Emit(idl.Pack(cmds.F{
		"InterfaceDescriptorTotalLength":      8 * 4,
		"InterfaceDescriptorDataStartAddress": uint64(idOffset),
	})...)

	right, bottom := executionMasks(mode, threads, total)
	c.Batch.Emit(c.Set.Lookup("GPGPU_WALKER").Pack(cmds.F{
		"SIMDSize":                  uint64(mode),
		"ThreadWidthCounterMaximum": uint64(threads - 1),
		"ThreadGroupIDXDimension":   uint64(grid.Grid[0]),
		"ThreadGroupIDYDimension":   uint64(grid.Grid[1]),
		"ThreadGroupIDZDimension":   uint64(grid.Grid[2]),
		"RightExecutionMask":        right,
		"BottomExecutionMask":       bottom,
	})...)
	c.Batch.Emit(c.Set.Lookup("MEDIA_STATE_FLUSH").Pack(cmds.F{})...)
}

func (c *Compiler) emitCFEWalker(data *encoder.ProgramData, grid *encoder.GridInfo, mode, threads, total int, idOffset uint32) {
	if !c.vfeEmitted {
		c.Batch.Emit(c.Set.Lookup("CFE_STATE").Pack(cmds.F{
			"MaximumNumberOfThreads": uint64(c.Inf.MaxCSThreads - 1),
		})...)
		c.vfeEmitted = true
	}
	right, _ := executionMasks(mode, threads, total)
	c.Batch.Emit(c.Set.Lookup("COMPUTE_WALKER").Pack(cmds.F{
		"SIMDSize":                   uint64(mode),
		"ExecutionMask":              right,
		"ThreadGroupIDXDimension":    uint64(grid.Grid[0]),
		"ThreadGroupIDYDimension":    uint64(grid.Grid[1]),
		"ThreadGroupIDZDimension":    uint64(grid.Grid[2]),
		"InterfaceDescriptorPointer": uint64(idOffset) >> 6,
		"LocalXMaximum":              uint64(data.WorkgroupSize[0]) - 1,
		"LocalYMaximum":              uint64(data.WorkgroupSize[1]) - 1,
		"LocalZMaximum":              uint64(data.WorkgroupSize[2]) - 1,
	})...)
}

// Reset forgets the batch-scoped emissions (CFE/VFE state).
func (c *Compiler) Reset() {
	c.vfeEmitted = false
}
