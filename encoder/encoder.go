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

// Package encoder declares the boundary between the command encoder and
// its collaborators: the plain-data state records a frontend hands in,
// and the narrow interfaces the encoder consumes for memory and
// resources. The encoder itself lives in the subpackages.
package encoder

import (
	"github.com/atari-vcs/mesa-sub000/core/fault"
)

const (
	// ErrNotSupported is returned when a state combination has no
	// encoding on the target generation.
	ErrNotSupported = fault.Const("not supported on this hardware")
	// ErrOutOfMemory surfaces an upload allocation failure.
	ErrOutOfMemory = fault.Const("upload allocation failed")
)

// BufferID identifies a GPU buffer owned by the resource allocator.
type BufferID uint32

// Stage enumerates the programmable pipeline stages.
type Stage int

const (
	StageVertex Stage = iota
	StageTessCtrl
	StageTessEval
	StageGeometry
	StageFragment
	StageCompute

	StageCount
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "VS"
	case StageTessCtrl:
		return "HS"
	case StageTessEval:
		return "DS"
	case StageGeometry:
		return "GS"
	case StageFragment:
		return "PS"
	case StageCompute:
		return "CS"
	}
	return "?"
}

// Allocation is one region handed out by the upload manager. CPU is the
// mapped DWord view; the GPU address is the buffer base plus Offset.
type Allocation struct {
	CPU    []uint32
	Buffer BufferID
	Offset uint32
}

// UploadManager is the bump allocator the encoder streams indirect
// state through. Alloc may block while the allocator acquires a new
// backing buffer; Generation increments each time the backing buffer
// rotates, invalidating previously returned GPU offsets.
type UploadManager interface {
	Alloc(size, align uint32) (Allocation, error)
	Generation() uint64
}

// ResourceMap resolves buffer identities to GPU placement. Addresses
// must not be cached across batch boundaries.
type ResourceMap interface {
	Address(BufferID) uint64
	Size(BufferID) uint32
}
