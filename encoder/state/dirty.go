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

package state

import "github.com/atari-vcs/mesa-sub000/encoder"

// Dirty enumerates the global re-emission flags. The set is closed; the
// draw compiler walks it in a fixed order.
type Dirty uint

const (
	DirtyBlend Dirty = iota
	DirtyColorCalc
	DirtyDepthStencilAlpha
	DirtyRasterizer
	DirtyViewports
	DirtyScissors
	DirtyFramebuffer
	DirtyMultisample
	DirtySampleMask
	DirtyURB
	DirtyVertexBuffers
	DirtyVertexElements
	DirtyTopology
	DirtyPrimitiveRestart
	DirtySOTargets
	DirtySODecls
	DirtyPolyStipple
	DirtyLineStipple

	DirtyCount
)

// StageDirty enumerates the per-stage re-emission flags.
type StageDirty uint

const (
	StageDirtyConstants StageDirty = iota
	StageDirtyBindings
	StageDirtySamplers
	StageDirtyProgram

	StageDirtyCount
)

// DirtyMask accumulates what the next draw must re-emit. Setting a bit
// is idempotent; only the draw compiler clears bits, after it emitted
// the corresponding state.
type DirtyMask struct {
	global uint64
	stage  [encoder.StageCount]uint64
}

// Set raises a global bit.
func (m *DirtyMask) Set(d Dirty) { m.global |= 1 << d }

// Clear lowers a global bit.
func (m *DirtyMask) Clear(d Dirty) { m.global &^= 1 << d }

// Test reports a global bit.
func (m *DirtyMask) Test(d Dirty) bool { return m.global&(1<<d) != 0 }

// SetStage raises a per-stage bit.
func (m *DirtyMask) SetStage(s encoder.Stage, d StageDirty) { m.stage[s] |= 1 << d }

// ClearStage lowers a per-stage bit.
func (m *DirtyMask) ClearStage(s encoder.Stage, d StageDirty) { m.stage[s] &^= 1 << d }

// TestStage reports a per-stage bit.
func (m *DirtyMask) TestStage(s encoder.Stage, d StageDirty) bool {
	return m.stage[s]&(1<<d) != 0
}

// SetStageAll raises one bit on every stage.
func (m *DirtyMask) SetStageAll(d StageDirty) {
	for s := range m.stage {
		m.stage[s] |= 1 << d
	}
}

// AnyStage reports whether any stage has the bit raised.
func (m *DirtyMask) AnyStage(d StageDirty) bool {
	for s := range m.stage {
		if m.stage[s]&(1<<d) != 0 {
			return true
		}
	}
	return false
}

// RaiseAll marks everything dirty. Called when a batch boundary loses
// the hardware context.
func (m *DirtyMask) RaiseAll() {
	m.global = 1<<DirtyCount - 1
	for s := range m.stage {
		m.stage[s] = 1<<StageDirtyCount - 1
	}
}

// Empty reports whether nothing is dirty.
func (m *DirtyMask) Empty() bool {
	if m.global != 0 {
		return false
	}
	for s := range m.stage {
		if m.stage[s] != 0 {
			return false
		}
	}
	return true
}
