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

// Package devinfo holds the immutable per-hardware-generation descriptors.
//
// A descriptor is selected once by the embedder and shared read-only between
// contexts. Querying a generation this package does not know about is a
// programming error and panics.
package devinfo

import "fmt"

// Gen identifies a hardware generation. The value is the generation number
// multiplied by ten so that gen 7.5 stays integral.
type Gen int

// The supported hardware generations.
const (
	Gen6  Gen = 60
	Gen7  Gen = 70
	Gen75 Gen = 75
	Gen8  Gen = 80
	Gen9  Gen = 90
	Gen11 Gen = 110
	Gen12 Gen = 120
)

func (g Gen) String() string {
	if g%10 == 0 {
		return fmt.Sprintf("gen%d", g/10)
	}
	return fmt.Sprintf("gen%d.%d", g/10, g%10)
}

// Ver returns the major generation number (8 for Gen8, 12 for Gen12, ...).
func (g Gen) Ver() int { return int(g) / 10 }

// Erratum identifies a hardware workaround that a generation requires.
type Erratum uint

// The known errata. The set is closed; the sync planner and the draw
// compiler consult these through Info.Has.
const (
	// WaHDCFlushBeforeNonPipelined requires an HDC flush pipe control
	// before any non-pipelined state command (gen12 A0).
	WaHDCFlushBeforeNonPipelined Erratum = iota
	// WaDepthStallBeforeDepthFlush requires depth-stall to be set in any
	// pipe control that sets depth-cache-flush (gen12+).
	WaDepthStallBeforeDepthFlush
	// WaVFCacheInvalidatePostSyncWrite requires a CS stall and a post-sync
	// write to accompany any VF cache invalidation.
	WaVFCacheInvalidatePostSyncWrite
	// WaPipelineSelectCacheFlushes requires a write-cache flush packet and
	// a separate read-cache invalidate packet around PIPELINE_SELECT.
	WaPipelineSelectCacheFlushes
	// WaPreemptionDisableForWM requires object-level preemption to be
	// toggled around draws with certain WM states (gen9).
	WaPreemptionDisableForWM
	// WaPushConstantReemitOnContextSwitch marks generations whose context
	// image does not preserve push constants across a batch boundary.
	WaPushConstantReemitOnContextSwitch
	// WaReemitConstantsAfterBindingTable forces push constant re-emission
	// whenever any binding table changed (gen11+).
	WaReemitConstantsAfterBindingTable
	// WaAlignedUncompactedInst requires uncompacted instructions to stay
	// on a 16-byte boundary in a compacted program (G45-era cores).
	WaAlignedUncompactedInst

	numErrata
)

// Info describes a single hardware revision. Values are immutable after
// construction.
type Info struct {
	Gen      Gen
	Revision int // stepping; A0 is revision 0
	Platform string

	errata uint64

	// Limits.
	URBSizeKB        int
	MaxVSThreads     int
	MaxPSThreads     int
	MaxCSThreads     int
	BindingTableSize int

	// Capabilities.
	HasCFE             bool // CFE_STATE + COMPUTE_WALKER instead of MEDIA_VFE + GPGPU_WALKER
	HasConstantAll     bool // multi-stage 3DSTATE_CONSTANT_ALL coalescing
	HasSGVBypass       bool // 3DSTATE_VF_SGVS derivation of draw-id / base-instance
	BranchUnitsBytes   bool // branch offsets in bytes rather than compacted units
	VFCacheAddressOnly bool // VF cache keyed by the low 32 address bits
}

// Has returns true if the generation requires the given erratum workaround.
func (i *Info) Has(w Erratum) bool { return i.errata&(1<<w) != 0 }

func errataSet(ws ...Erratum) uint64 {
	s := uint64(0)
	for _, w := range ws {
		s |= 1 << w
	}
	return s
}

var infos = map[Gen][]*Info{
	Gen6: {{
		Gen: Gen6, Platform: "SNB",
		errata:       errataSet(WaAlignedUncompactedInst),
		URBSizeKB:    64,
		MaxVSThreads: 60, MaxPSThreads: 80, MaxCSThreads: 60,
		BindingTableSize: 240,
	}},
	Gen7: {{
		Gen: Gen7, Platform: "IVB",
		URBSizeKB:    256,
		MaxVSThreads: 128, MaxPSThreads: 172, MaxCSThreads: 64,
		BindingTableSize: 240,
	}},
	Gen75: {{
		Gen: Gen75, Platform: "HSW",
		URBSizeKB:    256,
		MaxVSThreads: 280, MaxPSThreads: 204, MaxCSThreads: 70,
		BindingTableSize: 240,
	}},
	Gen8: {{
		Gen: Gen8, Platform: "BDW",
		errata:       errataSet(WaPipelineSelectCacheFlushes),
		URBSizeKB:    384,
		MaxVSThreads: 336, MaxPSThreads: 336, MaxCSThreads: 448,
		BindingTableSize: 240,
		HasSGVBypass:     true,
		BranchUnitsBytes: true,
	}},
	Gen9: {{
		Gen: Gen9, Platform: "SKL",
		errata: errataSet(
			WaPipelineSelectCacheFlushes,
			WaPreemptionDisableForWM,
			WaVFCacheInvalidatePostSyncWrite),
		URBSizeKB:    384,
		MaxVSThreads: 336, MaxPSThreads: 432, MaxCSThreads: 672,
		BindingTableSize: 240,
		HasSGVBypass:     true,
		BranchUnitsBytes: true,
	}},
	Gen11: {{
		Gen: Gen11, Platform: "ICL",
		errata: errataSet(
			WaVFCacheInvalidatePostSyncWrite,
			WaReemitConstantsAfterBindingTable),
		URBSizeKB:    1024,
		MaxVSThreads: 364, MaxPSThreads: 532, MaxCSThreads: 1120,
		BindingTableSize: 240,
		HasSGVBypass:     true,
		BranchUnitsBytes: true,
	}},
	Gen12: {
		{
			Gen: Gen12, Revision: 0, Platform: "TGL",
			errata: errataSet(
				WaHDCFlushBeforeNonPipelined,
				WaDepthStallBeforeDepthFlush,
				WaVFCacheInvalidatePostSyncWrite,
				WaReemitConstantsAfterBindingTable,
				WaPushConstantReemitOnContextSwitch),
			URBSizeKB:    1024,
			MaxVSThreads: 546, MaxPSThreads: 1024, MaxCSThreads: 2240,
			BindingTableSize:   240,
			HasCFE:             true,
			HasConstantAll:     true,
			HasSGVBypass:       true,
			BranchUnitsBytes:   true,
			VFCacheAddressOnly: true,
		},
		{
			Gen: Gen12, Revision: 1, Platform: "TGL",
			errata: errataSet(
				WaDepthStallBeforeDepthFlush,
				WaVFCacheInvalidatePostSyncWrite,
				WaReemitConstantsAfterBindingTable,
				WaPushConstantReemitOnContextSwitch),
			URBSizeKB:    1024,
			MaxVSThreads: 546, MaxPSThreads: 1024, MaxCSThreads: 2240,
			BindingTableSize:   240,
			HasCFE:             true,
			HasConstantAll:     true,
			HasSGVBypass:       true,
			BranchUnitsBytes:   true,
			VFCacheAddressOnly: true,
		},
	},
}

// Lookup returns the descriptor for the given generation and revision.
// Unknown generations panic; revisions beyond the described steppings
// resolve to the latest described stepping.
func Lookup(gen Gen, revision int) *Info {
	revs, ok := infos[gen]
	if !ok {
		panic(fmt.Errorf("devinfo: unsupported generation %v", gen))
	}
	for _, i := range revs {
		if i.Revision == revision {
			return i
		}
	}
	return revs[len(revs)-1]
}

// Gens returns every supported generation, ascending. Used by the
// exhaustive codec tests.
func Gens() []Gen {
	return []Gen{Gen6, Gen7, Gen75, Gen8, Gen9, Gen11, Gen12}
}
