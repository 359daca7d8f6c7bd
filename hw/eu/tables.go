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

package eu

import (
	"fmt"

	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// bitRange is an inclusive range of uncompacted instruction bits that a
// lookup table entry covers. Entry bit 0 corresponds to the lowest bit of
// the first range; ranges are concatenated in order.
type bitRange struct {
	hi, lo uint
}

// The five entropy buckets of the two-source compaction scheme. The bit
// groupings are fixed across generations; the table contents are not.
var (
	controlRanges = []bitRange{{28, 8}, {31, 31}, {34, 32}}
	dataRanges    = []bitRange{{40, 35}, {61, 54}, {94, 89}}
	subregRanges  = []bitRange{{45, 41}, {68, 64}, {100, 96}}
	src0Ranges    = []bitRange{{88, 77}}
	src1Ranges    = []bitRange{{120, 109}}
)

// The four buckets of the three-source scheme.
var (
	control3Ranges  = []bitRange{{28, 8}, {31, 31}, {34, 32}}
	source3Ranges   = []bitRange{{40, 37}, {57, 56}}
	subreg3Ranges   = []bitRange{{45, 41}, {68, 64}, {90, 86}, {105, 101}}
	modifier3Ranges = []bitRange{{78, 77}, {85, 85}, {100, 99}, {115, 114}}
)

func rangesWidth(rs []bitRange) uint {
	w := uint(0)
	for _, r := range rs {
		w += r.hi - r.lo + 1
	}
	return w
}

// gather reassembles a bucket value from the instruction. Ranges listed in
// masked are read as zero; the hardware reconstitutes those bits from the
// immediate slot on decode, so they carry no entropy here.
func gather(i *Inst, rs []bitRange, maskFrom uint) uint64 {
	v, shift := uint64(0), uint(0)
	for _, r := range rs {
		if r.lo < maskFrom {
			v |= i.Bits(r.hi, r.lo) << shift
		}
		shift += r.hi - r.lo + 1
	}
	return v
}

// scatter writes a bucket value back into the instruction, skipping ranges
// at or above maskFrom.
func scatter(i *Inst, rs []bitRange, maskFrom uint, v uint64) {
	shift := uint(0)
	for _, r := range rs {
		if r.lo < maskFrom {
			w := r.hi - r.lo + 1
			i.SetBits(r.hi, r.lo, (v>>shift)&((1<<w)-1))
		}
		shift += r.hi - r.lo + 1
	}
}

// tableSet is the full set of compaction tables for one generation.
type tableSet struct {
	control  [32]uint32
	datatype [32]uint32
	subreg   [32]uint32
	src0     [32]uint32
	src1     [32]uint32

	control3  [32]uint32
	source3   [32]uint32
	subreg3   [32]uint32
	modifier3 [32]uint32
}

// lookup returns the index of v in t, scanning linearly. ok is false when
// no entry matches; the caller then emits the full-width form.
func lookup(t *[32]uint32, v uint64) (uint64, bool) {
	for i, e := range t {
		if uint64(e) == v {
			return uint64(i), true
		}
	}
	return 0, false
}

var gen8ControlTable = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x004001, 0x006100, 0x008100, 0x006101,
	0x007100, 0x009100, 0x206000, 0x208000,
	0x026000, 0x028000, 0x046000, 0x048000,
	0x066000, 0x068000, 0x806000, 0x808000,
	0x106000, 0x108000, 0x016000, 0x018000,
	0x00a001, 0x206001, 0x208001, 0x800001,
}

var gen8DatatypeTable = [32]uint32{
	0x000000, 0x001d5d, 0x000141, 0x000545,
	0x000d4d, 0x000949, 0x075d5d, 0x014545,
	0x004141, 0x00c141, 0x01c545, 0x024949,
	0x02c949, 0x0bdd5d, 0x07dd5d, 0x0ae969,
	0x0cc545, 0x0dc141, 0x001d41, 0x001d45,
	0x000155, 0x000555, 0x001f5d, 0x001e5d,
	0x00094d, 0x000d49, 0x0bd545, 0x07d545,
	0x03c141, 0x02c545, 0x0cc141, 0x0bdd41,
}

var gen8SubregTable = [32]uint32{
	0x0000, 0x0001, 0x0002, 0x0004,
	0x0008, 0x0010, 0x0020, 0x0040,
	0x0080, 0x0100, 0x0200, 0x0400,
	0x0800, 0x1000, 0x2000, 0x4000,
	0x0021, 0x0081, 0x0101, 0x0084,
	0x0104, 0x0421, 0x0821, 0x1021,
	0x0481, 0x0881, 0x1081, 0x0424,
	0x0884, 0x1104, 0x2108, 0x4210,
}

var gen8SrcTable = [32]uint32{
	0x000, 0x4d0, 0x48c, 0x448,
	0x514, 0x8d0, 0x4c0, 0x00c,
	0x004, 0x008, 0x4d2, 0x4d1,
	0x4d3, 0x890, 0x48e, 0x48d,
	0x44a, 0x449, 0x516, 0x515,
	0x8d2, 0x8d1, 0x4c2, 0x4c1,
	0x00e, 0x00d, 0x006, 0x005,
	0x00a, 0x009, 0x892, 0x891,
}

var gen8Control3Table = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x206000, 0x208000, 0x006100, 0x008100,
	0x026000, 0x028000, 0x106000, 0x108000,
	0x046000, 0x048000, 0x066000, 0x068000,
	0x007100, 0x009100, 0x806000, 0x808000,
	0x016000, 0x018000, 0x00a001, 0x206001,
	0x208001, 0x226000, 0x228000, 0x800001,
}

var gen8Source3Table = [32]uint32{
	0x07, 0x11, 0x20, 0x3a,
	0x00, 0x17, 0x27, 0x37,
	0x01, 0x10, 0x21, 0x31,
	0x02, 0x12, 0x22, 0x32,
	0x03, 0x13, 0x23, 0x33,
	0x04, 0x14, 0x24, 0x34,
	0x05, 0x15, 0x25, 0x35,
	0x06, 0x16, 0x26, 0x36,
}

var gen8Subreg3Table = [32]uint32{
	0x00000, 0x00001, 0x00002, 0x00004,
	0x00008, 0x00010, 0x00020, 0x00040,
	0x00080, 0x00100, 0x00200, 0x00400,
	0x00800, 0x01000, 0x02000, 0x04000,
	0x08000, 0x10000, 0x20000, 0x40000,
	0x80000, 0x00021, 0x00401, 0x08001,
	0x00420, 0x08020, 0x08400, 0x00441,
	0x08421, 0x10842, 0x21084, 0x84210,
}

var gen8Modifier3Table = [32]uint32{
	0x00, 0x01, 0x02, 0x03,
	0x04, 0x08, 0x10, 0x18,
	0x20, 0x40, 0x60, 0x05,
	0x06, 0x0a, 0x12, 0x22,
	0x42, 0x09, 0x11, 0x21,
	0x41, 0x0c, 0x14, 0x24,
	0x44, 0x48, 0x50, 0x30,
	0x28, 0x58, 0x68, 0x78,
}

var gen8Tables = tableSet{
	control:   gen8ControlTable,
	datatype:  gen8DatatypeTable,
	subreg:    gen8SubregTable,
	src0:      gen8SrcTable,
	src1:      gen8SrcTable,
	control3:  gen8Control3Table,
	source3:   gen8Source3Table,
	subreg3:   gen8Subreg3Table,
	modifier3: gen8Modifier3Table,
}

var gen6ControlTable = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x004001, 0x006100, 0x008100, 0x006101,
	0x007100, 0x009100, 0x206000, 0x208000,
	0x048000, 0x066000, 0x068000, 0x806000,
	0x808000, 0x106000, 0x108000, 0x016000,
	0x018000, 0x00a001, 0x206001, 0x208001,
	0x800001, 0x026000, 0x028000, 0x046000,
}

var gen6DatatypeTable = [32]uint32{
	0x000000, 0x001d5d, 0x000141, 0x000545,
	0x000d4d, 0x000949, 0x075d5d, 0x014545,
	0x004141, 0x00c141, 0x01c545, 0x024949,
	0x02c949, 0x0bdd5d, 0x07dd5d, 0x0ae969,
	0x001d45, 0x000155, 0x000555, 0x001f5d,
	0x001e5d, 0x00094d, 0x000d49, 0x0bd545,
	0x07d545, 0x03c141, 0x02c545, 0x0cc141,
	0x0bdd41, 0x0cc545, 0x0dc141, 0x001d41,
}

var gen6SubregTable = [32]uint32{
	0x0000, 0x0001, 0x0002, 0x0004,
	0x0008, 0x0010, 0x0020, 0x0040,
	0x0080, 0x0100, 0x0200, 0x0400,
	0x0800, 0x1000, 0x2000, 0x4000,
	0x0084, 0x0104, 0x0421, 0x0821,
	0x1021, 0x0481, 0x0881, 0x1081,
	0x0424, 0x0884, 0x1104, 0x2108,
	0x4210, 0x0021, 0x0081, 0x0101,
}

var gen6SrcTable = [32]uint32{
	0x000, 0x4d0, 0x48c, 0x448,
	0x514, 0x8d0, 0x4c0, 0x00c,
	0x004, 0x008, 0x4d2, 0x4d1,
	0x4d3, 0x890, 0x48e, 0x48d,
	0x515, 0x8d2, 0x8d1, 0x4c2,
	0x4c1, 0x00e, 0x00d, 0x006,
	0x005, 0x00a, 0x009, 0x892,
	0x891, 0x44a, 0x449, 0x516,
}

var gen6Control3Table = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x206000, 0x208000, 0x006100, 0x008100,
	0x026000, 0x028000, 0x106000, 0x108000,
	0x068000, 0x007100, 0x009100, 0x806000,
	0x808000, 0x016000, 0x018000, 0x00a001,
	0x206001, 0x208001, 0x226000, 0x228000,
	0x800001, 0x046000, 0x048000, 0x066000,
}

var gen6Source3Table = [32]uint32{
	0x07, 0x11, 0x20, 0x3a,
	0x00, 0x17, 0x27, 0x37,
	0x01, 0x10, 0x21, 0x31,
	0x02, 0x12, 0x22, 0x32,
	0x33, 0x04, 0x14, 0x24,
	0x34, 0x05, 0x15, 0x25,
	0x35, 0x06, 0x16, 0x26,
	0x36, 0x03, 0x13, 0x23,
}

var gen6Subreg3Table = [32]uint32{
	0x00000, 0x00001, 0x00002, 0x00004,
	0x00008, 0x00010, 0x00020, 0x00040,
	0x00080, 0x00100, 0x00200, 0x00400,
	0x00800, 0x01000, 0x02000, 0x04000,
	0x40000, 0x80000, 0x00021, 0x00401,
	0x08001, 0x00420, 0x08020, 0x08400,
	0x00441, 0x08421, 0x10842, 0x21084,
	0x84210, 0x08000, 0x10000, 0x20000,
}

var gen6Modifier3Table = [32]uint32{
	0x00, 0x01, 0x02, 0x03,
	0x04, 0x08, 0x10, 0x18,
	0x20, 0x40, 0x60, 0x05,
	0x06, 0x0a, 0x12, 0x22,
	0x21, 0x41, 0x0c, 0x14,
	0x24, 0x44, 0x48, 0x50,
	0x30, 0x28, 0x58, 0x68,
	0x78, 0x42, 0x09, 0x11,
}

var gen6Tables = tableSet{
	control:   gen6ControlTable,
	datatype:  gen6DatatypeTable,
	subreg:    gen6SubregTable,
	src0:      gen6SrcTable,
	src1:      gen6SrcTable,
	control3:  gen6Control3Table,
	source3:   gen6Source3Table,
	subreg3:   gen6Subreg3Table,
	modifier3: gen6Modifier3Table,
}

var gen7ControlTable = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x004001, 0x006100, 0x008100, 0x006101,
	0x007100, 0x009100, 0x206000, 0x208000,
	0x068000, 0x806000, 0x808000, 0x106000,
	0x108000, 0x016000, 0x018000, 0x00a001,
	0x206001, 0x208001, 0x800001, 0x026000,
	0x028000, 0x046000, 0x048000, 0x066000,
}

var gen7DatatypeTable = [32]uint32{
	0x000000, 0x001d5d, 0x000141, 0x000545,
	0x000d4d, 0x000949, 0x075d5d, 0x014545,
	0x004141, 0x00c141, 0x01c545, 0x024949,
	0x02c949, 0x0bdd5d, 0x07dd5d, 0x0ae969,
	0x000555, 0x001f5d, 0x001e5d, 0x00094d,
	0x000d49, 0x0bd545, 0x07d545, 0x03c141,
	0x02c545, 0x0cc141, 0x0bdd41, 0x0cc545,
	0x0dc141, 0x001d41, 0x001d45, 0x000155,
}

var gen7SubregTable = [32]uint32{
	0x0000, 0x0001, 0x0002, 0x0004,
	0x0008, 0x0010, 0x0020, 0x0040,
	0x0080, 0x0100, 0x0200, 0x0400,
	0x0800, 0x1000, 0x2000, 0x4000,
	0x0421, 0x0821, 0x1021, 0x0481,
	0x0881, 0x1081, 0x0424, 0x0884,
	0x1104, 0x2108, 0x4210, 0x0021,
	0x0081, 0x0101, 0x0084, 0x0104,
}

var gen7SrcTable = [32]uint32{
	0x000, 0x4d0, 0x48c, 0x448,
	0x514, 0x8d0, 0x4c0, 0x00c,
	0x004, 0x008, 0x4d2, 0x4d1,
	0x4d3, 0x890, 0x48e, 0x48d,
	0x8d1, 0x4c2, 0x4c1, 0x00e,
	0x00d, 0x006, 0x005, 0x00a,
	0x009, 0x892, 0x891, 0x44a,
	0x449, 0x516, 0x515, 0x8d2,
}

var gen7Control3Table = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x206000, 0x208000, 0x006100, 0x008100,
	0x026000, 0x028000, 0x106000, 0x108000,
	0x009100, 0x806000, 0x808000, 0x016000,
	0x018000, 0x00a001, 0x206001, 0x208001,
	0x226000, 0x228000, 0x800001, 0x046000,
	0x048000, 0x066000, 0x068000, 0x007100,
}

var gen7Source3Table = [32]uint32{
	0x07, 0x11, 0x20, 0x3a,
	0x00, 0x17, 0x27, 0x37,
	0x01, 0x10, 0x21, 0x31,
	0x02, 0x12, 0x22, 0x32,
	0x14, 0x24, 0x34, 0x05,
	0x15, 0x25, 0x35, 0x06,
	0x16, 0x26, 0x36, 0x03,
	0x13, 0x23, 0x33, 0x04,
}

var gen7Subreg3Table = [32]uint32{
	0x00000, 0x00001, 0x00002, 0x00004,
	0x00008, 0x00010, 0x00020, 0x00040,
	0x00080, 0x00100, 0x00200, 0x00400,
	0x00800, 0x01000, 0x02000, 0x04000,
	0x00021, 0x00401, 0x08001, 0x00420,
	0x08020, 0x08400, 0x00441, 0x08421,
	0x10842, 0x21084, 0x84210, 0x08000,
	0x10000, 0x20000, 0x40000, 0x80000,
}

var gen7Modifier3Table = [32]uint32{
	0x00, 0x01, 0x02, 0x03,
	0x04, 0x08, 0x10, 0x18,
	0x20, 0x40, 0x60, 0x05,
	0x06, 0x0a, 0x12, 0x22,
	0x0c, 0x14, 0x24, 0x44,
	0x48, 0x50, 0x30, 0x28,
	0x58, 0x68, 0x78, 0x42,
	0x09, 0x11, 0x21, 0x41,
}

var gen7Tables = tableSet{
	control:   gen7ControlTable,
	datatype:  gen7DatatypeTable,
	subreg:    gen7SubregTable,
	src0:      gen7SrcTable,
	src1:      gen7SrcTable,
	control3:  gen7Control3Table,
	source3:   gen7Source3Table,
	subreg3:   gen7Subreg3Table,
	modifier3: gen7Modifier3Table,
}

var gen11ControlTable = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x004001, 0x006100, 0x008100, 0x006101,
	0x007100, 0x009100, 0x206000, 0x208000,
	0x808000, 0x106000, 0x108000, 0x016000,
	0x018000, 0x00a001, 0x206001, 0x208001,
	0x800001, 0x026000, 0x028000, 0x046000,
	0x048000, 0x066000, 0x068000, 0x806000,
}

var gen11DatatypeTable = [32]uint32{
	0x000000, 0x001d5d, 0x000141, 0x000545,
	0x000d4d, 0x000949, 0x075d5d, 0x014545,
	0x004141, 0x00c141, 0x01c545, 0x024949,
	0x02c949, 0x0bdd5d, 0x07dd5d, 0x0ae969,
	0x001e5d, 0x00094d, 0x000d49, 0x0bd545,
	0x07d545, 0x03c141, 0x02c545, 0x0cc141,
	0x0bdd41, 0x0cc545, 0x0dc141, 0x001d41,
	0x001d45, 0x000155, 0x000555, 0x001f5d,
}

var gen11SubregTable = [32]uint32{
	0x0000, 0x0001, 0x0002, 0x0004,
	0x0008, 0x0010, 0x0020, 0x0040,
	0x0080, 0x0100, 0x0200, 0x0400,
	0x0800, 0x1000, 0x2000, 0x4000,
	0x1021, 0x0481, 0x0881, 0x1081,
	0x0424, 0x0884, 0x1104, 0x2108,
	0x4210, 0x0021, 0x0081, 0x0101,
	0x0084, 0x0104, 0x0421, 0x0821,
}

var gen11SrcTable = [32]uint32{
	0x000, 0x4d0, 0x48c, 0x448,
	0x514, 0x8d0, 0x4c0, 0x00c,
	0x004, 0x008, 0x4d2, 0x4d1,
	0x4d3, 0x890, 0x48e, 0x48d,
	0x4c1, 0x00e, 0x00d, 0x006,
	0x005, 0x00a, 0x009, 0x892,
	0x891, 0x44a, 0x449, 0x516,
	0x515, 0x8d2, 0x8d1, 0x4c2,
}

var gen11Control3Table = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x206000, 0x208000, 0x006100, 0x008100,
	0x026000, 0x028000, 0x106000, 0x108000,
	0x808000, 0x016000, 0x018000, 0x00a001,
	0x206001, 0x208001, 0x226000, 0x228000,
	0x800001, 0x046000, 0x048000, 0x066000,
	0x068000, 0x007100, 0x009100, 0x806000,
}

var gen11Source3Table = [32]uint32{
	0x07, 0x11, 0x20, 0x3a,
	0x00, 0x17, 0x27, 0x37,
	0x01, 0x10, 0x21, 0x31,
	0x02, 0x12, 0x22, 0x32,
	0x34, 0x05, 0x15, 0x25,
	0x35, 0x06, 0x16, 0x26,
	0x36, 0x03, 0x13, 0x23,
	0x33, 0x04, 0x14, 0x24,
}

var gen11Subreg3Table = [32]uint32{
	0x00000, 0x00001, 0x00002, 0x00004,
	0x00008, 0x00010, 0x00020, 0x00040,
	0x00080, 0x00100, 0x00200, 0x00400,
	0x00800, 0x01000, 0x02000, 0x04000,
	0x08001, 0x00420, 0x08020, 0x08400,
	0x00441, 0x08421, 0x10842, 0x21084,
	0x84210, 0x08000, 0x10000, 0x20000,
	0x40000, 0x80000, 0x00021, 0x00401,
}

var gen11Modifier3Table = [32]uint32{
	0x00, 0x01, 0x02, 0x03,
	0x04, 0x08, 0x10, 0x18,
	0x20, 0x40, 0x60, 0x05,
	0x06, 0x0a, 0x12, 0x22,
	0x24, 0x44, 0x48, 0x50,
	0x30, 0x28, 0x58, 0x68,
	0x78, 0x42, 0x09, 0x11,
	0x21, 0x41, 0x0c, 0x14,
}

var gen11Tables = tableSet{
	control:   gen11ControlTable,
	datatype:  gen11DatatypeTable,
	subreg:    gen11SubregTable,
	src0:      gen11SrcTable,
	src1:      gen11SrcTable,
	control3:  gen11Control3Table,
	source3:   gen11Source3Table,
	subreg3:   gen11Subreg3Table,
	modifier3: gen11Modifier3Table,
}

var gen12ControlTable = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x004001, 0x006100, 0x008100, 0x006101,
	0x007100, 0x009100, 0x206000, 0x208000,
	0x018000, 0x00a001, 0x206001, 0x208001,
	0x800001, 0x026000, 0x028000, 0x046000,
	0x048000, 0x066000, 0x068000, 0x806000,
	0x808000, 0x106000, 0x108000, 0x016000,
}

var gen12DatatypeTable = [32]uint32{
	0x000000, 0x001d5d, 0x000141, 0x000545,
	0x000d4d, 0x000949, 0x075d5d, 0x014545,
	0x004141, 0x00c141, 0x01c545, 0x024949,
	0x02c949, 0x0bdd5d, 0x07dd5d, 0x0ae969,
	0x07d545, 0x03c141, 0x02c545, 0x0cc141,
	0x0bdd41, 0x0cc545, 0x0dc141, 0x001d41,
	0x001d45, 0x000155, 0x000555, 0x001f5d,
	0x001e5d, 0x00094d, 0x000d49, 0x0bd545,
}

var gen12SubregTable = [32]uint32{
	0x0000, 0x0001, 0x0002, 0x0004,
	0x0008, 0x0010, 0x0020, 0x0040,
	0x0080, 0x0100, 0x0200, 0x0400,
	0x0800, 0x1000, 0x2000, 0x4000,
	0x0424, 0x0884, 0x1104, 0x2108,
	0x4210, 0x0021, 0x0081, 0x0101,
	0x0084, 0x0104, 0x0421, 0x0821,
	0x1021, 0x0481, 0x0881, 0x1081,
}

var gen12SrcTable = [32]uint32{
	0x000, 0x4d0, 0x48c, 0x448,
	0x514, 0x8d0, 0x4c0, 0x00c,
	0x004, 0x008, 0x4d2, 0x4d1,
	0x4d3, 0x890, 0x48e, 0x48d,
	0x005, 0x00a, 0x009, 0x892,
	0x891, 0x44a, 0x449, 0x516,
	0x515, 0x8d2, 0x8d1, 0x4c2,
	0x4c1, 0x00e, 0x00d, 0x006,
}

var gen12Control3Table = [32]uint32{
	0x000000, 0x002000, 0x004000, 0x006000,
	0x008000, 0x00a000, 0x006001, 0x008001,
	0x206000, 0x208000, 0x006100, 0x008100,
	0x026000, 0x028000, 0x106000, 0x108000,
	0x206001, 0x208001, 0x226000, 0x228000,
	0x800001, 0x046000, 0x048000, 0x066000,
	0x068000, 0x007100, 0x009100, 0x806000,
	0x808000, 0x016000, 0x018000, 0x00a001,
}

var gen12Source3Table = [32]uint32{
	0x07, 0x11, 0x20, 0x3a,
	0x00, 0x17, 0x27, 0x37,
	0x01, 0x10, 0x21, 0x31,
	0x02, 0x12, 0x22, 0x32,
	0x35, 0x06, 0x16, 0x26,
	0x36, 0x03, 0x13, 0x23,
	0x33, 0x04, 0x14, 0x24,
	0x34, 0x05, 0x15, 0x25,
}

var gen12Subreg3Table = [32]uint32{
	0x00000, 0x00001, 0x00002, 0x00004,
	0x00008, 0x00010, 0x00020, 0x00040,
	0x00080, 0x00100, 0x00200, 0x00400,
	0x00800, 0x01000, 0x02000, 0x04000,
	0x00441, 0x08421, 0x10842, 0x21084,
	0x84210, 0x08000, 0x10000, 0x20000,
	0x40000, 0x80000, 0x00021, 0x00401,
	0x08001, 0x00420, 0x08020, 0x08400,
}

var gen12Modifier3Table = [32]uint32{
	0x00, 0x01, 0x02, 0x03,
	0x04, 0x08, 0x10, 0x18,
	0x20, 0x40, 0x60, 0x05,
	0x06, 0x0a, 0x12, 0x22,
	0x30, 0x28, 0x58, 0x68,
	0x78, 0x42, 0x09, 0x11,
	0x21, 0x41, 0x0c, 0x14,
	0x24, 0x44, 0x48, 0x50,
}

var gen12Tables = tableSet{
	control:   gen12ControlTable,
	datatype:  gen12DatatypeTable,
	subreg:    gen12SubregTable,
	src0:      gen12SrcTable,
	src1:      gen12SrcTable,
	control3:  gen12Control3Table,
	source3:   gen12Source3Table,
	subreg3:   gen12Subreg3Table,
	modifier3: gen12Modifier3Table,
}

// tablesFor returns the table set for the generation. Generations that
// share silicon encodings share tables.
func tablesFor(gen devinfo.Gen) *tableSet {
	switch gen {
	case devinfo.Gen6:
		return &gen6Tables
	case devinfo.Gen7, devinfo.Gen75:
		return &gen7Tables
	case devinfo.Gen8, devinfo.Gen9:
		return &gen8Tables
	case devinfo.Gen11:
		return &gen11Tables
	case devinfo.Gen12:
		return &gen12Tables
	default:
		panic(fmt.Errorf("eu: no compaction tables for %v", gen))
	}
}

func init() {
	// A truncated table would leave trailing zeros; the terminal entry of
	// every table must be non-zero.
	for _, gen := range devinfo.Gens() {
		ts := tablesFor(gen)
		for name, t := range map[string]*[32]uint32{
			"control": &ts.control, "datatype": &ts.datatype,
			"subreg": &ts.subreg, "src0": &ts.src0, "src1": &ts.src1,
			"control3": &ts.control3, "source3": &ts.source3,
			"subreg3": &ts.subreg3, "modifier3": &ts.modifier3,
		} {
			if t[len(t)-1] == 0 {
				panic(fmt.Errorf("eu: %v %s table terminal entry is zero", gen, name))
			}
		}
	}
}
