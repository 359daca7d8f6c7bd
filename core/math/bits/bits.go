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

// Package bits provides bit-range accessors over DWord arrays and 64-bit
// words.
//
// Bit positions are inclusive, numbered with LSB = 0 of DWord 0 and
// increasing across DWords. A range never spans more than 64 bits.
package bits

import "fmt"

// Mask returns a value with the n lowest bits set.
func Mask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// Get returns the inclusive bit range [lo..hi] of the DWord array d.
func Get(d []uint32, hi, lo uint) uint64 {
	if hi < lo || hi-lo >= 64 {
		panic(fmt.Errorf("invalid bit range [%d..%d]", lo, hi))
	}
	w, b := lo/32, lo%32
	v := uint64(d[w]) >> b
	read := 32 - b
	for read <= hi-lo {
		w++
		v |= uint64(d[w]) << read
		read += 32
	}
	return v & Mask(hi-lo+1)
}

// Set writes v into the inclusive bit range [lo..hi] of the DWord array d.
// v must fit in the range.
func Set(d []uint32, hi, lo uint, v uint64) {
	if hi < lo || hi-lo >= 64 {
		panic(fmt.Errorf("invalid bit range [%d..%d]", lo, hi))
	}
	if v&^Mask(hi-lo+1) != 0 {
		panic(fmt.Errorf("value 0x%x exceeds bit range [%d..%d]", v, lo, hi))
	}
	for bit := lo; bit <= hi; bit++ {
		w, b := bit/32, bit%32
		if v&1 != 0 {
			d[w] |= 1 << b
		} else {
			d[w] &^= 1 << b
		}
		v >>= 1
	}
}

// Get64 returns the inclusive bit range [lo..hi] of the 64-bit word d.
func Get64(d uint64, hi, lo uint) uint64 {
	if hi < lo || hi >= 64 {
		panic(fmt.Errorf("invalid bit range [%d..%d]", lo, hi))
	}
	return (d >> lo) & Mask(hi-lo+1)
}

// Set64 returns d with v written into the inclusive bit range [lo..hi].
// v must fit in the range.
func Set64(d uint64, hi, lo uint, v uint64) uint64 {
	if hi < lo || hi >= 64 {
		panic(fmt.Errorf("invalid bit range [%d..%d]", lo, hi))
	}
	m := Mask(hi-lo+1)
	if v&^m != 0 {
		panic(fmt.Errorf("value 0x%x exceeds bit range [%d..%d]", v, lo, hi))
	}
	return (d &^ (m << lo)) | (v << lo)
}

// SignExtend returns v, an n-bit two's complement value, widened to int64.
func SignExtend(v uint64, n uint) int64 {
	shift := 64 - n
	return int64(v<<shift) >> shift
}

// ReplicateBit returns a 64-bit word with every bit set to the given bit of
// v.
func ReplicateBit(v uint64, bit uint) uint64 {
	if v&(1<<bit) != 0 {
		return ^uint64(0)
	}
	return 0
}

// AlignUp rounds v up to the next multiple of to. to must be a power of two.
func AlignUp(v, to uint64) uint64 {
	return (v + to - 1) &^ (to - 1)
}

// AlignDown rounds v down to a multiple of to. to must be a power of two.
func AlignDown(v, to uint64) uint64 {
	return v &^ (to - 1)
}

// IsAligned returns true if v is a multiple of to. to must be a power of
// two.
func IsAligned(v, to uint64) bool {
	return v&(to-1) == 0
}
