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
	"context"
	"fmt"

	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/hw/devinfo"
)

// Strict makes the stream pass uncompact every word it emits and compare
// it against the source instruction. A mismatch means a table or codec
// bug, never bad input, so it panics after logging the differing bits.
var Strict = true

func verifyRoundTrip(ctx context.Context, inf *devinfo.Info, src *Inst, c Compacted) {
	got := Uncompact(inf, c)
	if got == *src {
		return
	}
	diff := Inst{
		got[0] ^ src[0], got[1] ^ src[1], got[2] ^ src[2], got[3] ^ src[3],
	}
	log.E(ctx, "compaction round trip mismatch op=%#x want=%v got=%v differing=%v",
		src.Opcode(), src, &got, &diff)
	panic(fmt.Errorf("eu: compaction round trip mismatch for %v", src))
}
