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

package residency_test

import (
	"testing"

	"github.com/atari-vcs/mesa-sub000/core/assert"
	"github.com/atari-vcs/mesa-sub000/core/log"
	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/residency"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
)

func TestUseJoins(t *testing.T) {
	ctx := log.Testing(t)
	l := residency.NewLedger()
	buf := encoder.BufferID(7)

	// Two uses of one buffer collapse into the monotonic join.
	l.Use(buf, false, sync.RenderTargetRead)
	l.Use(buf, true, sync.OtherWrite)
	assert.For(ctx, "one entry").That(l.Len()).Equals(1)

	e, ok := l.Lookup(buf)
	assert.For(ctx, "found").That(ok).Equals(true)
	assert.For(ctx, "writable").That(e.Writable).Equals(true)
	assert.For(ctx, "domain").That(e.Domain).Equals(sync.OtherWrite)
}

// The final ledger is order-independent: any sequence of uses equals the
// single joined call.
func TestJoinOrderIndependent(t *testing.T) {
	ctx := log.Testing(t)
	buf := encoder.BufferID(3)

	forward := residency.NewLedger()
	forward.Use(buf, true, sync.DepthRead)
	forward.Use(buf, false, sync.DepthWrite)

	reverse := residency.NewLedger()
	reverse.Use(buf, false, sync.DepthWrite)
	reverse.Use(buf, true, sync.DepthRead)

	joined := residency.NewLedger()
	joined.Use(buf, true, sync.Strongest(sync.DepthRead, sync.DepthWrite))

	f, _ := forward.Lookup(buf)
	r, _ := reverse.Lookup(buf)
	j, _ := joined.Lookup(buf)
	assert.For(ctx, "forward").That(f).Equals(j)
	assert.For(ctx, "reverse").That(r).Equals(j)
}

func TestZeroValueLedger(t *testing.T) {
	ctx := log.Testing(t)
	var l residency.Ledger
	l.Use(5, true, sync.RenderTargetWrite)
	assert.For(ctx, "one entry").That(l.Len()).Equals(1)
	e, ok := l.Lookup(5)
	assert.For(ctx, "found").That(ok).Equals(true)
	assert.For(ctx, "writable").That(e.Writable).Equals(true)
}

func TestSnapshotClears(t *testing.T) {
	ctx := log.Testing(t)
	l := residency.NewLedger()
	l.Use(1, false, sync.OtherRead)
	l.Use(2, true, sync.RenderTargetWrite)
	l.Use(1, false, sync.OtherRead)

	snap := l.Snapshot()
	assert.For(ctx, "entries").That(len(snap)).Equals(2)
	assert.For(ctx, "first use order").That(snap[0].Buffer).Equals(encoder.BufferID(1))
	assert.For(ctx, "second").That(snap[1].Buffer).Equals(encoder.BufferID(2))

	// The ledger restarts empty for the next batch.
	assert.For(ctx, "cleared").That(l.Len()).Equals(0)
	l.Use(9, false, sync.OtherRead)
	assert.For(ctx, "usable after clear").That(l.Len()).Equals(1)
}
