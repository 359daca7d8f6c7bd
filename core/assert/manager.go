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

// Package assert provides a fluent assertion library for tests.
package assert

import (
	"bytes"
	"context"
	"fmt"

	"github.com/atari-vcs/mesa-sub000/core/log"
)

// Output receives committed assertion text. Assertions write through the
// context logger, which log.Testing forwards to the owning testing.T.
type Output interface {
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}

// For starts a new assertion with the supplied title. ctx carries the
// test logger installed by log.Testing.
func For(ctx context.Context, msg string, args ...interface{}) *Assertion {
	a := &Assertion{
		to:    ctxOutput{ctx},
		out:   &bytes.Buffer{},
		level: Error,
	}
	a.Printf(msg, args...)
	a.Println()
	return a
}

type ctxOutput struct{ ctx context.Context }

func (o ctxOutput) Fatal(args ...interface{}) {
	log.F(o.ctx, true, "%v", fmt.Sprint(args...))
}

func (o ctxOutput) Error(args ...interface{}) {
	log.E(o.ctx, "%v", fmt.Sprint(args...))
}

func (o ctxOutput) Log(args ...interface{}) {
	log.I(o.ctx, "%v", fmt.Sprint(args...))
}
