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

package log

import (
	"context"
	"time"
)

type handlerKeyTy string
type filterKeyTy string
type tagKeyTy string
type clockKeyTy string
type valuesKeyTy string

const (
	handlerKey handlerKeyTy = "log.handlerKey"
	filterKey  filterKeyTy  = "log.filterKey"
	tagKey     tagKeyTy     = "log.tagKey"
	clockKey   clockKeyTy   = "log.clockKey"
	valuesKey  valuesKeyTy  = "log.valuesKey"
)

// PutHandler returns a new context with the Handler assigned to h.
func PutHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey, h)
}

// GetHandler returns the Handler assigned to ctx.
func GetHandler(ctx context.Context) Handler {
	out, _ := ctx.Value(handlerKey).(Handler)
	return out
}

// Filter is the filter of log messages.
type Filter interface {
	// ShowSeverity returns true if the message of severity s should be shown.
	ShowSeverity(s Severity) bool
}

// SeverityFilter implements the Filter interface which filters out any
// messages below the severity value.
type SeverityFilter Severity

// ShowSeverity returns true if the message of severity s should be shown.
func (f SeverityFilter) ShowSeverity(s Severity) bool { return Severity(f) <= s }

// PutFilter returns a new context with the Filter assigned to f.
func PutFilter(ctx context.Context, f Filter) context.Context {
	return context.WithValue(ctx, filterKey, f)
}

// GetFilter returns the Filter assigned to ctx.
func GetFilter(ctx context.Context) Filter {
	out, _ := ctx.Value(filterKey).(Filter)
	return out
}

// PutTag returns a new context with the tag assigned to t.
func PutTag(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// GetTag returns the tag assigned to ctx.
func GetTag(ctx context.Context) string {
	out, _ := ctx.Value(tagKey).(string)
	return out
}

// PutClock returns a new context with the clock function assigned to c.
// Tests install a fixed clock to get deterministic messages.
func PutClock(ctx context.Context, c func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey, c)
}

// GetClock returns the clock function assigned to ctx.
func GetClock(ctx context.Context) func() time.Time {
	out, _ := ctx.Value(clockKey).(func() time.Time)
	return out
}

// V is a map of key-value pairs to attach to logged messages.
type V map[string]interface{}

// Bind returns a new context with the values in v attached to it.
func (v V) Bind(ctx context.Context) context.Context {
	merged := V{}
	for n, o := range getValues(ctx) {
		merged[n] = o
	}
	for n, o := range v {
		merged[n] = o
	}
	return context.WithValue(ctx, valuesKey, merged)
}

func getValues(ctx context.Context) V {
	out, _ := ctx.Value(valuesKey).(V)
	return out
}
