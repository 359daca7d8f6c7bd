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

// Package upload streams indirect state tables through the bump
// allocator and hands back the GPU offsets the *_STATE_POINTERS packets
// embed. Tables remember their placement; when the allocator rotates
// its backing buffer the same contents are re-uploaded at the new
// address.
package upload

import (
	"github.com/pkg/errors"

	"github.com/atari-vcs/mesa-sub000/encoder"
	"github.com/atari-vcs/mesa-sub000/encoder/residency"
	"github.com/atari-vcs/mesa-sub000/encoder/sync"
)

// Alignment requirements in bytes.
const (
	AlignViewport = 64
	AlignState    = 32
)

// Uploader wraps the upload manager and charges every allocation to
// the batch's residency ledger.
type Uploader struct {
	mgr    encoder.UploadManager
	ledger *residency.Ledger
}

// New returns an uploader.
func New(mgr encoder.UploadManager, ledger *residency.Ledger) *Uploader {
	return &Uploader{mgr: mgr, ledger: ledger}
}

// Upload streams dwords and returns the GPU offset of the copy.
func (u *Uploader) Upload(dwords []uint32, align uint32) (uint32, error) {
	a, err := u.mgr.Alloc(uint32(len(dwords))*4, align)
	if err != nil {
		return 0, errors.Wrap(err, "upload alloc")
	}
	copy(a.CPU, dwords)
	u.ledger.Use(a.Buffer, false, sync.OtherRead)
	return a.Offset, nil
}

// Table is a retained indirect-state table. Offset is only valid while
// the generation matches the allocator's.
type Table struct {
	Data   []uint32
	Offset uint32
	Buffer encoder.BufferID

	uploaded bool
	gen      uint64
}

// Invalidate forces the next Ensure to re-upload.
func (t *Table) Invalidate() { t.uploaded = false }

// Ensure uploads the table if it has never been uploaded or the backing
// buffer rotated from under it, and records residency either way.
func (u *Uploader) Ensure(t *Table, align uint32) error {
	if t.uploaded && t.gen == u.mgr.Generation() {
		u.ledger.Use(t.Buffer, false, sync.OtherRead)
		return nil
	}
	a, err := u.mgr.Alloc(uint32(len(t.Data))*4, align)
	if err != nil {
		return errors.Wrap(err, "upload alloc")
	}
	copy(a.CPU, t.Data)
	t.Offset = a.Offset
	t.Buffer = a.Buffer
	t.uploaded = true
	t.gen = u.mgr.Generation()
	u.ledger.Use(t.Buffer, false, sync.OtherRead)
	return nil
}
