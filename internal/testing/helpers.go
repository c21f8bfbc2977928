// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"testing"

	"github.com/zydee3/aria/pkg/indexing"
)

// NewIndex returns an empty index for seeding with test fixtures.
func NewIndex() *indexing.Index {
	return indexing.NewIndex()
}

// AddFile registers an empty file record at path and returns it so the
// caller can append functions/types.
//
// Example:
//
//	idx := testing.NewIndex()
//	rec := testing.AddFile(idx, "auth.go", "go")
//	testing.AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)
func AddFile(idx *indexing.Index, path, language string) *indexing.FileRecord {
	rec := &indexing.FileRecord{Path: path, Language: language}
	idx.Files[path] = rec
	return rec
}

// AddFunction appends a function declaration to a file record and returns
// it, ready for the caller to attach CallSites or CalledBy entries.
//
// Example:
//
//	fn := testing.AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)
//	fn.Calls = append(fn.Calls, indexing.CallSite{Raw: "log.Info", Line: 12})
func AddFunction(rec *indexing.FileRecord, name, qualifiedName string, lineStart, lineEnd int) *indexing.Function {
	fn := &indexing.Function{
		Name:          name,
		QualifiedName: qualifiedName,
		LineStart:     lineStart,
		LineEnd:       lineEnd,
		Scope:         indexing.ScopePublic,
	}
	rec.Functions = append(rec.Functions, fn)
	return fn
}

// RequireIndexed fails the test immediately if idx has no files, a
// common sanity check before asserting on a fixture built across
// several AddFile/AddFunction calls.
func RequireIndexed(t *testing.T, idx *indexing.Index) {
	t.Helper()
	if len(idx.Files) == 0 {
		t.Fatal("expected at least one file in the index fixture")
	}
}
