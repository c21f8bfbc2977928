// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package indexing

import "testing"

func TestContentHash_Deterministic(t *testing.T) {
	b := []byte("func foo() {}\n")
	if ContentHash(b) != ContentHash(b) {
		t.Fatal("ContentHash must be deterministic for identical bytes")
	}
}

func TestContentHash_ChangesWithAnyByteChange(t *testing.T) {
	a := []byte("func foo() { return 1 }")
	b := []byte("func foo() { return 2 }")

	if ContentHash(a) == ContentHash(b) {
		t.Fatal("ContentHash must change when any byte in the range changes")
	}
}

func TestContentHash_SameRangeDifferentFilesShareHash(t *testing.T) {
	// Two functions with byte-identical bodies in different files must
	// share a cache entry, keyed purely by content hash.
	a := []byte("func identical() { return 42 }")
	b := []byte("func identical() { return 42 }")

	if ContentHash(a) != ContentHash(b) {
		t.Fatal("ContentHash must be identical for byte-identical ranges regardless of origin")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"./a/b/c.go": "a/b/c.go",
		"a/b/c.go":   "a/b/c.go",
		"/a/b/c.go":  "a/b/c.go",
		"a/./b/c.go": "a/b/c.go",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
