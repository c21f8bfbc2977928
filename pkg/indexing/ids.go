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

package indexing

import (
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// ContentHash is a 64-bit non-cryptographic digest over a byte range. Two
// byte-identical ranges, anywhere in the repository, hash identically; this
// is what the Summarizer's cache carry-forward relies on.
func ContentHash(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// normalizePath normalizes a file path for consistent qualified-name and
// hashing input: strips a leading "./", cleans it, and forces forward
// slashes so the same repository hashes identically on any platform.
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
