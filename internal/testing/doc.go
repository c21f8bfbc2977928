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

// Package testing provides shared fixture builders for tests that need a
// populated *indexing.Index without re-deriving one from source text.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    idx := testing.NewIndex()
//	    rec := testing.AddFile(idx, "auth.go", "go")
//	    testing.AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)
//	    testing.RequireIndexed(t, idx)
//
//	    // exercise the function under test against idx
//	}
package testing
