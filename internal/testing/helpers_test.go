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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndex_StartsEmpty(t *testing.T) {
	idx := NewIndex()
	require.NotNil(t, idx)
	assert.Empty(t, idx.Files)
}

func TestAddFile_RegistersFileRecord(t *testing.T) {
	idx := NewIndex()
	rec := AddFile(idx, "auth.go", "go")

	require.Contains(t, idx.Files, "auth.go")
	assert.Same(t, rec, idx.Files["auth.go"])
	assert.Equal(t, "go", rec.Language)
}

func TestAddFunction_AppendsToFileRecord(t *testing.T) {
	idx := NewIndex()
	rec := AddFile(idx, "auth.go", "go")
	fn := AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)

	require.Len(t, rec.Functions, 1)
	assert.Same(t, fn, rec.Functions[0])
	assert.Equal(t, "auth.HandleAuth", fn.QualifiedName)
	assert.Equal(t, 10, fn.LineStart)
	assert.Equal(t, 25, fn.LineEnd)
}

func TestAddFunction_MultipleFunctionsAccumulate(t *testing.T) {
	idx := NewIndex()
	rec := AddFile(idx, "auth.go", "go")
	AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)
	AddFunction(rec, "Login", "auth.Login", 27, 40)

	assert.Len(t, rec.Functions, 2)
	assert.Len(t, idx.Functions(), 2)
}

func TestRequireIndexed_PassesOnPopulatedIndex(t *testing.T) {
	idx := NewIndex()
	AddFile(idx, "auth.go", "go")
	RequireIndexed(t, idx)
}
