// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract_test

import (
	"testing"

	"github.com/zydee3/aria/internal/contract"
	fixtures "github.com/zydee3/aria/internal/testing"
)

func TestValidate_NoViolationsOnWellFormedIndex(t *testing.T) {
	idx := fixtures.NewIndex()
	rec := fixtures.AddFile(idx, "auth.go", "go")
	fixtures.AddFunction(rec, "HandleAuth", "auth.HandleAuth", 10, 25)
	fixtures.AddFunction(rec, "Login", "auth.Login", 27, 40)

	if violations := contract.Validate(idx); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidate_FlagsInvertedLineRange(t *testing.T) {
	idx := fixtures.NewIndex()
	rec := fixtures.AddFile(idx, "auth.go", "go")
	fixtures.AddFunction(rec, "HandleAuth", "auth.HandleAuth", 25, 10)

	violations := contract.Validate(idx)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if violations[0].QualifiedName != "auth.HandleAuth" {
		t.Fatalf("unexpected violation target: %v", violations[0])
	}
}

func TestValidate_FlagsDuplicateQualifiedNames(t *testing.T) {
	idx := fixtures.NewIndex()
	recA := fixtures.AddFile(idx, "a.go", "go")
	recB := fixtures.AddFile(idx, "b.go", "go")
	fixtures.AddFunction(recA, "Run", "pkg.Run", 1, 5)
	fixtures.AddFunction(recB, "Run", "pkg.Run", 1, 5)

	violations := contract.Validate(idx)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
}

func TestValidate_FlagsNonPositiveLines(t *testing.T) {
	idx := fixtures.NewIndex()
	rec := fixtures.AddFile(idx, "a.go", "go")
	fixtures.AddFunction(rec, "Run", "pkg.Run", 0, 5)

	violations := contract.Validate(idx)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
}
