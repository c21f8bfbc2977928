// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract validates that a freshly parsed Index satisfies the
// structural invariants downstream stages (resolver, topology,
// summarizer) depend on: well-formed line ranges and unique qualified
// names.
package contract

import "fmt"

// Violation describes one invariant failure found in an Index.
type Violation struct {
	// Path is the file the violation was found in.
	Path string
	// QualifiedName is the offending function, if applicable.
	QualifiedName string
	// Message describes what invariant failed.
	Message string
}

func (v Violation) String() string {
	if v.QualifiedName != "" {
		return fmt.Sprintf("%s: %s: %s", v.Path, v.QualifiedName, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// IndexLike is the minimal shape Validate needs from pkg/indexing.Index,
// kept narrow so this package has no import-cycle dependency on
// pkg/indexing.
type IndexLike interface {
	// Walk calls fn once per function declaration found across every
	// file, with the owning file's path.
	Walk(fn func(path, qualifiedName string, lineStart, lineEnd int))
}

// Validate checks that every function declaration has a well-formed line
// range (line_start <= line_end, both positive) and that qualified names
// are unique within the index. It returns every violation found; callers
// decide whether to log, drop, or fail on them.
func Validate(idx IndexLike) []Violation {
	var violations []Violation
	seen := make(map[string]string) // qualified name -> first path seen at

	idx.Walk(func(path, qualifiedName string, lineStart, lineEnd int) {
		if lineStart <= 0 || lineEnd <= 0 {
			violations = append(violations, Violation{
				Path: path, QualifiedName: qualifiedName,
				Message: "line_start and line_end must be positive",
			})
			return
		}
		if lineStart > lineEnd {
			violations = append(violations, Violation{
				Path: path, QualifiedName: qualifiedName,
				Message: fmt.Sprintf("line_start (%d) exceeds line_end (%d)", lineStart, lineEnd),
			})
		}
		if firstPath, ok := seen[qualifiedName]; ok {
			violations = append(violations, Violation{
				Path: path, QualifiedName: qualifiedName,
				Message: fmt.Sprintf("duplicate qualified name, first declared in %s", firstPath),
			})
			return
		}
		seen[qualifiedName] = path
	})

	return violations
}
