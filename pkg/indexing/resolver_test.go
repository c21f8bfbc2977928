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

func newTestIndex() *Index {
	idx := NewIndex()
	idx.Files["internal/handlers/user.go"] = &FileRecord{
		Path:     "internal/handlers/user.go",
		Language: "go",
		Functions: []*Function{
			{
				Name:          "HandleUser",
				QualifiedName: "internal/handlers.HandleUser",
				Calls: []CallSite{
					{Raw: "ValidateToken", Line: 10, Target: Unresolved},
					{Raw: "routes.RegisterAuthRoutes", Line: 11, Target: Unresolved},
				},
			},
			{
				Name:          "ValidateToken",
				QualifiedName: "internal/handlers.ValidateToken",
			},
		},
	}
	idx.Files["internal/routes/auth.go"] = &FileRecord{
		Path:     "internal/routes/auth.go",
		Language: "go",
		Functions: []*Function{
			{
				Name:          "RegisterAuthRoutes",
				QualifiedName: "internal/routes.RegisterAuthRoutes",
			},
		},
	}
	return idx
}

func TestResolver_OnePartResolvesWithinOwnPackage(t *testing.T) {
	idx := newTestIndex()
	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	fn := idx.FunctionByQualifiedName()["internal/handlers.HandleUser"]
	if got := fn.Calls[0].Target; got != "internal/handlers.ValidateToken" {
		t.Errorf("Calls[0].Target = %q, want internal/handlers.ValidateToken", got)
	}
}

func TestResolver_TwoPartResolvesCrossPackage(t *testing.T) {
	idx := newTestIndex()
	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	fn := idx.FunctionByQualifiedName()["internal/handlers.HandleUser"]
	if got := fn.Calls[1].Target; got != "internal/routes.RegisterAuthRoutes" {
		t.Errorf("Calls[1].Target = %q, want internal/routes.RegisterAuthRoutes", got)
	}
}

func TestResolver_CalledByIsSortedAndDeduplicated(t *testing.T) {
	idx := newTestIndex()
	// Add a second caller of ValidateToken from another package, and a
	// duplicate call site, to exercise sort+dedupe.
	idx.Files["internal/routes/auth.go"].Functions = append(
		idx.Files["internal/routes/auth.go"].Functions,
		&Function{
			Name:          "AuthMiddleware",
			QualifiedName: "internal/routes.AuthMiddleware",
			Calls: []CallSite{
				{Raw: "internal/handlers.ValidateToken", Line: 5},
				{Raw: "internal/handlers.ValidateToken", Line: 9},
			},
		},
	)

	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	fn := idx.FunctionByQualifiedName()["internal/handlers.ValidateToken"]
	want := []string{"internal/handlers.HandleUser", "internal/routes.AuthMiddleware"}
	if len(fn.CalledBy) != len(want) {
		t.Fatalf("CalledBy = %v, want %v", fn.CalledBy, want)
	}
	for i, w := range want {
		if fn.CalledBy[i] != w {
			t.Errorf("CalledBy[%d] = %q, want %q", i, fn.CalledBy[i], w)
		}
	}
}

func TestResolver_AmbiguousSimpleNameStaysUnresolved(t *testing.T) {
	idx := NewIndex()
	idx.Files["a.go"] = &FileRecord{
		Path:     "a.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Run", QualifiedName: "a.Run"},
		},
	}
	idx.Files["b.go"] = &FileRecord{
		Path:     "b.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Run", QualifiedName: "b.Run"},
		},
	}
	// The caller lives under a third prefix, so its own-prefix candidate
	// "c.Run" does not exist and only the simple-name lookup remains.
	idx.Files["c.go"] = &FileRecord{
		Path:     "c.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Caller", QualifiedName: "c.Caller", Calls: []CallSite{
				{Raw: "Run", Line: 1},
			}},
		},
	}

	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	fn := idx.FunctionByQualifiedName()["c.Caller"]
	if got := fn.Calls[0].Target; got != Unresolved {
		t.Errorf("Calls[0].Target = %q, want %q (ambiguous simple name)", got, Unresolved)
	}
}

func TestResolver_MethodCallResolvesViaReceiverAndSimpleName(t *testing.T) {
	idx := NewIndex()
	idx.Files["server.go"] = &FileRecord{
		Path:     "server.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Run", QualifiedName: "pkg.Server.Run", Receiver: "Server"},
			{Name: "Start", QualifiedName: "pkg.Start", Calls: []CallSite{
				{Raw: "s.Run", Line: 1},
			}},
		},
	}

	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	// "s.Run" splits into two parts ("s", "Run"); neither the verbatim
	// nor prefixed forms exist, so resolution falls back to the
	// receiver+simple-name lookup keyed on ("s", "Run"). The method is
	// indexed under ("Server", "Run") and the local variable "s" is not
	// mapped to its type, so this exercises the unresolved path.
	fn := idx.FunctionByQualifiedName()["pkg.Start"]
	if got := fn.Calls[0].Target; got != Unresolved {
		t.Errorf("Calls[0].Target = %q, want %q (receiver alias not indexed)", got, Unresolved)
	}
}

func TestResolver_TrailingTwoPartResolvesDeepChain(t *testing.T) {
	idx := NewIndex()
	idx.Files["server.go"] = &FileRecord{
		Path:     "server.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Info", QualifiedName: "pkg/log.Logger.Info", Receiver: "Logger"},
			{Name: "Start", QualifiedName: "pkg.Start", Calls: []CallSite{
				{Raw: "s.Logger.Info", Line: 1},
			}},
		},
	}

	r := NewResolver()
	r.BuildIndex(idx)
	r.ResolveAll(idx)

	// The trailing pair ("Logger", "Info") must match the receiver type
	// name exactly, as it does for an embedded Logger field.
	fn := idx.FunctionByQualifiedName()["pkg.Start"]
	if got := fn.Calls[0].Target; got != "pkg/log.Logger.Info" {
		t.Errorf("Calls[0].Target = %q, want pkg/log.Logger.Info", got)
	}
}

func TestCallerPrefix(t *testing.T) {
	cases := []struct {
		qualifiedName string
		sep           string
		want          string
	}{
		{"internal/handlers.HandleUser", ".", "internal/handlers"},
		{"pkg.Server.Run", ".", "pkg"},
		{"topLevelFunc", ".", ""},
		{"commands::index::run", "::", "commands::index"},
	}
	for _, c := range cases {
		if got := callerPrefix(c.qualifiedName, c.sep); got != c.want {
			t.Errorf("callerPrefix(%q, %q) = %q, want %q", c.qualifiedName, c.sep, got, c.want)
		}
	}
}

func TestResolver_Stats(t *testing.T) {
	idx := newTestIndex()
	r := NewResolver()
	r.BuildIndex(idx)

	qualified, simple, receiver := r.Stats()
	if qualified != 3 {
		t.Errorf("qualifiedNames = %d, want 3", qualified)
	}
	if simple == 0 {
		t.Errorf("simpleNames = 0, want > 0")
	}
	if receiver != 0 {
		t.Errorf("receiverPairs = %d, want 0 (no methods in this fixture)", receiver)
	}
}
