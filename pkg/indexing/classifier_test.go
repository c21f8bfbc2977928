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

func TestClassify_Syscall(t *testing.T) {
	class, summary := Classify("read")
	if class != ExternalSyscall {
		t.Errorf("class = %q, want %q", class, ExternalSyscall)
	}
	if summary == "" {
		t.Error("expected a canned summary for a known syscall")
	}
}

func TestClassify_SyscallPrefix(t *testing.T) {
	class, _ := Classify("sys_mmap")
	if class != ExternalSyscall {
		t.Errorf("class = %q, want %q", class, ExternalSyscall)
	}
}

func TestClassify_Libc(t *testing.T) {
	class, summary := Classify("malloc")
	if class != ExternalLibc {
		t.Errorf("class = %q, want %q", class, ExternalLibc)
	}
	if summary == "" {
		t.Error("expected a canned summary for a known libc call")
	}
}

func TestClassify_Macro(t *testing.T) {
	class, _ := Classify("container_of")
	if class != ExternalMacro {
		t.Errorf("class = %q, want %q", class, ExternalMacro)
	}
}

func TestClassify_MacroAllCaps(t *testing.T) {
	class, _ := Classify("MAX_RETRIES")
	if class != ExternalMacro {
		t.Errorf("class = %q, want %q", class, ExternalMacro)
	}
}

func TestClassify_Unknown(t *testing.T) {
	class, summary := Classify("doSomethingBespoke")
	if class != ExternalUnknown {
		t.Errorf("class = %q, want %q", class, ExternalUnknown)
	}
	if summary != "" {
		t.Errorf("expected no canned summary, got %q", summary)
	}
}

func TestClassify_QualifiedName(t *testing.T) {
	class, _ := Classify("libc::malloc")
	if class != ExternalLibc {
		t.Errorf("class = %q, want %q", class, ExternalLibc)
	}
	class, _ = Classify("os.read")
	if class != ExternalSyscall {
		t.Errorf("class = %q, want %q", class, ExternalSyscall)
	}
}
