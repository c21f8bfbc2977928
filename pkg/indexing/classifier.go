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

import "strings"

// ExternalClass categorizes a call that the Resolver could not resolve
// within the repository.
type ExternalClass string

const (
	ExternalSyscall ExternalClass = "syscall"
	ExternalLibc    ExternalClass = "libc"
	ExternalMacro   ExternalClass = "macro"
	ExternalUnknown ExternalClass = "external"
)

// macroPrefixes are identifier prefixes conventionally used by C-family
// macros rather than real function calls.
var macroPrefixes = []string{
	"pr_", "list_", "atomic_", "likely", "unlikely", "container_of", "__",
}

// knownSyscalls carries a one-line canned summary for display only; the
// classification itself only needs the key set.
var knownSyscalls = map[string]string{
	"read":    "Read bytes from a file descriptor.",
	"write":   "Write bytes to a file descriptor.",
	"open":    "Open or create a file, returning a descriptor.",
	"close":   "Close a file descriptor.",
	"mmap":    "Map files or devices into memory.",
	"munmap":  "Unmap a previously mapped memory region.",
	"fork":    "Create a new process by duplicating the caller.",
	"execve":  "Replace the current process image with a new program.",
	"socket":  "Create an endpoint for network communication.",
	"ioctl":   "Perform a device-specific control operation.",
	"mprotect": "Change the protection of a memory mapping.",
}

// knownLibc carries a one-line canned summary for display only.
var knownLibc = map[string]string{
	"malloc":  "Allocate a block of uninitialized heap memory.",
	"free":    "Release a block of heap memory.",
	"memcpy":  "Copy a block of memory.",
	"memset":  "Fill a block of memory with a constant byte.",
	"strlen":  "Compute the length of a null-terminated string.",
	"strcmp":  "Compare two null-terminated strings.",
	"printf":  "Write formatted output to standard output.",
	"fprintf": "Write formatted output to a stream.",
	"snprintf": "Write formatted output to a bounded buffer.",
}

// Classify assigns an unresolved call name a static classification plus
// an optional canned summary. It performs no I/O and never mutates its
// argument.
func Classify(name string) (ExternalClass, string) {
	simple := lastSegment(name)

	if summary, ok := knownSyscalls[simple]; ok {
		return ExternalSyscall, summary
	}
	if strings.HasPrefix(simple, "sys_") {
		return ExternalSyscall, ""
	}
	if summary, ok := knownLibc[simple]; ok {
		return ExternalLibc, summary
	}
	if isMacroLike(simple) {
		return ExternalMacro, ""
	}
	return ExternalUnknown, ""
}

func isMacroLike(name string) bool {
	if name == "" {
		return false
	}
	for _, prefix := range macroPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return isAllUpperWithUnderscoresOrDigits(name)
}

func isAllUpperWithUnderscoresOrDigits(name string) bool {
	sawLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			sawLetter = true
		case r == '_' || (r >= '0' && r <= '9'):
			// allowed
		default:
			return false
		}
	}
	return sawLetter
}

// lastSegment returns the text after the final "." or "::" separator, so
// classification works on both Go- and Rust-style raw call expressions.
func lastSegment(raw string) string {
	if idx := strings.LastIndex(raw, "::"); idx >= 0 {
		return raw[idx+2:]
	}
	if idx := strings.LastIndex(raw, "."); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}
