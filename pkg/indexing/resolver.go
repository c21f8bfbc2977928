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

import (
	"runtime"
	"strings"
	"sync"
	"unicode"
)

// symbolCandidate is one entry in the resolver's symbol table: a
// qualified name and the file that declares it.
type symbolCandidate struct {
	QualifiedName string
	FilePath      string
}

// receiverKey pairs a receiver (or first path segment) with a simple
// name, the key shape used for two-part and trailing-two-part lookups.
type receiverKey struct {
	Receiver string
	Simple   string
}

// Resolver translates raw call expressions into resolved qualified names
// using a symbol table built once per index. It never consults
// import/use statements and never maps a package qualifier to its
// directory: a cross-package call resolves only through a unique simple
// name (one-part calls), a two-part string that is itself a qualified
// name, or a unique receiver+simple-name pair.
type Resolver struct {
	qualifiedToFile map[string]string
	bySimpleName    map[string][]symbolCandidate
	byReceiver      map[receiverKey][]symbolCandidate
}

// NewResolver returns an empty Resolver; call BuildIndex before
// ResolveAll.
func NewResolver() *Resolver {
	return &Resolver{
		qualifiedToFile: make(map[string]string),
		bySimpleName:    make(map[string][]symbolCandidate),
		byReceiver:      make(map[receiverKey][]symbolCandidate),
	}
}

// BuildIndex populates the symbol table from every function across every
// file in idx. Call this once before ResolveAll; it is not safe to call
// concurrently with ResolveAll.
func (r *Resolver) BuildIndex(idx *Index) {
	for path, rec := range idx.Files {
		for _, fn := range rec.Functions {
			r.qualifiedToFile[fn.QualifiedName] = path

			cand := symbolCandidate{QualifiedName: fn.QualifiedName, FilePath: path}
			r.bySimpleName[fn.Name] = append(r.bySimpleName[fn.Name], cand)

			if fn.Receiver != "" {
				key := receiverKey{Receiver: fn.Receiver, Simple: fn.Name}
				r.byReceiver[key] = append(r.byReceiver[key], cand)
			}
		}
	}
}

// ResolveAll rewrites every CallSite.Target across the index and derives
// every function's CalledBy set. Uses parallel processing once the total
// number of call sites crosses 1000 (avoids goroutine overhead on small
// repositories).
func (r *Resolver) ResolveAll(idx *Index) {
	type job struct {
		fn  *Function
		sep string
	}

	var jobs []job
	total := 0
	for _, rec := range idx.Files {
		sep := rec.Separator()
		for _, fn := range rec.Functions {
			jobs = append(jobs, job{fn: fn, sep: sep})
			total += len(fn.Calls)
		}
	}

	resolveOne := func(j job) {
		for i := range j.fn.Calls {
			call := &j.fn.Calls[i]
			call.Target = r.resolveCall(call.Raw, j.fn.QualifiedName, j.sep)
		}
	}

	if total < 1000 {
		for _, j := range jobs {
			resolveOne(j)
		}
	} else {
		numWorkers := runtime.NumCPU()
		if numWorkers > 8 {
			numWorkers = 8
		}

		jobCh := make(chan job, len(jobs))
		var wg sync.WaitGroup
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range jobCh {
					resolveOne(j)
				}
			}()
		}
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)
		wg.Wait()
	}

	r.populateCalledBy(idx)

	pipeMetrics.init()
	var resolved, unresolved int
	for _, j := range jobs {
		for _, call := range j.fn.Calls {
			if call.Target == Unresolved {
				unresolved++
			} else {
				resolved++
			}
		}
	}
	pipeMetrics.callsResolved.Add(float64(resolved))
	pipeMetrics.callsUnresolved.Add(float64(unresolved))
}

// populateCalledBy walks every resolved target and appends the caller's
// qualified name to the callee's CalledBy, sorted and deduplicated.
func (r *Resolver) populateCalledBy(idx *Index) {
	byQualifiedName := idx.FunctionByQualifiedName()

	for _, fn := range idx.Functions() {
		for _, call := range fn.Calls {
			if call.Target == Unresolved {
				continue
			}
			if callee, ok := byQualifiedName[call.Target]; ok {
				callee.AddCalledBy(fn.QualifiedName)
			}
		}
	}
}

// resolveCall implements the attempt-order table: 1-part raw strings try
// the caller's own prefix first, then a unique simple-name match; 2-part
// strings try the verbatim string, then the prefixed form, then a unique
// receiver+simple match; 3-or-more-part strings try only the trailing
// receiver+simple pair. Any ambiguity resolves to Unresolved.
func (r *Resolver) resolveCall(raw, callerQualifiedName, sep string) string {
	parts := strings.Split(raw, sep)
	prefix := callerPrefix(callerQualifiedName, sep)

	switch {
	case len(parts) == 1:
		if candidate := joinNonEmpty(sep, prefix, parts[0]); candidate != "" {
			if _, ok := r.qualifiedToFile[candidate]; ok {
				return candidate
			}
		}
		if matches := r.bySimpleName[parts[0]]; len(matches) == 1 {
			return matches[0].QualifiedName
		}
		return Unresolved

	case len(parts) == 2:
		if _, ok := r.qualifiedToFile[raw]; ok {
			return raw
		}
		if candidate := joinNonEmpty(sep, prefix, parts[0], parts[1]); candidate != "" {
			if _, ok := r.qualifiedToFile[candidate]; ok {
				return candidate
			}
		}
		key := receiverKey{Receiver: parts[0], Simple: parts[1]}
		if matches := r.byReceiver[key]; len(matches) == 1 {
			return matches[0].QualifiedName
		}
		return Unresolved

	default:
		last := len(parts) - 1
		key := receiverKey{Receiver: parts[last-1], Simple: parts[last]}
		if matches := r.byReceiver[key]; len(matches) == 1 {
			return matches[0].QualifiedName
		}
		return Unresolved
	}
}

// callerPrefix extracts the package/module prefix from a qualified name.
// Everything before the last separator-delimited segment is the prefix,
// unless the segment before that begins with an uppercase letter (a type
// name, indicating the last segment is a method and the receiver
// segment is not part of the prefix), in which case the prefix ends one
// segment earlier.
func callerPrefix(qualifiedName, sep string) string {
	segments := strings.Split(qualifiedName, sep)
	if len(segments) <= 1 {
		return ""
	}
	if startsUpper(segments[len(segments)-2]) {
		if len(segments) == 2 {
			return ""
		}
		return strings.Join(segments[:len(segments)-2], sep)
	}
	return strings.Join(segments[:len(segments)-1], sep)
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsUpper([]rune(s)[0])
}

func joinNonEmpty(sep string, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// Stats reports the size of the built symbol table, for logging.
func (r *Resolver) Stats() (qualifiedNames, simpleNames, receiverPairs int) {
	return len(r.qualifiedToFile), len(r.bySimpleName), len(r.byReceiver)
}
