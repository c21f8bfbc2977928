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
	"context"
	"log/slog"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// RustParser extracts FileRecords from Rust source using tree-sitter's
// Rust grammar. It implements the "nested-module language" case of the
// qualified-name rule: path separators become "::", the crate root has
// an empty prefix, and mod.rs files fold into their parent directory's
// name.
type RustParser struct {
	logger *slog.Logger
	lang   *sitter.Language
}

func NewRustParser(logger *slog.Logger) *RustParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &RustParser{logger: logger, lang: rust.GetLanguage()}
}

func (r *RustParser) Language() string { return "rust" }

func (r *RustParser) ParseFile(filePath string, source []byte) (*FileRecord, bool) {
	pipeMetrics.init()

	parser := sitter.NewParser()
	parser.SetLanguage(r.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		r.logger.Warn("indexing.parser.rust.parse_failed", "path", filePath, "err", err)
		pipeMetrics.parseErrors.Inc()
		return nil, false
	}
	if tree == nil {
		pipeMetrics.parseErrors.Inc()
		return nil, false
	}
	root := tree.RootNode()
	if root == nil {
		pipeMetrics.parseErrors.Inc()
		return nil, false
	}
	if root.HasError() {
		r.logger.Warn("indexing.parser.rust.syntax_errors", "path", filePath)
		pipeMetrics.parseErrors.Inc()
	}

	prefix := rustQualifiedPrefix(filePath)
	w := &rustWalker{source: source}
	w.walkModule(root, prefix)
	w.attachMethods()

	pipeMetrics.filesParsed.Inc()
	pipeMetrics.functionsFound.Add(float64(len(w.functions)))

	return &FileRecord{
		Path:        filePath,
		Language:    "rust",
		ContentHash: ContentHash(source),
		Functions:   w.functions,
		Types:       w.types,
	}, true
}

// rustQualifiedPrefix implements the nested-module case of the
// qualified-name rule: strip a leading "src/" root, drop the extension,
// turn "/" into "::", and treat lib/main/mod stems as the crate root
// (empty prefix). A "X/mod.rs" path folds to the prefix "X".
func rustQualifiedPrefix(filePath string) string {
	p := normalizePath(filePath)
	p = strings.TrimPrefix(p, "src/")
	p = strings.TrimSuffix(p, path.Ext(p))

	if p == "lib" || p == "main" || p == "mod" {
		return ""
	}
	if strings.HasSuffix(p, "/mod") {
		p = strings.TrimSuffix(p, "/mod")
	}
	return strings.ReplaceAll(p, "/", "::")
}

// rustWalker accumulates functions and types while walking one file's
// tree, threading the current module prefix through nested mod_item
// blocks and impl_item bodies.
type rustWalker struct {
	source    []byte
	functions []*Function
	types     []*Type
}

func (w *rustWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.source)
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "::" + name
}

// walkModule walks direct children of a module body (the file root or a
// mod_item's declaration_list), dispatching on declaration kind.
func (w *rustWalker) walkModule(n *sitter.Node, prefix string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "function_item":
			w.extractFunction(child, prefix, "")
		case "mod_item":
			w.extractMod(child, prefix)
		case "impl_item":
			w.extractImpl(child, prefix)
		case "struct_item", "enum_item", "union_item":
			w.extractDataType(child, prefix)
		case "trait_item":
			w.extractTrait(child, prefix)
		}
	}
}

func (w *rustWalker) extractMod(n *sitter.Node, prefix string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		// Declaration-only `mod foo;` with no inline body; nothing to walk.
		return
	}
	w.walkModule(body, qualify(prefix, w.text(nameNode)))
}

func (w *rustWalker) extractImpl(n *sitter.Node, prefix string) {
	typeNode := n.ChildByFieldName("type")
	body := n.ChildByFieldName("body")
	if typeNode == nil || body == nil {
		return
	}
	typeName := implTargetName(w.text(typeNode))
	implPrefix := qualify(prefix, typeName)

	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child.Type() == "function_item" {
			w.extractFunction(child, implPrefix, typeName)
		}
	}
}

// implTargetName strips generic parameters and reference markers so
// "impl<T> Foo<T>" and "impl &Foo" both yield "Foo".
func implTargetName(typeText string) string {
	name := strings.TrimSpace(typeText)
	name = strings.TrimPrefix(name, "&")
	name = strings.TrimPrefix(name, "mut ")
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndexByte(name, ':'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

func (w *rustWalker) extractFunction(n *sitter.Node, prefix, receiver string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	qualifiedName := qualify(prefix, name)

	start := n.StartPoint()
	end := n.EndPoint()
	fn := &Function{
		Name:          name,
		QualifiedName: qualifiedName,
		ContentHash:   ContentHash(w.source[n.StartByte():n.EndByte()]),
		LineStart:     int(start.Row) + 1,
		LineEnd:       int(end.Row) + 1,
		Signature:     w.buildSignature(name, n),
		Scope:         rustScope(n),
		Receiver:      receiver,
	}
	w.walkCallsInto(fn, n.ChildByFieldName("body"))
	w.functions = append(w.functions, fn)
}

// rustScope treats a function as public when it carries a visibility
// modifier ("pub", "pub(crate)", etc.), and internal otherwise. Rust has
// no separate "static" (file-private) scope distinct from internal.
func rustScope(n *sitter.Node) Scope {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "visibility_modifier" {
			return ScopePublic
		}
	}
	return ScopeInternal
}

func (w *rustWalker) buildSignature(name string, n *sitter.Node) string {
	var b strings.Builder
	if vis := firstChildOfType(n, "visibility_modifier"); vis != nil {
		b.WriteString(flattenLine(w.text(vis)))
		b.WriteString(" ")
	}
	b.WriteString("fn ")
	b.WriteString(name)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(flattenLine(w.text(tp)))
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		b.WriteString(flattenLine(w.text(params)))
	} else {
		b.WriteString("()")
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		b.WriteString(" -> ")
		b.WriteString(flattenLine(w.text(ret)))
	}
	return b.String()
}

func firstChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == nodeType {
			return c
		}
	}
	return nil
}

// walkCallsInto recurses through a function body collecting call
// expressions and macro invocations (Rust macros like println! and
// vec! compile to macro_invocation nodes, distinct from call_expression).
func (w *rustWalker) walkCallsInto(fn *Function, body *sitter.Node) {
	if body == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "call_expression":
			if callee := n.ChildByFieldName("function"); callee != nil {
				fn.Calls = append(fn.Calls, CallSite{
					Raw:    w.text(callee),
					Line:   int(callee.StartPoint().Row) + 1,
					Target: Unresolved,
				})
			}
		case "macro_invocation":
			if macro := n.ChildByFieldName("macro"); macro != nil {
				fn.Calls = append(fn.Calls, CallSite{
					Raw:    w.text(macro) + "!",
					Line:   int(macro.StartPoint().Row) + 1,
					Target: Unresolved,
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
}

func (w *rustWalker) extractDataType(n *sitter.Node, prefix string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	start := n.StartPoint()
	end := n.EndPoint()

	kind := TypeKindStruct
	switch n.Type() {
	case "enum_item":
		kind = TypeKindEnum
	case "union_item":
		kind = TypeKindStruct
	}

	w.types = append(w.types, &Type{
		Name:          name,
		QualifiedName: qualify(prefix, name),
		Kind:          kind,
		LineStart:     int(start.Row) + 1,
		LineEnd:       int(end.Row) + 1,
	})
}

// attachMethods fills in each Type's Methods list from impl-block
// functions whose Receiver matches the type's simple name. A trait's
// default methods are not attached here; only inherent/trait impl
// functions are, matching the Go parser's receiver-based attachment.
func (w *rustWalker) attachMethods() {
	byName := make(map[string]*Type, len(w.types))
	for _, t := range w.types {
		byName[t.Name] = t
	}
	for _, fn := range w.functions {
		if fn.Receiver == "" {
			continue
		}
		if t, ok := byName[fn.Receiver]; ok {
			t.Methods = append(t.Methods, fn.Name)
		}
	}
}

func (w *rustWalker) extractTrait(n *sitter.Node, prefix string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	start := n.StartPoint()
	end := n.EndPoint()

	w.types = append(w.types, &Type{
		Name:          name,
		QualifiedName: qualify(prefix, name),
		Kind:          TypeKindInterface,
		LineStart:     int(start.Row) + 1,
		LineEnd:       int(end.Row) + 1,
	})
}
