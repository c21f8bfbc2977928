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
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoParser extracts FileRecords from Go source using tree-sitter's Go
// grammar. It implements the "capitalization-based language" case of
// spec §4.1's qualified-name rule.
type GoParser struct {
	logger *slog.Logger
	lang   *sitter.Language
}

// NewGoParser constructs a Go parser. A nil logger falls back to
// slog.Default(), matching the teacher's constructor convention.
func NewGoParser(logger *slog.Logger) *GoParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoParser{logger: logger, lang: golang.GetLanguage()}
}

func (g *GoParser) Language() string { return "go" }

// ParseFile implements Parser. It never panics on malformed input: a
// tree-sitter syntax error produces a warning and parsing continues over
// the best-effort partial tree (spec §4.1 Failure modes).
func (g *GoParser) ParseFile(filePath string, source []byte) (*FileRecord, bool) {
	pipeMetrics.init()

	parser := sitter.NewParser()
	parser.SetLanguage(g.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		g.logger.Warn("indexing.parser.go.parse_failed", "path", filePath, "err", err)
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
		g.logger.Warn("indexing.parser.go.syntax_errors", "path", filePath)
		pipeMetrics.parseErrors.Inc()
	}

	prefix := goQualifiedPrefix(filePath)
	w := &goWalker{source: source, prefix: prefix, fileStem: fileStem(filePath)}
	w.walkTopLevel(root)
	w.attachMethods()

	pipeMetrics.filesParsed.Inc()
	pipeMetrics.functionsFound.Add(float64(len(w.functions)))

	return &FileRecord{
		Path:        filePath,
		Language:    "go",
		ContentHash: ContentHash(source),
		Functions:   w.functions,
		Types:       w.types,
	}, true
}

// goQualifiedPrefix strips a leading "./" and takes the parent directory
// as the qualified-name prefix; at repository root, it falls back to the
// file stem instead.
func goQualifiedPrefix(filePath string) string {
	p := normalizePath(filePath)
	dir := path.Dir(p)
	if dir == "." || dir == "" {
		return fileStem(p)
	}
	return dir
}

func fileStem(filePath string) string {
	base := path.Base(filePath)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// goWalker accumulates functions and types while walking one file's tree.
type goWalker struct {
	source      []byte
	prefix      string
	fileStem    string
	anonCounter int
	initCounter int
	functions   []*Function
	types       []*Type
}

func (w *goWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.source)
}

// walkTopLevel walks top-level declarations only, recursing into method
// bodies for call sites and nested function literals (spec §4.1: "walk
// top-level declarations only, then recurse into ... inline submodules").
func (w *goWalker) walkTopLevel(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "function_declaration":
			w.extractFunction(child)
		case "method_declaration":
			w.extractMethod(child)
		case "type_declaration":
			w.extractTypeDeclaration(child)
		}
	}
}

func (w *goWalker) extractFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	qualifiedName := w.prefix + "." + name

	// Go permits multiple init() per package (one per file is typical);
	// disambiguate using the file stem.
	if name == "init" {
		qualifiedName = w.prefix + ".init@" + w.fileStem
		w.initCounter++
	}

	fn := w.buildFunction(n, name, qualifiedName, "")
	w.walkCallsInto(fn, n.ChildByFieldName("body"))
	w.functions = append(w.functions, fn)
}

func (w *goWalker) extractMethod(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	recvNode := n.ChildByFieldName("receiver")
	if nameNode == nil || recvNode == nil {
		return
	}
	name := w.text(nameNode)
	receiver := extractReceiverTypeName(recvNode, w.source)
	qualifiedName := w.prefix + "." + receiver + "." + name

	fn := w.buildFunction(n, name, qualifiedName, receiver)
	w.walkCallsInto(fn, n.ChildByFieldName("body"))
	w.functions = append(w.functions, fn)
}

func (w *goWalker) buildFunction(n *sitter.Node, name, qualifiedName, receiver string) *Function {
	start := n.StartPoint()
	end := n.EndPoint()
	scope := ScopeInternal
	if isExportedGoName(name) {
		scope = ScopePublic
	}
	return &Function{
		Name:          name,
		QualifiedName: qualifiedName,
		ContentHash:   ContentHash(w.source[n.StartByte():n.EndByte()]),
		LineStart:     int(start.Row) + 1,
		LineEnd:       int(end.Row) + 1,
		Signature:     w.buildSignature(name, n),
		Scope:         scope,
		Receiver:      receiver,
	}
}

func (w *goWalker) buildSignature(name string, n *sitter.Node) string {
	var b strings.Builder
	b.WriteString("func ")
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		b.WriteString(flattenLine(w.text(recv)))
		b.WriteString(" ")
	}
	b.WriteString(name)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(flattenLine(w.text(tp)))
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		b.WriteString(flattenLine(w.text(params)))
	} else {
		b.WriteString("()")
	}
	if result := n.ChildByFieldName("result"); result != nil {
		b.WriteString(" ")
		b.WriteString(flattenLine(w.text(result)))
	}
	return b.String()
}

func flattenLine(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// walkCallsInto recurses through a function body collecting every
// call_expression node, capturing the callee expression verbatim and its
// 1-indexed line, and descending into function literals (closures) so
// their calls are attributed to the enclosing named function, matching
// the teacher's anonymous-closure handling in spirit.
func (w *goWalker) walkCallsInto(fn *Function, body *sitter.Node) {
	if body == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if callee := n.ChildByFieldName("function"); callee != nil {
				fn.Calls = append(fn.Calls, CallSite{
					Raw:    w.text(callee),
					Line:   int(callee.StartPoint().Row) + 1,
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

// extractTypeDeclaration handles `type ( ... )` blocks and single `type X
// struct{...}` declarations.
func (w *goWalker) extractTypeDeclaration(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		typeNode := child.ChildByFieldName("type")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		start := child.StartPoint()
		end := child.EndPoint()
		w.types = append(w.types, &Type{
			Name:          name,
			QualifiedName: w.prefix + "." + name,
			Kind:          goTypeKind(typeNode),
			LineStart:     int(start.Row) + 1,
			LineEnd:       int(end.Row) + 1,
		})
	}
}

func goTypeKind(typeNode *sitter.Node) TypeKind {
	if typeNode == nil {
		return TypeKindTypedef
	}
	switch typeNode.Type() {
	case "struct_type":
		return TypeKindStruct
	case "interface_type":
		return TypeKindInterface
	default:
		return TypeKindTypedef
	}
}

// attachMethods fills in each Type's Methods list from the functions found
// with a matching receiver in this file.
func (w *goWalker) attachMethods() {
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

// extractReceiverTypeName strips one leading pointer indirection and any
// generic parameter list from a method's receiver parameter list, e.g.
// "(s *Server)" -> "Server", "(s *Server[T])" -> "Server".
func extractReceiverTypeName(recv *sitter.Node, source []byte) string {
	// recv is a parameter_list with exactly one parameter_declaration.
	for i := 0; i < int(recv.ChildCount()); i++ {
		child := recv.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		name := typeNode.Content(source)
		name = strings.TrimPrefix(name, "*")
		if idx := strings.IndexByte(name, '['); idx >= 0 {
			name = name[:idx]
		}
		return strings.TrimSpace(name)
	}
	return ""
}

func isExportedGoName(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}
