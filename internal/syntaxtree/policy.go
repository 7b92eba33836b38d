// Package syntaxtree decides angle brackets from a tree-sitter parse: a < or >
// is a bracket exactly when it delimits a type argument or parameter list.
package syntaxtree

import (
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/phyten/bracketx/internal/bracket"
)

// genericLists names the node types whose < > children are delimiters.
var genericLists = map[string]struct{}{
	"type_arguments":          {},
	"type_parameters":         {},
	"type_argument_list":      {},
	"type_parameter_list":     {},
	"template_argument_list":  {},
	"template_parameter_list": {},
}

var (
	grammars     map[bracket.Language]*sitter.Language
	grammarsOnce sync.Once
)

func grammarFor(lang bracket.Language) (*sitter.Language, bool) {
	grammarsOnce.Do(func() {
		grammars = map[bracket.Language]*sitter.Language{
			bracket.Rust:       rust.GetLanguage(),
			bracket.TypeScript: ts.GetLanguage(),
			bracket.Java:       java.GetLanguage(),
			bracket.Cpp:        cpp.GetLanguage(),
			bracket.CSharp:     csharp.GetLanguage(),
			bracket.Kotlin:     kotlin.GetLanguage(),
		}
	})
	g, ok := grammars[lang]
	return g, ok
}

// Supported reports whether lang has a grammar.
func Supported(lang bracket.Language) bool {
	_, ok := grammarFor(lang)
	return ok
}

// Policy implements bracket.AnglePolicy and bracket.Preparer. Used without
// Prepare, or for languages without a grammar, it behaves like Fallback.
type Policy struct {
	Fallback bracket.AnglePolicy
}

func New() *Policy {
	return &Policy{Fallback: bracket.HeuristicPolicy{}}
}

func (p *Policy) fallback() bracket.AnglePolicy {
	if p == nil || p.Fallback == nil {
		return bracket.HeuristicPolicy{}
	}
	return p.Fallback
}

func (p *Policy) IsBracket(ac bracket.AngleContext) bool {
	return p.fallback().IsBracket(ac)
}

// Prepare parses content once and returns a policy bound to that parse.
func (p *Policy) Prepare(content string, lang bracket.Language) bracket.AnglePolicy {
	offsets, err := GenericDelimiters(context.Background(), []byte(content), lang)
	if err != nil {
		return p.fallback()
	}
	return offsetSet(offsets)
}

type offsetSet map[int]struct{}

func (s offsetSet) IsBracket(ac bracket.AngleContext) bool {
	_, ok := s[ac.Pos.ByteOffset]
	return ok
}

type unsupportedError struct{ lang bracket.Language }

func (e unsupportedError) Error() string {
	return "no grammar for " + e.lang.String()
}

// GenericDelimiters returns the byte offsets of every < and > token that opens
// or closes a generic list in src.
func GenericDelimiters(ctx context.Context, src []byte, lang bracket.Language) (map[int]struct{}, error) {
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil, unsupportedError{lang: lang}
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	out := make(map[int]struct{})
	stack := []*sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		_, isList := genericLists[n.Type()]
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if isList && !child.IsNamed() {
				switch child.Type() {
				case "<", ">":
					out[int(child.StartByte())] = struct{}{}
				}
			}
			if child.ChildCount() > 0 {
				stack = append(stack, child)
			}
		}
	}
	return out, nil
}
