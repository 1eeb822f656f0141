package bm25

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// Ensure tokenizers implement the interface.
var (
	_ driven.Tokenizer = WhitespaceTokenizer{}
	_ driven.Tokenizer = (*AnalyzerTokenizer)(nil)
)

// WhitespaceTokenizer splits on Unicode whitespace and keeps case.
// Languages written without spaces come out as one token per run of text.
type WhitespaceTokenizer struct{}

// Name returns the policy name.
func (WhitespaceTokenizer) Name() string { return domain.TokenizerWhitespace }

// Tokenize splits text on whitespace.
func (WhitespaceTokenizer) Tokenize(text string) []string {
	return strings.Fields(text)
}

// AnalyzerTokenizer runs a bleve analyzer and keeps the term of every token.
type AnalyzerTokenizer struct {
	name     string
	analyzer analysis.Analyzer
}

// Name returns the policy name.
func (t *AnalyzerTokenizer) Name() string { return t.name }

// Tokenize analyses text and returns the resulting terms.
func (t *AnalyzerTokenizer) Tokenize(text string) []string {
	stream := t.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) > 0 {
			terms = append(terms, string(tok.Term))
		}
	}
	return terms
}

// NewTokenizer returns the tokenizer registered under name.
// An empty name selects whitespace splitting.
func NewTokenizer(name string) (driven.Tokenizer, error) {
	switch name {
	case "", domain.TokenizerWhitespace:
		return WhitespaceTokenizer{}, nil
	case domain.TokenizerStandard:
		return newAnalyzerTokenizer(domain.TokenizerStandard, standard.Name)
	case domain.TokenizerCJK:
		return newAnalyzerTokenizer(domain.TokenizerCJK, cjk.AnalyzerName)
	default:
		return nil, fmt.Errorf("%w: tokenizer %q", domain.ErrUnsupportedType, name)
	}
}

func newAnalyzerTokenizer(name, analyzerName string) (*AnalyzerTokenizer, error) {
	analyzer, err := registry.NewCache().AnalyzerNamed(analyzerName)
	if err != nil {
		return nil, fmt.Errorf("load %s analyzer: %w", analyzerName, err)
	}
	return &AnalyzerTokenizer{name: name, analyzer: analyzer}, nil
}
