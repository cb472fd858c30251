// Package tokenizer provides text tokenisation for the search engine.
// It NFC-normalises and lower-cases input, extracts maximal runs of the
// mode's character class, optionally fuses multi-syllable words from a
// dictionary, and removes stop-words. Documents and queries must go through
// the same Tokenizer for terms to match.
package tokenizer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// Delimiter joins the syllables of a segmented word.
const Delimiter = "_"

const vietnameseLetters = "áàảãạăắằẳẵặâấầẩẫậđéèẻẽẹêếềểễệíìỉĩịóòỏõọôốồổỗộơớờởỡợúùủũụưứừửữựýỳỷỹỵ"

var (
	latinPattern      = regexp.MustCompile(`[a-z0-9]+`)
	vietnamesePattern = regexp.MustCompile(`[a-z0-9` + vietnameseLetters + `]+`)
)

// Token represents a single normalised term and its position in the term
// sequence (after stop-word removal).
type Token struct {
	Term     string
	Position int
}

// Tokenizer is immutable after New and safe for concurrent use.
type Tokenizer struct {
	mode      string
	pattern   *regexp.Regexp
	stopWords map[string]struct{}
	segmenter *segmenter
}

// New builds a Tokenizer from configuration. A nil Stopwords slice with no
// StopwordsFile selects the mode's default list; a non-nil empty slice
// disables stop-word removal.
func New(cfg config.TokenizerConfig) (*Tokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	words := cfg.Stopwords
	if cfg.StopwordsFile != "" {
		fromFile, err := ReadWordList(cfg.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("loading stopwords: %w", err)
		}
		words = append(append([]string{}, words...), fromFile...)
	}
	if words == nil {
		words = DefaultStopwords(cfg.Mode)
	}

	t := &Tokenizer{
		mode:      cfg.Mode,
		pattern:   latinPattern,
		stopWords: make(map[string]struct{}, len(words)),
	}
	if cfg.Mode != config.ModeLatin {
		t.pattern = vietnamesePattern
	}
	for _, w := range words {
		t.stopWords[normalize(w)] = struct{}{}
	}

	if cfg.Mode == config.ModeVietnameseSegmented {
		entries := cfg.Dictionary
		if cfg.DictionaryFile != "" {
			fromFile, err := ReadWordList(cfg.DictionaryFile)
			if err != nil {
				return nil, fmt.Errorf("loading segmentation dictionary: %w", err)
			}
			entries = append(append([]string{}, entries...), fromFile...)
		}
		if len(entries) == 0 {
			return nil, apperrors.Invalidf("tokenizer mode %q requires a segmentation dictionary", cfg.Mode)
		}
		t.segmenter = newSegmenter(entries, t.pattern)
	}
	return t, nil
}

// Mode reports the active tokenizer mode.
func (t *Tokenizer) Mode() string {
	return t.mode
}

// Tokenize breaks text into positioned terms with stop-words removed.
// Empty or whitespace-only text yields an empty slice.
func (t *Tokenizer) Tokenize(text string) []Token {
	words := t.words(normalize(text))
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if _, isStop := t.stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns only the term sequence of Tokenize.
func (t *Tokenizer) Terms(text string) []string {
	tokens := t.Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

func (t *Tokenizer) words(text string) []string {
	spans := t.pattern.FindAllStringIndex(text, -1)
	if t.segmenter != nil {
		return t.segmenter.segment(text, spans)
	}
	words := make([]string, len(spans))
	for i, s := range spans {
		words[i] = text[s[0]:s[1]]
	}
	return words
}

func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
