package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// segmenter fuses runs of syllables that form a dictionary word into a
// single Delimiter-joined token, preferring the longest match.
type segmenter struct {
	words        map[string]struct{}
	maxSyllables int
}

func newSegmenter(entries []string, pattern *regexp.Regexp) *segmenter {
	s := &segmenter{words: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		syllables := pattern.FindAllString(normalize(entry), -1)
		if len(syllables) < 2 {
			continue
		}
		s.words[strings.Join(syllables, Delimiter)] = struct{}{}
		if len(syllables) > s.maxSyllables {
			s.maxSyllables = len(syllables)
		}
	}
	return s
}

func (s *segmenter) segment(text string, spans [][]int) []string {
	out := make([]string, 0, len(spans))
	for i := 0; i < len(spans); {
		n := s.longestMatch(text, spans[i:])
		if n == 1 {
			out = append(out, text[spans[i][0]:spans[i][1]])
		} else {
			out = append(out, joinSpans(text, spans[i:i+n]))
		}
		i += n
	}
	return out
}

// longestMatch returns how many leading syllables of spans form a dictionary
// word, or 1 when none do.
func (s *segmenter) longestMatch(text string, spans [][]int) int {
	limit := 1
	for limit < len(spans) && limit < s.maxSyllables && joinable(text[spans[limit-1][1]:spans[limit][0]]) {
		limit++
	}
	for n := limit; n > 1; n-- {
		if _, ok := s.words[joinSpans(text, spans[:n])]; ok {
			return n
		}
	}
	return 1
}

// joinable reports whether two syllables separated by gap may belong to one
// word. Punctuation is a hard boundary; whitespace and an existing Delimiter
// are not.
func joinable(gap string) bool {
	if gap == "" {
		return false
	}
	for _, r := range gap {
		if !unicode.IsSpace(r) && string(r) != Delimiter {
			return false
		}
	}
	return true
}

func joinSpans(text string, spans [][]int) string {
	var b strings.Builder
	for i, sp := range spans {
		if i > 0 {
			b.WriteString(Delimiter)
		}
		b.WriteString(text[sp[0]:sp[1]])
	}
	return b.String()
}
