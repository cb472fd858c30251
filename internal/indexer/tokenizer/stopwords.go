package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

// englishStopwords is the default list for the latin mode.
var englishStopwords = []string{
	"a", "an", "and", "are", "as", "at",
	"be", "by", "for", "from", "has", "he",
	"in", "is", "it", "its", "of", "on",
	"or", "that", "the", "to", "was", "were",
	"will", "with", "this", "but", "they",
	"have", "had", "what", "when", "where",
	"who", "which", "their", "if", "each",
	"do", "not", "no", "so", "can",
}

// vietnameseStopwords is the default list for both Vietnamese modes.
var vietnameseStopwords = []string{
	"và", "là", "của", "cho", "trong", "với", "trên", "những",
	"một", "các", "được", "để", "khi", "vì", "vị",
}

// DefaultStopwords returns the built-in list for a tokenizer mode.
func DefaultStopwords(mode string) []string {
	switch mode {
	case config.ModeVietnamese, config.ModeVietnameseSegmented:
		return append([]string(nil), vietnameseStopwords...)
	default:
		return append([]string(nil), englishStopwords...)
	}
}

// ReadWordList reads one entry per line, skipping blank lines and lines
// starting with '#'. It backs both stopword files and segmentation
// dictionaries.
func ReadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", path, err)
	}
	return words, nil
}
