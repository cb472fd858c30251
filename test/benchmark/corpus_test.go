// Package benchmark measures tokenizing, index building and query answering
// over a synthetic corpus.
package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

var vocabulary = []string{
	"boundary", "layer", "flow", "wing", "heat", "transfer", "pressure", "shock",
	"supersonic", "laminar", "turbulent", "plate", "cylinder", "nozzle", "wake",
	"separation", "friction", "drag", "lift", "mach", "reynolds", "viscous",
	"inviscid", "compressible", "jet", "cone", "airfoil", "vortex", "stability",
	"buckling", "panel", "flutter", "thermal", "stress", "load", "aircraft",
}

// syntheticCorpus is deterministic for a given size.
func syntheticCorpus(n, words int) []indexer.Document {
	rng := rand.New(rand.NewPCG(42, uint64(n)))
	docs := make([]indexer.Document, n)
	for i := range docs {
		var sb strings.Builder
		for w := 0; w < words; w++ {
			if w > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(vocabulary[rng.IntN(len(vocabulary))])
		}
		docs[i] = indexer.Document{ID: fmt.Sprintf("%05d", i), Text: sb.String()}
	}
	return docs
}

func latinTokenizer(b *testing.B) *tokenizer.Tokenizer {
	b.Helper()
	tok, err := tokenizer.New(config.TokenizerConfig{Mode: config.ModeLatin})
	if err != nil {
		b.Fatal(err)
	}
	return tok
}

func buildIndex(b *testing.B, tok *tokenizer.Tokenizer, docs []indexer.Document, workers int) *index.Index {
	b.Helper()
	builder, err := indexer.NewBuilder(tok, config.IndexerConfig{Workers: workers}, nil)
	if err != nil {
		b.Fatal(err)
	}
	idx, err := builder.Build(context.Background(), docs)
	if err != nil {
		b.Fatal(err)
	}
	return idx
}
