package ranker

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

func BenchmarkFindAllAndTop(b *testing.B) {
	q, err := parser.Parse("cat dog -parrot", tokenizer.StopWords{})
	if err != nil {
		b.Fatal(err)
	}
	vocab := []string{"cat", "dog", "parrot", "tail", "collar", "eyes"}
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			idx := index.NewMemoryIndex()
			for id := range size {
				words := []string{vocab[id%len(vocab)], vocab[(id/2)%len(vocab)], vocab[(id/3)%len(vocab)]}
				idx.Add(id, words, document.StatusActual, id%10)
			}
			b.ReportAllocs()
			for b.Loop() {
				_ = Top(FindAll(idx, q, nil), 1e-6, 5)
			}
		})
	}
}
