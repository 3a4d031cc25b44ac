package parser

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
)

func BenchmarkParse(b *testing.B) {
	stop, err := tokenizer.StopWordsFromText("and in the")
	if err != nil {
		b.Fatal(err)
	}
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "fluffy cat"},
		{"with_minus", "fluffy cat -tail -collar"},
		{"stop_words", "the cat and the dog in the city"},
		{"long", "white black fluffy big small cat dog tail collar fashionable starling parrot -eyes -old"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := Parse(q.query, stop); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
