package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/paginator"
)

const (
	demoStopWords = "i v na"
	demoQuery     = "pyshistyi pes"
	pageBreak     = "Page break"
)

var demoCorpus = []struct {
	id      int
	text    string
	ratings []int
}{
	{1, "pyshistyi kot pyshistyi hvost", []int{7, 2, 7}},
	{2, "pyshistyi pes i modnyi osheinik", []int{1, 2, 3}},
	{3, "bolshoy kot modnyi osheinik ", []int{1, 2, 8}},
	{4, "bolshoy pes skvorets evgeniy", []int{1, 3, 2}},
	{5, "bolshoy pes skvorets vasiliy", []int{1, 1, 1}},
}

func demoCommand(c *cli.Context) error {
	engine, err := indexer.NewEngine(config.EngineConfig{StopWords: strings.Fields(demoStopWords)})
	if err != nil {
		return err
	}
	for _, d := range demoCorpus {
		if err := engine.AddDocument(d.id, d.text, document.StatusActual, d.ratings); err != nil {
			return fmt.Errorf("adding demo document %d: %w", d.id, err)
		}
	}

	results, err := engine.FindTopDocuments(c.String("query"), nil)
	if err != nil {
		return err
	}
	pages, err := paginator.Paginate(results, c.Int("page-size"))
	if err != nil {
		return err
	}
	w := c.App.Writer
	for _, page := range pages {
		for _, doc := range page {
			fmt.Fprint(w, doc)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, pageBreak)
	}
	return nil
}
