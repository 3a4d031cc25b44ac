package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// consoleCommand reads, in order: one line of stop words, a document count,
// that many "id status rating... | text" lines, then one query per line
// until EOF. Query errors are printed and do not stop the session.
func consoleCommand(c *cli.Context) error {
	in := bufio.NewScanner(c.App.Reader)
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)
	out := c.App.Writer

	stopLine, err := readLine(in)
	if err != nil {
		return fmt.Errorf("reading stop words: %w", err)
	}
	engine, err := indexer.NewEngine(config.EngineConfig{
		StopWords:  tokenizer.SplitIntoWords(stopLine),
		MaxResults: c.Int("max-results"),
	})
	if err != nil {
		return err
	}
	tracker, err := analytics.NewRequestTracker(engine, c.Int("window"))
	if err != nil {
		return err
	}

	countLine, err := readLine(in)
	if err != nil {
		return fmt.Errorf("reading document count: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || count < 0 {
		return apperrors.InvalidArgumentf("document count %q", countLine)
	}

	for i := range count {
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("reading document %d of %d: %w", i+1, count, err)
		}
		d, err := parseDocumentLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+3, err)
		}
		if err := engine.AddDocument(d.id, d.text, d.status, d.ratings); err != nil {
			fmt.Fprintf(out, "error adding document %d: %v\n", d.id, err)
		}
	}

	for in.Scan() {
		query := in.Text()
		if strings.TrimSpace(query) == "" {
			continue
		}
		results, err := tracker.AddFindRequest(query, nil)
		if err != nil {
			fmt.Fprintf(out, "error in query %q: %v\n", query, err)
			continue
		}
		fmt.Fprintf(out, "results for %q:\n", query)
		for _, doc := range results {
			fmt.Fprintln(out, doc)
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	stats := tracker.Snapshot()
	fmt.Fprintf(out, "no-result requests: %d of %d\n", stats.NoResultRequests, stats.Recorded)
	return nil
}

type consoleDocument struct {
	id      int
	status  document.Status
	ratings []int
	text    string
}

func parseDocumentLine(line string) (consoleDocument, error) {
	head, text, ok := strings.Cut(line, "|")
	if !ok {
		return consoleDocument{}, apperrors.InvalidArgumentf("missing '|' before document text in %q", line)
	}
	fields := strings.Fields(head)
	if len(fields) < 2 {
		return consoleDocument{}, apperrors.InvalidArgumentf("want \"id status rating... | text\", got %q", line)
	}

	var d consoleDocument
	var err error
	if d.id, err = strconv.Atoi(fields[0]); err != nil {
		return consoleDocument{}, apperrors.InvalidArgumentf("document id %q", fields[0])
	}
	if d.status, err = document.ParseStatus(fields[1]); err != nil {
		return consoleDocument{}, err
	}
	for _, f := range fields[2:] {
		r, err := strconv.Atoi(f)
		if err != nil {
			return consoleDocument{}, apperrors.InvalidArgumentf("rating %q", f)
		}
		d.ratings = append(d.ratings, r)
	}
	d.text = strings.TrimPrefix(text, " ")
	return d, nil
}

func readLine(in *bufio.Scanner) (string, error) {
	if in.Scan() {
		return in.Text(), nil
	}
	if err := in.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}
