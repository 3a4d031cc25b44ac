// Command searchctl drives the search engine from the terminal: a fixed
// paginated demo, a line-oriented console, and a publisher that feeds a
// corpus file to the documents topic consumed by the search server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "searchctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "searchctl",
		Usage:     "Run and feed the in-memory TF-IDF search engine",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Index five sample documents and print a paginated search",
				Action: demoCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "query",
						Usage: "Query to run against the sample corpus",
						Value: demoQuery,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Results per printed page",
						Value: 2,
					},
				},
			},
			{
				Name:      "console",
				Usage:     "Read stop words, documents and queries from stdin",
				UsageText: "searchctl console < input.txt",
				Action:    consoleCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum results per query",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Request tracker window",
						Value: 1440,
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Publish a YAML or TOML corpus of document events to Kafka",
				Action: publishCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Corpus file (.yaml, .yml or .toml)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Server config file supplying the Kafka brokers and topic",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Override the documents topic",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate and print the events without publishing",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(logger.New(c.App.ErrWriter, level, "text"))
	return nil
}
