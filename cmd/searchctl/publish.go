package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// corpus is the on-disk layout read by publish. Events without an op are
// additions.
type corpus struct {
	Events []consumer.DocumentEvent `yaml:"events" toml:"events"`
}

func loadCorpus(path string) ([]consumer.DocumentEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	var c corpus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".toml":
		err = toml.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("corpus %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}

	for i := range c.Events {
		if c.Events[i].Op == "" {
			c.Events[i].Op = consumer.OpAdd
		}
		if err := c.Events[i].Validate(); err != nil {
			return nil, fmt.Errorf("corpus %s event %d: %w", path, i, err)
		}
	}
	return c.Events, nil
}

func publishCommand(c *cli.Context) error {
	events, err := loadCorpus(c.String("file"))
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		enc := json.NewEncoder(c.App.Writer)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	topic := cfg.Kafka.Topics.Documents
	if t := c.String("topic"); t != "" {
		topic = t
	}

	producer := kafka.NewProducer(cfg.Kafka, topic)
	defer producer.Close()

	batch := make([]kafka.Event, 0, len(events))
	for _, e := range events {
		batch = append(batch, kafka.Event{Key: e.Key(), Value: e})
	}
	if err := producer.PublishBatch(c.Context, batch); err != nil {
		return fmt.Errorf("publishing %d events to %s: %w", len(batch), topic, err)
	}
	slog.Info("corpus published", "events", len(batch), "topic", topic, "brokers", cfg.Kafka.Brokers)
	fmt.Fprintf(c.App.Writer, "published %d events to %s\n", len(batch), topic)
	return nil
}
