// Command hazdecode decodes a bulletin feed offline and prints the decoded
// products as JSON, one document per product. It runs the same decoder the
// pipeline uses, which makes it the fastest way to triage a misbehaving
// bulletin: paste the raw text into a file and point hazdecode at it.
//
// Usage:
//
//	hazdecode -file feed.txt -ref 2015-07-23T03:00:00Z
//	cat bulletin.txt | hazdecode -single -strict
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/floodline/hazard-etl/internal/decode"
	"github.com/floodline/hazard-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hazdecode: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "-", "input path, or - for stdin")
	ref := flag.String("ref", "", "reference instant (RFC 3339) for resolving day/hour groups; default now")
	single := flag.Bool("single", false, "treat input as one unframed bulletin instead of a length-framed feed")
	strict := flag.Bool("strict", false, "fail on any decode defect")
	compact := flag.Bool("compact", false, "one-line JSON instead of indented")
	flag.Parse()

	data, err := readInput(*file)
	if err != nil {
		return err
	}

	opts := decode.Options{Strict: *strict}
	if *ref != "" {
		t, err := time.Parse(time.RFC3339, *ref)
		if err != nil {
			return fmt.Errorf("parse -ref: %w", err)
		}
		opts.Resolver = domain.NewTimeResolver(t.UTC())
	}

	bulletins, err := collectBulletins(data, *single)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}

	var failed int
	for i, b := range bulletins {
		product, err := decode.DecodeProduct(b, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bulletin %d: %v\n", i, err)
			failed++
		}
		if product == nil {
			continue
		}
		if err := enc.Encode(product); err != nil {
			return fmt.Errorf("encode product: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d bulletin(s) failed to decode", failed, len(bulletins))
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func collectBulletins(data []byte, single bool) ([]domain.RawBulletin, error) {
	if single {
		return []domain.RawBulletin{{
			DeclaredLength: len(data),
			Text:           decode.NormalizeText(string(data)),
		}}, nil
	}
	bulletins, err := decode.SplitFeed(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("split feed: %w", err)
	}
	return bulletins, nil
}
