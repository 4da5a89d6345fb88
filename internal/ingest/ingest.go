// Package ingest parses several census and order documents at once and
// loads them from files for the command line.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ipc/ipc/internal/domain/importbatch"
	"github.com/ipc/ipc/internal/extract/orders"
	"github.com/ipc/ipc/internal/extract/roster"
	"github.com/ipc/ipc/internal/platform/spreadsheet"
)

// Stdin is the path that reads standard input.
const Stdin = "-"

// Doc is one document to parse. Kind is importbatch.KindRoster or
// importbatch.KindOrders.
type Doc struct {
	Kind   string
	Source string
	Text   string
}

// Parsed holds the result for one Doc; exactly one of Roster and Orders is
// set, matching the document kind.
type Parsed struct {
	Doc    Doc
	Roster *roster.Result
	Orders *orders.Result
}

// Engine parses documents with shared, stateless parsers.
type Engine struct {
	roster *roster.Parser
	orders *orders.Parser
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		roster: roster.NewParser(log),
		orders: orders.NewParser(log),
	}
}

// ParseAll parses docs concurrently and returns results in input order.
// Cancellation is checked before each document starts; a document already
// being parsed runs to completion.
func (e *Engine) ParseAll(ctx context.Context, docs []Doc) ([]Parsed, error) {
	out := make([]Parsed, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, d := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := e.Parse(d)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Parse parses a single document.
func (e *Engine) Parse(d Doc) (Parsed, error) {
	p := Parsed{Doc: d}
	switch d.Kind {
	case importbatch.KindRoster:
		res := e.roster.Parse(d.Text)
		p.Roster = &res
	case importbatch.KindOrders:
		res := e.orders.Parse(d.Text)
		p.Orders = &res
	default:
		return Parsed{}, fmt.Errorf("ingest: unknown document kind %q for %s", d.Kind, d.Source)
	}
	return p, nil
}

// ReadFile loads the text of path. Stdin reads from stdin; .xlsx workbooks
// are flattened to one line per row.
func ReadFile(path string, stdin io.Reader) (string, error) {
	if path == Stdin {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("ingest: read stdin: %w", err)
		}
		return string(b), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()

	if spreadsheet.IsWorkbook(path, "") {
		text, err := spreadsheet.Text(f)
		if err != nil {
			return "", fmt.Errorf("ingest: %s: %w", path, err)
		}
		return text, nil
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("ingest: read %s: %w", path, err)
	}
	return string(b), nil
}

// Load reads every path as a document of the given kind.
func Load(kind string, paths []string, stdin io.Reader) ([]Doc, error) {
	docs := make([]Doc, 0, len(paths))
	for _, p := range paths {
		text, err := ReadFile(p, stdin)
		if err != nil {
			return nil, err
		}
		source := p
		if p == Stdin {
			source = "stdin"
		}
		docs = append(docs, Doc{Kind: kind, Source: source, Text: text})
	}
	return docs, nil
}
