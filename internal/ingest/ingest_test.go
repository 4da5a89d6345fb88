package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ipc/ipc/internal/domain/importbatch"
)

const (
	rosterText = "361-A KLETTNER, FRANCES (9981) 03/04/1945\n214 DOE, JANE (1234) 01/01/1940\n"
	ordersText = "Foster, Brian (148831)Cefpodoxime Proxetil Tablet 200 MG Give by mouth for Pneumonia 01/24/2026 01/31/2026\n"
)

func TestEngine_ParseAll(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	docs := []Doc{
		{Kind: importbatch.KindRoster, Source: "a", Text: rosterText},
		{Kind: importbatch.KindOrders, Source: "b", Text: ordersText},
		{Kind: importbatch.KindRoster, Source: "c", Text: ""},
	}

	out, err := e.ParseAll(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].Doc.Source != "a" || out[0].Roster == nil || len(out[0].Roster.Rows) != 2 {
		t.Errorf("unexpected first result %+v", out[0])
	}
	if out[1].Orders == nil || len(out[1].Orders.Rows) != 1 || out[1].Roster != nil {
		t.Errorf("unexpected second result %+v", out[1])
	}
	if out[2].Roster == nil || len(out[2].Roster.Rows) != 0 {
		t.Errorf("expected empty roster result, got %+v", out[2])
	}
}

func TestEngine_ParseAll_UnknownKind(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	_, err := e.ParseAll(context.Background(), []Doc{{Kind: "labs", Source: "x"}})
	if err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestEngine_ParseAll_Cancelled(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ParseAll(ctx, []Doc{{Kind: importbatch.KindRoster, Text: rosterText}})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_ParseAll_Deterministic(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	var docs []Doc
	for i := 0; i < 16; i++ {
		docs = append(docs, Doc{Kind: importbatch.KindOrders, Text: ordersText})
	}
	out, err := e.ParseAll(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := out[0].Orders.Rows[0].RecordID
	for i, p := range out {
		if got := p.Orders.Rows[0].RecordID; got != want {
			t.Errorf("doc %d: record id %q differs from %q", i, got, want)
		}
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "census.txt")
	if err := os.WriteFile(txt, []byte(rosterText), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(txt, nil)
	if err != nil || got != rosterText {
		t.Errorf("ReadFile(txt) = %q, %v", got, err)
	}

	xlsx := filepath.Join(dir, "census.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"214", "DOE, JANE", "(1234)"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	got, err = ReadFile(xlsx, nil)
	if err != nil || got != "214 DOE, JANE (1234)" {
		t.Errorf("ReadFile(xlsx) = %q, %v", got, err)
	}

	got, err = ReadFile(Stdin, strings.NewReader("from stdin"))
	if err != nil || got != "from stdin" {
		t.Errorf("ReadFile(stdin) = %q, %v", got, err)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad(t *testing.T) {
	docs, err := Load(importbatch.KindOrders, []string{Stdin}, strings.NewReader(ordersText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].Source != "stdin" || docs[0].Kind != importbatch.KindOrders {
		t.Errorf("unexpected docs %+v", docs)
	}
}
