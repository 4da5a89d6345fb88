package roster

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParse_RoomCommaName(t *testing.T) {
	rows := Parse("361-A KLETTNER, FRANCES (9981) 03/04/1945")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Room != "361-A" {
		t.Errorf("expected room 361-A, got %q", r.Room)
	}
	if r.Unit != "Unit 3" {
		t.Errorf("expected unit 'Unit 3', got %q", r.Unit)
	}
	if r.Name != "KLETTNER, FRANCES" {
		t.Errorf("expected name 'KLETTNER, FRANCES', got %q", r.Name)
	}
	if r.Identifier != "9981" {
		t.Errorf("expected identifier 9981, got %q", r.Identifier)
	}
	if r.DOBRaw != "03/04/1945" {
		t.Errorf("expected dobRaw 03/04/1945, got %q", r.DOBRaw)
	}
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Row
	}{
		{
			name: "room then space separated name",
			line: "214 FRANCES KLETTNER (LON202238) 03/04/1945 Active Resident Medicare A",
			want: Row{Identifier: "LON202238", Name: "KLETTNER, FRANCES", Unit: "Unit 2", Room: "214",
				DOBRaw: "03/04/1945", Status: "Active Resident", Payor: "Medicare A"},
		},
		{
			name: "explicit unit word",
			line: "Unit 4 402B DOE, JANE (148831) 1/2/1930",
			want: Row{Identifier: "148831", Name: "DOE, JANE", Unit: "Unit 4", Room: "402B", DOBRaw: "1/2/1930"},
		},
		{
			name: "bare unit digit",
			line: "3 361 SMITH, JOHN (A-77) 12/25/1940 Active",
			want: Row{Identifier: "A77", Name: "SMITH, JOHN", Unit: "Unit 3", Room: "361", DOBRaw: "12/25/1940", Status: "Active"},
		},
		{
			name: "room with joined name",
			line: "405 DOE,JOHN (555)",
			want: Row{Identifier: "555", Name: "DOE,JOHN", Unit: "Unit 4", Room: "405"},
		},
		{
			name: "legacy unit column",
			line: "EAST 101 BROWN, ALICE (777) 05/06/1950",
			want: Row{Identifier: "777", Name: "BROWN, ALICE", Room: "101", DOBRaw: "05/06/1950"},
		},
		{
			name: "invalid unit falls back to room digit",
			line: "Unit 9 312 GREEN, AL (888)",
			want: Row{Identifier: "888", Name: "GREEN, AL", Unit: "Unit 3", Room: "312"},
		},
		{
			name: "trailing dashes trimmed",
			line: "220 WHITE, BETTY -- (999)",
			want: Row{Identifier: "999", Name: "WHITE, BETTY", Unit: "Unit 2", Room: "220"},
		},
		{
			name: "nickname before identifier",
			line: "330 JONES, ROBERT (BOB) (4455) 07/08/1933",
			want: Row{Identifier: "4455", Name: "JONES, ROBERT (BOB)", Unit: "Unit 3", Room: "330", DOBRaw: "07/08/1933"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Parse(tt.line)
			if len(rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(rows))
			}
			if rows[0] != tt.want {
				t.Errorf("got %+v\nwant %+v", rows[0], tt.want)
			}
		})
	}
}

func TestParse_Dedup_LastWins(t *testing.T) {
	text := "361-A KLETTNER, FRANCES (9981) 03/04/1945 Active Resident Medicare\n" +
		"214 DOE, JANE (1234) 01/01/1940 Active\n" +
		"361-A KLETTNER, FRANCES (9981) 03/04/1945 Hospital Leave Medicaid\n"

	res := NewParser(zerolog.Nop()).Parse(text)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].Identifier != "1234" || res.Rows[1].Identifier != "9981" {
		t.Errorf("expected rows ordered by last occurrence, got %q then %q", res.Rows[0].Identifier, res.Rows[1].Identifier)
	}
	if res.Rows[1].Status != "Hospital Leave" {
		t.Errorf("expected second line's status, got %q", res.Rows[1].Status)
	}
	if res.Rows[1].Payor != "Medicaid" {
		t.Errorf("expected second line's payor, got %q", res.Rows[1].Payor)
	}
	if res.Stats.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", res.Stats.Duplicates)
	}
}

func TestParse_SkipsNoise(t *testing.T) {
	text := `Census Report - Sunrise Care Center
Unit Room Resident DOB Status
361-B EMPTY
362-A (EMPTY) (0000)
BED HOLD (123)
214 DOE, JANE 01/01/1940
215 ROE, RICHARD (4321) 02/02/1941
`
	res := NewParser(zerolog.Nop()).Parse(text)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0].Identifier != "4321" {
		t.Errorf("expected identifier 4321, got %q", res.Rows[0].Identifier)
	}
	if res.Stats.LinesSeen != 7 {
		t.Errorf("expected 7 lines seen, got %d", res.Stats.LinesSeen)
	}
	if res.Stats.Skipped != 6 {
		t.Errorf("expected 6 skipped, got %d", res.Stats.Skipped)
	}
	if res.Stats.RowsExtracted != 1 {
		t.Errorf("expected 1 row extracted, got %d", res.Stats.RowsExtracted)
	}
}

func TestParse_PlaceholderKeptWithRoomOrDOB(t *testing.T) {
	rows := Parse("118 BED HOLD (5150) 09/09/1939")
	if len(rows) != 1 {
		t.Fatalf("expected placeholder-like name with room and DOB to be kept, got %d rows", len(rows))
	}
	if rows[0].Name != "HOLD, BED" {
		t.Errorf("expected name 'HOLD, BED', got %q", rows[0].Name)
	}
}

func TestParse_Empty(t *testing.T) {
	if rows := Parse(""); rows == nil || len(rows) != 0 {
		t.Errorf("expected an empty, non-nil row slice, got %#v", rows)
	}
	if rows := Parse("no identifiers anywhere\njust text"); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestParse_LoneUnitLabelSkipped(t *testing.T) {
	for _, line := range []string{"Unit 2 (131)", "UNIT3 (132)", "unit (133)"} {
		res := NewParser(zerolog.Nop()).Parse(line)
		if len(res.Rows) != 0 {
			t.Errorf("%q: expected no rows, got %+v", line, res.Rows)
		}
		if res.Stats.Skipped != 1 {
			t.Errorf("%q: expected 1 skipped, got %d", line, res.Stats.Skipped)
		}
	}
	rows := Parse("UNITAS, MARIA (134)")
	if len(rows) != 1 || rows[0].Name != "UNITAS, MARIA" {
		t.Errorf("expected a surname starting with Unit to be kept, got %+v", rows)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"FRANCES KLETTNER":      "KLETTNER, FRANCES",
		"MARY ANN  SMITH":       "SMITH, MARY ANN",
		"KLETTNER, FRANCES":     "KLETTNER, FRANCES",
		"KLETTNER, FRANCES - -": "KLETTNER, FRANCES",
		"CHER":                  "CHER",
		"":                      "",
	}
	for in, want := range tests {
		if got := normalizeName(in); got != want {
			t.Errorf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		raw, room, want string
	}{
		{"3", "", "Unit 3"},
		{"Unit 4", "", "Unit 4"},
		{"unit2", "", "Unit 2"},
		{"7", "212", "Unit 2"},
		{"EAST", "101", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUnit(tt.raw, tt.room); got != tt.want {
			t.Errorf("NormalizeUnit(%q, %q) = %q, want %q", tt.raw, tt.room, got, tt.want)
		}
	}
}

func TestClassify_Order(t *testing.T) {
	tests := []struct {
		toks []string
		want string
	}{
		{[]string{"361-A", "KLETTNER,", "FRANCES"}, "room-last-comma-first"},
		{[]string{"214", "FRANCES", "KLETTNER"}, "room-name-parts"},
		{[]string{"Unit", "3", "361", "DOE,", "J"}, "unit-room-name"},
		{[]string{"2", "214", "DOE,", "J"}, "unit-room-name"},
		{[]string{"214", "DOE,J"}, "room-joined-name"},
		{[]string{"EAST", "101", "DOE,", "J"}, "legacy-unit-room-name"},
		{[]string{"DOE,", "JANE"}, "name-only"},
	}
	for _, tt := range tests {
		_, got, ok := classify(tt.toks)
		if !ok || got != tt.want {
			t.Errorf("classify(%q) = %q, want %q", tt.toks, got, tt.want)
		}
	}
}
