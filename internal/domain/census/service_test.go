package census

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ipc/ipc/internal/domain/importbatch"
)

type mockRepo struct {
	data map[string]*Resident
	err  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: make(map[string]*Resident)}
}

func (m *mockRepo) Upsert(_ context.Context, r *Resident) error {
	if m.err != nil {
		return m.err
	}
	if old, ok := m.data[r.Identifier]; ok {
		r.ID = old.ID
		r.CreatedAt = old.CreatedAt
	} else {
		r.ID = uuid.New()
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	m.data[r.Identifier] = r
	return nil
}

func (m *mockRepo) GetByIdentifier(_ context.Context, id string) (*Resident, error) {
	if r, ok := m.data[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) FindByMatchKey(_ context.Context, key string) (*Resident, error) {
	for _, r := range m.data {
		for _, k := range r.MatchKeys {
			if k == key {
				return r, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Resident, int, error) {
	var out []*Resident
	for _, r := range m.data {
		out = append(out, r)
	}
	return out, len(out), nil
}

type mockBatches struct {
	recorded []*importbatch.Batch
}

func (m *mockBatches) Record(_ context.Context, b *importbatch.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = uuid.New()
	m.recorded = append(m.recorded, b)
	return nil
}

func newTestService() (*Service, *mockRepo, *mockBatches) {
	repo := newMockRepo()
	batches := &mockBatches{}
	return NewService(repo, batches, nil, zerolog.Nop()), repo, batches
}

const censusText = "361-A KLETTNER, FRANCES (9981) 03/04/1945 Active Resident Medicare\n" +
	"Census Report - Sunrise Care Center\n" +
	"214 FRANCES KLETTNER (LON202238) 03/04/1945 Active Resident Medicare A\n" +
	"361-A KLETTNER, FRANCES (9981) 03/04/1945 Hospital Leave Medicaid\n"

func TestService_ImportRoster(t *testing.T) {
	svc, repo, batches := newTestService()

	sum, err := svc.ImportRoster(context.Background(), "census.txt", censusText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Stored != 2 {
		t.Errorf("expected 2 stored, got %d", sum.Stored)
	}
	if sum.Stats.Duplicates != 1 || sum.Stats.Skipped != 1 {
		t.Errorf("unexpected stats %+v", sum.Stats)
	}
	if len(batches.recorded) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches.recorded))
	}
	b := batches.recorded[0]
	if b.Kind != importbatch.KindRoster || b.Source != "census.txt" || b.LinesSeen != 4 {
		t.Errorf("unexpected batch %+v", b)
	}
	if sum.BatchID != b.ID {
		t.Errorf("summary batch id %s does not match recorded %s", sum.BatchID, b.ID)
	}

	r, ok := repo.data["9981"]
	if !ok {
		t.Fatal("expected resident 9981 to be stored")
	}
	if r.Status != "Hospital Leave" {
		t.Errorf("expected last line to win, got status %q", r.Status)
	}
	if r.BatchID == nil || *r.BatchID != b.ID {
		t.Error("expected resident to carry the batch id")
	}
	if r.DOB == nil || r.DOB.Format("2006-01-02") != "1945-03-04" {
		t.Errorf("expected DOB 1945-03-04, got %v", r.DOB)
	}
}

func TestService_ImportRoster_RepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("connection refused")

	if _, err := svc.ImportRoster(context.Background(), "census.txt", censusText); err == nil {
		t.Error("expected error when the repository fails")
	}
}

func TestService_ResolveResident(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ImportRoster(context.Background(), "census.txt", censusText); err != nil {
		t.Fatalf("import: %v", err)
	}

	for _, raw := range []string{"LON202238", "(lon-202238)", "202238"} {
		r, err := svc.ResolveResident(context.Background(), raw)
		if err != nil {
			t.Errorf("ResolveResident(%q): %v", raw, err)
			continue
		}
		if r.Identifier != "LON202238" {
			t.Errorf("ResolveResident(%q) = %q, want LON202238", raw, r.Identifier)
		}
	}

	if _, err := svc.ResolveResident(context.Background(), "777"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.ResolveResident(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestFromRow_InvalidDOB(t *testing.T) {
	svc, _, _ := newTestService()
	rows := svc.ParseRoster("214 DOE, JANE (1234) 02/30/1940").Rows
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := FromRow(rows[0])
	if r.DOB != nil {
		t.Errorf("expected nil DOB for 02/30/1940, got %v", r.DOB)
	}
	if r.DOBRaw != "02/30/1940" {
		t.Errorf("expected raw DOB kept, got %q", r.DOBRaw)
	}
	if len(r.MatchKeys) != 1 || r.MatchKeys[0] != "1234" {
		t.Errorf("unexpected match keys %v", r.MatchKeys)
	}
}
