package runstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
)

func testRun(id string, started time.Time) *Run {
	return &Run{
		ID:        id,
		Status:    StatusRunning,
		Source:    "https://rubygems.org",
		Gems:      []cookbook.GemRequirement{cookbook.Gem("rake", ">= 13")},
		StartedAt: started,
	}
}

func TestFileStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := testRun("run-1", start)
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	end := start.Add(3 * time.Second)
	r.Status = StatusSucceeded
	r.FinishedAt = &end
	r.Events = []GemEvent{{Action: ActionInstalled, Name: "rake", Version: "13.1.0", At: end}}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusSucceeded {
		t.Errorf("Status = %s, want %s", got.Status, StatusSucceeded)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("Duration = %v", got.Duration())
	}
	if got.Count(ActionInstalled) != 1 || got.Count(ActionUsed) != 0 {
		t.Errorf("Count mismatch: %+v", got.Events)
	}
	if len(got.Gems) != 1 || got.Gems[0].String() != cookbook.Gem("rake", ">= 13").String() {
		t.Errorf("Gems = %+v", got.Gems)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "run-1.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `">= 13"`) {
		t.Errorf("constraint escaped in stored run:\n%s", data)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Get(context.Background(), "nope")
	if errors.GetCode(err) != errors.ErrCodeRunNotFound {
		t.Errorf("Get missing: got %v, want %s", err, errors.ErrCodeRunNotFound)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "../x", "a/b", ".hidden"} {
		if err := s.Save(context.Background(), testRun(id, time.Now())); errors.GetCode(err) != errors.ErrCodeInvalidInput {
			t.Errorf("Save(%q) = %v, want %s", id, err, errors.ErrCodeInvalidInput)
		}
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	// Garbage and unrelated files are ignored.
	_ = os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644)

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "b" || ids[2] != "a" {
		t.Errorf("List order = %v, want [c b a]", ids)
	}

	runs, err = s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("List(2) returned %d runs", len(runs))
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open returned %T, want *FileStore", s)
	}

	if _, err := Open(context.Background(), Options{}); errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("Open(empty) = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusRunning.Terminal() {
		t.Error("running should not be terminal")
	}
	if !StatusSucceeded.Terminal() || !StatusFailed.Terminal() {
		t.Error("succeeded and failed should be terminal")
	}
}
