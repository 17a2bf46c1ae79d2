package postcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type memBackend struct {
	mu      sync.Mutex
	loaded  []string
	loadErr error
	saveErr error
	saves   [][]string
}

func (m *memBackend) Load(context.Context) ([]string, error) { return m.loaded, m.loadErr }

func (m *memBackend) Save(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, append([]string(nil), ids...))
	return m.saveErr
}

func TestFileBackendCreatesEmptyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".cache")
	b := NewFileBackend(dir)

	ids, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Load on fresh dir = %v, want empty", ids)
	}
	raw, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	if err != nil {
		t.Fatalf("cache file not created: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("initial cache file = %q, want []", raw)
	}
}

func TestFileBackendRoundTripAndMixedEntries(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(dir)
	if err := os.WriteFile(b.Path, []byte(`["abc", 12345, null, {"x":1}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	ids, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 2 || ids[0] != "abc" || ids[1] != "12345" {
		t.Errorf("Load = %v, want [abc 12345]", ids)
	}

	if err := b.Save(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err = b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Load after save = %v, want [a b]", ids)
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	if err := os.WriteFile(b.Path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(context.Background()); err == nil {
		t.Error("expected decode error for corrupt file")
	}
	// an object is valid JSON but not an id array
	if err := os.WriteFile(b.Path, []byte(`{"ids":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(context.Background()); err == nil {
		t.Error("expected error for non-array file")
	}
}

func TestOpenFailsOpen(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	if err := os.WriteFile(b.Path, []byte(`garbage`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(context.Background(), b, nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for corrupt store", s.Len())
	}

	s = Open(context.Background(), &memBackend{loadErr: errors.New("permission denied")}, nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for unreadable store", s.Len())
	}
}

func TestSetRememberPersists(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	s := Open(context.Background(), b, nil)

	if s.Has("m1") {
		t.Fatal("fresh set should not contain m1")
	}
	if err := s.Remember(context.Background(), "m1"); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if err := s.Remember(context.Background(), "m2"); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if !s.Has("m1") || !s.Has("m2") {
		t.Error("remembered ids missing from set")
	}

	// survives a restart
	reopened := Open(context.Background(), b, nil)
	if !reopened.Has("m1") || !reopened.Has("m2") || reopened.Len() != 2 {
		t.Errorf("reopened set = %v, want [m1 m2]", reopened.Snapshot())
	}
}

func TestSetRememberKnownIDDoesNotWrite(t *testing.T) {
	mb := &memBackend{loaded: []string{"old"}}
	s := Open(context.Background(), mb, nil)
	if err := s.Remember(context.Background(), "old"); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if len(mb.saves) != 0 {
		t.Errorf("expected no save for known id, got %d", len(mb.saves))
	}
}

func TestSetRememberSaveFailureKeepsID(t *testing.T) {
	mb := &memBackend{saveErr: errors.New("disk full")}
	s := Open(context.Background(), mb, nil)
	err := s.Remember(context.Background(), "m1")
	if err == nil {
		t.Fatal("expected save error to be reported")
	}
	if !s.Has("m1") {
		t.Error("id must stay recorded in memory after a failed save")
	}
}

func TestSetConcurrentRememberLastSaveIsComplete(t *testing.T) {
	mb := &memBackend{}
	s := Open(context.Background(), mb, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Remember(context.Background(), string(rune('A'+i%26))+string(rune('a'+i/26)))
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", s.Len())
	}
	last := mb.saves[len(mb.saves)-1]
	if len(last) != 50 {
		t.Errorf("last persisted snapshot has %d ids, want 50", len(last))
	}
}
