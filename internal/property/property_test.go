package property

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestMapCopiesInput(t *testing.T) {
	t.Parallel()

	in := map[string]string{"A": "x"}
	m := NewMap(in)
	in["A"] = "mutated"

	got, ok := m.Lookup("A")
	if !ok || got != "x" {
		t.Fatalf("expected x, got %q (ok=%v)", got, ok)
	}
	if _, ok := m.Lookup("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestZeroMapIsEmpty(t *testing.T) {
	t.Parallel()

	var m Map
	if _, ok := m.Lookup("A"); ok {
		t.Fatalf("expected zero Map to be empty")
	}
}

func TestSourceFunc(t *testing.T) {
	t.Parallel()

	src := SourceFunc(func(key string) (string, bool) {
		return key + "!", key != ""
	})
	if got, ok := src.Lookup("hi"); !ok || got != "hi!" {
		t.Fatalf("unexpected lookup result %q %v", got, ok)
	}
}

func TestStoreSetAndSnapshot(t *testing.T) {
	t.Parallel()

	store := NewStore(map[string]string{"b": "2"})
	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()
	snap["a"] = "changed"

	if got, _ := store.Lookup("a"); got != "1" {
		t.Fatalf("expected snapshot to be a copy, store has %q", got)
	}
	if keys := store.Keys(); !slices.Equal(keys, []string{"a", "b"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	if err := store.Set("  ", "v"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := store.Replace(map[string]string{"": "v"}); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestStoreReplace(t *testing.T) {
	t.Parallel()

	store := NewStore(map[string]string{"old": "1"})
	if err := store.Replace(map[string]string{"new": "2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Lookup("old"); ok {
		t.Fatalf("expected old key to be gone")
	}
	if got, _ := store.Lookup("new"); got != "2" {
		t.Fatalf("expected new key, got %q", got)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(nil)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(n int) {
			defer wg.Done()
			if err := store.Set(fmt.Sprintf("k%d", n), "v"); err != nil {
				t.Errorf("Set failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			_ = store.Snapshot()
		}()
	}

	wg.Wait()

	if got := len(store.Keys()); got != 32 {
		t.Fatalf("expected 32 keys, got %d", got)
	}
}
