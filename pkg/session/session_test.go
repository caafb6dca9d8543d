package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/choropleth/pkg/interact"
)

func TestNew(t *testing.T) {
	s := New(0)
	if !ValidID(s.ID) {
		t.Errorf("ID %q is not a uuid", s.ID)
	}
	if s.TTL != DefaultTTL || s.IsExpired() {
		t.Errorf("session = %+v", s)
	}
	if New(time.Minute).ID == s.ID {
		t.Error("IDs repeat")
	}
	if ValidID("../../etc/passwd") {
		t.Error("path accepted as id")
	}
}

func TestStores(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			sess := New(time.Hour)
			sess.State = interact.State{
				Target:   interact.Region("Bihar"),
				Position: interact.Position{X: 3, Y: 4},
			}
			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil || got == nil {
				t.Fatalf("Get = %v, %v", got, err)
			}
			if got.State != sess.State {
				t.Errorf("State = %+v, want %+v", got.State, sess.State)
			}

			if got, _ := store.Get(ctx, New(0).ID); got != nil {
				t.Error("unknown id found")
			}

			expired := New(time.Millisecond)
			if err := store.Set(ctx, expired); err != nil {
				t.Fatal(err)
			}
			time.Sleep(5 * time.Millisecond)
			if got, _ := store.Get(ctx, expired.ID); got != nil {
				t.Error("expired session returned")
			}
			n, err := store.Cleanup(ctx)
			if err != nil || n != 1 {
				t.Errorf("Cleanup = %d, %v; want 1", n, err)
			}

			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Fatal(err)
			}
			if got, _ := store.Get(ctx, sess.ID); got != nil {
				t.Error("deleted session returned")
			}
		})
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	id := New(0).ID
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), id); err == nil {
		t.Error("corrupt session file read without error")
	}
	if n, _ := store.Cleanup(context.Background()); n != 1 {
		t.Errorf("Cleanup removed %d files, want 1", n)
	}
}
