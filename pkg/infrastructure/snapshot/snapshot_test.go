package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/picoclaw/chatcore/pkg/chatcore"
	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatcore_test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	c := chatcore.NewChat("bot")
	c.Subscribe("slack:room-1")
	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.ExternalMessageID = "m1" })
	c.ProcessMessage("slack", *in)

	if err := store.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(c.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.IsSubscribed("slack:room-1") {
		t.Fatal("expected subscription to survive a save/load round trip")
	}
	if loaded.DedupeSize() != 1 {
		t.Fatalf("expected 1 dedupe entry, got %d", loaded.DedupeSize())
	}
}

func TestSaveUpsertsExistingSnapshot(t *testing.T) {
	store := openTestStore(t)

	c := chatcore.NewChat("bot")
	c.Metadata["v"] = 1
	if err := store.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c.Metadata["v"] = 2
	if err := store.Save(c); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	loaded, err := store.Load(c.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, _ := loaded.Metadata["v"].(float64) // JSON round trip turns int into float64
	if v != 2 {
		t.Fatalf("expected the latest save to win, got %v", loaded.Metadata["v"])
	}
}

func TestLoadMissingSnapshotErrors(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Load("does-not-exist"); err == nil {
		t.Fatal("expected an error loading a snapshot that was never saved")
	}
}

func TestListAndDelete(t *testing.T) {
	store := openTestStore(t)

	a := chatcore.NewChat("bot")
	b := chatcore.NewChat("bot")
	if err := store.Save(a); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := store.Save(b); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(ids))
	}

	if err := store.Delete(a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, err = store.List()
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("expected only %q to remain, got %v", b.ID, ids)
	}
}
