package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"craftbench.ai/internal/sim/crafting"
)

func TestWriteReadSnapshot(t *testing.T) {
	s := crafting.NewSession(crafting.DefaultRecipeBook(), []crafting.ItemID{crafting.Wood, crafting.Planks}, 1)
	s.Interact(0, crafting.ButtonPrimary)
	s.Interact(3, crafting.ButtonPrimary)

	path := PathFor(t.TempDir(), "tok")
	in := SessionV1{
		Header:        Header{Version: Version, SessionID: "S1", Seq: 3},
		ClientName:    "bot",
		ItemsDigest:   "i",
		RecipesDigest: "r",
		State:         s.State(),
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if out.Header != in.Header || out.ClientName != "bot" || out.State.Grid != in.State.Grid || out.State.Selected != 1 {
		t.Fatalf("snapshot mismatch: %+v", out)
	}

	r := crafting.NewSession(crafting.DefaultRecipeBook(), nil, crafting.NoSelection)
	if err := r.Restore(out.State); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r.Digest() != s.Digest() {
		t.Fatalf("digest changed across snapshot")
	}
}

func TestReadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v2.snap.zst")
	if err := WriteSnapshot(path, SessionV1{Header: Header{Version: 2}}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
}
