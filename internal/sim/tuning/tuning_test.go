package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	tu, err := Load(writeTuning(t, "ui_scale: 2\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.UIScale != 2 {
		t.Fatalf("ui_scale = %v, want 2", tu.UIScale)
	}
	if len(tu.StarterInventory) != 2 || tu.StarterInventory[0] != "WOOD" {
		t.Fatalf("starter_inventory = %v", tu.StarterInventory)
	}
	if tu.IdleTimeoutSec != 120 || tu.InitialSelection != 0 {
		t.Fatalf("defaults lost: %+v", tu)
	}
}

func TestLoadNoSelection(t *testing.T) {
	tu, err := Load(writeTuning(t, "initial_selection: -1\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.InitialSelection != -1 {
		t.Fatalf("initial_selection = %d", tu.InitialSelection)
	}
}

func TestLoadRejectsBadSelection(t *testing.T) {
	if _, err := Load(writeTuning(t, "starter_inventory: [WOOD]\ninitial_selection: 1\n")); err == nil {
		t.Fatalf("expected error for selection outside inventory")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
