package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "tick_duration_ms: 50\nstarting_money: 9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickDurationMs != 50 || got.StartingMoney != 9000 {
		t.Fatalf("overrides lost: %+v", got)
	}
	// Untouched keys keep their defaults.
	def := Defaults()
	if got.ProtocolVersion != def.ProtocolVersion ||
		got.SnapshotEveryTicks != def.SnapshotEveryTicks ||
		got.ClientQueueDepth != def.ClientQueueDepth {
		t.Fatalf("defaults clobbered: %+v", got)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v", err)
	}
	if got != Defaults() {
		t.Fatalf("missing file must fall back to defaults: %+v", got)
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_duration_ms: [oops\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}
