// Package snapshot defines the on-disk world image: a JSON header line for
// cheap inspection followed by a gob body, zstd-compressed end to end.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    int64  `json:"tick"`
}

// WorldV1 is the complete persisted state. The queued action list is
// deliberately absent: a resumed world re-proposes from tile state, which
// is equivalent one tick later and keeps the format small.
type WorldV1 struct {
	Header Header `json:"header"`

	Seed               int64 `json:"seed"`
	TickMs             int   `json:"tick_ms"`
	SnapshotEveryTicks int   `json:"snapshot_every_ticks,omitempty"`

	Money   int            `json:"money"`
	Ledger  []LedgerLineV1 `json:"ledger,omitempty"`
	Hotkeys []HotkeyV1     `json:"hotkeys,omitempty"`
	Tiles   []TileV1       `json:"tiles"`
	Terrain []TerrainPinV1 `json:"terrain,omitempty"`
}

// LedgerLineV1 is one tile-credit balance.
type LedgerLineV1 struct {
	Tile  [2]uint8 `json:"tile"`
	Count int      `json:"count"`
}

type HotkeyV1 struct {
	Slot uint8    `json:"slot"`
	Tile [2]uint8 `json:"tile"`
}

// TerrainPinV1 is one debug-pinned deposit override.
type TerrainPinV1 struct {
	Key  uint64 `json:"key"`
	Kind uint8  `json:"kind"`
}

// ItemLineV1 is one inventory line.
type ItemLineV1 struct {
	Item  uint8 `json:"item"`
	Count int   `json:"count"`
}

// TileV1 is one grid cell. Kind-specific fields stay zero where unused.
type TileV1 struct {
	Key  uint64   `json:"key"`
	Kind uint8    `json:"kind"`
	Tile [2]uint8 `json:"tile"`
	Dir  uint8    `json:"dir"`

	Item       uint8 `json:"item,omitempty"`
	LastOutput uint8 `json:"last_output,omitempty"`

	Inventory []ItemLineV1 `json:"inventory,omitempty"`
	Interval  int          `json:"interval,omitempty"`
	Ticks     int          `json:"ticks,omitempty"`

	HItem uint8 `json:"h_item,omitempty"`
	HFrom uint8 `json:"h_from,omitempty"`
	VItem uint8 `json:"v_item,omitempty"`
	VFrom uint8 `json:"v_from,omitempty"`

	Target [2]uint8 `json:"target,omitempty"`
}

func WriteSnapshot(path string, snap WorldV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (WorldV1, error) {
	var snap WorldV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it, gob also contains the header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
