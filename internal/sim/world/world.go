package world

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"gridforge.dev/internal/persistence/snapshot"
	"gridforge.dev/internal/protocol"
	"gridforge.dev/internal/sim/catalogs"
)

type Config struct {
	ID                 string
	TickMs             int
	Seed               int64
	StartingMoney      int
	SnapshotEveryTicks int
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	ClientID string
	Welcome  protocol.WelcomeMsg
}

// CommandEnvelope carries one client's ACT into the world loop.
type CommandEnvelope struct {
	ClientID string
	Act      protocol.ActMsg
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      Config
	catalogs *catalogs.Catalogs

	tick atomic.Int64

	grid    *Grid
	terrain *Terrain

	// actions is the list queued by the previous tick's propose phase,
	// already sorted and reversed, waiting for the next apply.
	actions []Action

	money   int
	ledger  map[catalogs.TileID]int
	hotkeys map[uint8]catalogs.TileID

	clients       map[string]*clientState
	nextClientNum atomic.Uint64

	inbox chan CommandEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger    TickLogger
	commandLogger CommandLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- snapshot.WorldV1

	// metrics holds the latest WorldMetrics, refreshed once per step so
	// HTTP handlers can read it without touching loop state.
	metrics atomic.Value
}

// WorldMetrics is a read-only snapshot of loop health for /metrics.
type WorldMetrics struct {
	Tick          int64   `json:"tick"`
	Clients       int     `json:"clients"`
	Tiles         int     `json:"tiles"`
	QueuedActions int     `json:"queued_actions"`
	Money         int     `json:"money"`
	StepMS        float64 `json:"step_ms"`

	QueueDepths struct {
		Inbox int `json:"inbox"`
		Join  int `json:"join"`
		Leave int `json:"leave"`
	} `json:"queue_depths"`
}

// Metrics returns the most recent per-step metrics snapshot.
func (w *World) Metrics() WorldMetrics {
	if m, ok := w.metrics.Load().(WorldMetrics); ok {
		return m
	}
	return WorldMetrics{Tick: w.tick.Load()}
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type CommandLogger interface {
	WriteCommand(entry CommandLogEntry) error
}

type CommandLogEntry struct {
	Tick     int64  `json:"tick"`
	ClientID string `json:"client_id"`
	Ref      string `json:"ref,omitempty"`
	Command  string `json:"command"`
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
}

type TickLogEntry struct {
	Tick     int64  `json:"tick"`
	Commands int    `json:"commands,omitempty"`
	Applied  int    `json:"applied"`
	Dropped  int    `json:"dropped,omitempty"`
	Queued   int    `json:"queued"`
	Tiles    int    `json:"tiles"`
	Digest   string `json:"digest"`
}

type clientState struct {
	Out chan []byte
}

func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	if cfg.TickMs <= 0 {
		return nil, fmt.Errorf("tick_ms must be positive, got %d", cfg.TickMs)
	}
	if cfg.SnapshotEveryTicks < 0 {
		return nil, fmt.Errorf("snapshot_every_ticks must not be negative")
	}
	w := &World{
		cfg:      cfg,
		catalogs: cats,
		grid:     NewGrid(),
		terrain:  NewTerrain(cfg.Seed),
		money:    cfg.StartingMoney,
		ledger:   map[catalogs.TileID]int{},
		hotkeys:  map[uint8]catalogs.TileID{},
		clients:  map[string]*clientState{},
		inbox:    make(chan CommandEnvelope, 1024),
		join:     make(chan JoinRequest, 64),
		leave:    make(chan string, 64),
		stop:     make(chan struct{}),
	}

	core, err := NewTile(catalogs.TileCore, Position{0, 0}, DirUp)
	if err != nil {
		return nil, err
	}
	w.grid.Set(core)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                 { w.tickLogger = l }
func (w *World) SetCommandLogger(l CommandLogger)           { w.commandLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.WorldV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- CommandEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest      { return w.join }
func (w *World) Leave() chan<- string          { return w.leave }

func (w *World) CurrentTick() int64 { return w.tick.Load() }

func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(w.cfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	var pendingCommands []CommandEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingCommands = append(pendingCommands, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingCommands)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCommands = pendingCommands[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// step advances one tick boundary: sessions, then commands, then the apply
// phase for last tick's actions, then this tick's propose/sort/reverse.
func (w *World) step(joins []JoinRequest, leaves []string, commands []CommandEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Add(1)

	for _, id := range leaves {
		delete(w.clients, id)
	}
	for _, req := range joins {
		w.handleJoin(req)
	}

	// Commands apply in server receive order, before any queued action, so
	// a removal this tick purges stale proposals before they can fire.
	resultsByClient := make(map[string][]protocol.ResultEvent)
	commandCount := 0
	for _, env := range commands {
		for _, cmd := range env.Act.Commands {
			commandCount++
			res := w.applyCommand(cmd)
			resultsByClient[env.ClientID] = append(resultsByClient[env.ClientID], res)
			if w.commandLogger != nil {
				_ = w.commandLogger.WriteCommand(CommandLogEntry{
					Tick:     nowTick,
					ClientID: env.ClientID,
					Ref:      cmd.ID,
					Command:  cmd.Type,
					OK:       res.OK,
					Code:     res.Code,
				})
			}
		}
	}

	applied, dropped := w.applyActions()

	proposals := w.proposeAll()
	sorted := w.sortActions(proposals)
	reverseActions(sorted)
	w.actions = sorted

	moves := w.realizedMoves(sorted)
	digest := w.stateDigest(nowTick)

	state := w.buildState(nowTick, moves, digest)
	for id, cl := range w.clients {
		st := state
		st.Results = resultsByClient[id]
		b, err := json.Marshal(st)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}

	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Commands: commandCount,
			Applied:  applied,
			Dropped:  dropped,
			Queued:   len(sorted),
			Tiles:    w.grid.Len(),
			Digest:   digest,
		})
	}

	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && nowTick%int64(w.cfg.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop snapshot if sink is backed up.
		}
	}

	m := WorldMetrics{
		Tick:          nowTick,
		Clients:       len(w.clients),
		Tiles:         w.grid.Len(),
		QueuedActions: len(sorted),
		Money:         w.money,
		StepMS:        float64(time.Since(stepStart).Microseconds()) / 1000.0,
	}
	m.QueueDepths.Inbox = len(w.inbox)
	m.QueueDepths.Join = len(w.join)
	m.QueueDepths.Leave = len(w.leave)
	w.metrics.Store(m)
}

// StepOnce advances the world by a single tick with the same ordering
// semantics as the server loop. Intended for deterministic replays/tests.
func (w *World) StepOnce(commands []CommandEnvelope) (tick int64, digest string) {
	w.step(nil, nil, commands)
	tick = w.tick.Load()
	return tick, w.stateDigest(tick)
}

func (w *World) handleJoin(req JoinRequest) {
	id := fmt.Sprintf("C%d", w.nextClientNum.Add(1))
	if req.Out != nil {
		w.clients[id] = &clientState{Out: req.Out}
	}
	resp := JoinResponse{
		ClientID: id,
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			ClientID:        id,
			World: protocol.WorldParams{
				WorldID: w.cfg.ID,
				TickMs:  w.cfg.TickMs,
				Seed:    w.cfg.Seed,
			},
			Catalogs: protocol.CatalogDigests{
				ItemPalette: protocol.DigestRef{Digest: w.catalogs.ItemPaletteDigest},
				TileTable:   protocol.DigestRef{Digest: w.catalogs.TileTableDigest},
				Recipes:     protocol.DigestRef{Digest: w.catalogs.RecipesDigest},
			},
		},
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
