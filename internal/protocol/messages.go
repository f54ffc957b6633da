package protocol

// HelloMsg opens a session. Observers send no commands afterward; builders
// do. The server does not distinguish the two at handshake time.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name,omitempty"`
}

// DigestRef points a client at a cacheable static table.
type DigestRef struct {
	Digest string `json:"digest"`
}

// CatalogDigests covers every static table a client may cache.
type CatalogDigests struct {
	ItemPalette DigestRef `json:"item_palette"`
	TileTable   DigestRef `json:"tile_table"`
	Recipes     DigestRef `json:"recipes"`
}

// WorldParams are the immutable facts of the joined world.
type WorldParams struct {
	WorldID string `json:"world_id"`
	TickMs  int    `json:"tick_ms"`
	Seed    int64  `json:"seed"`
}

type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ClientID        string         `json:"client_id"`
	World           WorldParams    `json:"world"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

// Command types carried inside an ACT.
const (
	CmdPlace         = "PLACE"
	CmdRemove        = "REMOVE"
	CmdRedeem        = "REDEEM"
	CmdConfigureCore = "CONFIGURE_CORE"
	CmdSetHotkey     = "SET_HOTKEY"
)

// CommandReq is one player command. Fields beyond ID and Type are
// command-specific; unused ones stay at their zero value.
type CommandReq struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	Pos  *[2]int `json:"pos,omitempty"`
	Tile string  `json:"tile,omitempty"`
	Dir  string  `json:"dir,omitempty"`
	Slot int     `json:"slot,omitempty"`
}

// ActMsg batches commands from one client. All of them are applied at the
// next tick boundary, in order.
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Commands        []CommandReq `json:"commands"`
}

// ResultEvent reports the outcome of one command, keyed by its request id.
type ResultEvent struct {
	Ref    string `json:"ref"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// LaneState is one junction channel on the wire.
type LaneState struct {
	Item string `json:"item"`
	From string `json:"from"`
}

// ItemCount is one inventory line.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// TileState is the wire form of one tile. Kind-specific fields are omitted
// when empty.
type TileState struct {
	Pos        [2]int      `json:"pos"`
	Kind       string      `json:"kind"`
	Tile       string      `json:"tile"`
	Dir        string      `json:"dir,omitempty"`
	Item       string      `json:"item,omitempty"`
	Inventory  []ItemCount `json:"inventory,omitempty"`
	Progress   int         `json:"progress,omitempty"`
	Interval   int         `json:"interval,omitempty"`
	LastOutput int         `json:"last_output,omitempty"`
	Horizontal *LaneState  `json:"horizontal,omitempty"`
	Vertical   *LaneState  `json:"vertical,omitempty"`
	Target     string      `json:"target,omitempty"`
}

// MoveState is one transfer committed for the tick in progress, for
// animation.
type MoveState struct {
	From [2]int `json:"from"`
	To   [2]int `json:"to"`
	Item string `json:"item"`
}

// LedgerEntry is one tile-credit line.
type LedgerEntry struct {
	Tile  string `json:"tile"`
	Count int    `json:"count"`
}

// StateMsg is the full per-tick broadcast. Results only appear on the copy
// sent to the client whose commands they answer.
type StateMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            int64         `json:"tick"`
	Money           int           `json:"money"`
	Ledger          []LedgerEntry `json:"ledger,omitempty"`
	Tiles           []TileState   `json:"tiles"`
	Moves           []MoveState   `json:"moves,omitempty"`
	PendingActions  int           `json:"pending_actions"`
	Results         []ResultEvent `json:"results,omitempty"`
	Digest          string        `json:"digest"`
}

// ErrorMsg is sent before closing a connection that failed the handshake.
type ErrorMsg struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}
