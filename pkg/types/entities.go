package types

import "time"

// Link type names used throughout the engines. AddItemLink accepts any
// name; these are the conventional ones.
const (
	LinkTypeContains = "contains" // parent item → child item
	LinkTypeSearch   = "search"   // search marker → result item
	LinkTypeDownload = "download" // source item → downloaded item
)

// Well-known config keys.
const (
	// ConfigRunQueue is the persisted pause flag polled by the batch
	// driver between commit batches.
	ConfigRunQueue = "RunQueue"

	// RunQueueStopped is the RunQueue value that halts a running batch.
	RunQueueStopped = "0"

	// RunQueueRunning is the RunQueue value that lets batches proceed.
	RunQueueRunning = "1"
)

// Engine represents a registered processing unit (scraper, scanner,
// importer). Unique by (Name, Version).
type Engine struct {
	EngineID    string // UUID v7, generated on creation.
	Name        string
	Version     string
	Description string
	Disabled    bool
	CreatedAt   time.Time
}

// Action is a named category of work an engine can perform. Unique by Name.
type Action struct {
	ActionID string
	Name     string
}

// EngineAction declares that an engine supports an action via a named
// handler. Unique by (EngineID, ActionID, Handler); disableable
// independently of the engine.
type EngineAction struct {
	EngineActionID string
	EngineID       string
	ActionID       string
	ActionName     string
	Handler        string
	Params         string
	Disabled       bool
}

// Item is any URI-addressable resource node: a URL, file path, folder, or
// synthetic keyword/marker URI. The URI is globally unique regardless of
// the owning engine.
type Item struct {
	ItemID    string
	URI       string
	EngineID  string
	ItemDTS   time.Time // caller-supplied content date, distinct from CreatedAt
	CreatedAt time.Time
}

// ItemDatum is one keyed, sequenced attribute attached to an item.
// Unique by (ItemID, Key, Seq); never overwritten by AddItemData.
type ItemDatum struct {
	ItemDataID string
	ItemID     string
	Key        string
	Value      string
	Seq        int
	AddedAt    time.Time
}

// ItemEvent is the pending/completed marker for one unit of scheduled
// (engine, action, item) work. A nil CompletedAt means pending.
type ItemEvent struct {
	ItemEventID string
	EngineID    string
	ActionID    string
	ItemID      string
	AddedAt     time.Time
	CompletedAt *time.Time
}

// LinkType names a kind of edge between items. Unique by Name.
type LinkType struct {
	LinkTypeID string
	Name       string
}

// ItemLink is a directed, typed edge between two items. The graph may
// contain cycles; "contains" usage is conventionally tree-shaped.
type ItemLink struct {
	ItemLinkID string
	EngineID   string
	LeftID     string
	RightID    string
	LinkTypeID string
	CreatedAt  time.Time
}

// ConfigEntry is one row of the key-value config store.
type ConfigEntry struct {
	ConfigID  string
	Name      string
	Value     string
	UpdatedAt time.Time
}

// Status is one line of the append-only audit trail.
type Status struct {
	StatusID  string
	EngineID  string
	ActionID  string
	Message   string
	CreatedAt time.Time
}
