package types

import "time"

// WorkItem is one entry of the work-queue query: the item to process and
// its URI, which is what handlers receive.
type WorkItem struct {
	ItemID string
	URI    string
}

// TreeNode carries the descriptive fields of one item in a link closure.
// Absent values are nil pointers rather than the legacy "NULL" marker
// string; callers diffing trees compare map keys only.
type TreeNode struct {
	ItemID   string
	Name     *string   // ItemData "FileName" seq 0, when present
	Modified time.Time // the item's ItemDTS
	Size     *string   // ItemData "FileSize" seq 0, when present
}

// Store is the contract between engines and the graph store. Every Add
// method is get-or-create by natural key: a second call with an identical
// key returns the existing row's ID and inserts nothing.
//
// Writes accumulate in an open transaction until Commit; the batch driver
// decides the commit cadence.
type Store interface {
	// AddEngine registers an engine by (name, version) and returns its ID.
	AddEngine(name, version, descr string) (string, error)

	// EngineDisabled reports the engine's disabled flag.
	// Returns ErrNotFound for an unknown engine; callers choose the
	// fail-safe default.
	EngineDisabled(engineID string) (bool, error)

	// SetEngineDisabled flips an engine's disabled gate.
	// Returns ErrNotFound for an unknown engine.
	SetEngineDisabled(engineID string, disabled bool) error

	// AddAction resolves or creates an action by name.
	AddAction(name string) (string, error)

	// AddEngineAction declares that engineID supports actionName via the
	// named handler function.
	AddEngineAction(engineID, actionName, handler, params string) (string, error)

	// EngineActionDisabled reports the disabled flag of one engine-action
	// declaration. Returns ErrNotFound when the declaration is absent.
	EngineActionDisabled(engineID, actionName, handler string) (bool, error)

	// SetEngineActionDisabled flips one declaration's disabled gate.
	// Returns ErrNotFound when the declaration is absent.
	SetEngineActionDisabled(engineID, actionName, handler string, disabled bool) error

	// EngineActions lists the enabled action declarations of an engine
	// that still have pending events.
	EngineActions(engineID string) ([]EngineAction, error)

	// AddItem gets or creates the item by URI, then creates a pending
	// event for every tag in every tag group — even when the item already
	// existed. itemDate is the item's content date, not the row creation
	// time.
	AddItem(engineID, uri string, itemDate time.Time, tagGroups ...[]string) (string, error)

	// AddNewItem is AddItem except that tag linking is skipped entirely
	// when the item pre-exists.
	AddNewItem(engineID, uri string, itemDate time.Time, tagGroups ...[]string) (string, error)

	// ItemURI returns the URI of an item, or ErrNotFound.
	ItemURI(itemID string) (string, error)

	// AddItemData gets or creates the (itemID, key, seq) attribute.
	// An existing row keeps its value.
	AddItemData(itemID, key, value string, seq int) (string, error)

	// ItemByData returns the ID of the item holding the given key at the
	// given sequence, or ErrNotFound.
	ItemByData(key string, seq int) (string, error)

	// ItemDataList returns all values of key on one item, ordered by value.
	ItemDataList(itemID, key string) ([]string, error)

	// ItemDataValues returns the distinct values of key across all items.
	ItemDataValues(key string) ([]string, error)

	// ItemDataAll returns every (key, value) attribute of an item in
	// insertion order.
	ItemDataAll(itemID string) ([]ItemDatum, error)

	// AddLinkType resolves or creates a link type by name.
	AddLinkType(name string) (string, error)

	// AddItemLink gets or creates the directed (left, right, linkType)
	// edge, resolving the link type by name.
	AddItemLink(engineID, leftID, rightID, linkType string) (string, error)

	// ItemChildren returns values of dataKey not yet linked as a child of
	// rootID under linkType — the anti-join discovery helper.
	ItemChildren(rootID, dataKey, linkType string) ([]string, error)

	// ItemTree returns the transitive closure of items reachable from
	// rootID via links, keyed by URI. The root itself is excluded.
	ItemTree(engineID, rootID string) (map[string]TreeNode, error)

	// AddItemEvent schedules pending (engine, action, item) work.
	AddItemEvent(engineID, actionID, itemID string) (string, error)

	// CompleteItem stamps the event's completion time, creating the event
	// with completion pre-set when it was never scheduled.
	CompleteItem(engineID, itemID, actionID string, completed time.Time) error

	// PendingItems is the work-queue query. With findOthers false it
	// returns items holding a pending event for this exact (engine,
	// action) pair. With findOthers true it returns items that have an
	// event for the action under any engine but no completed event under
	// this engine. monthsBack (negative) bounds the event add time to a
	// trailing window.
	PendingItems(engineID, actionName string, findOthers bool, monthsBack int) ([]WorkItem, error)

	// Config returns a config value, or ErrNotFound.
	Config(name string) (string, error)

	// SetConfig inserts or updates a config value, logging a CONFIG NEW
	// or CONFIG CHANGE status line. An unchanged value writes nothing.
	SetConfig(engineID, name, value string) error

	// AddStatus appends one line to the audit trail.
	AddStatus(engineID, actionID, message string) error

	// RecentStatus returns the newest status lines, newest first.
	RecentStatus(limit int) ([]Status, error)

	// Commit flushes the open transaction and starts a new one.
	Commit() error

	// Close commits outstanding writes and releases the database.
	// Idempotent.
	Close() error
}
