// Schema DDL for the item/event graph. Natural keys are enforced with
// unique indexes; row IDs are UUID v7 TEXT.
package sqlite

const (
	createEngines = `CREATE TABLE IF NOT EXISTS engines (
    engine_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    disabled INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);`

	createActions = `CREATE TABLE IF NOT EXISTS actions (
    action_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createEngineActions = `CREATE TABLE IF NOT EXISTS engine_actions (
    engine_action_id TEXT PRIMARY KEY,
    engine_id TEXT NOT NULL,
    action_id TEXT NOT NULL,
    handler TEXT NOT NULL,
    params TEXT NOT NULL DEFAULT '',
    disabled INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (engine_id) REFERENCES engines(engine_id),
    FOREIGN KEY (action_id) REFERENCES actions(action_id)
);`

	createItems = `CREATE TABLE IF NOT EXISTS items (
    item_id TEXT PRIMARY KEY,
    uri TEXT NOT NULL,
    engine_id TEXT NOT NULL,
    item_dts TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (engine_id) REFERENCES engines(engine_id)
);`

	createItemData = `CREATE TABLE IF NOT EXISTS item_data (
    item_data_id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    data_key TEXT NOT NULL,
    value TEXT NOT NULL,
    seq INTEGER NOT NULL,
    added_at TEXT NOT NULL,
    FOREIGN KEY (item_id) REFERENCES items(item_id)
);`

	createItemEvents = `CREATE TABLE IF NOT EXISTS item_events (
    item_event_id TEXT PRIMARY KEY,
    engine_id TEXT NOT NULL,
    action_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    added_at TEXT NOT NULL,
    completed_at TEXT,
    FOREIGN KEY (engine_id) REFERENCES engines(engine_id),
    FOREIGN KEY (action_id) REFERENCES actions(action_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id)
);`

	createLinkTypes = `CREATE TABLE IF NOT EXISTS link_types (
    link_type_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createItemLinks = `CREATE TABLE IF NOT EXISTS item_links (
    item_link_id TEXT PRIMARY KEY,
    engine_id TEXT NOT NULL,
    left_id TEXT NOT NULL,
    right_id TEXT NOT NULL,
    link_type_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (engine_id) REFERENCES engines(engine_id),
    FOREIGN KEY (left_id) REFERENCES items(item_id),
    FOREIGN KEY (right_id) REFERENCES items(item_id),
    FOREIGN KEY (link_type_id) REFERENCES link_types(link_type_id)
);`

	createConfig = `CREATE TABLE IF NOT EXISTS config (
    config_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createStatus = `CREATE TABLE IF NOT EXISTS status (
    status_id TEXT PRIMARY KEY,
    engine_id TEXT NOT NULL,
    action_id TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
)

const (
	idxEnginesNatural       = `CREATE UNIQUE INDEX IF NOT EXISTS idx_engines_natural ON engines(name, version);`
	idxActionsName          = `CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_name ON actions(name);`
	idxEngineActionsNatural = `CREATE UNIQUE INDEX IF NOT EXISTS idx_engine_actions_natural ON engine_actions(engine_id, action_id, handler);`
	idxItemsURI             = `CREATE UNIQUE INDEX IF NOT EXISTS idx_items_uri ON items(uri);`
	idxItemDataNatural      = `CREATE UNIQUE INDEX IF NOT EXISTS idx_item_data_natural ON item_data(item_id, data_key, seq);`
	idxItemDataKey          = `CREATE INDEX IF NOT EXISTS idx_item_data_key ON item_data(data_key, seq);`
	idxItemEventsNatural    = `CREATE UNIQUE INDEX IF NOT EXISTS idx_item_events_natural ON item_events(engine_id, action_id, item_id);`
	idxItemEventsAction     = `CREATE INDEX IF NOT EXISTS idx_item_events_action ON item_events(action_id, added_at);`
	idxLinkTypesName        = `CREATE UNIQUE INDEX IF NOT EXISTS idx_link_types_name ON link_types(name);`
	idxItemLinksNatural     = `CREATE UNIQUE INDEX IF NOT EXISTS idx_item_links_natural ON item_links(left_id, right_id, link_type_id);`
	idxItemLinksRight       = `CREATE INDEX IF NOT EXISTS idx_item_links_right ON item_links(right_id);`
	idxConfigName           = `CREATE UNIQUE INDEX IF NOT EXISTS idx_config_name ON config(name);`
	idxStatusCreated        = `CREATE INDEX IF NOT EXISTS idx_status_created ON status(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createEngines,
	createActions,
	createEngineActions,
	createItems,
	createItemData,
	createItemEvents,
	createLinkTypes,
	createItemLinks,
	createConfig,
	createStatus,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEnginesNatural,
	idxActionsName,
	idxEngineActionsNatural,
	idxItemsURI,
	idxItemDataNatural,
	idxItemDataKey,
	idxItemEventsNatural,
	idxItemEventsAction,
	idxLinkTypesName,
	idxItemLinksNatural,
	idxItemLinksRight,
	idxConfigName,
	idxStatusCreated,
}
