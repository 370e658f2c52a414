package driver_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackingturtles/peregrin/internal/driver"
	"github.com/stackingturtles/peregrin/internal/sqlite"
	"github.com/stackingturtles/peregrin/pkg/types"
)

func setupStore(t *testing.T) types.Store {
	t.Helper()

	store, err := sqlite.Open(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEngine seeds items from its self-starting action and records every
// URI its queue-backed handler receives.
type stubEngine struct {
	store    types.Store
	engineID string
	seed     []string
	inited   bool

	scanned   []string
	processed []string
	onProcess func(uri string) error
}

func (e *stubEngine) Info() (string, string, string) {
	return "StubEngine", "1.0", "test fixture"
}

func (e *stubEngine) Init(engineID string) error {
	e.engineID = engineID
	e.inited = true
	return nil
}

func (e *stubEngine) Actions() []driver.ActionSpec {
	return []driver.ActionSpec{
		{Name: "scan", Handler: "scanAll", Tags: nil, Run: e.scan},
		{Name: "process", Handler: "processOne", Tags: []string{"process"}, Run: e.process},
	}
}

func (e *stubEngine) scan(uri string) error {
	e.scanned = append(e.scanned, uri)
	for _, seed := range e.seed {
		if _, err := e.store.AddItem(e.engineID, seed, time.Now(), []string{"process"}); err != nil {
			return err
		}
	}
	return nil
}

func (e *stubEngine) process(uri string) error {
	e.processed = append(e.processed, uri)
	if e.onProcess != nil {
		return e.onProcess(uri)
	}
	return nil
}

func seeds(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("file:///data/item-%03d", i))
	}
	return out
}

func TestRunDrainsQueue(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{store: store, seed: seeds(5)}

	runner := driver.New(store, engine, discard())
	require.NoError(t, runner.Run())

	assert.True(t, engine.inited)
	assert.Equal(t, []string{""}, engine.scanned, "self-starting action runs once with an empty URI")
	assert.ElementsMatch(t, engine.seed, engine.processed)
	assert.Equal(t, driver.StateWaiting, runner.State())

	pending, err := store.PendingItems(runner.EngineID(), "process", false, driver.DefaultMonthsBack)
	require.NoError(t, err)
	assert.Empty(t, pending, "drained queue leaves nothing pending")
}

func TestRunActionCompletesFailingItems(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{
		store: store,
		seed:  seeds(3),
		onProcess: func(string) error {
			return errors.New("boom")
		},
	}

	runner := driver.New(store, engine, discard())
	require.NoError(t, runner.Run())

	assert.Len(t, engine.processed, 3)

	// A failing handler must not leave its item in the queue.
	pending, err := store.PendingItems(runner.EngineID(), "process", false, driver.DefaultMonthsBack)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunQueueStopsBatchEarly(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{store: store, seed: seeds(6)}
	engine.onProcess = func(string) error {
		if len(engine.processed) == 2 {
			return store.SetConfig(engine.engineID, types.ConfigRunQueue, types.RunQueueStopped)
		}
		return nil
	}

	runner := driver.New(store, engine, discard())
	runner.CommitEvery = 2
	require.NoError(t, runner.Run())

	assert.Len(t, engine.processed, 2, "batch halts at the first poll after the flag drops")

	pending, err := store.PendingItems(runner.EngineID(), "process", false, driver.DefaultMonthsBack)
	require.NoError(t, err)
	assert.Len(t, pending, 4, "unprocessed items stay pending for the next run")
}

func TestRunSkipsDisabledEngine(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{store: store, seed: seeds(2)}

	runner := driver.New(store, engine, discard())
	require.NoError(t, runner.Register())

	require.NoError(t, store.SetEngineDisabled(runner.EngineID(), true))

	require.NoError(t, runner.Run())
	assert.Empty(t, engine.scanned)
	assert.Empty(t, engine.processed)
}

func TestRunSkipsDisabledAction(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{store: store, seed: seeds(2)}

	runner := driver.New(store, engine, discard())
	require.NoError(t, runner.Register())

	require.NoError(t, store.SetEngineActionDisabled(runner.EngineID(), "process", "processOne", true))

	require.NoError(t, runner.Run())
	assert.Equal(t, []string{""}, engine.scanned, "other actions still run")
	assert.Empty(t, engine.processed)
}

func TestRegisterIsIdempotent(t *testing.T) {
	store := setupStore(t)
	engine := &stubEngine{store: store}

	first := driver.New(store, engine, discard())
	require.NoError(t, first.Register())

	second := driver.New(store, engine, discard())
	require.NoError(t, second.Register())

	assert.Equal(t, first.EngineID(), second.EngineID())
	assert.Equal(t, driver.StateStarted, second.State())
}
