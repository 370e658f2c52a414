// Package driver runs an engine's declared actions against the item/event
// graph store: it pulls pending work, invokes handlers per item, records
// completion, and commits in batches with cooperative pause via the
// RunQueue config flag.
package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// State is the lifecycle of one engine runner.
type State string

const (
	StateInitialized State = "Initialized"
	StateStarted     State = "Started"
	StateRunning     State = "Running"
	StateWaiting     State = "Waiting"
	StateDying       State = "Dying"
)

// Handler processes one item URI. Handlers are expected to log their own
// failures; a returned error is recorded but never aborts the batch, and
// the item is marked complete regardless so a poisoned item cannot wedge
// the queue forever.
type Handler func(uri string) error

// ActionSpec is one entry of an engine's immutable action table, built
// once at engine construction.
type ActionSpec struct {
	// Name is the action row name (e.g. "checksum").
	Name string

	// Handler is the handler name recorded in the engine_actions
	// declaration.
	Handler string

	// Tags lists the item-data tags the action needs. A nil Tags marks a
	// self-starting action: invoked once per Run with an empty URI
	// instead of being fed from the work queue.
	Tags []string

	// Run is the handler function.
	Run Handler
}

// Engine is the contract a processing unit implements to be driven.
type Engine interface {
	// Info returns the engine's registration identity.
	Info() (name, version, descr string)

	// Actions returns the engine's action table.
	Actions() []ActionSpec
}

// Initializer is implemented by engines that seed items or data once
// they know their engine ID.
type Initializer interface {
	Init(engineID string) error
}

// Defaults for Runner tuning knobs.
const (
	DefaultCommitEvery = 1000
	DefaultMonthsBack  = -3
)

// Runner drives one engine against the store. Single-threaded: one Run
// call executes to completion (or early stop) before returning.
type Runner struct {
	// CommitEvery is the batch size between commits, throughput logs,
	// and RunQueue polls.
	CommitEvery int

	// MonthsBack bounds the work-queue query's trailing window.
	MonthsBack int

	// Throttle enables the randomized 1-10 unit politeness delay between
	// items.
	Throttle bool

	// ThrottleUnit is the delay unit; one second unless overridden.
	ThrottleUnit time.Duration

	store    types.Store
	engine   Engine
	logger   *slog.Logger
	engineID string
	state    State
}

// New creates a Runner with default tuning.
func New(store types.Store, engine Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		CommitEvery:  DefaultCommitEvery,
		MonthsBack:   DefaultMonthsBack,
		ThrottleUnit: time.Second,
		store:        store,
		engine:       engine,
		logger:       logger,
		state:        StateInitialized,
	}
}

// State returns the runner's lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// EngineID returns the registered engine row ID, empty before Register.
func (r *Runner) EngineID() string {
	return r.engineID
}

// Register creates the engine row and its action declarations, runs the
// engine's Init seeding if implemented, and commits.
func (r *Runner) Register() error {
	name, version, descr := r.engine.Info()

	engineID, err := r.store.AddEngine(name, version, descr)
	if err != nil {
		return fmt.Errorf("registering engine %s: %w", name, err)
	}
	r.engineID = engineID

	for _, spec := range r.engine.Actions() {
		if _, err := r.store.AddEngineAction(engineID, spec.Name, spec.Handler, ""); err != nil {
			return fmt.Errorf("declaring action %s.%s: %w", name, spec.Name, err)
		}
	}

	if init, ok := r.engine.(Initializer); ok {
		if err := init.Init(engineID); err != nil {
			return fmt.Errorf("initializing engine %s: %w", name, err)
		}
	}

	if err := r.store.Commit(); err != nil {
		return err
	}

	r.state = StateStarted
	r.logger.Info("engine registered", "engine", name, "version", version, "id", engineID)
	return nil
}

// Run iterates the engine's action table once. Self-starting actions are
// invoked directly; queue-backed actions go through RunAction. Disabled
// engines and disabled action declarations are skipped; a gate row that
// does not exist counts as enabled.
func (r *Runner) Run() error {
	if r.engineID == "" {
		if err := r.Register(); err != nil {
			return err
		}
	}

	name, _, _ := r.engine.Info()

	if r.gateClosed(r.store.EngineDisabled(r.engineID)) {
		r.logger.Info("engine disabled, skipping run", "engine", name)
		return nil
	}

	for _, spec := range r.engine.Actions() {
		if r.gateClosed(r.store.EngineActionDisabled(r.engineID, spec.Name, spec.Handler)) {
			r.logger.Info("action disabled, skipping", "engine", name, "action", spec.Name)
			continue
		}

		if spec.Tags == nil {
			r.state = StateRunning
			r.logger.Info("running action", "engine", name, "handler", spec.Handler)
			if err := spec.Run(""); err != nil {
				r.logger.Error("handler failed", "engine", name, "handler", spec.Handler, "error", err)
			}
			continue
		}

		if err := r.RunAction(spec); err != nil {
			return err
		}
	}

	if err := r.store.Commit(); err != nil {
		return err
	}
	r.state = StateWaiting
	return nil
}

// RunAction processes the pending work queue of one action. Every item is
// marked complete after its handler returns, success or not. Every
// CommitEvery items the runner commits, logs throughput, and polls the
// RunQueue flag; the stopped value breaks the loop between items, leaving
// the remainder pending for the next invocation.
func (r *Runner) RunAction(spec ActionSpec) error {
	name, _, _ := r.engine.Info()

	actionID, err := r.store.AddAction(spec.Name)
	if err != nil {
		return fmt.Errorf("resolving action %s: %w", spec.Name, err)
	}

	items, err := r.store.PendingItems(r.engineID, spec.Name, false, r.MonthsBack)
	if err != nil {
		return fmt.Errorf("fetching work for %s: %w", spec.Name, err)
	}

	r.state = StateRunning
	r.logger.Info("running action", "engine", name, "handler", spec.Handler, "pending", len(items))

	commitEvery := r.CommitEvery
	if commitEvery <= 0 {
		commitEvery = DefaultCommitEvery
	}

	total := len(items)
	start := time.Now()

	for i, item := range items {
		if err := spec.Run(item.URI); err != nil {
			r.logger.Error("handler failed",
				"engine", name, "action", spec.Name, "uri", item.URI, "error", err)
		}

		// Completion is unconditional: a failing item must not stay in
		// the queue to be retried forever.
		if err := r.store.CompleteItem(r.engineID, item.ItemID, actionID, time.Now()); err != nil {
			r.logger.Error("completion marking failed",
				"engine", name, "action", spec.Name, "item", item.ItemID, "error", err)
		}

		done := i + 1
		if done%commitEvery == 0 {
			if err := r.store.Commit(); err != nil {
				return err
			}

			step := time.Since(start) / time.Duration(done)
			eta := step * time.Duration(total-done)
			r.logger.Info("processing",
				"engine", name, "action", spec.Name,
				"done", done, "total", total, "eta", eta, "per_item", step)

			if r.queueStopped() {
				r.logger.Info("run queue stopped, halting batch",
					"engine", name, "action", spec.Name, "done", done, "total", total)
				break
			}
		}

		if r.Throttle {
			time.Sleep(time.Duration(rand.Intn(10)+1) * r.ThrottleUnit)
		}
	}

	if err := r.store.Commit(); err != nil {
		return err
	}
	r.state = StateWaiting
	return nil
}

// Stop marks the runner dying. Cancellation of a running batch is
// cooperative and happens through the RunQueue flag, not here.
func (r *Runner) Stop() {
	r.state = StateDying
}

// gateClosed interprets a disabled-flag lookup: a missing gate row counts
// as enabled, any other lookup failure is logged and fails open so a
// transient read error cannot silence an engine.
func (r *Runner) gateClosed(disabled bool, err error) bool {
	if err == nil {
		return disabled
	}
	if errors.Is(err, types.ErrNotFound) {
		return false
	}
	r.logger.Error("gate lookup failed", "error", err)
	return false
}

// queueStopped polls the persisted RunQueue flag.
func (r *Runner) queueStopped() bool {
	value, err := r.store.Config(types.ConfigRunQueue)
	if err != nil {
		// Absent flag means nobody asked for a pause.
		return false
	}
	return value == types.RunQueueStopped
}
