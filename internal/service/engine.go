package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/netmon"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/models"
)

// SyncEngine is the facade over the sync subsystem. It owns lifecycle and
// scheduling; all durable state lives in the persistent store, so an engine
// can be stopped and rebuilt at any time without losing progress.
type SyncEngine struct {
	cfg         config.Engine
	storages    *store.Storages
	coordinator SyncCoordinator
	tracker     ChangeTracker
	resolver    ConflictResolver
	monitor     netmon.Monitor
	logger      *logger.Logger

	mu          sync.Mutex
	initialized bool
	baseCtx     context.Context
	tickCancel  context.CancelFunc
	unsubscribe func()
	debounce    *debouncer
	wg          sync.WaitGroup

	inFlight   atomic.Int32
	authFailed atomic.Bool

	lastErrMu sync.Mutex
	lastErr   error

	subsMu     sync.Mutex
	subs       map[int64]func(models.EngineStatus)
	nextSubID  int64
	lastStatus models.EngineStatus
	hasStatus  bool
}

var _ Engine = (*SyncEngine)(nil)

func NewSyncEngine(
	cfg config.Engine,
	storages *store.Storages,
	coordinator SyncCoordinator,
	tracker ChangeTracker,
	resolver ConflictResolver,
	monitor netmon.Monitor,
	logger *logger.Logger,
) *SyncEngine {
	return &SyncEngine{
		cfg:         cfg,
		storages:    storages,
		coordinator: coordinator,
		tracker:     tracker,
		resolver:    resolver,
		monitor:     monitor,
		logger:      logger,
		subs:        make(map[int64]func(models.EngineStatus)),
	}
}

// Initialize subscribes to network transitions and, when sync is enabled,
// starts the periodic cycle ticker. Cycles run on a context detached from
// ctx's cancellation so that shutting down the caller never aborts a push
// mid-acknowledgement.
func (e *SyncEngine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}

	e.baseCtx = context.WithoutCancel(ctx)
	tickCtx, tickCancel := context.WithCancel(context.Background())
	e.tickCancel = tickCancel
	e.debounce = newDebouncer(e.cfg.DebounceDelay, e.syncAsync)
	e.initialized = true

	if e.cfg.Enabled {
		e.wg.Add(1)
		go e.tickLoop(tickCtx)
	}
	e.mu.Unlock()

	// A transition to online fires exactly one out-of-band cycle; missed
	// ticks while offline are not replayed.
	e.unsubscribe = e.monitor.Subscribe(func(online bool) {
		if online {
			e.syncAsync()
		}
		e.notifyStatus()
	})

	e.notifyStatus()

	e.logger.Info().
		Str("func", "SyncEngine.Initialize").
		Bool("enabled", e.cfg.Enabled).
		Dur("sync_interval", e.cfg.SyncInterval).
		Msg("sync engine initialized")

	return nil
}

// Shutdown stops scheduling, waits for any in-flight cycle to finish
// naturally, and releases the storage handle. Safe to call when the engine
// was never initialized (no-op).
func (e *SyncEngine) Shutdown() {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return
	}
	e.initialized = false
	tickCancel := e.tickCancel
	unsubscribe := e.unsubscribe
	debounce := e.debounce
	e.tickCancel = nil
	e.unsubscribe = nil
	e.mu.Unlock()

	if debounce != nil {
		debounce.Stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	if tickCancel != nil {
		tickCancel()
	}

	e.wg.Wait()

	if err := e.storages.Close(); err != nil {
		e.logger.Err(err).
			Str("func", "SyncEngine.Shutdown").
			Msg("failed to close local database")
	}

	e.logger.Info().
		Str("func", "SyncEngine.Shutdown").
		Msg("sync engine stopped")
}

func (e *SyncEngine) QueueChange(ctx context.Context, note models.Note, op models.Operation) error {
	if _, err := e.tracker.TrackChange(ctx, note, op); err != nil {
		return err
	}

	e.scheduleDebounced()
	return nil
}

func (e *SyncEngine) QueueDelete(ctx context.Context, noteID string) error {
	if _, err := e.tracker.TrackDelete(ctx, noteID); err != nil {
		return err
	}

	e.scheduleDebounced()
	return nil
}

// TriggerSync runs one coordinator cycle. A call while a cycle is in flight
// joins it and returns the shared result. On success the lastSyncAt metadata
// is advanced; on failure the error is routed through the status path in
// addition to being returned.
func (e *SyncEngine) TriggerSync(ctx context.Context) (models.SyncReport, error) {
	if !e.cfg.Enabled {
		return models.SyncReport{}, ErrSyncDisabled
	}
	if !e.monitor.Online() {
		return models.SyncReport{}, ErrOffline
	}

	e.inFlight.Add(1)
	e.notifyStatus()

	report, err := e.coordinator.RunCycle(ctx)

	e.inFlight.Add(-1)
	e.setLastError(err)

	if err != nil {
		e.notifyStatus()
		return report, err
	}

	if mErr := e.storages.Metadata.Set(ctx, store.MetaKeyLastSyncAt,
		time.Now().UTC().Format(time.RFC3339)); mErr != nil {
		e.notifyStatus()
		return report, mErr
	}

	e.notifyStatus()
	return report, nil
}

func (e *SyncEngine) Conflicts(ctx context.Context) ([]models.SyncConflict, error) {
	return e.resolver.Conflicts(ctx)
}

func (e *SyncEngine) ResolveConflict(ctx context.Context, noteID string, resolution models.Resolution) error {
	if err := e.resolver.Resolve(ctx, noteID, resolution); err != nil {
		return err
	}

	e.notifyStatus()
	e.scheduleDebounced()
	return nil
}

// Status derives the aggregate engine state in fixed precedence order:
// disabled, offline, syncing, error (conflicts or a rejected credential),
// idle.
func (e *SyncEngine) Status(ctx context.Context) models.EngineStatus {
	switch {
	case !e.cfg.Enabled:
		return models.EngineDisabled
	case !e.monitor.Online():
		return models.EngineOffline
	case e.inFlight.Load() > 0:
		return models.EngineSyncing
	}

	if e.authFailed.Load() {
		return models.EngineError
	}

	count, err := e.storages.Conflicts.Count(ctx)
	if err != nil {
		e.logger.Err(err).
			Str("func", "SyncEngine.Status").
			Msg("failed to count conflicts for status")
		return models.EngineError
	}
	if count > 0 {
		return models.EngineError
	}

	return models.EngineIdle
}

// LastSyncError returns the failure of the most recent cycle, or nil after a
// successful one.
func (e *SyncEngine) LastSyncError() error {
	e.lastErrMu.Lock()
	defer e.lastErrMu.Unlock()
	return e.lastErr
}

// OnStatusChange registers fn and immediately invokes it with the current
// status. Each listener invocation is isolated: a panicking subscriber never
// breaks propagation to the others nor aborts a sync cycle.
func (e *SyncEngine) OnStatusChange(fn func(models.EngineStatus)) func() {
	e.subsMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = fn
	current := e.lastStatus
	hasStatus := e.hasStatus
	e.subsMu.Unlock()

	if !hasStatus {
		current = e.Status(context.Background())
	}
	invokeStatusListener(fn, current)

	return func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
}

func (e *SyncEngine) tickLoop(ctx context.Context) {
	defer e.wg.Done()

	t := time.NewTicker(e.cfg.SyncInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if e.monitor.Online() {
				e.runReported()
			}
		}
	}
}

// syncAsync launches one background cycle, joining any in-flight one. Used
// by the debouncer and the online-transition hook.
func (e *SyncEngine) syncAsync() {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.runReported()
	}()
}

// runReported runs a cycle on the detached base context. Failures are
// already surfaced through setLastError/notifyStatus inside TriggerSync;
// the log line here is for operators, not the only sink.
func (e *SyncEngine) runReported() {
	e.mu.Lock()
	ctx := e.baseCtx
	e.mu.Unlock()
	if ctx == nil {
		return
	}

	if _, err := e.TriggerSync(ctx); err != nil &&
		!errors.Is(err, ErrOffline) && !errors.Is(err, ErrSyncDisabled) {
		e.logger.Err(err).
			Str("func", "SyncEngine.runReported").
			Msg("background sync cycle failed")
	}
}

func (e *SyncEngine) scheduleDebounced() {
	if !e.cfg.Enabled || !e.monitor.Online() {
		return
	}

	e.mu.Lock()
	debounce := e.debounce
	e.mu.Unlock()

	if debounce != nil {
		debounce.Trigger()
	}
}

func (e *SyncEngine) setLastError(err error) {
	e.lastErrMu.Lock()
	e.lastErr = err
	e.lastErrMu.Unlock()

	e.authFailed.Store(err != nil && errors.Is(err, adapter.ErrUnauthorized))
}

// notifyStatus recomputes the aggregate status and, when it changed, fans it
// out to every subscriber with per-listener isolation.
func (e *SyncEngine) notifyStatus() {
	status := e.Status(context.Background())

	e.subsMu.Lock()
	if e.hasStatus && status == e.lastStatus {
		e.subsMu.Unlock()
		return
	}
	e.lastStatus = status
	e.hasStatus = true
	listeners := make([]func(models.EngineStatus), 0, len(e.subs))
	for _, fn := range e.subs {
		listeners = append(listeners, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range listeners {
		invokeStatusListener(fn, status)
	}
}

func invokeStatusListener(fn func(models.EngineStatus), status models.EngineStatus) {
	defer func() {
		_ = recover()
	}()
	fn(status)
}
