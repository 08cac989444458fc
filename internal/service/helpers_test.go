package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/models"
)

// newTestStorages opens a real SQLite store in a temp dir. The service tests
// run on the real persistence layer; only transport and connectivity are
// faked.
func newTestStorages(t *testing.T) *store.Storages {
	t.Helper()

	storages, err := store.NewStorages(context.Background(), config.Storage{
		DBPath: filepath.Join(t.TempDir(), "sync.db"),
	}, logger.Nop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = storages.Close() })
	return storages
}

// memDocs is an in-memory DocumentStore. Same-package stub instead of a
// generated mock to avoid an import cycle with the mock package.
type memDocs struct {
	mu      sync.Mutex
	notes   map[string]models.Note
	saveErr error
}

func newMemDocs() *memDocs {
	return &memDocs{notes: make(map[string]models.Note)}
}

func (d *memDocs) ReadNote(_ context.Context, id string) (models.Note, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	note, ok := d.notes[id]
	if !ok {
		return models.Note{}, errors.New("note not found")
	}
	return note, nil
}

func (d *memDocs) SaveNote(_ context.Context, note models.Note) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.saveErr != nil {
		return d.saveErr
	}
	d.notes[note.ID] = note
	return nil
}

func (d *memDocs) DeleteNote(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.notes, id)
	return nil
}

func (d *memDocs) get(id string) (models.Note, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	note, ok := d.notes[id]
	return note, ok
}

func (d *memDocs) put(note models.Note) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.notes[note.ID] = note
}

// stubMonitor is a controllable netmon.Monitor for engine tests.
type stubMonitor struct {
	mu     sync.Mutex
	online bool
	nextID int64
	subs   map[int64]func(online bool)
}

func newStubMonitor(online bool) *stubMonitor {
	return &stubMonitor{online: online, subs: make(map[int64]func(online bool))}
}

func (m *stubMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *stubMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *stubMonitor) flip(online bool) {
	m.mu.Lock()
	m.online = online
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// stubCoordinator counts cycles for engine scheduling tests.
type stubCoordinator struct {
	mu      sync.Mutex
	cycles  int
	report  models.SyncReport
	err     error
	blockCh chan struct{}
}

func (c *stubCoordinator) RunCycle(context.Context) (models.SyncReport, error) {
	if c.blockCh != nil {
		<-c.blockCh
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles++
	return c.report, c.err
}

func (c *stubCoordinator) Syncing() bool { return false }

func (c *stubCoordinator) cycleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

func (c *stubCoordinator) setResult(report models.SyncReport, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = report
	c.err = err
}
