package service

import (
	"context"
	"fmt"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/netmon"
	"github.com/notablehq/notesync/internal/store"
)

// Services bundles the sync core for callers that want the individual
// collaborators as well as the engine facade.
type Services struct {
	Tracker     ChangeTracker
	Resolver    ConflictResolver
	Coordinator SyncCoordinator
	Engine      *SyncEngine

	// DeviceID is the stable installation identity used on the wire.
	DeviceID string
}

// NewServices wires the sync core: device identity is ensured first (it is
// stamped on every pushed change), then tracker, resolver, coordinator and
// engine are built over the shared storages.
func NewServices(
	ctx context.Context,
	cfg *config.Config,
	storages *store.Storages,
	transport adapter.SyncTransport,
	monitor netmon.Monitor,
	docs DocumentStore,
	log *logger.Logger,
) (*Services, error) {
	deviceID, err := storages.Metadata.EnsureDeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure device id: %w", err)
	}

	resolver := NewConflictResolver(storages, docs, log)
	tracker := NewChangeTracker(storages, log)
	coordinator := NewSyncCoordinator(storages, transport, resolver, docs, deviceID, cfg.Engine.PushBatchSize, log)
	engine := NewSyncEngine(cfg.Engine, storages, coordinator, tracker, resolver, monitor, log)

	return &Services{
		Tracker:     tracker,
		Resolver:    resolver,
		Coordinator: coordinator,
		Engine:      engine,
		DeviceID:    deviceID,
	}, nil
}
