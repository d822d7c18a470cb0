package app

import (
	"github.com/stacklok/appearance-server/internal/app/storage"
	"github.com/stacklok/appearance-server/internal/coordinator"
	"github.com/stacklok/appearance-server/internal/presence"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Coordinator owns participant appearance and its background work
	Coordinator coordinator.Coordinator

	// Hub buffers outbound presence events per participant
	Hub *presence.Hub

	// Storage owns the persistence backend shared by the coordinator's stores
	Storage storage.Factory
}
