// Package infrastructure assembles the shared service backbone that
// the domain modules plug into: logging, lifecycle, the database pool,
// and the image blob store.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gradethread/gradethread/internal/config"
	"github.com/gradethread/gradethread/pkg/database"
	"github.com/gradethread/gradethread/pkg/lifecycle"
	"github.com/gradethread/gradethread/pkg/storage"
)

// Infrastructure carries the core systems every domain module shares.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New builds the infrastructure from cfg without starting anything;
// Start wires the lifecycle hooks afterward.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// Start registers the database and storage lifecycle hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
