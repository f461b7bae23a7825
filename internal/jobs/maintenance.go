package jobs

import (
	"log/slog"

	"lexinsights/internal/database"
	"lexinsights/internal/pkg/geoip"
)

// MaintenanceJob keeps the storage layer healthy: checkpoints the WAL
// so the journal does not grow unbounded under constant ingest, and
// reloads the country database in case the file was replaced on disk.
type MaintenanceJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewMaintenanceJob(dbManager *database.DBManager, logger *slog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

func (j *MaintenanceJob) Run() error {
	if err := j.dbManager.CheckpointWAL("PASSIVE"); err != nil {
		j.logger.Warn("WAL checkpoint failed", slog.Any("error", err))
	} else {
		j.logger.Debug("WAL checkpoint completed")
	}

	geoip.ReloadGeoDB()

	return nil
}
