// internal/workers/retention_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ventaro/retail-be/internal/adapters/db"
	"github.com/ventaro/retail-be/internal/pkg/config"
)

// RetentionProcessor purges transaction history past the retention window.
type RetentionProcessor struct {
	db     *db.Database
	config *config.Config
	logger *slog.Logger
}

// NewRetentionProcessor creates a new retention processor
func NewRetentionProcessor(database *db.Database, config *config.Config, logger *slog.Logger) *RetentionProcessor {
	return &RetentionProcessor{
		db:     database,
		config: config,
		logger: logger.With(slog.String("processor", "retention")),
	}
}

// PurgeHistory removes history entries older than the configured retention.
// Entries attached to an active or finalized sale are kept: deleting them
// would break exact reversal for status flips on that sale. Cancelled sales
// never flip again, so their entries expire with the window.
func (p *RetentionProcessor) PurgeHistory(ctx context.Context, t *asynq.Task) error {
	retention := p.config.Engine.HistoryRetention
	if retention <= 0 {
		p.logger.InfoContext(ctx, "history retention disabled, skipping purge")
		return nil
	}

	cutoff := time.Now().Add(-retention)
	p.logger.InfoContext(ctx, "purging old history entries",
		slog.Time("cutoff", cutoff))

	query := `
		DELETE FROM transaction_history
		WHERE recorded_at < $1
		  AND (sale_id IS NULL
		       OR sale_id IN (SELECT id FROM sales WHERE overall_status = 'cancelled'))`

	result, err := p.db.Exec(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge history: %w", err)
	}

	p.logger.InfoContext(ctx, "history purge complete",
		slog.Int64("rows_deleted", result.RowsAffected()))

	return nil
}
