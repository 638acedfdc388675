// Package worker replays mirrored ledger events onto a replica store.
package worker

import (
	"context"
	"fmt"
	"slices"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/ledger"
	applog "pengeluaran/internal/log"
)

// MirrorWorker applies row events to a replica ledger such as a Google Sheet.
type MirrorWorker struct {
	replica ledger.Store
	logger  *applog.Logger
}

func NewMirrorWorker(replica ledger.Store, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{replica: replica, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleRowEvent appends or removes the event's row on the replica. A delete
// removes the last identical row; when none exists the event is a no-op.
func (w *MirrorWorker) HandleRowEvent(ctx context.Context, e amqp.RowEvent) error {
	switch e.Kind {
	case amqp.RowAppended:
		idx, err := w.replica.Append(ctx, e.Row)
		if err != nil {
			return fmt.Errorf("replay append: %w", err)
		}
		w.logger.InfoContext(ctx, "Row mirrored", "message_id", e.MessageID, applog.FieldRowIndex, idx)
		return nil

	case amqp.RowDeleted:
		rows, err := ledger.ListFresh(ctx, w.replica)
		if err != nil {
			return fmt.Errorf("list replica: %w", err)
		}
		idx := lastIndexOf(rows, e.Row)
		if idx < 0 {
			w.logger.WarnContext(ctx, "Deleted row not found on replica", "message_id", e.MessageID)
			return nil
		}
		if err := w.replica.Delete(ctx, idx); err != nil {
			return fmt.Errorf("replay delete: %w", err)
		}
		w.logger.InfoContext(ctx, "Row deletion mirrored", "message_id", e.MessageID, applog.FieldRowIndex, idx)
		return nil

	default:
		return fmt.Errorf("%w: %q", amqp.ErrUnknownKind, e.Kind)
	}
}

func lastIndexOf(rows []ledger.Row, target ledger.Row) int {
	for i := len(rows) - 1; i >= 0; i-- {
		if slices.Equal(rows[i], target) {
			return i
		}
	}
	return -1
}
