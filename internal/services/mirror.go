// Package services holds decorators that add behaviour around a ledger store.
package services

import (
	"context"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/ledger"
	applog "pengeluaran/internal/log"
)

// Publisher sends row events to the mirror bus.
type Publisher interface {
	PublishRowEvent(ctx context.Context, e amqp.RowEvent) error
}

// MirroredStore forwards every call to the primary store and, after each
// successful write, publishes a row event. Publish failures are logged and
// never fail the write.
type MirroredStore struct {
	primary   ledger.Store
	publisher Publisher
	logger    *applog.Logger
}

var (
	_ ledger.Store       = (*MirroredStore)(nil)
	_ ledger.FreshLister = (*MirroredStore)(nil)
)

func NewMirroredStore(primary ledger.Store, publisher Publisher, logger *applog.Logger) *MirroredStore {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirroredStore{
		primary:   primary,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAMQP),
	}
}

func (m *MirroredStore) Append(ctx context.Context, row ledger.Row) (int, error) {
	idx, err := m.primary.Append(ctx, row)
	if err != nil {
		return idx, err
	}
	m.publish(ctx, amqp.NewRowEvent(amqp.RowAppended, idx, row))
	return idx, nil
}

func (m *MirroredStore) ListAll(ctx context.Context) ([]ledger.Row, error) {
	return m.primary.ListAll(ctx)
}

// ListFresh forwards to the primary store, bypassing its cache when it has one.
func (m *MirroredStore) ListFresh(ctx context.Context) ([]ledger.Row, error) {
	return ledger.ListFresh(ctx, m.primary)
}

// Delete looks the row up first so the event can identify it by content.
func (m *MirroredStore) Delete(ctx context.Context, index int) error {
	var removed ledger.Row
	rows, err := ledger.ListFresh(ctx, m.primary)
	switch {
	case err != nil:
		m.logger.WarnContext(ctx, "Cannot read row before delete; it will not be mirrored",
			applog.FieldRowIndex, index, applog.FieldError, err)
	case index >= 0 && index < len(rows):
		removed = rows[index]
	}

	if err := m.primary.Delete(ctx, index); err != nil {
		return err
	}
	if removed != nil {
		m.publish(ctx, amqp.NewRowEvent(amqp.RowDeleted, index, removed))
	}
	return nil
}

func (m *MirroredStore) publish(ctx context.Context, e amqp.RowEvent) {
	if err := m.publisher.PublishRowEvent(ctx, e); err != nil {
		m.logger.ErrorContext(ctx, "Failed to mirror row event",
			applog.NewFields().WithOperation(applog.OpMirror).WithError(err).ToSlice()...)
	}
}
