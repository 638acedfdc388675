package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pengeluaran/internal/ledger"
)

// EventKind names what happened to a ledger row.
type EventKind string

const (
	RowAppended EventKind = "row.appended"
	RowDeleted  EventKind = "row.deleted"
)

var (
	ErrUnknownKind = errors.New("unknown event kind")
	ErrEmptyRow    = errors.New("event carries no row")
)

// RowEvent mirrors one successful write on the primary ledger. Deletions carry
// the removed row so a replica can find it without relying on positions.
type RowEvent struct {
	MessageID  string     `json:"message_id"`
	Kind       EventKind  `json:"kind"`
	Index      int        `json:"index"`
	Row        ledger.Row `json:"row"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewRowEvent(kind EventKind, index int, row ledger.Row) RowEvent {
	return RowEvent{
		MessageID:  uuid.NewString(),
		Kind:       kind,
		Index:      index,
		Row:        append(ledger.Row(nil), row...),
		OccurredAt: time.Now().UTC(),
	}
}

func (e RowEvent) Validate() error {
	switch e.Kind {
	case RowAppended, RowDeleted:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if len(e.Row) == 0 {
		return ErrEmptyRow
	}
	return nil
}

func (e RowEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RowEventFromJSON decodes and validates an event body.
func RowEventFromJSON(data []byte) (RowEvent, error) {
	var e RowEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RowEvent{}, fmt.Errorf("decode row event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return RowEvent{}, err
	}
	return e, nil
}
