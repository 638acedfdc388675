package services

import (
	"context"
	"errors"
	"testing"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/ledger"
	"pengeluaran/internal/ledger/memory"
)

type fakePublisher struct {
	events []amqp.RowEvent
	err    error
}

func (f *fakePublisher) PublishRowEvent(_ context.Context, e amqp.RowEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

var (
	rowA = ledger.Row{"2024-03-15 08:00:00", "1", "Ani", "1000", "kopi", "", "☕ Minuman"}
	rowB = ledger.Row{"2024-03-15 09:00:00", "2", "Budi", "7000", "grab", "", "🚗 Transportasi"}
)

func TestMirroredAppendPublishes(t *testing.T) {
	pub := &fakePublisher{}
	store := NewMirroredStore(memory.New(rowA), pub, nil)

	idx, err := store.Append(context.Background(), rowB)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Kind != amqp.RowAppended || e.Index != 1 || e.Row[4] != "grab" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestMirroredDeletePublishesRemovedRow(t *testing.T) {
	pub := &fakePublisher{}
	primary := memory.New(rowA, rowB)
	store := NewMirroredStore(primary, pub, nil)

	if err := store.Delete(context.Background(), 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if primary.Len() != 1 {
		t.Fatalf("row not removed from primary")
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.RowDeleted || pub.events[0].Row[4] != "kopi" {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestMirroredPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	primary := memory.New()
	store := NewMirroredStore(primary, pub, nil)

	if _, err := store.Append(context.Background(), rowA); err != nil {
		t.Fatalf("append should succeed: %v", err)
	}
	if primary.Len() != 1 {
		t.Fatalf("row should be stored")
	}
}

func TestMirroredPrimaryFailureSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	store := NewMirroredStore(memory.New(rowA), pub, nil)

	if err := store.Delete(context.Background(), 5); !errors.Is(err, memory.ErrIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed writes must not be mirrored")
	}
}

func TestMirroredListAllPassesThrough(t *testing.T) {
	store := NewMirroredStore(memory.New(rowA, rowB), &fakePublisher{}, nil)
	rows, err := store.ListAll(context.Background())
	if err != nil || len(rows) != 2 {
		t.Fatalf("unexpected list: %v %v", rows, err)
	}
}

func TestEngineOverMirroredStore(t *testing.T) {
	pub := &fakePublisher{}
	engine := ledger.NewEngine(NewMirroredStore(memory.New(rowA, rowB), pub, nil))

	removed, err := engine.DeleteLast(context.Background(), "1")
	if err != nil {
		t.Fatalf("delete last: %v", err)
	}
	if removed.Item != "kopi" {
		t.Fatalf("unexpected removed entry: %+v", removed)
	}
	if len(pub.events) != 1 || pub.events[0].Index != 0 {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

type freshCounter struct {
	*memory.Store
	fresh int
}

func (f *freshCounter) ListFresh(ctx context.Context) ([]ledger.Row, error) {
	f.fresh++
	return f.Store.ListAll(ctx)
}

func TestMirroredListFreshReachesPrimary(t *testing.T) {
	primary := &freshCounter{Store: memory.New(rowA, rowB)}
	store := NewMirroredStore(primary, &fakePublisher{}, nil)

	rows, err := store.ListFresh(context.Background())
	if err != nil || len(rows) != 2 {
		t.Fatalf("unexpected list: %v %v", rows, err)
	}
	if primary.fresh != 1 {
		t.Fatalf("expected primary ListFresh to be used, got %d calls", primary.fresh)
	}
}
