package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"propscan_backend/internal/events"
	listingrepo "propscan_backend/internal/listings/repository"
	listingsvc "propscan_backend/internal/listings/service"
	"propscan_backend/internal/ownership"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

type fakeRepo struct {
	upserts []listingrepo.Listing
	err     error
}

func (f *fakeRepo) Upsert(_ context.Context, l listingrepo.Listing) (listingrepo.Listing, error) {
	if f.err != nil {
		return listingrepo.Listing{}, f.err
	}
	l.ID = uuid.New()
	f.upserts = append(f.upserts, l)
	return l, nil
}

func (f *fakeRepo) GetByID(context.Context, uuid.UUID) (listingrepo.Listing, error) {
	return listingrepo.Listing{}, errors.New("not implemented")
}

func (f *fakeRepo) ListAll(context.Context) ([]listingrepo.Listing, error) { return nil, nil }

func (f *fakeRepo) AssignToProperty(context.Context, []uuid.UUID, uuid.UUID) error { return nil }

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

func newTestConsumer(repo *fakeRepo) *Consumer {
	log := logger.New("test")
	svc := listingsvc.New(repo, ownership.NewClassifier(ownership.DefaultKeywords()), nopBus{}, log)
	return &Consumer{svc: svc, val: validator.New(), log: log}
}

func delivery(ack *fakeAck, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandleStoresValidPayload(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)
	ack := &fakeAck{}

	c.handle(context.Background(), delivery(ack,
		`{"source":"immobiliare","externalId":"ext-1","rawAddress":"Via Roma 10","city":"Milano","price":250000}`))

	if !ack.acked || ack.nacked {
		t.Fatalf("ack = %v nack = %v, want acked", ack.acked, ack.nacked)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("stored %d listings, want 1", len(repo.upserts))
	}
}

func TestHandleDropsMalformedJSON(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)
	ack := &fakeAck{}

	c.handle(context.Background(), delivery(ack, `{"source": ???`))

	if !ack.acked || ack.nacked {
		t.Fatalf("ack = %v nack = %v, want malformed payload acked away", ack.acked, ack.nacked)
	}
	if len(repo.upserts) != 0 {
		t.Errorf("stored %d listings, want 0", len(repo.upserts))
	}
}

func TestHandleDropsInvalidPayload(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)
	ack := &fakeAck{}

	// Well-formed JSON but missing the required identity fields; storing
	// it would collide on the (source, external_id) unique key.
	c.handle(context.Background(), delivery(ack,
		`{"rawAddress":"Via Roma 10","city":"Milano","price":250000}`))

	if !ack.acked || ack.nacked {
		t.Fatalf("ack = %v nack = %v, want invalid payload acked away", ack.acked, ack.nacked)
	}
	if len(repo.upserts) != 0 {
		t.Errorf("stored %d listings, want 0", len(repo.upserts))
	}
}

func TestHandleRequeuesOnServiceError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection reset")}
	c := newTestConsumer(repo)
	ack := &fakeAck{}

	c.handle(context.Background(), delivery(ack,
		`{"source":"immobiliare","externalId":"ext-1","rawAddress":"Via Roma 10","city":"Milano","price":250000}`))

	if ack.acked || !ack.nacked || !ack.requeued {
		t.Fatalf("ack = %v nack = %v requeue = %v, want nacked with requeue", ack.acked, ack.nacked, ack.requeued)
	}
}
