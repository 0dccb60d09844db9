package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string        { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool  { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string  { return "propscan" }
func (c testSchedulerConfig) GetAsynqConcurrency() int   { return 1 }
func (c testSchedulerConfig) GetScanCronSpec() string    { return "" }
func (c testSchedulerConfig) GetGeocodeCronSpec() string { return "" }
func (c testSchedulerConfig) GetGeocodeBatchLimit() int  { return 100 }

func TestClientEnqueuesTasks(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.EnqueuePropertiesScan(context.Background()); err != nil {
		t.Fatalf("EnqueuePropertiesScan() error = %v", err)
	}
	if err := client.EnqueueGeocodingBackfill(context.Background(), 50); err != nil {
		t.Fatalf("EnqueueGeocodingBackfill() error = %v", err)
	}

	if len(srv.Keys()) == 0 {
		t.Error("no task state written to redis")
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("NewClient() with empty redis url should fail")
	}
}

func TestParseGeocodingBackfillPayloadRoundTrip(t *testing.T) {
	task, err := NewGeocodingBackfillTask(GeocodingBackfillPayload{Limit: 25})
	if err != nil {
		t.Fatalf("NewGeocodingBackfillTask() error = %v", err)
	}

	payload, err := ParseGeocodingBackfillPayload(task)
	if err != nil {
		t.Fatalf("ParseGeocodingBackfillPayload() error = %v", err)
	}
	if payload.Limit != 25 {
		t.Errorf("Limit = %d, want 25", payload.Limit)
	}
}
