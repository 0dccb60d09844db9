package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPropertiesScan = "properties.scan"

const TaskGeocodingBackfill = "geocoding.backfill"

// PropertiesScanPayload carries no parameters; the scan always runs over
// the full listing set.
type PropertiesScanPayload struct{}

// GeocodingBackfillPayload caps one scheduled backfill run. Limit 0
// means everything still missing coordinates.
type GeocodingBackfillPayload struct {
	Limit int `json:"limit"`
}

func NewPropertiesScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(PropertiesScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPropertiesScan, data), nil
}

func NewGeocodingBackfillTask(payload GeocodingBackfillPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeocodingBackfill, data), nil
}

func ParseGeocodingBackfillPayload(task *asynq.Task) (GeocodingBackfillPayload, error) {
	var payload GeocodingBackfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GeocodingBackfillPayload{}, err
	}
	return payload, nil
}
