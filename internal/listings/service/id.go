package service

import (
	"github.com/google/uuid"

	"propscan_backend/platform/apperr"
)

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid listing id")
	}
	return id, nil
}
