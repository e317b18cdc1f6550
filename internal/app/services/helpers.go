package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
)

func parseUUID(id, fieldName string) (uuid.UUID, error) {
	parsedUUID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.NewBadRequestError(fmt.Sprintf("Invalid %s format", fieldName))
	}
	return parsedUUID, nil
}

func parseOptionalUUID(id *string, fieldName string) (*uuid.UUID, error) {
	if id == nil {
		return nil, nil
	}
	parsedUUID, err := parseUUID(*id, fieldName)
	if err != nil {
		return nil, err
	}
	return &parsedUUID, nil
}

// isRejection separates business outcomes from infrastructure faults.
func isRejection(err error) bool {
	return err != nil && !errors.IsKind(err, errors.KindInternal)
}
