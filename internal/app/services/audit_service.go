package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"gorm.io/gorm"
)

// AuditService records changes through the transaction that makes them.
type AuditService struct{}

func NewAuditService() *AuditService {
	return &AuditService{}
}

// LogAuditTx writes the entry through tx so it commits or rolls back with
// the change it describes.
func (s *AuditService) LogAuditTx(tx *gorm.DB, tableName string, recordID uuid.UUID, action models.AuditAction, oldData, newData interface{}, changedBy *uuid.UUID) error {
	oldDataJSON, err := marshalAuditData(oldData)
	if err != nil {
		return fmt.Errorf("failed to marshal old data: %w", err)
	}
	newDataJSON, err := marshalAuditData(newData)
	if err != nil {
		return fmt.Errorf("failed to marshal new data: %w", err)
	}

	auditLog := &models.AuditLog{
		ID:        uuid.New(),
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		OldData:   oldDataJSON,
		NewData:   newDataJSON,
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
	}

	if err := tx.Create(auditLog).Error; err != nil {
		return errors.NewInternalServerError(err, "Failed to create audit log")
	}

	return nil
}

func marshalAuditData(data interface{}) (*string, error) {
	if data == nil {
		return nil, nil
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	strJSON := string(jsonBytes)
	return &strJSON, nil
}
