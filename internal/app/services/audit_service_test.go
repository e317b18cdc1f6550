package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLogAuditTxCommitsWithChange(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditService()
	recordID := uuid.New()
	userID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return audit.LogAuditTx(tx, "checkouts", recordID, models.AuditActionCreate, nil, map[string]string{"status": "DRAFT"}, &userID)
	})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, db.Where("record_id = ?", recordID).First(&entry).Error)
	assert.Equal(t, "checkouts", entry.TableName)
	assert.Equal(t, models.AuditActionCreate, entry.Action)
	assert.Nil(t, entry.OldData)
	require.NotNil(t, entry.NewData)
	assert.JSONEq(t, `{"status":"DRAFT"}`, *entry.NewData)
	require.NotNil(t, entry.ChangedBy)
	assert.Equal(t, userID, *entry.ChangedBy)
}

func TestLogAuditTxRollsBackWithChange(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditService()
	recordID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := audit.LogAuditTx(tx, "checkouts", recordID, models.AuditActionDelete, nil, nil, nil); err != nil {
			return err
		}
		return fmt.Errorf("checkout update failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("record_id = ?", recordID).Count(&count).Error)
	assert.Zero(t, count)
}
