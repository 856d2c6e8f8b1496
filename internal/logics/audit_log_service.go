package logics

import (
	"context"
	"encoding/json"
	"fmt"

	"identity-server/configs"
	"identity-server/internal/identity"
	"identity-server/internal/models"
	"identity-server/internal/repositories"

	"go.uber.org/zap"
)

// AuditLogService provides methods for recording audit logs
type AuditLogService struct{}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService() *AuditLogService {
	return &AuditLogService{}
}

// AddLog adds a new audit log record to the audit_logs table.
// Parameters:
//   - logType: the type of the audit log (e.g. models.AuditLogTypeCredentialConfirmed)
//   - content: arbitrary key-value structured data that will be marshaled to JSON (stored as jsonb)
//   - userID: (optional) pointer to the user ID associated with this log; can be nil if not applicable.
func (s *AuditLogService) AddLog(logType models.AuditLogType, content interface{}, userID *string) error {
	jsonData, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	auditLog := models.AuditLog{
		UserID:  userID,
		Type:    logType,
		Content: jsonData, // datatypes.JSON is defined as []byte
	}

	if err := repositories.DBS.Postgres.Create(&auditLog).Error; err != nil {
		return fmt.Errorf("failed to insert audit log record: %w", err)
	}

	configs.Logger.Info("Audit log added", zap.String("type", string(logType)))
	return nil
}

// ConfirmationHook records confirmation outcomes. Registered on the
// ConfirmationService at startup so every successful confirmation leaves an
// audit trail.
func (s *AuditLogService) ConfirmationHook() identity.ConfirmationHook {
	return func(_ context.Context, user *models.User, kind identity.CredentialKind, value string, initial bool) {
		logType := models.AuditLogTypeCredentialConfirmed
		if !initial {
			logType = models.AuditLogTypeCredentialChanged
		}
		if err := s.AddLog(logType, map[string]interface{}{
			"credential": string(kind),
			"value":      value,
		}, &user.ID); err != nil {
			configs.Logger.Warn("Failed to add audit log", zap.Error(err))
		}
	}
}

// Global instance of AuditLogService
var AuditLogSvc = NewAuditLogService()
