package auditlog

import (
	"context"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type Persister interface {
	PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

type Auditlog struct {
	r      Persister
	logger *zap.Logger
}

// NewAuditLog returns an audit log writing through r. A nil r logs entries only.
func NewAuditLog(r Persister, logger *zap.Logger) *Auditlog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditlog{r: r, logger: logger}
}

func (a *Auditlog) Log(ctx context.Context, action string, data interface{}, item Auditable) {
	entry := item.CreateLogView()
	entry.Action = action

	fields := []zap.Field{
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.String("action", action),
	}

	if a.r == nil {
		a.logger.Info("Audit", append(fields, zap.Any("data", data))...)
		return
	}

	if err := a.r.PersistLog(ctx, entry, data); err != nil {
		a.logger.Error("Unable to create audit log entry", append(fields, zap.Error(err))...)
		return
	}

	a.logger.Debug("Created audit log entry", fields...)
}
