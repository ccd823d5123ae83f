package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/nadirsultanli/order-management-system-sub008/internal/repository"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

const table = "dashboard_audit_logs"

const defaultLimit = 100

type AuditLogRepository struct {
	store *repository.Store
}

func NewRepository(s *repository.Store) *AuditLogRepository {
	return &AuditLogRepository{store: s}
}

func (r *AuditLogRepository) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	insert, err := record(entry, data)
	if err != nil {
		return err
	}

	err = r.store.Transact(ctx, func(tx *goqu.TxDatabase) error {
		_, err := tx.Insert(table).Rows(insert).Executor().ExecContext(ctx)
		return err
	})
	if err != nil {
		return custom_error.WrapDBError("failed to insert audit log", err)
	}

	return nil
}

func record(entry models.AuditLog, data interface{}) (goqu.Record, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	return goqu.Record{
		"resource_id":   entry.ResourceID,
		"resource_type": entry.ResourceType,
		"action":        entry.Action,
		"data":          string(dataJSON),
	}, nil
}

func listQuery(db *goqu.Database, f *repository.Filter, limit uint) *goqu.SelectDataset {
	if limit == 0 {
		limit = defaultLimit
	}
	return db.
		From(goqu.T(table).As("a")).
		Select(
			goqu.I("a.id"),
			goqu.I("a.resource_id"),
			goqu.I("a.resource_type"),
			goqu.I("a.action"),
			goqu.I("a.data"),
			goqu.I("a.created_at"),
		).
		Where(f.Expressions("a")...).
		Order(goqu.I("a.created_at").Desc(), goqu.I("a.id").Desc()).
		Limit(limit)
}

func (r *AuditLogRepository) List(ctx context.Context, f *repository.Filter, limit uint) ([]models.AuditLog, error) {
	rows, err := listQuery(r.store.Goqu(), f, limit).Executor().QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ResourceID,
			&entry.ResourceType,
			&entry.Action,
			&entry.DataRaw,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entry.LoadFromDB()
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
