package transfers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nadirsultanli/order-management-system-sub008/internal/notify"
	"github.com/nadirsultanli/order-management-system-sub008/internal/querycache"
	"github.com/nadirsultanli/order-management-system-sub008/internal/workflow"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/auditlog"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type Remote interface {
	Validator
	Creator
	ListTransfers(ctx context.Context, filter models.TransferFilter) (*models.TransferPage, error)
	GetTransfer(ctx context.Context, transferID string) (*models.Transfer, error)
	UpdateTransferStatus(ctx context.Context, transferID string, req models.UpdateStatusRequest) (*models.Transfer, error)
	GetWarehouseStock(ctx context.Context, warehouseID string, filter models.StockFilter) ([]models.StockRow, error)
	SearchProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
}

// TransferRow decorates a transfer with workflow display data.
type TransferRow struct {
	models.Transfer
	StatusLabel  string                    `json:"status_label"`
	StatusColor  string                    `json:"status_color"`
	NextStatuses []metadata.TransferStatus `json:"next_statuses"`
}

type TransferList struct {
	Transfers []TransferRow `json:"transfers"`
	Total     int           `json:"total_count"`
}

type ListQuery struct {
	Remote    models.TransferFilter
	Local     TransferListFilter
	SortField SortField
	SortDir   SortDirection
}

type Service struct {
	remote   Remote
	cache    *querycache.Cache
	workflow *workflow.Cache
	notifier notify.Notifier
	audit    *auditlog.Auditlog
	logger   *zap.Logger
}

func NewService(
	remote Remote,
	cache *querycache.Cache,
	wf *workflow.Cache,
	notifier notify.Notifier,
	audit *auditlog.Auditlog,
	logger *zap.Logger,
) *Service {
	return &Service{
		remote:   remote,
		cache:    cache,
		workflow: wf,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

func (s *Service) ListTransfers(ctx context.Context, q ListQuery) (*TransferList, error) {
	var page models.TransferPage
	err := s.cache.Fetch(ctx, querycache.TransferListKey(q.Remote), &page, func(ctx context.Context) (interface{}, error) {
		return s.remote.ListTransfers(ctx, q.Remote)
	})
	if err != nil {
		return nil, err
	}

	transfers := FilterTransfers(page.Transfers, q.Local)
	if q.SortField != "" {
		SortTransfers(transfers, q.SortField, q.SortDir)
	}

	wf := s.workflow.Get(ctx)
	rows := make([]TransferRow, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, decorate(t, wf))
	}

	return &TransferList{Transfers: rows, Total: page.Total}, nil
}

func decorate(t models.Transfer, wf *models.TransferWorkflow) TransferRow {
	row := TransferRow{
		Transfer:     t,
		StatusLabel:  t.Status.Label(),
		StatusColor:  t.Status.Color(),
		NextStatuses: t.Status.DefaultNextStatuses(),
	}
	for _, s := range wf.Statuses {
		if s.Status == t.Status {
			row.StatusLabel = s.Label
			row.StatusColor = s.Color
			row.NextStatuses = s.Next
			break
		}
	}
	return row
}

func (s *Service) GetTransfer(ctx context.Context, transferID string) (*TransferRow, error) {
	var transfer models.Transfer
	err := s.cache.Fetch(ctx, querycache.TransferKey(transferID), &transfer, func(ctx context.Context) (interface{}, error) {
		return s.remote.GetTransfer(ctx, transferID)
	})
	if err != nil {
		return nil, err
	}

	row := decorate(transfer, s.workflow.Get(ctx))
	return &row, nil
}

func (s *Service) Workflow(ctx context.Context) *models.TransferWorkflow {
	return s.workflow.Get(ctx)
}

// UpdateStatus sends the status change to the remote API, which decides whether the
// transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, transferID string, req models.UpdateStatusRequest) (*models.Transfer, error) {
	transfer, err := s.remote.UpdateTransferStatus(ctx, transferID, req)
	if err != nil {
		s.notifier.Notify(ctx, notify.New(notify.LevelError,
			"Status update failed",
			fmt.Sprintf("Could not change transfer status to %s: %v", req.Status.Label(), err),
		).About("transfer", transferID))
		return nil, err
	}

	s.cache.Invalidate(querycache.TransferKey(transferID))
	s.cache.InvalidatePrefix(querycache.TransferListPrefix())

	s.notifier.Notify(ctx, notify.New(notify.LevelSuccess,
		"Transfer updated",
		fmt.Sprintf("Transfer status changed to %s", transfer.Status.Label()),
	).About("transfer", transfer.ID))
	s.audit.Log(ctx, "status_updated", req, transfer)

	return transfer, nil
}

// CreateTransfer is the submission path of the transfer wizard.
func (s *Service) CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (*models.Transfer, error) {
	transfer, err := s.remote.CreateTransfer(ctx, req)
	if err != nil {
		s.notifier.Notify(ctx, notify.New(notify.LevelError, "Transfer not created", err.Error()).
			About("transfer", ""))
		return nil, err
	}

	s.cache.InvalidatePrefix(querycache.TransferListPrefix())

	ref := transfer.TransferReference
	if ref == "" {
		ref = transfer.ID
	}
	s.notifier.Notify(ctx, notify.New(notify.LevelSuccess,
		"Transfer created",
		fmt.Sprintf("Transfer %s created with %d items", ref, len(req.Items)),
	).About("transfer", transfer.ID))
	s.audit.Log(ctx, "created", req, transfer)

	return transfer, nil
}

func (s *Service) ValidateTransfer(ctx context.Context, req models.ValidateTransferRequest) (*models.ValidationResult, error) {
	return s.remote.ValidateTransfer(ctx, req)
}

// WarehouseStock serves stock rows from the shared cache and applies the filter locally.
func (s *Service) WarehouseStock(ctx context.Context, warehouseID string, filter models.StockFilter) ([]models.StockRow, error) {
	var rows []models.StockRow
	err := s.cache.Fetch(ctx, querycache.WarehouseStockKey(warehouseID), &rows, func(ctx context.Context) (interface{}, error) {
		return s.remote.GetWarehouseStock(ctx, warehouseID, models.StockFilter{IncludeReserved: true})
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]models.StockRow, 0, len(rows))
	for _, row := range rows {
		if filter.InStockOnly && row.QuantityAvailable <= 0 {
			continue
		}
		if !filter.IncludeReserved {
			row.QuantityReserved = 0
		}
		filtered = append(filtered, row)
	}
	return filtered, nil
}

// StockFor looks up the stock snapshot of one product variant in a warehouse.
func (s *Service) StockFor(ctx context.Context, warehouseID, productID string, variantName *string) (models.StockInfo, error) {
	rows, err := s.WarehouseStock(ctx, warehouseID, models.StockFilter{IncludeReserved: true})
	if err != nil {
		return models.StockInfo{}, err
	}

	want := newItemKey(productID, variantName)
	for _, row := range rows {
		if newItemKey(row.ProductID, row.VariantName) == want {
			return models.StockInfo{Available: row.QuantityAvailable, Reserved: row.QuantityReserved}, nil
		}
	}
	return models.StockInfo{}, nil
}

func (s *Service) SearchProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	return s.remote.SearchProducts(ctx, q)
}

func (s *Service) NotifyValidationFailure(ctx context.Context, wizardID uuid.UUID, err error) {
	level := notify.LevelError
	message := "Transfer could not be validated"
	if custom_error.IsRetryable(err) {
		level = notify.LevelWarning
		message = "Validation service unavailable, try again"
	}
	s.notifier.Notify(ctx, notify.New(level, message, err.Error()).About("transfer_wizard", wizardID.String()))
}
