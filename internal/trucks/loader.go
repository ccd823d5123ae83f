package trucks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nadirsultanli/order-management-system-sub008/internal/mutation"
	"github.com/nadirsultanli/order-management-system-sub008/internal/notify"
	"github.com/nadirsultanli/order-management-system-sub008/internal/querycache"
	"github.com/nadirsultanli/order-management-system-sub008/internal/verification"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/auditlog"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

const LoadKind mutation.Kind = "truck.load"

// verifyTimeout bounds a verification pass that outlives the request that started it.
const verifyTimeout = 30 * time.Second

var ErrNoItems = errors.New("load request has no items")

type Remote interface {
	GetTruck(ctx context.Context, truckID string) (*models.Truck, error)
	GetTruckInventory(ctx context.Context, truckID string) ([]models.TruckInventoryRow, error)
	LoadTruck(ctx context.Context, req models.LoadTruckRequest) (*models.LoadTruckResult, error)
}

// LoadStatus is what the dashboard shows for a truck's loading panel.
type LoadStatus struct {
	TruckID      string                  `json:"truck_id"`
	Processing   bool                    `json:"processing"`
	State        mutation.State          `json:"state,omitempty"`
	Result       *models.LoadTruckResult `json:"result,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Verifying    bool                    `json:"verifying"`
	Verification *verification.Report    `json:"verification,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

type Loader struct {
	remote     Remote
	cache      *querycache.Cache
	controller *mutation.Controller
	pass       *verification.Pass
	notifier   notify.Notifier
	audit      *auditlog.Auditlog
	logger     *zap.Logger

	mu     sync.Mutex
	status map[string]*LoadStatus
	wg     sync.WaitGroup
}

func NewLoader(
	remote Remote,
	cache *querycache.Cache,
	controller *mutation.Controller,
	pass *verification.Pass,
	notifier notify.Notifier,
	audit *auditlog.Auditlog,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		remote:     remote,
		cache:      cache,
		controller: controller,
		pass:       pass,
		notifier:   notifier,
		audit:      audit,
		logger:     logger,
		status:     make(map[string]*LoadStatus),
	}
}

func affectedKeys(req models.LoadTruckRequest) []querycache.Key {
	return []querycache.Key{
		querycache.TruckKey(req.TruckID),
		querycache.TruckInventoryKey(req.TruckID),
		querycache.WarehouseStockKey(req.WarehouseID),
	}
}

// LoadTruck dispatches the load mutation. On commit it starts a verification pass in
// the background; on failure the cached truck and stock data are restored.
func (l *Loader) LoadTruck(ctx context.Context, req models.LoadTruckRequest) (*models.LoadTruckResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}

	outcome, err := l.controller.Run(ctx, mutation.Spec{
		Kind:         LoadKind,
		ResourceID:   req.TruckID,
		AffectedKeys: affectedKeys(req),
		Call: func(ctx context.Context) (interface{}, error) {
			return l.remote.LoadTruck(ctx, req)
		},
	})
	if errors.Is(err, mutation.ErrBusy) {
		return nil, err
	}

	truck := &models.Truck{ID: req.TruckID}

	if err != nil {
		l.record(req.TruckID, func(s *LoadStatus) {
			s.State = mutation.StateRolledBack
			s.Result = nil
			s.Error = err.Error()
			s.Verification = nil
		})
		l.notifier.Notify(ctx, notify.New(notify.LevelError, "Truck loading failed", err.Error()).
			About("truck", req.TruckID))
		l.audit.Log(ctx, "load_rolled_back", map[string]interface{}{
			"warehouse_id": req.WarehouseID,
			"items":        req.Items,
			"error":        err.Error(),
		}, truck)
		return nil, err
	}

	result, ok := outcome.Result.(*models.LoadTruckResult)
	if !ok || result == nil {
		result = &models.LoadTruckResult{TruckID: req.TruckID, WarehouseID: req.WarehouseID}
	}

	l.record(req.TruckID, func(s *LoadStatus) {
		s.State = mutation.StateCommitted
		s.Result = result
		s.Error = ""
		s.Verifying = true
		s.Verification = nil
	})
	l.notifier.Notify(ctx, notify.New(notify.LevelSuccess,
		"Truck loaded",
		fmt.Sprintf("%d items loaded onto truck", result.ItemsTransferred),
	).About("truck", req.TruckID))
	l.audit.Log(ctx, "load_committed", map[string]interface{}{
		"warehouse_id":      req.WarehouseID,
		"transfer_id":       result.TransferID,
		"items_transferred": result.ItemsTransferred,
	}, truck)

	verifyCtx := context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(verifyCtx, verifyTimeout)
		defer cancel()
		l.verify(ctx, req)
	}()

	return result, nil
}

func (l *Loader) verify(ctx context.Context, req models.LoadTruckRequest) {
	// Always read the server after the settle delay. A fetch made between commit
	// and settle may have cached pre-settle rows as fresh.
	report := verification.Run(ctx, l.pass, func(ctx context.Context) ([]models.TruckInventoryRow, error) {
		rows, err := l.remote.GetTruckInventory(ctx, req.TruckID)
		if err != nil {
			return nil, err
		}
		if _, err := l.cache.Set(querycache.TruckInventoryKey(req.TruckID), rows); err != nil {
			l.logger.Warn("Unable to cache verified truck inventory", zap.String("truck_id", req.TruckID), zap.Error(err))
		}
		return rows, nil
	}, Expectations(req.Items))

	l.record(req.TruckID, func(s *LoadStatus) {
		s.Verifying = false
		s.Verification = report
	})

	truck := &models.Truck{ID: req.TruckID}
	switch report.Outcome {
	case verification.OutcomePassed:
		l.logger.Info("Truck load verified", zap.String("truck_id", req.TruckID))
	case verification.OutcomeFailed:
		failed := report.Failed()
		l.notifier.Notify(ctx, notify.New(notify.LevelWarning,
			"Load verification failed",
			fmt.Sprintf("%d of %d loaded products are not visible on the truck yet", len(failed), len(report.Results)),
		).About("truck", req.TruckID))
	case verification.OutcomeInconclusive:
		l.notifier.Notify(ctx, notify.New(notify.LevelInfo,
			"Load verification inconclusive",
			report.Error,
		).About("truck", req.TruckID))
	}
	l.audit.Log(ctx, "load_verification_"+string(report.Outcome), report, truck)
}

// Expectations builds one check per loaded product: the truck must hold at least the
// loaded full and empty quantities.
func Expectations(items []models.LoadItem) []verification.Expectation[[]models.TruckInventoryRow] {
	expectations := make([]verification.Expectation[[]models.TruckInventoryRow], 0, len(items))
	for _, item := range items {
		item := item
		expectations = append(expectations, verification.Expectation[[]models.TruckInventoryRow]{
			Name: fmt.Sprintf("truck inventory row for %s", item.ProductID),
			Check: func(rows []models.TruckInventoryRow) error {
				for _, row := range rows {
					if row.ProductID != item.ProductID {
						continue
					}
					if row.QuantityFull < item.QuantityFull {
						return fmt.Errorf("expected at least %d full, found %d", item.QuantityFull, row.QuantityFull)
					}
					if row.QuantityEmpty < item.QuantityEmpty {
						return fmt.Errorf("expected at least %d empty, found %d", item.QuantityEmpty, row.QuantityEmpty)
					}
					return nil
				}
				return fmt.Errorf("product %s has no truck inventory row", item.ProductID)
			},
		})
	}
	return expectations
}

func (l *Loader) record(truckID string, update func(s *LoadStatus)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.status[truckID]
	if !ok {
		s = &LoadStatus{TruckID: truckID}
		l.status[truckID] = s
	}
	update(s)
	s.UpdatedAt = time.Now()
}

func (l *Loader) Status(truckID string) LoadStatus {
	l.mu.Lock()
	status := LoadStatus{TruckID: truckID}
	if s, ok := l.status[truckID]; ok {
		status = *s
	}
	l.mu.Unlock()

	status.Processing = l.controller.Optimistic(LoadKind, truckID)
	return status
}

func (l *Loader) Truck(ctx context.Context, truckID string) (*models.Truck, error) {
	var truck models.Truck
	err := l.cache.Fetch(ctx, querycache.TruckKey(truckID), &truck, func(ctx context.Context) (interface{}, error) {
		return l.remote.GetTruck(ctx, truckID)
	})
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

func (l *Loader) Inventory(ctx context.Context, truckID string) ([]models.TruckInventoryRow, error) {
	var rows []models.TruckInventoryRow
	err := l.cache.Fetch(ctx, querycache.TruckInventoryKey(truckID), &rows, func(ctx context.Context) (interface{}, error) {
		return l.remote.GetTruckInventory(ctx, truckID)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Wait blocks until background verification passes finish.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (l *Loader) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
