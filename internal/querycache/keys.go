package querycache

import (
	"fmt"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

// Key identifies one cached query result. Keys are always enumerated explicitly.
type Key string

// Keys sharing a scope are invalidated together by ScopeKeys.
const (
	ScopeTransfers = "transfers"
	ScopeTrucks    = "trucks"
	ScopeStock     = "warehouse-stock"
)

func TruckKey(truckID string) Key {
	return Key(fmt.Sprintf("%s/%s", ScopeTrucks, truckID))
}

func TruckInventoryKey(truckID string) Key {
	return Key(fmt.Sprintf("%s/%s/inventory", ScopeTrucks, truckID))
}

func WarehouseStockKey(warehouseID string) Key {
	return Key(fmt.Sprintf("%s/%s", ScopeStock, warehouseID))
}

func TransferKey(transferID string) Key {
	return Key(fmt.Sprintf("%s/%s", ScopeTransfers, transferID))
}

func TransferListKey(f models.TransferFilter) Key {
	return Key(fmt.Sprintf("%s/list?src=%s&dst=%s&status=%s&from=%s&to=%s&page=%d&limit=%d&sort=%s:%s",
		ScopeTransfers,
		f.SourceWarehouseID,
		f.DestinationWarehouseID,
		f.Status,
		f.DateFrom,
		f.DateTo,
		f.Page,
		f.Limit,
		f.SortBy,
		f.SortOrder,
	))
}

// TransferListPrefix matches every cached transfer list page.
func TransferListPrefix() string {
	return ScopeTransfers + "/list"
}
