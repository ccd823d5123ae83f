package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Truck struct {
	ID           string          `json:"id"`
	FleetNumber  string          `json:"fleet_number"`
	LicensePlate string          `json:"license_plate"`
	CapacityKg   decimal.Decimal `json:"capacity_kg"`
	Active       bool            `json:"active"`
	DriverName   string          `json:"driver_name,omitempty"`
}

func (t *Truck) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: "truck",
	}
}

type TruckInventoryRow struct {
	TruckID       string    `json:"truck_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name,omitempty"`
	SKU           string    `json:"product_sku,omitempty"`
	QuantityFull  int       `json:"qty_full"`
	QuantityEmpty int       `json:"qty_empty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type LoadItem struct {
	ProductID     string  `json:"product_id" binding:"required"`
	VariantName   *string `json:"variant_name,omitempty"`
	QuantityFull  int     `json:"qty_full" binding:"gte=0"`
	QuantityEmpty int     `json:"qty_empty" binding:"gte=0"`
}

type LoadTruckRequest struct {
	TruckID     string     `json:"truck_id"`
	WarehouseID string     `json:"source_warehouse_id" binding:"required"`
	Items       []LoadItem `json:"items" binding:"required,min=1,dive"`
}

type LoadTruckResult struct {
	TransferID       string   `json:"transfer_id"`
	TruckID          string   `json:"truck_id"`
	WarehouseID      string   `json:"warehouse_id"`
	ItemsTransferred int      `json:"items_transferred"`
	ProductIDs       []string `json:"product_ids"`
}
