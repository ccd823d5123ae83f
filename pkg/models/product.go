package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string           `json:"id"`
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	VariantName *string          `json:"variant_name,omitempty"`
	VariantType *string          `json:"variant_type,omitempty"`
	UnitWeight  decimal.Decimal  `json:"unit_weight"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Status      string           `json:"status,omitempty"`
}

type ProductQuery struct {
	Search          string
	WarehouseID     string
	IncludeVariants bool
	Page            int
	Limit           int
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total_count"`
}

type StockRow struct {
	WarehouseID       string    `json:"warehouse_id"`
	ProductID         string    `json:"product_id"`
	SKU               string    `json:"sku"`
	ProductName       string    `json:"product_name"`
	VariantName       *string   `json:"variant_name,omitempty"`
	QuantityAvailable int       `json:"qty_available"`
	QuantityReserved  int       `json:"qty_reserved"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type StockFilter struct {
	InStockOnly     bool
	IncludeReserved bool
}

// StockInfo is the stock snapshot attached to a selected item.
type StockInfo struct {
	Available int `json:"available_stock"`
	Reserved  int `json:"reserved_stock"`
}
