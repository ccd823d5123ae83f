package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

func (c *Client) GetWarehouseStock(ctx context.Context, warehouseID string, filter models.StockFilter) ([]models.StockRow, error) {
	query := url.Values{}
	if filter.InStockOnly {
		query.Set("in_stock_only", "true")
	}
	if filter.IncludeReserved {
		query.Set("include_reserved", "true")
	}

	var rows []models.StockRow
	err := c.do(ctx, call{
		op:      "get warehouse stock",
		method:  http.MethodGet,
		path:    "/warehouses/" + url.PathEscape(warehouseID) + "/stock",
		query:   query,
		timeout: c.requestTimeout,
	}, &rows)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []models.StockRow{}
	}
	return rows, nil
}

func (c *Client) SearchProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	query := url.Values{}
	setIf(query, "search", q.Search)
	setIf(query, "warehouse_id", q.WarehouseID)
	if q.IncludeVariants {
		query.Set("include_variants", "true")
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var page models.ProductPage
	err := c.do(ctx, call{
		op:      "search products",
		method:  http.MethodGet,
		path:    "/products",
		query:   query,
		timeout: c.requestTimeout,
	}, &page)
	if err != nil {
		return nil, err
	}

	return &page, nil
}
