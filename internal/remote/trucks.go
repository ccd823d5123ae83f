package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

func (c *Client) GetTruck(ctx context.Context, truckID string) (*models.Truck, error) {
	var truck models.Truck
	err := c.do(ctx, call{
		op:      "get truck",
		method:  http.MethodGet,
		path:    "/trucks/" + url.PathEscape(truckID),
		timeout: c.requestTimeout,
	}, &truck)
	if err != nil {
		return nil, err
	}

	return &truck, nil
}

func (c *Client) GetTruckInventory(ctx context.Context, truckID string) ([]models.TruckInventoryRow, error) {
	var rows []models.TruckInventoryRow
	err := c.do(ctx, call{
		op:      "get truck inventory",
		method:  http.MethodGet,
		path:    "/trucks/" + url.PathEscape(truckID) + "/inventory",
		timeout: c.requestTimeout,
	}, &rows)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []models.TruckInventoryRow{}
	}
	return rows, nil
}

func (c *Client) LoadTruck(ctx context.Context, req models.LoadTruckRequest) (*models.LoadTruckResult, error) {
	var result models.LoadTruckResult
	err := c.do(ctx, call{
		op:      "load truck",
		method:  http.MethodPost,
		path:    "/trucks/" + url.PathEscape(req.TruckID) + "/load",
		body:    req,
		timeout: c.mutationTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
