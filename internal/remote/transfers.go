package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

func (c *Client) ListTransfers(ctx context.Context, filter models.TransferFilter) (*models.TransferPage, error) {
	query := url.Values{}
	setIf(query, "source_warehouse_id", filter.SourceWarehouseID)
	setIf(query, "destination_warehouse_id", filter.DestinationWarehouseID)
	setIf(query, "status", string(filter.Status))
	setIf(query, "date_from", filter.DateFrom.String())
	setIf(query, "date_to", filter.DateTo.String())
	setIf(query, "sort_by", filter.SortBy)
	setIf(query, "sort_order", filter.SortOrder)
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var page models.TransferPage
	err := c.do(ctx, call{
		op:      "list transfers",
		method:  http.MethodGet,
		path:    "/transfers",
		query:   query,
		timeout: c.requestTimeout,
	}, &page)
	if err != nil {
		return nil, err
	}

	return &page, nil
}

func (c *Client) GetTransfer(ctx context.Context, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	err := c.do(ctx, call{
		op:      "get transfer",
		method:  http.MethodGet,
		path:    "/transfers/" + url.PathEscape(transferID),
		timeout: c.requestTimeout,
	}, &transfer)
	if err != nil {
		return nil, err
	}

	return &transfer, nil
}

func (c *Client) ValidateTransfer(ctx context.Context, req models.ValidateTransferRequest) (*models.ValidationResult, error) {
	var result models.ValidationResult
	err := c.do(ctx, call{
		op:      "validate transfer",
		method:  http.MethodPost,
		path:    "/transfers/validate",
		body:    req,
		timeout: c.validationTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (*models.Transfer, error) {
	var transfer models.Transfer
	err := c.do(ctx, call{
		op:      "create transfer",
		method:  http.MethodPost,
		path:    "/transfers",
		body:    req,
		timeout: c.mutationTimeout,
	}, &transfer)
	if err != nil {
		return nil, err
	}

	return &transfer, nil
}

func (c *Client) UpdateTransferStatus(ctx context.Context, transferID string, req models.UpdateStatusRequest) (*models.Transfer, error) {
	var transfer models.Transfer
	err := c.do(ctx, call{
		op:      "update transfer status",
		method:  http.MethodPatch,
		path:    "/transfers/" + url.PathEscape(transferID) + "/status",
		body:    req,
		timeout: c.mutationTimeout,
	}, &transfer)
	if err != nil {
		return nil, err
	}

	return &transfer, nil
}

func (c *Client) GetTransferWorkflow(ctx context.Context) (*models.TransferWorkflow, error) {
	var workflow models.TransferWorkflow
	err := c.do(ctx, call{
		op:      "get transfer workflow",
		method:  http.MethodGet,
		path:    "/transfers/workflow",
		timeout: c.requestTimeout,
	}, &workflow)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}

func setIf(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}
