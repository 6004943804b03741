package backend

import (
	"context"
	"net/http"

	"supplyChainTracking/models"
)

// CreateShipment submits a new shipment and returns the created record.
func (c *Client) CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error) {
	var created models.Shipment
	if err := c.do(ctx, http.MethodPost, "/shipments", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListShipments fetches the actor's shipments.
func (c *Client) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	var all []models.Shipment
	err := c.getList(ctx, "/shipments", nil,
		func() interface{} { return &[]models.Shipment{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Shipment)...) })
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GetShipment fetches one shipment with its segments.
func (c *Client) GetShipment(ctx context.Context, id string) (*models.Shipment, error) {
	var s models.Shipment
	if err := c.do(ctx, http.MethodGet, "/shipments/"+id, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
