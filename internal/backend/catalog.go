package backend

import (
	"context"
	"net/http"

	"supplyChainTracking/models"
)

// Catalog listings. All of these tolerate both paged and bare-array bodies.

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var all []models.Product
	err := c.getList(ctx, "/products", nil,
		func() interface{} { return &[]models.Product{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Product)...) })
	return all, err
}

func (c *Client) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	var created models.Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var all []models.Batch
	err := c.getList(ctx, "/batches", nil,
		func() interface{} { return &[]models.Batch{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Batch)...) })
	return all, err
}

func (c *Client) CreateBatch(ctx context.Context, b models.Batch) (*models.Batch, error) {
	var created models.Batch
	if err := c.do(ctx, http.MethodPost, "/batches", nil, b, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListPackages(ctx context.Context) ([]models.Package, error) {
	var all []models.Package
	err := c.getList(ctx, "/packages", nil,
		func() interface{} { return &[]models.Package{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Package)...) })
	return all, err
}

func (c *Client) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var p models.Package
	if err := c.do(ctx, http.MethodGet, "/packages/"+id, nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	var all []models.Checkpoint
	err := c.getList(ctx, "/checkpoints", nil,
		func() interface{} { return &[]models.Checkpoint{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Checkpoint)...) })
	return all, err
}

func (c *Client) ListSensorTypes(ctx context.Context) ([]models.SensorType, error) {
	var all []models.SensorType
	err := c.getList(ctx, "/sensor-types", nil,
		func() interface{} { return &[]models.SensorType{} },
		func(page interface{}) { all = append(all, *page.(*[]models.SensorType)...) })
	return all, err
}
