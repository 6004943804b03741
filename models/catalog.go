package models

// Product is a manufacturer-defined product line.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"ownerId,omitempty"`
}

// Batch groups produced units of a product.
type Batch struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Package is a trackable physical unit belonging to a batch.
type Package struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	BatchID     string   `json:"batchId"`
	BatchCode   string   `json:"batchCode,omitempty"`
	OwnerID     string   `json:"ownerId,omitempty"`
	SensorTypes []string `json:"sensorTypes,omitempty"`
}

// SensorType names a kind of sensor a package can carry (temperature,
// humidity, shock, ...).
type SensorType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}
