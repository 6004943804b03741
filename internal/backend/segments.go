package backend

import (
	"context"
	"net/http"
	"net/url"

	"supplyChainTracking/internal/geo"
	"supplyChainTracking/models"
)

// ListSegments fetches the actor's segments, optionally filtered by raw
// backend status. Pagination is followed to exhaustion.
func (c *Client) ListSegments(ctx context.Context, status string) ([]models.RawSegment, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var all []models.RawSegment
	err := c.getList(ctx, "/segments", query,
		func() interface{} { return &[]models.RawSegment{} },
		func(page interface{}) { all = append(all, *page.(*[]models.RawSegment)...) })
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListIncomingSegments fetches segments addressed to the actor awaiting
// acceptance.
func (c *Client) ListIncomingSegments(ctx context.Context) ([]models.RawSegment, error) {
	var all []models.RawSegment
	err := c.getList(ctx, "/segments/incoming", nil,
		func() interface{} { return &[]models.RawSegment{} },
		func(page interface{}) { all = append(all, *page.(*[]models.RawSegment)...) })
	if err != nil {
		return nil, err
	}
	return all, nil
}

// AcceptSegment submits the accept transition for a segment.
func (c *Client) AcceptSegment(ctx context.Context, segmentID string) error {
	return c.do(ctx, http.MethodPost, "/segments/"+segmentID+"/accept", nil, nil, nil)
}

type coordinateBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TakeOverSegment submits the take-over transition with the supplier's
// GPS-verified position.
func (c *Client) TakeOverSegment(ctx context.Context, segmentID string, pos geo.Coordinate) error {
	body := coordinateBody{Latitude: pos.Latitude, Longitude: pos.Longitude}
	return c.do(ctx, http.MethodPost, "/segments/"+segmentID+"/takeover", nil, body, nil)
}

// HandOverSegment submits the hand-over transition with the current
// custodian's GPS-verified position.
func (c *Client) HandOverSegment(ctx context.Context, segmentID string, pos geo.Coordinate) error {
	body := coordinateBody{Latitude: pos.Latitude, Longitude: pos.Longitude}
	return c.do(ctx, http.MethodPost, "/segments/"+segmentID+"/handover", nil, body, nil)
}
