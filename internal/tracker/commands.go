package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"supplyChainTracking/internal/backend"
	"supplyChainTracking/internal/cache"
	"supplyChainTracking/internal/geo"
	"supplyChainTracking/internal/lifecycle"
	"supplyChainTracking/models"
)

// ValidationError is a client-side, pre-flight rejection: it always blocks
// the network call and carries a field-identifying message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func validation(msg string) error { return &ValidationError{Msg: msg} }

// Pre-flight validation messages, verbatim in the dashboard.
var (
	ErrInFlight      = errors.New("this action is already in progress for the segment")
	errBadStage      = "segment is not in the required stage for this action"
	errNotPermitted  = "this action is not permitted for the segment"
	msgBadCoords     = "provide valid latitude and longitude"
	msgNoPackages    = "Select at least one package"
	msgNoDestination = "Select a destination"
	msgNoRouteLegs   = "Add at least one route leg"
)

// commandError converts a backend failure into the user-visible transient
// notice: the server's structured message when one was extracted, otherwise
// a generic per-command fallback.
func commandError(command string, err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s", apiErr.Message)
	}
	return fmt.Errorf("failed to %s, please try again", command)
}

// begin registers a command/entity pair as in flight. Concurrency is
// per-entity: the same command may run concurrently for different segments,
// but a second invocation for the same segment is suppressed.
func (t *Tracker) begin(command, entity string) (func(), error) {
	key := command + "|" + entity
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inflight[key]; busy {
		return nil, ErrInFlight
	}
	t.inflight[key] = struct{}{}
	return func() {
		t.mu.Lock()
		delete(t.inflight, key)
		t.mu.Unlock()
	}, nil
}

// InFlight reports whether the command is currently running for the entity.
// The gateway uses it to disable the matching button.
func (t *Tracker) InFlight(command, entity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, busy := t.inflight[command+"|"+entity]
	return busy
}

// requireSegment loads the segment and checks stage and capability flag.
func (t *Tracker) requireSegment(ctx context.Context, actor, segmentID string, stage lifecycle.Stage, action lifecycle.Action) (models.SegmentView, error) {
	v, found, err := t.FindSegment(ctx, actor, segmentID)
	if err != nil {
		return models.SegmentView{}, err
	}
	if !found {
		return models.SegmentView{}, validation("segment not found")
	}
	if lifecycle.Normalize(v.Status) != stage {
		return models.SegmentView{}, validation(errBadStage)
	}
	if !lifecycle.IsActionAllowed(v, action) {
		return models.SegmentView{}, validation(errNotPermitted)
	}
	return v, nil
}

// Accept runs the accept transition: stage PENDING, canAccept, not already
// in flight. On success all per-stage segment queries for the actor are
// invalidated; the segment leaves the PENDING bucket on the next fetch.
func (t *Tracker) Accept(ctx context.Context, actor, segmentID string) error {
	if _, err := t.requireSegment(ctx, actor, segmentID, lifecycle.StagePending, lifecycle.ActionAccept); err != nil {
		return err
	}
	done, err := t.begin("accept", segmentID)
	if err != nil {
		return err
	}
	defer done()

	reqID := uuid.NewString()
	if err := t.backend.AcceptSegment(ctx, segmentID); err != nil {
		t.logger.Warn("accept failed",
			zap.String("segmentId", segmentID),
			zap.String("requestId", reqID),
			zap.Error(err))
		return commandError("accept segment", err)
	}
	t.cache.Invalidate(cache.Key(actor, "segments"))
	t.logger.Info("segment accepted",
		zap.String("segmentId", segmentID),
		zap.String("requestId", reqID))
	return nil
}

// TakeOver runs the take-over transition: stage ACCEPTED, canTakeover, and
// parseable in-range coordinates. Coordinate validation happens before any
// network call.
func (t *Tracker) TakeOver(ctx context.Context, actor, segmentID, lat, lng string) error {
	pos, err := geo.ParseCoordinate(lat, lng)
	if err != nil {
		return validation(msgBadCoords)
	}
	if _, err := t.requireSegment(ctx, actor, segmentID, lifecycle.StageAccepted, lifecycle.ActionTakeover); err != nil {
		return err
	}
	done, err := t.begin("takeover", segmentID)
	if err != nil {
		return err
	}
	defer done()

	reqID := uuid.NewString()
	if err := t.backend.TakeOverSegment(ctx, segmentID, pos); err != nil {
		t.logger.Warn("takeover failed",
			zap.String("segmentId", segmentID),
			zap.String("requestId", reqID),
			zap.Error(err))
		return commandError("take over segment", err)
	}
	t.cache.Invalidate(cache.Key(actor, "segments"))
	t.logger.Info("segment taken over",
		zap.String("segmentId", segmentID),
		zap.String("requestId", reqID),
		zap.Float64("latitude", pos.Latitude),
		zap.Float64("longitude", pos.Longitude))
	return nil
}

// TakeOverAt is TakeOver with the position acquired from a location
// provider. Acquisition failure blocks the submission entirely; permission
// denial gets its own user-visible reason.
func (t *Tracker) TakeOverAt(ctx context.Context, actor, segmentID string, provider geo.Provider) error {
	pos, err := geo.Acquire(ctx, provider)
	if err != nil {
		if errors.Is(err, geo.ErrPermissionDenied) {
			return validation("enable location access to take over this segment")
		}
		return validation("could not determine your location, try again")
	}
	return t.TakeOver(ctx, actor, segmentID,
		fmt.Sprintf("%v", pos.Latitude), fmt.Sprintf("%v", pos.Longitude))
}

// HandOver runs the hand-over transition: stage IN_TRANSIT, canHandover,
// coordinates required as for TakeOver. Invalidates incoming and per-stage
// queries.
func (t *Tracker) HandOver(ctx context.Context, actor, segmentID, lat, lng string) error {
	pos, err := geo.ParseCoordinate(lat, lng)
	if err != nil {
		return validation(msgBadCoords)
	}
	if _, err := t.requireSegment(ctx, actor, segmentID, lifecycle.StageInTransit, lifecycle.ActionHandover); err != nil {
		return err
	}
	done, err := t.begin("handover", segmentID)
	if err != nil {
		return err
	}
	defer done()

	reqID := uuid.NewString()
	if err := t.backend.HandOverSegment(ctx, segmentID, pos); err != nil {
		t.logger.Warn("handover failed",
			zap.String("segmentId", segmentID),
			zap.String("requestId", reqID),
			zap.Error(err))
		return commandError("hand over segment", err)
	}
	t.cache.Invalidate(cache.Key(actor, "segments"))
	t.logger.Info("segment handed over",
		zap.String("segmentId", segmentID),
		zap.String("requestId", reqID),
		zap.Float64("latitude", pos.Latitude),
		zap.Float64("longitude", pos.Longitude))
	return nil
}

// dateLayouts are the accepted inputs for route leg dates. Anything else
// passes through unchanged rather than erroring.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// canonicalDate converts a date field to RFC3339 UTC when it parses.
func canonicalDate(s string) string {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return s
}

// CreateShipment validates and submits a new shipment for a manufacturer
// actor. Validation failures block submission with field-identifying
// messages; the manufacturer's shipment list is invalidated on success.
func (t *Tracker) CreateShipment(ctx context.Context, actor string, req models.CreateShipmentRequest) (*models.Shipment, error) {
	if len(req.PackageIDs) == 0 {
		return nil, validation(msgNoPackages)
	}
	if req.DestinationID == "" {
		return nil, validation(msgNoDestination)
	}
	legs := make([]models.RouteLeg, 0, len(req.Legs))
	for _, leg := range req.Legs {
		if leg.StartCheckpointID == "" || leg.EndCheckpointID == "" {
			continue
		}
		leg.ExpectedShipDate = canonicalDate(leg.ExpectedShipDate)
		leg.EstimatedArrival = canonicalDate(leg.EstimatedArrival)
		legs = append(legs, leg)
	}
	if len(legs) == 0 {
		return nil, validation(msgNoRouteLegs)
	}
	req.Legs = legs

	done, err := t.begin("create-shipment", actor)
	if err != nil {
		return nil, err
	}
	defer done()

	reqID := uuid.NewString()
	created, err := t.backend.CreateShipment(ctx, req)
	if err != nil {
		t.logger.Warn("create shipment failed",
			zap.String("actor", actor),
			zap.String("requestId", reqID),
			zap.Error(err))
		return nil, commandError("create shipment", err)
	}
	t.cache.Invalidate(cache.Key(actor, "shipments"))
	t.cache.Invalidate(cache.Key(actor, "segments"))
	t.logger.Info("shipment created",
		zap.String("actor", actor),
		zap.String("requestId", reqID),
		zap.String("shipmentId", created.DisplayID()),
		zap.Int("legs", len(req.Legs)),
		zap.Int("packages", len(req.PackageIDs)))
	return created, nil
}
