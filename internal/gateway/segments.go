package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/internal/lifecycle"
	"supplyChainTracking/models"
)

// stageBucket is one entry of the bucketed segment response. Buckets come
// back in fixed lifecycle order and every stage is present, empty or not.
type stageBucket struct {
	Stage    lifecycle.Stage      `json:"stage"`
	Segments []models.SegmentView `json:"segments"`
}

// handleListSegments returns the caller's segments bucketed by stage. An
// optional ?stage= query narrows the response to one bucket.
func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	buckets, err := s.tracker.SegmentsByStage(r.Context(), p.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("stage")); q != "" {
		stage := lifecycle.Stage(strings.ToUpper(q))
		if !validStage(stage) {
			respond(w, http.StatusBadRequest,
				map[string]string{"error": fmt.Sprintf("unknown stage %q", q)})
			return
		}
		respond(w, http.StatusOK, stageBucket{Stage: stage, Segments: buckets[stage]})
		return
	}

	out := make([]stageBucket, 0, len(lifecycle.Stages()))
	for _, stage := range lifecycle.Stages() {
		out = append(out, stageBucket{Stage: stage, Segments: buckets[stage]})
	}
	respond(w, http.StatusOK, map[string]interface{}{"stages": out})
}

// handleIncomingSegments lists segments addressed to the caller that await
// acceptance.
func (s *Server) handleIncomingSegments(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	segments, err := s.tracker.IncomingSegments(r.Context(), p.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	if segments == nil {
		segments = []models.SegmentView{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"segments": segments})
}

func validStage(s lifecycle.Stage) bool {
	for _, known := range lifecycle.Stages() {
		if s == known {
			return true
		}
	}
	return false
}

// coordinateRequest accepts latitude/longitude as JSON numbers or strings;
// validation happens downstream before any upstream call.
type coordinateRequest struct {
	Latitude  interface{} `json:"latitude"`
	Longitude interface{} `json:"longitude"`
}

// decodeCoordinates reads an optional coordinate body. An absent body leaves
// both fields empty so coordinate validation reports them; malformed JSON is
// a decode error.
func decodeCoordinates(r *http.Request) (coordinateRequest, error) {
	var body coordinateRequest
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		return coordinateRequest{}, err
	}
	return body, nil
}

func coordString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func (s *Server) handleAcceptSegment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.tracker.Accept(r.Context(), p.Name, id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "accepted", "segmentId": id})
}

func (s *Server) handleTakeOverSegment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	body, err := decodeCoordinates(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.tracker.TakeOver(r.Context(), p.Name, id,
		coordString(body.Latitude), coordString(body.Longitude)); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "in_transit", "segmentId": id})
}

func (s *Server) handleHandOverSegment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	body, err := decodeCoordinates(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.tracker.HandOver(r.Context(), p.Name, id,
		coordString(body.Latitude), coordString(body.Longitude)); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "delivered", "segmentId": id})
}
