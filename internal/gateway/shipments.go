package gateway

import (
	"net/http"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/models"
)

func (s *Server) handleListShipments(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	shipments, err := s.tracker.Shipments(r.Context(), p.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"shipments": shipments})
}

// handleCreateShipment is manufacturer-only.
func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireManufacturer(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req models.CreateShipmentRequest
	if err := decodeBody(r, &req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	created, err := s.tracker.CreateShipment(r.Context(), p.Name, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}
