package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/internal/qr"
	"supplyChainTracking/models"
)

// Catalog listings are straight proxies; the tracker's cache only covers
// segment and notification queries.

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	products, err := s.catalog.ListProducts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireManufacturer(r); err != nil {
		respondError(w, err)
		return
	}
	var p models.Product
	if err := decodeBody(r, &p); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	created, err := s.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	batches, err := s.catalog.ListBatches(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"batches": batches})
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireManufacturer(r); err != nil {
		respondError(w, err)
		return
	}
	var b models.Batch
	if err := decodeBody(r, &b); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	created, err := s.catalog.CreateBatch(r.Context(), b)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	packages, err := s.catalog.ListPackages(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if packages == nil {
		packages = []models.Package{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"packages": packages})
}

// handlePackageQR renders the authenticated QR payload for a package label.
func (s *Server) handlePackageQR(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	pkg, err := s.catalog.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	payload, err := qr.Encode(qr.Payload{
		PackageCode: pkg.Code,
		BatchCode:   pkg.BatchCode,
		Sensors:     pkg.SensorTypes,
	}, s.qrKey)
	if err != nil {
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"packageId": pkg.ID, "payload": payload})
}

func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	checkpoints, err := s.catalog.ListCheckpoints(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if checkpoints == nil {
		checkpoints = []models.Checkpoint{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"checkpoints": checkpoints})
}

func (s *Server) handleListSensorTypes(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	types, err := s.catalog.ListSensorTypes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if types == nil {
		types = []models.SensorType{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"sensorTypes": types})
}
