// Package gateway is the HTTP surface the dashboard frontend talks to. It
// serves projected segment buckets, the shipment and catalog listings, the
// notification center and the realtime status feed, all scoped to the
// authenticated principal.
package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/internal/notify"
	"supplyChainTracking/internal/tracker"
	"supplyChainTracking/models"
)

// Catalog is the slice of the upstream client the gateway proxies directly,
// without going through the tracker's cache.
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
	CreateBatch(ctx context.Context, b models.Batch) (*models.Batch, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error)
	ListSensorTypes(ctx context.Context) ([]models.SensorType, error)
}

// Server holds the gateway's dependencies.
type Server struct {
	tracker *tracker.Tracker
	catalog Catalog
	qrKey   []byte
	logger  *zap.Logger
}

// New creates a gateway server.
func New(t *tracker.Tracker, catalog Catalog, qrKey []byte, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{tracker: t, catalog: catalog, qrKey: qrKey, logger: logger}
}

// Routes builds the router. Every route except /healthz requires a valid
// bearer token signed with jwtSecret.
func (s *Server) Routes(jwtSecret string) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.Middleware(jwtSecret, "/healthz"))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/events", s.handleEvents)

	r.Get("/segments", s.handleListSegments)
	r.Get("/segments/incoming", s.handleIncomingSegments)
	r.Post("/segments/{id}/accept", s.handleAcceptSegment)
	r.Post("/segments/{id}/takeover", s.handleTakeOverSegment)
	r.Post("/segments/{id}/handover", s.handleHandOverSegment)

	r.Get("/shipments", s.handleListShipments)
	r.Post("/shipments", s.handleCreateShipment)

	r.Get("/products", s.handleListProducts)
	r.Post("/products", s.handleCreateProduct)
	r.Get("/batches", s.handleListBatches)
	r.Post("/batches", s.handleCreateBatch)
	r.Get("/packages", s.handleListPackages)
	r.Get("/packages/{id}/qr", s.handlePackageQR)
	r.Get("/checkpoints", s.handleListCheckpoints)
	r.Get("/sensor-types", s.handleListSensorTypes)

	r.Get("/notifications", s.handleListNotifications)
	r.Get("/notifications/unread-count", s.handleUnreadCount)
	r.Post("/notifications/{id}/read", s.handleMarkRead)
	r.Post("/notifications/{id}/dismiss", s.handleDismiss)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvents reports the realtime channel state and the recent toast ring.
// The frontend polls this to drive the connection badge and toast stack.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequirePrincipal(r); err != nil {
		respondError(w, err)
		return
	}
	toasts := s.tracker.RecentToasts()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"connectionState": s.tracker.ConnState(),
		"toasts":          toasts,
	})
}
