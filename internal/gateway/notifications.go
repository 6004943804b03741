package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/models"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	notifications, err := s.tracker.Notifications(r.Context(), p.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	respond(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	count, err := s.tracker.Unread(r.Context(), p.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.tracker.MarkRead(r.Context(), p.Name, id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "read", "id": id})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.tracker.Dismiss(r.Context(), p.Name, id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "dismissed", "id": id})
}
