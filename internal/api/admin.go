package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dibull/preview-renderer/internal/notify"
	"github.com/dibull/preview-renderer/internal/relay"
	"github.com/dibull/preview-renderer/internal/seo"
	"github.com/dibull/preview-renderer/internal/store"
	"github.com/dibull/preview-renderer/internal/telemetry"
)

// upsertSettings creates or replaces the settings row for a page path.
func (s *Server) upsertSettings(w http.ResponseWriter, r *http.Request) {
	var req seo.PageSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !strings.HasPrefix(req.PagePath, "/") {
		writeError(s.logger, w, http.StatusBadRequest, "page_path must begin with /")
		return
	}
	if err := s.settings.Upsert(r.Context(), req); err != nil {
		s.logger.Error("upsert settings failed", zap.String("path", req.PagePath), zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.publishInvalidation(r, req.PagePath, notify.ActionUpserted)
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"page_path": req.PagePath, "status": "saved"})
}

// getOrListSettings returns one row when ?path= is given, all rows otherwise.
func (s *Server) getOrListSettings(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		recs, err := s.settings.List(r.Context())
		if err != nil {
			writeError(s.logger, w, http.StatusInternalServerError, "failed to list settings")
			return
		}
		writeJSON(s.logger, w, http.StatusOK, map[string]any{"settings": recs})
		return
	}

	rec, err := s.settings.Get(r.Context(), path)
	if errors.Is(err, store.ErrNotFound) {
		writeError(s.logger, w, http.StatusNotFound, "settings not found")
		return
	}
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "failed to fetch settings")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"settings": rec})
}

// deleteSettings removes the row for ?path=.
func (s *Server) deleteSettings(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(s.logger, w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	err := s.settings.Delete(r.Context(), path)
	if errors.Is(err, store.ErrNotFound) {
		writeError(s.logger, w, http.StatusNotFound, "settings not found")
		return
	}
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "failed to delete settings")
		return
	}
	s.publishInvalidation(r, path, notify.ActionDeleted)
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"page_path": path, "status": "deleted"})
}

// publishInvalidation is best-effort: a failed publish never fails the write.
func (s *Server) publishInvalidation(r *http.Request, path, action string) {
	event := notify.Event{PagePath: path, Action: action, At: time.Now().UTC()}
	if _, err := s.notifier.Publish(r.Context(), s.cfg.Notify.Topic, event); err != nil {
		s.logger.Warn("publish invalidation failed",
			zap.String("path", path),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}
	telemetry.ObserveInvalidation(action)
}

// contact relays a contact-form submission through the CAPTCHA and email
// collaborators, mapping failures to status codes.
func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var msg relay.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		telemetry.ObserveContactRelay("invalid")
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}

	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = host
	}

	err := s.relay.Forward(r.Context(), msg, remoteIP)
	switch {
	case err == nil:
		telemetry.ObserveContactRelay("sent")
		writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "sent"})
	case errors.Is(err, relay.ErrInvalidInput):
		telemetry.ObserveContactRelay("invalid")
		writeError(s.logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, relay.ErrVerificationFailed):
		telemetry.ObserveContactRelay("rejected")
		writeError(s.logger, w, http.StatusForbidden, "captcha verification failed")
	default:
		telemetry.ObserveContactRelay("failed")
		s.logger.Error("contact relay failed", zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "failed to forward message")
	}
}
