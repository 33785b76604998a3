package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	snapshotcache "linecount/internal/cache/snapshot"
	snapshotrepo "linecount/internal/gateway/repository/snapshot"
	"linecount/internal/gateway/service/counter"
	"linecount/internal/linecount"
)

const serviceVersion = "3.0"

// LineCountHandler serves the line-count, readme, health and index endpoints.
type LineCountHandler struct {
	svc          *counter.Service
	storeLabel   string
	cacheMetrics func() snapshotcache.MetricsSnapshot
}

func NewLineCountHandler(svc *counter.Service, storeLabel string) *LineCountHandler {
	return &LineCountHandler{svc: svc, storeLabel: storeLabel}
}

// WithCacheMetrics adds the snapshot cache counters to /health.
func (h *LineCountHandler) WithCacheMetrics(fn func() snapshotcache.MetricsSnapshot) *LineCountHandler {
	h.cacheMetrics = fn
	return h
}

func (h *LineCountHandler) HandleLineCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	report, err := h.svc.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *LineCountHandler) HandleCached(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	snap, err := h.svc.Cached(r.Context())
	if err != nil {
		if errors.Is(err, snapshotrepo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "No snapshot", "total": 0})
			return
		}
		writeError(w, err)
		return
	}
	body, err := h.snapshotBody(snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// snapshotBody flattens the report and adds cache metadata.
func (h *LineCountHandler) snapshotBody(snap snapshotrepo.Snapshot) (map[string]any, error) {
	raw, err := json.Marshal(snap.Report)
	if err != nil {
		return nil, err
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	body["cached_at"] = snap.CapturedAt.UnixMilli()
	body["age_ms"] = snap.Age(h.svc.Now()).Milliseconds()
	body["fresh"] = h.svc.IsFresh(snap)
	return body, nil
}

func (h *LineCountHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	readme, err := h.svc.Readme(r.Context())
	if err != nil {
		if linecount.KindOf(err) == linecount.KindNotFound {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "README not found"})
			return
		}
		status, body := errorPayload(err)
		delete(body, "total")
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":   readme.Content,
		"name":      readme.Name,
		"timestamp": h.svc.Now().UnixMilli(),
	})
}

func (h *LineCountHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Config()
	body := map[string]any{
		"status":           "healthy",
		"branch":           cfg.Repo.Ref,
		"repository":       cfg.Repo.FullName(),
		"token_configured": cfg.TokenConfigured(),
		"snapshot_store":   h.storeLabel,
	}
	if rate, ok := h.svc.LastRate(); ok {
		body["rate_limit"] = rate
	}
	if h.cacheMetrics != nil {
		body["snapshot_cache"] = h.cacheMetrics()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *LineCountHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Endpoint not found",
			"path":  r.URL.Path,
		})
		return
	}
	cfg := h.svc.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "Line Counter",
		"version":    serviceVersion,
		"status":     "running",
		"repository": cfg.Repo.FullName(),
		"branch":     cfg.Repo.Ref,
		"endpoints": map[string]string{
			"line_count": "/api/line-count",
			"cached":     "/api/line-count/cached",
			"watch":      "/ws/line-count",
			"readme":     "/api/readme",
			"health":     "/health",
		},
	})
}
