package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/cmlabs-hris/hris-rollup-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type RollupHandler interface {
	// GetTree handles GET /rollup/tree
	GetTree(w http.ResponseWriter, r *http.Request)
	// PreviewTree handles POST /rollup/tree/preview
	PreviewTree(w http.ResponseWriter, r *http.Request)
	// GetNode handles GET /rollup/nodes/{id}
	GetNode(w http.ResponseWriter, r *http.Request)
	// GetProgressChart handles GET /rollup/nodes/{id}/progress.png
	GetProgressChart(w http.ResponseWriter, r *http.Request)
	// GetLeaderboard handles GET /rollup/leaderboard
	GetLeaderboard(w http.ResponseWriter, r *http.Request)
	// ExportLeaderboard handles GET /rollup/leaderboard/export
	ExportLeaderboard(w http.ResponseWriter, r *http.Request)
	// Refresh handles POST /rollup/refresh
	Refresh(w http.ResponseWriter, r *http.Request)
	// GetStreamToken handles GET /rollup/stream-token
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	// Stream handles GET /rollup/stream?token=
	Stream(w http.ResponseWriter, r *http.Request)
}

type rollupHandlerImpl struct {
	rollupService rollup.RollupService
	jwtService    jwt.Service
}

func NewRollupHandler(rollupService rollup.RollupService, jwtService jwt.Service) RollupHandler {
	return &rollupHandlerImpl{
		rollupService: rollupService,
		jwtService:    jwtService,
	}
}

// getClaim extracts a string claim from JWT context
func getClaim(r *http.Request, key string) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}

// treeETag identifies a tree response by snapshot, elapsed work days and expansion state
func treeETag(resp rollup.TreeResponse) string {
	h := fnv.New32a()
	h.Write([]byte(strings.Join(resp.Expanded, ",")))
	return fmt.Sprintf(`W/"%s-%d-%08x"`, resp.SnapshotID, resp.ElapsedWorkDays, h.Sum32())
}

// GetTree handles GET /rollup/tree
func (h *rollupHandlerImpl) GetTree(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := rollup.TreeRequest{
		Period:   query.Get("period"), // format: YYYY-MM, default: current month
		Expand:   rollup.ExpandMode(query.Get("expand")),
		Expanded: validator.SplitList(query.Get("expanded")),
		Toggle:   validator.SplitList(query.Get("toggle")),
	}

	result, err := h.rollupService.GetTree(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	etag := treeETag(result)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	response.Success(w, result)
}

// PreviewTree handles POST /rollup/tree/preview
func (h *rollupHandlerImpl) PreviewTree(w http.ResponseWriter, r *http.Request) {
	var req rollup.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.rollupService.PreviewTree(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func nodeRequest(r *http.Request) rollup.NodeRequest {
	return rollup.NodeRequest{
		Period: r.URL.Query().Get("period"),
		NodeID: chi.URLParam(r, "id"),
	}
}

// GetNode handles GET /rollup/nodes/{id}
func (h *rollupHandlerImpl) GetNode(w http.ResponseWriter, r *http.Request) {
	result, err := h.rollupService.GetNode(r.Context(), nodeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetProgressChart handles GET /rollup/nodes/{id}/progress.png
func (h *rollupHandlerImpl) GetProgressChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.rollupService.RenderProgress(r.Context(), nodeRequest(r), &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func leaderboardRequest(r *http.Request) (rollup.LeaderboardRequest, error) {
	query := r.URL.Query()
	req := rollup.LeaderboardRequest{
		Period:     query.Get("period"),
		SortBy:     rollup.SortKey(query.Get("sort_by")),
		Order:      rollup.SortDirection(strings.ToLower(query.Get("order"))),
		Toggle:     rollup.SortKey(query.Get("toggle")),
		Department: query.Get("department"),
		Search:     query.Get("search"),
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, validator.ValidationErrors{{Field: "limit", Message: "limit must be a number"}}
		}
		req.Limit = limit
	}
	return req, nil
}

// GetLeaderboard handles GET /rollup/leaderboard
func (h *rollupHandlerImpl) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	req, err := leaderboardRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.rollupService.GetLeaderboard(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportLeaderboard handles GET /rollup/leaderboard/export
func (h *rollupHandlerImpl) ExportLeaderboard(w http.ResponseWriter, r *http.Request) {
	req, err := leaderboardRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	info, err := h.rollupService.ExportLeaderboard(r.Context(), req, &buf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leaderboard-%s.xlsx"`, info.Period))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Refresh handles POST /rollup/refresh
func (h *rollupHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	var req rollup.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.rollupService.Refresh(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Snapshot refreshed", result)
}

// GetStreamToken generates a short-lived token for SSE connections
func (h *rollupHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	userID := getClaim(r, "user_id")
	companyID := getClaim(r, "company_id")
	if userID == "" || companyID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(userID, companyID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, rollup.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream handles SSE connection for snapshot updates
func (h *rollupHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	companyID, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.rollupService.Subscribe(r.Context(), companyID)
	defer cleanup()

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"company_id\":%q}\n\n", companyID)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			// Send keepalive ping
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
