package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	fbsync "focusboard/internal/sync"

	"github.com/google/uuid"
)

const (
	snapshotsPath      = "/api/snapshots/"
	defaultHTTPTimeout = 10 * time.Second
	defaultUserAgent   = "focusboard/1"
	maxSnapshotBytes   = 32 << 20
)

// errStatus is returned by the HTTP client for unexpected status codes.
type errStatus struct {
	method string
	path   string
	code   int
	msg    string
}

func (e *errStatus) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.method, e.path, e.code, e.msg)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.method, e.path, e.code)
}

// HTTPClient talks to a snapshot server started with NewHandler.
type HTTPClient struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

var _ fbsync.Remote = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the server at base ("host:port" or a
// full URL). A non-positive timeout uses the default.
func NewHTTPClient(base string, timeout time.Duration) (*HTTPClient, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPClient{
		baseURL:   u,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("sync url is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse sync url %q: %w", base, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (c *HTTPClient) snapshotURL(userID string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + snapshotsPath + userID
	u.RawPath = c.baseURL.EscapedPath() + snapshotsPath + url.PathEscape(userID)
	return u.String()
}

// Fetch implements sync.Remote.
func (c *HTTPClient) Fetch(ctx context.Context, userID string) (*fbsync.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, userID, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return fbsync.DecodeSnapshot(data)
}

// Store implements sync.Remote.
func (c *HTTPClient) Store(ctx context.Context, snap fbsync.Snapshot) error {
	if snap.UserID == "" {
		return fbsync.ErrNoUser
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, snap.UserID, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp, http.StatusNoContent, http.StatusOK)
}

func (c *HTTPClient) do(ctx context.Context, method, userID string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.snapshotURL(userID), rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
	return &errStatus{
		method: resp.Request.Method,
		path:   resp.Request.URL.Path,
		code:   resp.StatusCode,
		msg:    payload.Error,
	}
}

// Handler serves GET and PUT /api/snapshots/{userID} over any Remote.
type Handler struct {
	remote fbsync.Remote
	logger *log.Logger
	mux    *http.ServeMux
}

// NewHandler wraps r. A nil logger discards request errors.
func NewHandler(r fbsync.Remote, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &Handler{remote: r, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET "+snapshotsPath+"{userID}", h.getSnapshot)
	h.mux.HandleFunc("PUT "+snapshotsPath+"{userID}", h.putSnapshot)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	snap, err := h.remote.Fetch(r.Context(), userID)
	if err != nil {
		h.logger.Printf("fetch snapshot for %s: %v", userID, err)
		writeErr(w, http.StatusInternalServerError, "fetch failed")
		return
	}
	if snap == nil {
		writeErr(w, http.StatusNotFound, "no snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) putSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		writeErr(w, http.StatusRequestEntityTooLarge, "snapshot too large")
		return
	}
	snap, err := fbsync.DecodeSnapshot(data)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if snap.UserID == "" {
		snap.UserID = userID
	}
	if snap.UserID != userID {
		writeErr(w, http.StatusBadRequest, "userId does not match path")
		return
	}
	if snap.LastSync.IsZero() {
		snap.LastSync = time.Now().UTC()
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}

	if err := h.remote.Store(r.Context(), *snap); err != nil {
		h.logger.Printf("store snapshot for %s: %v", userID, err)
		writeErr(w, http.StatusInternalServerError, "store failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
