package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/report"
	"stockledger/internal/service"
	"stockledger/internal/store"
	"stockledger/internal/xid"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/purchases", a.requireAuth(a.handlePurchases))
	mux.HandleFunc("/api/v1/purchases/", a.requireAuth(a.handlePurchaseDelete))
	mux.HandleFunc("/api/v1/sales", a.requireAuth(a.handleSales))
	mux.HandleFunc("/api/v1/sales/", a.requireAuth(a.handleSaleDelete))
	mux.HandleFunc("/api/v1/thresholds", a.requireAuth(a.handleThresholds))
	mux.HandleFunc("/api/v1/inventory", a.requireAuth(a.handleInventory))
	mux.HandleFunc("/api/v1/inventory/low-stock", a.requireAuth(a.handleLowStock))
	mux.HandleFunc("/api/v1/export/purchases", a.requireAuth(a.handleExportPurchases))
	mux.HandleFunc("/api/v1/export/sales", a.requireAuth(a.handleExportSales))
	mux.HandleFunc("/api/v1/export/inventory", a.requireAuth(a.handleExportInventory))
	mux.HandleFunc("/api/v1/images/", a.requireAuth(a.handleImages))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		if err := a.auth.ParseToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next(w, r)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, expiresAt, err := a.auth.Login(req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := a.service.Purchases(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodPost:
		var req domain.TransactionCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.RecordPurchase(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := a.service.Sales(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodPost:
		var req domain.TransactionCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.RecordSale(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePurchaseDelete(w http.ResponseWriter, r *http.Request) {
	index, ok := a.deleteIndex(w, r, "/api/v1/purchases/")
	if !ok {
		return
	}
	removed, err := a.service.DeletePurchase(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": removed})
}

func (a *API) handleSaleDelete(w http.ResponseWriter, r *http.Request) {
	index, ok := a.deleteIndex(w, r, "/api/v1/sales/")
	if !ok {
		return
	}
	removed, err := a.service.DeleteSale(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": removed})
}

// deleteIndex parses the positional index from the path tail. Indices are
// only valid until the next mutation; stale ones surface as 404s.
func (a *API) deleteIndex(w http.ResponseWriter, r *http.Request, prefix string) (int, bool) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return 0, false
	}
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("ledger index required"))
		return 0, false
	}
	index, err := strconv.Atoi(tail)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("ledger index must be an integer"))
		return 0, false
	}
	return index, true
}

func (a *API) handleThresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := a.service.Thresholds(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodPut, http.MethodPost:
		var req domain.ThresholdSetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.SetThreshold(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"threshold": entry})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.LowStock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleExportPurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.Purchases(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload, err := report.PurchaseWorkbook(ledgerTransactions(resp))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeWorkbook(w, "purchase.xlsx", payload)
}

func (a *API) handleExportSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.Sales(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload, err := report.SalesWorkbook(ledgerTransactions(resp))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeWorkbook(w, "sales.xlsx", payload)
}

func (a *API) handleExportInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	snap, err := a.service.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload, err := report.SnapshotWorkbook(snap.Items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeWorkbook(w, "inventory.xlsx", payload)
}

const maxImageBytes = 1 << 20

func (a *API) handleImages(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/images/"
	orderID := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if orderID == "" {
		writeError(w, http.StatusBadRequest, errors.New("order id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		img, err := a.service.ImageByOrderID(r.Context(), orderID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", img.ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	case http.MethodPost:
		contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
		if contentType != "image/png" && contentType != "image/jpeg" {
			writeError(w, http.StatusUnsupportedMediaType, errors.New("image must be png or jpeg"))
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("image exceeds 1 MiB"))
			return
		}
		marked, err := a.service.AttachImage(r.Context(), orderID, contentType, body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"order_id": orderID, "rows_marked": marked})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := xid.New("req")
		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s %s", requestID, r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func ledgerTransactions(resp domain.LedgerListResponse) []domain.Transaction {
	rows := make([]domain.Transaction, 0, len(resp.Entries))
	for _, entry := range resp.Entries {
		rows = append(rows, entry.Transaction)
	}
	return rows
}

func writeWorkbook(w http.ResponseWriter, filename string, payload []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// writeServiceError maps the store's sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrInvalidThreshold):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrIndexOutOfRange), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic so internal details never leak; 4xx errors are
	// user-facing and keep the original message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("[http] internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
