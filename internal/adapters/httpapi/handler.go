package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/senepay/verifyapi/internal/core/domain"
	"github.com/senepay/verifyapi/internal/core/usecase"
)

type ctxKey string

const (
	apiKeyHeader          = "X-API-Key"
	tenantIDCtxKey ctxKey = "tenant_id"
)

type Handler struct {
	verifyService *usecase.VerifyService
	auditService  *usecase.AuditService
}

func NewHandler(verifyService *usecase.VerifyService, auditService *usecase.AuditService) *Handler {
	return &Handler{verifyService: verifyService, auditService: auditService}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)

	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Get("/verify-payment", h.verifyPayment)
	r.Get("/verify-payment/", h.verifyPayment)
	r.Get("/verify-payment/{paymentID}", h.verifyPayment)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Get("/v1/audit", h.listAudit)
	})

	return r
}

// cors applies the permissive browser headers to every response and
// short-circuits pre-flight requests before routing, so OPTIONS never resolves
// a tenant or touches the store.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", "authorization, x-api-key, content-type")
		header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	view, err := h.verifyService.Verify(r.Context(), usecase.VerifyRequest{
		APIKey:    r.Header.Get(apiKeyHeader),
		PaymentID: chi.URLParam(r, "paymentID"),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		handleVerificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type auditEntryResponse struct {
	ID           int64  `json:"id"`
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	UserAgent    string `json:"user_agent"`
	CreatedAt    string `json:"created_at"`
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	afterID, ok := parseAfterID(w, r)
	if !ok {
		return
	}

	entries, err := h.auditService.List(r.Context(), domain.AuditFilter{
		TenantID:     tenantIDFromContext(r.Context()),
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		AfterID:      afterID,
		Limit:        limit,
	})
	if err != nil {
		handleVerificationError(w, err)
		return
	}

	result := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, auditEntryResponse{
			ID:           entry.ID,
			Action:       entry.Action,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			UserAgent:    entry.UserAgent,
			CreatedAt:    entry.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "senepay-verifyapi",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/verify-payment/{paymentID}": map[string]any{
				"get": map[string]any{"summary": "Verify a payment by id"},
			},
			"/v1/audit": map[string]any{
				"get": map[string]any{"summary": "List audit entries for the calling tenant"},
			},
		},
	}
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := h.verifyService.Authenticate(r.Context(), r.Header.Get(apiKeyHeader))
		if err != nil {
			handleVerificationError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDCtxKey, tenant.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// errorResponse is the fixed taxonomy-to-wire mapping. Every expected failure
// resolves to exactly one of these pairs; anything unrecognized becomes the
// generic 500 so internal detail never reaches a caller.
type errorResponse struct {
	err     error
	status  int
	message string
}

var errorResponses = []errorResponse{
	{err: domain.ErrAPIKeyRequired, status: http.StatusUnauthorized, message: "API key required"},
	{err: domain.ErrInvalidAPIKey, status: http.StatusUnauthorized, message: "Invalid API key"},
	{err: domain.ErrPaymentIDRequired, status: http.StatusBadRequest, message: "Payment ID required"},
	{err: domain.ErrNotFound, status: http.StatusNotFound, message: "Payment not found"},
	{err: domain.ErrStoreTimeout, status: http.StatusServiceUnavailable, message: "Service unavailable"},
}

func handleVerificationError(w http.ResponseWriter, err error) {
	for _, mapping := range errorResponses {
		if errors.Is(err, mapping.err) {
			writeError(w, mapping.status, mapping.message)
			return
		}
	}
	log.Printf("verification internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func parseAfterID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "after must be integer")
		return 0, false
	}
	return parsed, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func tenantIDFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantIDCtxKey).(string)
	return tenant
}
