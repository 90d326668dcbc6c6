package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Features are the optional capabilities advertised to clients.
type Features struct {
	Signup bool `json:"signup"`
	TOTP   bool `json:"totp"`
}

// Deps bundles what the API handler runs against. QueryMetrics is nil when the metrics
// database is not configured.
type Deps struct {
	Users        ports.UserService
	Zones        ports.ZoneService
	Auth         ports.Authenticator
	LoginLimiter ports.RateLimiter
	QueryMetrics ports.MetricsRepository
	Features     Features
	Nameservers  []string
	Proxies      TrustedProxies
	Logger       *slog.Logger
}

// APIHandler handles HTTP requests for accounts, zones and records.
type APIHandler struct {
	Deps
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(deps Deps) *APIHandler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &APIHandler{Deps: deps}
}

// Routes builds the router for the whole service.
func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	// Public Routes
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	auth := AuthMiddleware(h.Auth, h.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", h.Root)
		r.Get("/features", h.GetFeatures)
		r.Get("/query-metrics", h.GetQueryMetrics)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Signup)
			r.Get("/totp", h.NeedsTOTP)
			r.With(RateLimit(h.LoginLimiter, "login", h.Proxies, h.Logger)).Post("/login", h.Login)
			r.With(auth).Get("/", h.ListUsers)
			r.With(auth).Get("/whoami", h.WhoAmI)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/audit-logs", h.ListAuditLogs)
			r.Route("/zones", func(r chi.Router) {
				r.Get("/", h.ListZones)
				r.Get("/root", h.GetRootZone)
				r.Get("/{zone_id}", h.ListRecords)
				r.Post("/{zone_id}", h.CreateZone)
				r.Delete("/{zone_id}", h.DeleteZone)
				r.Put("/{zone_id}", h.CreateRecord)
				r.Put("/{zone_id}/{record_id}", h.UpdateRecord)
				r.Delete("/{zone_id}/{record_id}", h.DeleteRecord)
			})
		})
	})
	return r
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidRequest.WithMessage("invalid request body: " + err.Error())
	}
	return nil
}

// principal returns the authenticated caller. Routes without AuthMiddleware never call it.
func (h *APIHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, h.Logger, r, domain.ErrMissingHeader)
	}
	return p, ok
}

func (h *APIHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	for name, checkErr := range h.Zones.HealthCheck(r.Context()) {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"details": details,
	})
}

func (h *APIHandler) GetFeatures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Features)
}

// GetQueryMetrics reports resolver latency percentiles for the last day.
func (h *APIHandler) GetQueryMetrics(w http.ResponseWriter, r *http.Request) {
	if h.QueryMetrics == nil {
		writeError(w, h.Logger, r, domain.ErrMetricsDisabled)
		return
	}
	m, err := h.QueryMetrics.GetQueryMetrics(r.Context())
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type signupRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
	Password    string  `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	token, err := h.Users.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	token, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *APIHandler) NeedsTOTP(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, h.Logger, r, domain.ErrInvalidRequest.WithMessage("missing query parameter `email`"))
		return
	}
	needs, err := h.Users.NeedsTOTP(r.Context(), email)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"totp": needs})
}

func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	users, err := h.Users.ListUsers(r.Context(), p)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *APIHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *APIHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	zones, err := h.Zones.ListZones(r.Context(), p)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// GetRootZone answers which of the caller's zones owns ?domain=.
func (h *APIHandler) GetRootZone(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("domain"))
	if name == "" {
		writeError(w, h.Logger, r, domain.ErrInvalidRequest.WithMessage("missing query parameter `domain`"))
		return
	}
	zone, err := h.Zones.OwningZone(r.Context(), p, name)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": zone.ID})
}

type zoneCreatedResponse struct {
	*domain.Zone
	Nameservers []string `json:"nameservers"`
}

func (h *APIHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	zone, err := h.Zones.CreateZone(r.Context(), p, chi.URLParam(r, "zone_id"))
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, zoneCreatedResponse{Zone: zone, Nameservers: h.Nameservers})
}

func (h *APIHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.Zones.DeleteZone(r.Context(), p, chi.URLParam(r, "zone_id")); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	records, err := h.Zones.ListRecords(r.Context(), p, chi.URLParam(r, "zone_id"))
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req domain.RecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	record, err := h.Zones.CreateRecord(r.Context(), p, chi.URLParam(r, "zone_id"), req)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *APIHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req domain.RecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	record, err := h.Zones.UpdateRecord(r.Context(), p, chi.URLParam(r, "zone_id"), chi.URLParam(r, "record_id"), req)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.Zones.DeleteRecord(r.Context(), p, chi.URLParam(r, "zone_id"), chi.URLParam(r, "record_id")); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAuditLogs returns the caller's audit trail, newest first.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	logs, err := h.Zones.ListAuditLogs(r.Context(), p)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
