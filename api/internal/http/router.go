package httpx

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/service/auth"
	"github.com/splax/accounts/pkg/config"
)

// UploadStore persists profile images sent with multipart requests.
type UploadStore interface {
	Save(header *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	uploads  UploadStore
	cfg      config.APIConfig
	dbHealth func(context.Context) error
	metrics  *routerMetrics
}

const (
	routePrefix        = "/api/auth"
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, uploads UploadStore, cfg config.APIConfig, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		uploads:  uploads,
		cfg:      cfg,
		dbHealth: dbHealth,
		metrics:  newRouterMetrics(),
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/", r.audit("/", r.handleIndex))
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/metrics", r.metrics.handler().ServeHTTP)
	r.mux.HandleFunc(routePrefix+"/create", r.audit(routePrefix+"/create", r.handleCreate))
	r.mux.HandleFunc(routePrefix+"/login", r.audit(routePrefix+"/login", r.handleLogin))
	r.mux.HandleFunc(routePrefix+"/update", r.audit(routePrefix+"/update", r.requireAuth(r.handleUpdate)))
	r.mux.HandleFunc(routePrefix+"/getuser", r.audit(routePrefix+"/getuser", r.requireAuth(r.handleGetUser)))
	r.mux.HandleFunc(routePrefix+"/reset", r.audit(routePrefix+"/reset", r.handleReset))
	r.mux.HandleFunc(routePrefix+"/change/", r.audit(routePrefix+"/change/:token", r.handleChange))
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, "hello")
}

func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	form, err := parseForm(w, req, r.cfg.MaxUploadBytes)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	// Names are stored trimmed, so the length rule sees the trimmed value.
	form.trim("name")
	if errs := validate(form, isEmail("email"), minLength("name", 3), minLength("password", 5)); len(errs) > 0 {
		r.metrics.authEvent("create", "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	image, ok := r.saveUpload(req, form)
	if !ok {
		writeKeyed(w, http.StatusInternalServerError, "msg", msgInternalServerErr)
		return
	}
	_, token, err := r.auth.CreateAccount(req.Context(), auth.CreateInput{
		Name:         form.value("name"),
		Email:        form.value("email"),
		Password:     form.value("password"),
		ProfileImage: image,
	})
	if err != nil {
		r.discardUpload(image)
		if errors.Is(err, auth.ErrAccountExists) {
			r.metrics.authEvent("create", "conflict")
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		r.metrics.authEvent("create", "error")
		r.logger.Error("create account failed", "error", err)
		writeKeyed(w, http.StatusInternalServerError, "msg", msgInternalServerErr)
		return
	}
	r.metrics.authEvent("create", "success")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	form, err := parseForm(w, req, r.cfg.MaxUploadBytes)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	if errs := validate(form, isEmail("email"), notEmpty("password")); len(errs) > 0 {
		r.metrics.authEvent("login", "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": errs})
		return
	}
	_, token, err := r.auth.Login(req.Context(), form.value("email"), form.value("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			r.metrics.authEvent("login", "rejected")
			writeError(w, http.StatusBadRequest, "please enter correct creds")
			return
		}
		r.metrics.authEvent("login", "error")
		r.logger.Error("login failed", "error", err)
		writeKeyed(w, http.StatusInternalServerError, "msg", msgInternalServerErr)
		return
	}
	r.metrics.authEvent("login", "success")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (r *Router) handleUpdate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for profile update", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	form, err := parseForm(w, req, r.cfg.MaxUploadBytes)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	image, ok := r.saveUpload(req, form)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	account, err := r.auth.UpdateProfile(req.Context(), info.UserID, auth.ProfileInput{
		Name:         form.optional("name"),
		Email:        form.optional("email"),
		ProfileImage: image,
	})
	if err != nil {
		r.discardUpload(image)
		switch {
		case errors.Is(err, auth.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrAccountExists):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			r.logger.Error("profile update failed", "user_id", info.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"msg":          "done successfully",
		"profileImage": account.ProfileImage,
	})
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for profile lookup", "path", req.URL.Path)
		writeKeyed(w, http.StatusInternalServerError, "msg", msgInternalServerErr)
		return
	}
	account, err := r.auth.Profile(req.Context(), info.UserID)
	if err != nil {
		r.logger.Error("profile lookup failed", "user_id", info.UserID, "error", err)
		writeKeyed(w, http.StatusInternalServerError, "msg", msgInternalServerErr)
		return
	}
	if account == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, marshalAccount(account))
}

func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	form, err := parseForm(w, req, r.cfg.MaxUploadBytes)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	token, err := r.auth.RequestPasswordReset(req.Context(), form.value("email"))
	if err != nil {
		if errors.Is(err, auth.ErrEmailNotFound) {
			r.metrics.authEvent("reset_request", "unknown_email")
			writeKeyed(w, http.StatusUnauthorized, "message", "No such email exists !")
			return
		}
		r.metrics.authEvent("reset_request", "error")
		r.logger.Error("password reset request failed", "error", err)
		writeKeyed(w, http.StatusInternalServerError, "message", msgInternalError)
		return
	}
	r.metrics.authEvent("reset_request", "success")
	payload := map[string]string{"message": "email sent "}
	if r.cfg.ResetTokenInResponse {
		payload["token"] = token
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleChange(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	token := strings.Trim(strings.TrimPrefix(req.URL.Path, routePrefix+"/change/"), "/")
	if token == "" || strings.Contains(token, "/") {
		r.notFound(w)
		return
	}
	form, err := parseForm(w, req, r.cfg.MaxUploadBytes)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	if errs := validate(form, minLength("password", 5)); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}
	if err := r.auth.CompletePasswordReset(req.Context(), token, form.value("password")); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			r.metrics.authEvent("reset_complete", "rejected")
			r.logger.Warn("password reset rejected", "error", err)
		} else {
			r.metrics.authEvent("reset_complete", "error")
			r.logger.Error("password reset failed", "error", err)
		}
		writeKeyed(w, http.StatusInternalServerError, "message", msgInternalError)
		return
	}
	r.metrics.authEvent("reset_complete", "success")
	writeJSON(w, http.StatusOK, map[string]string{"message": "user password updated "})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["store"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["store"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// saveUpload stores the profileImage part, if any. It reports false after logging a storage failure.
func (r *Router) saveUpload(req *http.Request, form requestForm) (string, bool) {
	if form.file == nil {
		return "", true
	}
	if r.uploads == nil {
		r.logger.Error("upload received without a configured store", "path", req.URL.Path)
		return "", false
	}
	name, err := r.uploads.Save(form.file)
	if err != nil {
		r.logger.Error("profile image upload failed", "path", req.URL.Path, "error", err)
		return "", false
	}
	return name, true
}

// discardUpload removes a file stored for a request that did not complete.
func (r *Router) discardUpload(name string) {
	if name == "" || r.uploads == nil {
		return
	}
	if err := r.uploads.Remove(name); err != nil {
		r.logger.Warn("orphaned upload not removed", "file", name, "error", err)
	}
}

func marshalAccount(account *domain.Account) map[string]any {
	return map[string]any{
		"_id":          account.ID,
		"name":         account.Name,
		"email":        account.Email,
		"profileImage": account.ProfileImage,
		"createdAt":    account.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":    account.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.metrics.observeRequest(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
