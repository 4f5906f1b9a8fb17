// Package api exposes the session query surface over HTTP for automation.
// Responses use a JSON envelope: {"data": ...} on success, {"error":
// {"code", "message"}} on failure, with error codes mapped onto HTTP
// status codes.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/metrics"
	"github.com/pyscope/pyscope/pkg/release"
	"github.com/pyscope/pyscope/pkg/session"
)

// Server is the HTTP surface over a session. It implements http.Handler.
type Server struct {
	session *session.Session
	logger  *log.Logger
	router  chi.Router
}

// NewServer builds the routed HTTP surface over a session.
func NewServer(s *session.Session, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	srv := &Server{session: s, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(srv.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", srv.handleHealth)
		r.Get("/runtimes", srv.handleRuntimes)
		r.Get("/runtimes/{runtime}/packages", srv.handlePackages)
		r.Get("/packages/{name}", srv.handleInspect)
		r.Get("/packages/{name}/updates", srv.handleUpdates)
	})
	srv.router = r
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRuntimes(w http.ResponseWriter, r *http.Request) {
	rts, err := s.session.Runtimes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]runtimeJSON, 0, len(rts))
	for _, rt := range rts {
		out = append(out, runtimeJSON{Name: rt.Name, Dir: rt.Dir})
	}
	s.writeData(w, http.StatusOK, out)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	recs, err := s.session.Packages(r.Context(), chi.URLParam(r, "runtime"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]packageJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, packageJSON{
			Name:    rec.Name,
			Version: rec.Version,
			Runtime: rec.Runtime.Name,
			Path:    rec.Dir.Path,
		})
	}
	s.writeData(w, http.StatusOK, out)
}

// handleInspect answers ?field= queries for one package; an empty field
// lists the queryable field names and an empty runtime selects the newest
// discovered one.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	runtime := r.URL.Query().Get("runtime")
	field := r.URL.Query().Get("field")

	if runtime == "" {
		rt, err := s.session.DefaultRuntime(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		runtime = rt.Name
	}

	v, err := s.session.Inspect(r.Context(), name, runtime, field)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, renderValue(v))
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	current := r.URL.Query().Get("current")

	updates, err := s.session.Updates(r.Context(), name, current)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, renderReleases(updates))
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type runtimeJSON struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Runtime string `json:"runtime"`
	Path    string `json:"path"`
}

type releaseJSON struct {
	Version string `json:"version,omitempty"`
	Date    string `json:"date,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: v}); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.GetCode(err)
	if code == "" {
		code = pkgerrors.ErrCodeInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	resp := errorEnvelope{Error: apiError{Code: string(code), Message: pkgerrors.UserMessage(err)}}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		s.logger.Error("encode error response", "err", encodeErr)
	}
}

func statusFor(code pkgerrors.Code) int {
	switch code {
	case pkgerrors.ErrCodeInvalidArgument, pkgerrors.ErrCodeInvalidRuntime,
		pkgerrors.ErrCodeInvalidPackage, pkgerrors.ErrCodeInvalidPlatform:
		return http.StatusBadRequest
	case pkgerrors.ErrCodeNotFound, pkgerrors.ErrCodeRuntimeNotFound,
		pkgerrors.ErrCodePackageNotFound, pkgerrors.ErrCodeFieldNotFound,
		pkgerrors.ErrCodeVersionNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrCodeRemoteNotFound, pkgerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case pkgerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case pkgerrors.ErrCodeRateLimited:
		return http.StatusServiceUnavailable
	case pkgerrors.ErrCodePrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// renderValue projects inspection values onto wire-friendly shapes; plain
// strings, numbers, maps and slices pass through.
func renderValue(v any) any {
	switch t := v.(type) {
	case *release.History:
		return renderReleases(t.Records)
	case []release.Record:
		return renderReleases(t)
	case release.Record:
		return releaseJSON{Version: t.VersionRaw, Date: t.DateRaw}
	case metrics.Value:
		switch {
		case t.IsCount:
			return t.Count
		case t.IsBytes:
			return t.Bytes
		default:
			return t.Raw
		}
	default:
		return v
	}
}

func renderReleases(recs []release.Record) []releaseJSON {
	out := make([]releaseJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, releaseJSON{Version: rec.VersionRaw, Date: rec.DateRaw})
	}
	return out
}
