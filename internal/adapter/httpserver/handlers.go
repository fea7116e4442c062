package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/policy-advisor/internal/config"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/usecase"
)

const maxSubmitBytes = 1 << 20

// Server aggregates handlers dependencies.
type Server struct {
	Cfg         config.Config
	Submissions usecase.SubmissionService
	Results     usecase.ResultService
	Products    usecase.ProductService
	DBCheck     func(ctx context.Context) error
	StoreCheck  func(ctx context.Context) error
	AICheck     func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, subs usecase.SubmissionService, results usecase.ResultService, products usecase.ProductService, dbCheck, storeCheck, aiCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Submissions: subs, Results: results, Products: products, DBCheck: dbCheck, StoreCheck: storeCheck, AICheck: aiCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// validationDetails flattens validator errors into field -> failed tag.
func validationDetails(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return out
}

// rejectNonJSON writes 406 when the client refuses JSON. It reports whether it wrote.
func rejectNonJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") {
		return false
	}
	writeJSON(w, http.StatusNotAcceptable, errorBody{Status: "error", Message: "not acceptable", Code: "INVALID_ARGUMENT", Details: map[string]string{"accept": a}})
	return true
}

// SubmitHandler accepts a questionnaire, runs the report pipeline and returns the new user id.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Status: "error", Message: "payload too large", Code: "INVALID_ARGUMENT", Details: map[string]int64{"max_bytes": mbe.Limit}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: read body: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		req, err := usecase.ParseSubmitRequest(body)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		userID, err := s.Submissions.Submit(r.Context(), req)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "user_id": userID})
	}
}

// ResultHandler returns the stored report for a user id with ETag support.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSON(w, r) {
			return
		}
		params := struct {
			UserID string `validate:"required,max=64,printascii"`
		}{UserID: chi.URLParam(r, "user_id")}
		if err := getValidator().Struct(params); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid user_id", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		status, res, etag, err := s.Results.Fetch(r.Context(), params.UserID, r.Header.Get("If-None-Match"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("ETag", `"`+etag+`"`)
		if status == http.StatusNotModified {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, res)
	}
}

// ProductHandler returns a single catalog product cleaned for display.
func (s *Server) ProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rejectNonJSON(w, r) {
			return
		}
		params := struct {
			ID string `validate:"required,number,max=19"`
		}{ID: chi.URLParam(r, "id")}
		if err := getValidator().Struct(params); err != nil {
			writeError(w, r, fmt.Errorf("%w: product id must be a positive integer", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		p, err := s.Products.Detail(r.Context(), params.ID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// DBCheckHandler reports the catalog tables and product count.
func (s *Server) DBCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Products.DBCheck(r.Context())
		if err != nil {
			writeError(w, r, fmt.Errorf("op=http.db_check: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// HealthHandler is the plain liveness check.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// ReadyzHandler checks the database, the result store and the text-generation host.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		targets := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"db", s.DBCheck},
			{"store", s.StoreCheck},
			{"ai", s.AICheck},
		}
		checks := make([]check, 0, len(targets))
		ok := true
		for _, p := range targets {
			if p.fn == nil {
				continue
			}
			c := check{Name: p.name, OK: true}
			if err := p.fn(ctx); err != nil {
				c.OK, c.Details = false, err.Error()
				ok = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
