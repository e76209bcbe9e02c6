package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/gallery-feed/pkg/client"
	"github.com/Sternrassler/gallery-feed/pkg/gallery"
	"github.com/Sternrassler/gallery-feed/pkg/metrics"
	"github.com/Sternrassler/gallery-feed/pkg/mutation"
)

// maxUploadBody bounds the JSON body of an upload request.
const maxUploadBody = 64 << 10

type server struct {
	feed   *gallery.Feed
	ready  func(context.Context) error
	logger zerolog.Logger
}

// feedView is the JSON shape of the feed state.
type feedView struct {
	Status         string          `json:"status"`
	Generation     uint64          `json:"generation"`
	IsFetchingNext bool            `json:"isFetchingNext"`
	HasNextPage    *bool           `json:"hasNextPage"`
	Stale          bool            `json:"stale"`
	Pages          int             `json:"pages"`
	Error          string          `json:"error,omitempty"`
	NextError      string          `json:"nextError,omitempty"`
	Items          []gallery.Image `json:"items"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Class  string            `json:"class,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Feed   *feedView         `json:"feed,omitempty"`
}

func newRouter(feed *gallery.Feed, ready func(context.Context) error, logger zerolog.Logger) http.Handler {
	s := &server{feed: feed, ready: ready, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/feed", func(fr chi.Router) {
		fr.Get("/", s.handleFeed)
		fr.Post("/first", s.handleLoadFirst)
		fr.Post("/next", s.handleLoadNext)
		fr.Post("/refresh", s.handleRefresh)
		fr.Post("/images", s.handleUpload)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.view())
}

func (s *server) handleLoadFirst(w http.ResponseWriter, r *http.Request) {
	s.respondLoad(w, s.feed.LoadFirst(r.Context()))
}

func (s *server) handleLoadNext(w http.ResponseWriter, r *http.Request) {
	s.respondLoad(w, s.feed.LoadNext(r.Context()))
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.respondLoad(w, s.feed.Refresh(r.Context()))
}

func (s *server) respondLoad(w http.ResponseWriter, err error) {
	view := s.view()
	if err != nil {
		resp := upstreamError(err)
		resp.Feed = &view
		s.writeJSON(w, statusFor(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var payload gallery.NewImage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	img, err := s.feed.Submit(r.Context(), payload)
	if err != nil {
		var ve *mutation.ValidationError
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve.Fields))
			for _, f := range ve.Fields {
				fields[f.Field] = f.Message
			}
			s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Fields: fields})
			return
		}
		s.writeJSON(w, statusFor(err), upstreamError(err))
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]gallery.Image{"image": img})
}

func (s *server) view() feedView {
	st := s.feed.State()
	v := feedView{
		Status:         st.Status.String(),
		Generation:     st.Generation,
		IsFetchingNext: st.IsFetchingNext,
		Stale:          s.feed.Stale(),
		Pages:          len(st.Pages),
		Items:          s.feed.Items(),
	}
	if has, known := st.HasNextPage(); known {
		v.HasNextPage = &has
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	if st.NextErr != nil {
		v.NextError = st.NextErr.Error()
	}
	if v.Items == nil {
		v.Items = []gallery.Image{}
	}
	return v
}

func upstreamError(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	resp.Class = string(client.Class(err))
	return resp
}

// statusFor maps a feed error to the proxy's response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Int("status", status).Msg("Failed to write JSON response")
	}
}

// requestLogger logs every request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
