package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appchat "github.com/bryanwahyu/healthscan-ai/internal/application/chat"
	appscans "github.com/bryanwahyu/healthscan-ai/internal/application/scans"
	domai "github.com/bryanwahyu/healthscan-ai/internal/domain/ai"
	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/notify"
	"github.com/bryanwahyu/healthscan-ai/internal/middleware"
)

// errBadRequest marks handler errors caused by the caller's input.
var errBadRequest = errors.New("bad request")

// Server hosts the scan pipeline API.
type Server struct {
	Scans          *appscans.Service
	Chat           *appchat.Service
	Hub            *notify.Hub
	MaxUploadBytes int64
	RateBurst      int
	RatePerSec     int
	Checkers       map[string]middleware.HealthChecker
	APIKey         string
}

// Router builds the chi mux with the middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RateLimitMiddleware(s.RateBurst, s.RatePerSec))
	r.Use(middleware.APIKeyAuth(s.APIKey))

	r.Get("/health", middleware.HealthHandler(s.Checkers))
	r.Get("/metrics", middleware.MetricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scans", s.wrap(s.handleIntake))
		r.Get("/scans", s.wrap(s.handleLatest))
		r.Post("/scans/{fileID}/process", s.wrap(s.handleProcess))
		r.Get("/scans/{fileID}", s.wrap(s.handleGet))
		r.Get("/scans/{fileID}/events", s.handleEvents)
		r.Get("/scans/{fileID}/report", s.wrap(s.handleReport))
		r.Post("/chat", s.wrap(s.handleChat))
	})

	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap translates handler errors into HTTP status codes in one place.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var provider *domai.ProviderError
		switch {
		case errors.Is(err, errBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "scan not found")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, domai.QuotaExceededMessage)
		case errors.As(err, &provider):
			// provider message passes through verbatim
			writeError(w, http.StatusBadGateway, provider.Message)
		default:
			log.Printf("handler error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleIntake accepts a multipart upload, stores the blob, creates the
// pending row and fires the processor in the background.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: missing multipart field \"file\": %v", errBadRequest, err)
	}
	defer file.Close()

	if err := middleware.ValidateUploadExtension(header.Filename); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	contentType := header.Header.Get("Content-Type")
	res, err := s.Scans.Intake(r.Context(), header.Filename, file, header.Size, contentType)
	if err != nil {
		return err
	}

	middleware.IncrementUploads()
	s.startProcessing(res.FileID)

	writeJSON(w, http.StatusCreated, res)
	return nil
}

// handleProcess re-triggers processing for an existing scan. The work runs in
// a background goroutine; the response is an immediate queued ack.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) error {
	id := domain.FileID(chi.URLParam(r, "fileID"))
	if err := middleware.ValidateFileID(string(id)); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	// pastikan row-nya ada dulu sebelum ack
	if _, err := s.Scans.Get(r.Context(), id); err != nil {
		return err
	}

	s.startProcessing(id)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"file_id": string(id),
		"status":  "queued",
	})
	return nil
}

func (s *Server) startProcessing(id domain.FileID) {
	middleware.IncrementScansStarted()
	go func() {
		if err := s.Scans.ProcessUntilDone(id); err != nil {
			middleware.IncrementScansFailed()
			log.Printf("processing scan %s failed: %v", id, err)
			return
		}
		middleware.IncrementScansCompleted()
	}()
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) error {
	id := domain.FileID(chi.URLParam(r, "fileID"))
	if err := middleware.ValidateFileID(string(id)); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	scan, err := s.Scans.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, scan)
	return nil
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) error {
	limit := 1
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return fmt.Errorf("%w: limit must be an integer", errBadRequest)
		}
		limit = n
	}
	limit = middleware.ValidateLimit(limit)

	list, err := s.Scans.Latest(r.Context(), limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": list})
	return nil
}

// handleEvents streams row changes for one scan as server-sent events. If the
// row is already terminal it is emitted once and the stream closes. Otherwise
// the stream stays open until a terminal event arrives, the client goes away,
// or the hub timeout fires (which closes the channel).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := domain.FileID(chi.URLParam(r, "fileID"))
	if err := middleware.ValidateFileID(string(id)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Subscribe before the snapshot read so no update can fall in the gap.
	ch, cancel := s.Hub.Subscribe(id)
	defer cancel()

	scan, err := s.Scans.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "scan not found")
		} else {
			log.Printf("events snapshot error for %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, scan)
	flusher.Flush()
	if scan.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-ch:
			if !open {
				// hub timeout; tell the client the wait is over
				fmt.Fprintf(w, "event: timeout\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			writeEvent(w, update)
			flusher.Flush()
			if update.Terminal() {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, scan *domain.Scan) {
	payload, err := json.Marshal(scan)
	if err != nil {
		log.Printf("marshaling event for %s: %v", scan.FileID, err)
		return
	}
	fmt.Fprintf(w, "event: scan\ndata: %s\n\n", payload)
}

type chatRequest struct {
	Messages []domai.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) error {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	// conversation validation lives here, at the boundary
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages are required", errBadRequest)
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: empty message content", errBadRequest)
		}
	}

	reply, err := s.Chat.Respond(r.Context(), req.Messages)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	return nil
}
