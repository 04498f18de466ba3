package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tejzpr/privacy-portal/internal/config"
	"github.com/tejzpr/privacy-portal/internal/db"
	"github.com/tejzpr/privacy-portal/internal/flash"
	"github.com/tejzpr/privacy-portal/internal/manager"
)

const healthStatus = "ok"

type pageData struct {
	Business       config.Business
	LastUpdated    string
	Flashes        []flash.Message
	Requests       []db.DeletionRequest
	ProcessingDays int
}

// Server owns everything a request handler touches. Nothing is global.
type Server struct {
	cfg      *config.Config
	requests *manager.DeletionManager
	broker   *manager.SSEBroker
	flashes  *flash.Store
	pages    *Renderer
	logger   *zap.Logger
	now      func() time.Time
}

func New(cfg *config.Config, requests *manager.DeletionManager, broker *manager.SSEBroker, logger *zap.Logger) (*Server, error) {
	pages, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		requests: requests,
		broker:   broker,
		flashes:  flash.NewStore(cfg.SecretKey),
		pages:    pages,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/privacy", s.handlePrivacy)
	r.Get("/data-deletion", s.handleDataDeletion)
	r.Post("/data-deletion/request", s.handleDeletionRequest)

	// TODO: put /admin behind authentication before exposing this publicly.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/deletion-requests", s.handleAdminList)
		r.Get("/deletion-requests/events", s.handleAdminEvents)
	})

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then drains
// in-flight requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}

func (s *Server) basePage(w http.ResponseWriter, r *http.Request) pageData {
	return pageData{
		Business:       s.cfg.Business,
		LastUpdated:    s.now().UTC().Format("2006-01-02"),
		Flashes:        s.flashes.Pop(w, r),
		ProcessingDays: manager.ProcessingDays,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	if err := s.pages.Render(w, page, data); err != nil {
		s.logger.Error("render failed",
			zap.String("page", page),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/privacy", http.StatusFound)
}

func (s *Server) handlePrivacy(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pagePrivacy, s.basePage(w, r))
}

func (s *Server) handleDataDeletion(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pageDataDeletion, s.basePage(w, r))
}

func (s *Server) handleDeletionRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	req, err := s.requests.Submit(r.Context(), manager.SubmitInput{
		Identifier: r.PostFormValue("identifier"),
		Channel:    r.PostFormValue("channel"),
		Notes:      r.PostFormValue("notes"),
	})
	switch {
	case errors.Is(err, manager.ErrMissingIdentifier):
		s.flash(w, r, flash.CategoryError, manager.MissingIdentifierMessage)
	case err != nil:
		s.logger.Error("failed to submit deletion request", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	default:
		s.logger.Info("deletion request received",
			zap.String("request_id", req.RequestID),
			zap.String("channel", req.Channel))
		s.flash(w, r, flash.CategorySuccess, manager.ConfirmationMessage(req.RequestID))
	}
	http.Redirect(w, r, "/data-deletion", http.StatusFound)
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, category, text string) {
	if err := s.flashes.Add(w, r, category, text); err != nil {
		s.logger.Warn("failed to set flash", zap.Error(err))
	}
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	requests, err := s.requests.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list deletion requests", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := s.basePage(w, r)
	data.Requests = requests
	s.render(w, r, pageAdminList, data)
}

func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)

	fmt.Fprintf(w, ": keepalive\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: new-request\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": healthStatus})
}
