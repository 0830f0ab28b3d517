package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// Reloader re-reads credentials into the running agent
type Reloader interface {
	Reload(ctx context.Context) (domain.Credentials, error)
}

// ViewLister reports the attached browser views
type ViewLister interface {
	ViewIDs() []string
}

// Server provides the local settings API
type Server struct {
	credsRepo repo.CredentialsRepo
	reloader  Reloader
	dedup     repo.DedupRepo
	views     ViewLister
	log       *logging.Logger

	server *http.Server
	port   int
}

// Settings is the wire form of the credentials
type Settings struct {
	GenerationAPIKey string `json:"GENERATION_API_KEY"`
	CalendarClientID string `json:"CALENDAR_CLIENT_ID"`
}

// Match is one seen match
type Match struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	SeenAt time.Time `json:"seen_at"`
}

// NewServer creates a new API server. views may be nil.
func NewServer(credsRepo repo.CredentialsRepo, reloader Reloader, dedup repo.DedupRepo, views ViewLister, port int) *Server {
	return &Server{
		credsRepo: credsRepo,
		reloader:  reloader,
		dedup:     dedup,
		views:     views,
		log:       logging.New("API"),
		port:      port,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Settings
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/settings/reload", s.handleReload)

	// State
	mux.HandleFunc("/api/matches", s.handleMatches)
	mux.HandleFunc("/api/views", s.handleViews)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start starts the HTTP server on the loopback interface
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("Starting HTTP server on port %d", s.port)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		creds, err := s.credsRepo.Load(ctx)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, toSettings(creds.Masked()))

	case http.MethodPut:
		var req Settings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		creds := domain.Credentials{
			GenerationAPIKey: req.GenerationAPIKey,
			CalendarClientID: req.CalendarClientID,
		}
		if err := s.credsRepo.Save(ctx, creds); err != nil {
			s.writeError(w, err)
			return
		}
		s.log.Infof("Settings saved")
		s.writeJSON(w, toSettings(creds.Masked()))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.reloader == nil {
		http.Error(w, "reload not available", http.StatusServiceUnavailable)
		return
	}

	creds, err := s.reloader.Reload(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Infof("Credentials reloaded")
	s.writeJSON(w, toSettings(creds.Masked()))
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	seen, err := s.dedup.List(r.Context(), domain.SetMatches)
	if err != nil {
		s.writeError(w, err)
		return
	}

	matches := make([]Match, 0, len(seen))
	for _, item := range seen {
		matches = append(matches, Match{ID: item.ID, Name: item.Label, SeenAt: item.SeenAt})
	}
	s.writeJSON(w, map[string]interface{}{"matches": matches})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	views := []string{}
	if s.views != nil {
		views = append(views, s.views.ViewIDs()...)
	}
	s.writeJSON(w, map[string]interface{}{"views": views})
}

func toSettings(creds domain.Credentials) Settings {
	return Settings{
		GenerationAPIKey: creds.GenerationAPIKey,
		CalendarClientID: creds.CalendarClientID,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
