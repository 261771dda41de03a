package main

import (
	"context"
	"net/http"
	"os"

	"github.com/lychee-technology/roster"
	"github.com/lychee-technology/roster/factory"
	"go.uber.org/zap"
)

// Server represents the HTTP server over a member directory
type Server struct {
	dir roster.Directory
	mux *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(dir roster.Directory) *Server {
	return &Server{
		dir: dir,
		mux: http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/records", s.handleRecords)
	s.mux.HandleFunc("/api/v1/records/", s.handleRecordByID)
	s.mux.HandleFunc("/api/v1/validate", s.handleValidate)
	s.mux.HandleFunc("/api/v1/fields", s.handleFields)
	s.mux.HandleFunc("/api/v1/fields/", s.handleFieldByID)
	s.mux.HandleFunc("/api/v1/schema", s.handleSchema)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// ServeHTTP makes Server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	cfg := roster.DefaultConfig()
	if path := os.Getenv("ROSTER_CONFIG"); path != "" {
		loaded, err := roster.LoadConfig(path)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.LookupEnv)

	logger, err := factory.NewLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	dir, err := factory.NewDirectory(context.Background(), cfg, factory.WithFallbackHook(func(key string, err error) {
		sugar.Errorw("stored collection was unreadable; defaults are being served", "key", key, "error", err)
	}))
	if err != nil {
		sugar.Fatalf("failed to create directory: %v", err)
	}
	defer dir.Close()

	server := NewServer(dir)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
