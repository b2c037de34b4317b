package resources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Server serves the card images of the resource pack while the session is
// accepting players. The event loop starts and stops it on phase
// transitions; Active is only touched from that goroutine.
type Server struct {
	addr   string
	extra  map[string]http.Handler
	srv    *http.Server
	active bool
	dir    string
}

// NewServer prepares a static file server for dir. Extra handlers (the
// websocket ingress) are mounted next to the pack files.
func NewServer(addr, dir string, extra map[string]http.Handler) *Server {
	return &Server{
		addr:  addr,
		dir:   dir,
		extra: extra,
	}
}

func (s *Server) Active() bool {
	return s.active
}

// Start begins serving on a new goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.Handle("/", loggedFileServer(s.dir))
	for pattern, handler := range s.extra {
		mux.Handle(pattern, handler)
	}
	s.srv = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}

	srv := s.srv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("resource server failed")
		}
	}()
	s.active = true
}

// Stop shuts the server down, waiting for in-flight downloads briefly.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("resource server shutdown")
	}
	s.active = false
}

func loggedFileServer(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("resource request")
		fs.ServeHTTP(w, r)
	})
}
