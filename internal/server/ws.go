package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// WebsocketHandler upgrades browser clients and feeds them through the
// same admission path as TCP connections. Text frames carry the identical
// newline-delimited protocol, so the player state machine never sees the
// difference.
func (s *Server) WebsocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
			return
		}
		sock := websocket.NetConn(context.Background(), c, websocket.MessageText)
		log.Info().Str("remote", r.RemoteAddr).Msg("websocket connection")
		s.Enqueue(sock)
	})
}
