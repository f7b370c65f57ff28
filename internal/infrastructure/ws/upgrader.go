package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Upgrader turns authenticated HTTP requests into Conns.
type Upgrader struct {
	upgrader websocket.Upgrader
	opts     Options
}

// NewUpgrader accepts browser origins listed in allowedOrigins. An empty list
// or "*" accepts any origin. Requests without an Origin header (non-browser
// clients) are always accepted.
func NewUpgrader(allowedOrigins []string, opts Options) *Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &Upgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		opts: opts,
	}
}

// Upgrade completes the websocket handshake. On failure the upgrader has
// already written an HTTP error response.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (*Conn, error) {
	socket, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(socket, u.opts, log), nil
}
