package ports

import "github.com/gigflow/marketplace/internal/core/domain"

// Conn is a live connection handle to one client.
type Conn interface {
	// ID identifies the handle; unique per connection.
	ID() string
	// Send queues an event for the client without blocking. It fails when the
	// connection is closed or its outbound buffer is full.
	Send(n domain.Notification) error
	Close() error
}

// PresenceRegistry maps online users to their connection handle.
type PresenceRegistry interface {
	// Register inserts or overwrites the handle for userID.
	Register(userID string, conn Conn)
	// Unregister removes whichever entry points at conn and returns its user.
	Unregister(conn Conn) (userID string, ok bool)
	Lookup(userID string) (Conn, bool)
}
