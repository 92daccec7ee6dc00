package room

import "context"

// Conn is a realtime client connection as seen by Hub.Serve.
type Conn interface {
	Peer
	// Read blocks for the next inbound message.
	Read(ctx context.Context) ([]byte, error)
}
