// Package hub fans dashboard events out to websocket subscribers
// through a channel-based broadcast loop.
package hub

// MessageType selects the websocket frame type.
type MessageType int

const (
	// JSONMessage is a text frame carrying JSON.
	JSONMessage MessageType = iota
	// BinaryMessage is a binary frame, used for JPEG previews.
	BinaryMessage
)

// Message is one payload to deliver to every subscriber.
type Message struct {
	Type MessageType
	Data []byte
}
