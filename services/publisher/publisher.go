package publisher

// Event kinds published to the stream. Push notification consumers
// subscribe to the alert stream.
const (
	KindAlert       = "alerts"
	KindPriceChange = "price_changes"
)

// Publisher represents a service for publishing tracking events
type Publisher interface {
	// Publish publishes an event payload to the stream for the given kind
	Publish(kind string, payload []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
