package mqtt

import "context"

// Publisher delivers a payload to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
