package capture

import (
	"context"

	"nutricoach"
)

// Recognizer is an awaitable speech capture: Listen blocks until one transcript is
// available or the capture fails. Implementations wrap whatever platform speech
// API exists; there is no callback surface to juggle.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// UnsupportedRecognizer is the default on platforms without a speech API.
type UnsupportedRecognizer struct{}

func (UnsupportedRecognizer) Listen(ctx context.Context) (string, error) {
	return "", nutricoach.ErrUnsupportedCapability
}
