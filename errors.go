package nutricoach

import "errors"

// Failure taxonomy for remote and capture operations. Transport-level problems are
// left as ordinary wrapped errors; everything that needs a distinct caller response
// gets a sentinel checked with errors.Is.
var (
	// ErrRateLimited maps to HTTP 429 from the analysis service. Interactive paths
	// surface it as a busy notice; the background coaching refresh skips silently.
	ErrRateLimited = errors.New("analysis service rate limited")

	// ErrMalformedResponse marks a payload missing its expected fields or carrying
	// embedded JSON that failed to parse.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrUnsupportedCapability means the platform offers no speech input.
	ErrUnsupportedCapability = errors.New("speech capture not supported")

	// ErrCaptureFailed is a device-level capture error (e.g. microphone failure).
	ErrCaptureFailed = errors.New("capture failed")

	// ErrCaptureBusy rejects a capture or commit attempted while an analysis is in
	// flight. A pre-flight guard, not a queue: the attempt is a no-op.
	ErrCaptureBusy = errors.New("capture already in flight")

	// ErrSurfaceActive rejects opening a confirmation surface while another is active.
	ErrSurfaceActive = errors.New("another confirmation surface is active")
)
