package assemble

import "errors"

// Failure taxonomy. None of these abort the daemon; the cycle logs them and
// retries on its own schedule.
var (
	// ErrImageSetTooSmall rejects a run before any process is spawned.
	ErrImageSetTooSmall = errors.New("too few slide images to assemble a video")
	// ErrProcessStart means both the direct spawn and the shell fallback
	// failed to launch the encoder.
	ErrProcessStart = errors.New("failed to start encoder process")
	// ErrEncodeFailed means the encoder ran but the output artifact is
	// missing afterwards.
	ErrEncodeFailed = errors.New("encoder finished without producing the output file")
)
