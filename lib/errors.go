package lib

import "errors"

var (
	// ErrInvalidInput is returned when a run request names paths that cannot be used.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunActive is returned by Start while another run is still in progress.
	ErrRunActive = errors.New("a run is already active")

	// ErrPoolClosed is returned by Submit after the pool has been shut down.
	ErrPoolClosed = errors.New("worker pool is shut down")

	// ErrTranscoderMissing is returned when the ffmpeg binary cannot be found on PATH.
	ErrTranscoderMissing = errors.New("transcoder not found")
)
