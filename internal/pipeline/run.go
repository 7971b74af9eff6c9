package pipeline

import (
	"log/slog"
	"os"
)

// run is the ephemeral state of one pipeline execution. It owns at most one
// downloaded media file at a time; cleanup runs on every exit path and
// swallows removal errors.
type run struct {
	id       string
	tempFile string
	logger   *slog.Logger
}

// adopt registers a downloaded file with the run. Any previously owned file
// is removed first, preserving the one-file invariant.
func (r *run) adopt(path string) {
	if r.tempFile != "" && r.tempFile != path {
		r.remove()
	}
	r.tempFile = path
}

func (r *run) remove() {
	if r.tempFile == "" {
		return
	}
	if err := os.Remove(r.tempFile); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("temp media cleanup failed", "path", r.tempFile, "error", err)
	} else {
		r.logger.Debug("cleaned up temp media file", "path", r.tempFile)
	}
	r.tempFile = ""
}

// cleanup is deferred for the lifetime of the run.
func (r *run) cleanup() {
	r.remove()
}
