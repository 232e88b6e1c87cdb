package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	logFileName  = "winshifts_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

var (
	mu     sync.Mutex
	stderr bool
	dir    = "."
	file   *rotatingWriter
)

// SetVerbose mirrors log output to stderr regardless of file logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	stderr = v
}

// Setup enables file logging with basic size-based rotation (10MB, max 3 files).
// When disabled, logs are discarded (keeps stdout clean) unless verbose.
func Setup(enableFileLogging bool) {
	mu.Lock()
	defer mu.Unlock()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	closeFileLocked()

	var out []io.Writer
	if stderr {
		out = append(out, os.Stderr)
	}
	if enableFileLogging {
		if w, err := openRotating(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			file = w
			out = append(out, w)
		}
	}

	switch len(out) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(out[0])
	default:
		log.SetOutput(io.MultiWriter(out...))
	}
}

// Close stops logging to the file, if any. Later output is discarded unless
// verbose.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return
	}
	if stderr {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
	closeFileLocked()
}

func closeFileLocked() {
	if file == nil {
		return
	}
	file.mu.Lock()
	_ = file.f.Close()
	file.mu.Unlock()
	file = nil
}

func logPath() string { return filepath.Join(dir, logFileName) }

func openRotating() (*rotatingWriter, error) {
	rotateIfNeeded()
	f, err := os.OpenFile(logPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{f: f}, nil
}

type rotatingWriter struct {
	mu sync.Mutex
	f  *os.File
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate()
		nf, err := os.OpenFile(logPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded() {
	if st, err := os.Stat(logPath()); err == nil && st.Size() > maxSizeBytes {
		rotate()
	}
}

// rotate shifts archives: .1, .2, .3 (oldest discarded), then moves the
// current file to .1.
func rotate() {
	_ = os.Remove(archiveName(maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(i), archiveName(i+1))
	}
	_ = os.Rename(logPath(), archiveName(1))
}

func archiveName(n int) string { return fmt.Sprintf("%s.%d", logPath(), n) }
