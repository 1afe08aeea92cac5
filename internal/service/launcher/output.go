package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/fieldboot/internal/logger"
)

const (
	// maxPartialLine is the largest partial line buffered before it is logged as is.
	maxPartialLine = 64 << 10

	// outputFilePermissions is used when creating a service output file.
	outputFilePermissions = 0o640
)

// lineLogger is an io.Writer forwarding complete lines of child output to the logger.
type lineLogger struct {
	ctx    context.Context //nolint:containedctx // The writer outlives the call that created it.
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineLogger(ctx context.Context, stream string) *lineLogger {
	return &lineLogger{ctx: ctx, stream: stream}
}

// Write buffers p and logs every complete line.
func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Write(line)
			break
		}

		w.log(line)
	}

	for w.buf.Len() >= maxPartialLine {
		w.log(w.buf.Next(maxPartialLine))
	}

	return len(p), nil
}

// Flush logs a trailing line without a newline.
func (w *lineLogger) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.log(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *lineLogger) log(line []byte) {
	text := string(bytes.TrimRight(line, "\r\n"))
	if text == "" {
		return
	}

	logger.InfoKV(w.ctx, text, "stream", w.stream)
}

// serviceOutput holds the files a long-running service writes to.
type serviceOutput struct {
	stdout *os.File
	stderr *os.File
	// owned is closed once the child has inherited it.
	owned *os.File
}

// openOutput opens path for appending, or falls back to the
// orchestrator's own stdout and stderr when path is empty.
func openOutput(path string) (*serviceOutput, error) {
	if path == "" {
		return &serviceOutput{stdout: os.Stdout, stderr: os.Stderr}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, outputFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &serviceOutput{stdout: file, stderr: file, owned: file}, nil
}

// Close releases the file opened for the child, if any.
func (o *serviceOutput) Close() error {
	if o.owned == nil {
		return nil
	}

	return o.owned.Close()
}
