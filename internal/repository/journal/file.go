package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
)

const (
	// TimeLayout is the timestamp format of journal lines.
	TimeLayout = time.RFC3339Nano

	// filePermissions is the mode of a newly created journal.
	filePermissions os.FileMode = 0o600

	fieldCount = 3
)

var (
	// ErrNotFound is returned when the journal file does not exist yet.
	ErrNotFound = errors.New("journal not found")

	errMalformedLine = errors.New("malformed journal line")
)

// Entry is one journal line.
type Entry struct {
	Time    time.Time
	Stage   domain.Stage
	Outcome string
}

// Repository defines persistence operations for the journal.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	Load(ctx context.Context) ([]Entry, error)
}

// FileRepository appends journal lines to a text file.
type FileRepository struct {
	// path is the filesystem location of the journal.
	path string
	// mu serialises appends from one process.
	mu sync.Mutex
}

// NewFileRepository creates a journal at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the journal location.
func (r *FileRepository) Path() string {
	return r.path
}

// Append writes one line, creating the file and its directory if needed.
func (r *FileRepository) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	if _, err = file.WriteString(format(entry)); err != nil {
		_ = file.Close()
		return fmt.Errorf("write journal: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	return nil
}

// Load reads every line of the journal.
func (r *FileRepository) Load(_ context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var (
		entries []Entry
		line    int
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line++

		entry, err := parse(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		entries = append(entries, entry)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return entries, nil
}

// Observe appends the transition. Journal failures are logged and never
// interrupt the boot.
func (r *FileRepository) Observe(ctx context.Context, transition domain.Transition) {
	entry := Entry{
		Time:    transition.At,
		Stage:   transition.To,
		Outcome: transition.Outcome,
	}

	if transition.To == domain.StageDone {
		entry.Outcome = fmt.Sprintf("%s (exit %d)", transition.Outcome, transition.ExitCode)
	}

	if err := r.Append(ctx, entry); err != nil {
		logger.WarnKV(ctx, "Failed to write journal", "path", r.path, "error", err)
	}
}

// format renders an entry as a line. Tabs and newlines in the outcome are
// replaced so every entry stays on one line.
func format(entry Entry) string {
	outcome := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(entry.Outcome)

	return entry.Time.UTC().Format(TimeLayout) + "\t" + string(entry.Stage) + "\t" + outcome + "\n"
}

func parse(line string) (Entry, error) {
	fields := strings.SplitN(line, "\t", fieldCount)
	if len(fields) != fieldCount {
		return Entry{}, fmt.Errorf("%w: %q", errMalformedLine, line)
	}

	at, err := time.Parse(TimeLayout, fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errMalformedLine, err)
	}

	return Entry{
		Time:    at,
		Stage:   domain.Stage(fields[1]),
		Outcome: fields[2],
	}, nil
}
