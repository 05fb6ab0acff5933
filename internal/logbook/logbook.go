package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one parsed journal line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// keepLines bounds the in-memory tail served by Tail and Recent.
const keepLines = 64

// Logbook records what the user did and how each request ended, one line per
// event, so the TUI can show recent history. The file is scanned once; later
// appends update the in-memory tail.
type Logbook struct {
	path  string
	mu    sync.Mutex
	clock func() time.Time

	loaded bool
	recent []string
	total  int
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Messages may carry user input; keep one entry per line.
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s\n",
		l.clock().UTC().Format(time.RFC3339),
		string(level),
		message,
	)
	l.loadLocked()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	if _, err := file.WriteString(line); err != nil {
		return
	}
	l.remember(strings.TrimSuffix(line, "\n"))
}

// Tail returns up to maxLines of the most recent entries (at most keepLines)
// and the total number of lines in the logbook.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	lines := l.recent
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return append([]string(nil), lines...), l.total
}

// Recent parses the last maxEntries lines and reports the total line count.
// Lines that do not parse are returned as INFO entries carrying the raw text.
func (l *Logbook) Recent(maxEntries int) ([]Entry, int) {
	lines, total := l.Tail(maxEntries)
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLine(line))
	}
	return entries, total
}

// loadLocked reads the existing file into the tail on first use.
func (l *Logbook) loadLocked() {
	if l.loaded {
		return
	}
	l.loaded = true
	file, err := os.Open(l.path)
	if err != nil {
		return
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		l.remember(scanner.Text())
	}
}

func (l *Logbook) remember(line string) {
	l.total++
	l.recent = append(l.recent, line)
	if len(l.recent) > keepLines {
		l.recent = append(l.recent[:0], l.recent[len(l.recent)-keepLines:]...)
	}
}

func parseLine(line string) Entry {
	stamp, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{Level: LevelInfo, Message: line}
	}
	ts, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return Entry{Level: LevelInfo, Message: line}
	}
	rest = strings.TrimLeft(rest, " ")
	level, msg, _ := strings.Cut(rest, " ")
	switch Level(level) {
	case LevelInfo, LevelWarn, LevelError:
	default:
		return Entry{Time: ts, Level: LevelInfo, Message: strings.TrimSpace(rest)}
	}
	return Entry{Time: ts, Level: Level(level), Message: strings.TrimSpace(msg)}
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
