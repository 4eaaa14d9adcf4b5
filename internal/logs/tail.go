package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	maxLineBytes        = 1024 * 1024
)

// Tailer reads matching records from one log file.
type Tailer struct {
	path   string
	filter Filter
	poll   time.Duration
}

// NewTailer returns a Tailer for path. A poll of zero uses 250ms.
func NewTailer(path string, filter Filter, poll time.Duration) *Tailer {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Tailer{path: path, filter: filter, poll: poll}
}

// Last returns up to n matching records from the end of the file and the
// offset just past the last complete line. A missing file yields no records.
func (t *Tailer) Last(n int) ([]Record, int64, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n <= 0 {
		info, err := file.Stat()
		if err != nil {
			return nil, 0, fmt.Errorf("stat log file: %w", err)
		}
		return nil, info.Size(), nil
	}

	ring := make([]Record, 0, n)
	start := 0
	offset, err := scanLines(file, 0, func(line string) {
		rec := ParseRecord(line)
		if !t.filter.Match(rec) {
			return
		}
		if len(ring) < n {
			ring = append(ring, rec)
			return
		}
		ring[start] = rec
		start = (start + 1) % n
	})
	if err != nil {
		return nil, 0, err
	}
	return append(ring[start:], ring[:start]...), offset, nil
}

// Follow polls the file from offset and calls emit for each new matching
// record until ctx ends. A file shorter than offset is read again from the
// start. Follow returns nil when ctx is canceled.
func (t *Tailer) Follow(ctx context.Context, offset int64, emit func(Record) error) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		next, err := t.readFrom(offset, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (t *Tailer) readFrom(offset int64, emit func(Record) error) (int64, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}

	var emitErr error
	next, err := scanLines(file, offset, func(line string) {
		if emitErr != nil {
			return
		}
		if rec := ParseRecord(line); t.filter.Match(rec) {
			emitErr = emit(rec)
		}
	})
	if err != nil {
		return offset, err
	}
	return next, emitErr
}

// scanLines calls fn for every complete line after offset and returns the
// offset past the last complete line. A trailing partial line is left for the
// next read.
func scanLines(file *os.File, offset int64, fn func(string)) (int64, error) {
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		fn(trimNewline(line))
	}
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
