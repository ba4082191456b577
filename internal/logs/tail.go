package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// Options controls Tail.
type Options struct {
	Lines     int
	Follow    bool
	Poll      time.Duration
	Component string
}

// Tail emits the last opts.Lines lines of path, then keeps emitting appended
// lines while opts.Follow is set. A missing file is treated as empty.
func Tail(ctx context.Context, path string, opts Options, emit func(string)) error {
	if emit == nil {
		return errors.New("tail: emit callback is required")
	}
	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	keep := func(line string) {
		if Matches(line, opts.Component) {
			emit(line)
		}
	}

	lines, offset, err := lastLines(path, opts.Lines, opts.Component)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		size, err := fileSize(path)
		if err != nil {
			return err
		}
		if size < offset {
			offset = 0
		}
		if size == offset {
			continue
		}
		offset, err = readFrom(path, offset, keep)
		if err != nil {
			return err
		}
	}
}

// Matches reports whether line was logged by component. An empty component
// matches every line.
func Matches(line, component string) bool {
	component = strings.TrimSpace(component)
	if component == "" {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var entry struct {
			Component string `json:"component"`
		}
		if err := json.Unmarshal([]byte(trimmed), &entry); err == nil {
			return strings.EqualFold(entry.Component, component)
		}
	}
	// console: "<ts> <LEVEL> <component>: <message>"
	fields := strings.SplitN(trimmed, " ", 4)
	if len(fields) < 3 {
		return false
	}
	return strings.EqualFold(strings.TrimSuffix(fields[2], ":"), component) && strings.HasSuffix(fields[2], ":")
}

func lastLines(path string, limit int, component string) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	} else if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	scanner := newScanner(file)
	for scanner.Scan() {
		if limit <= 0 {
			continue
		}
		line := scanner.Text()
		if !Matches(line, component) {
			continue
		}
		if len(ring) == limit {
			copy(ring, ring[1:])
			ring = ring[:limit-1]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	return ring, offset, nil
}

// readFrom emits complete lines after offset and returns the offset just past
// the last complete line, so a partially written line is re-read next poll.
func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReader(file)
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(chunk))
		emit(strings.TrimRight(chunk, "\r\n"))
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	return info.Size(), nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
