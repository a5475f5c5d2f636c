package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// ReadInput reads all of r, returning early with ErrInputCancelled when ctx is
// done first. The read itself keeps running until r returns.
func ReadInput(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		err  error
		text string
	}
	resultCh := make(chan result, 1)

	go func() {
		data, err := io.ReadAll(r)
		resultCh <- result{text: string(data), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.text, nil
	}
}

// ReadSource reads the named file, or standard input when path is "" or "-".
func ReadSource(ctx context.Context, path string) (string, error) {
	if path == "" || path == "-" {
		return ReadInput(ctx, os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadInput(ctx, f)
}

// Confirm writes prompt to w and reports whether the next line read from r is
// "y" or "yes".
func Confirm(ctx context.Context, r io.Reader, w io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(w, prompt+" (y/N): "); err != nil {
		return false, err
	}

	lineCh := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(r).ReadString('\n')
		lineCh <- line
	}()

	select {
	case <-ctx.Done():
		return false, ErrInputCancelled
	case line := <-lineCh:
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
