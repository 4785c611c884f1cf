package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Engine turns an image into unstructured text.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error)
}

// Option configures the tesseract runner.
type Option func(*Tesseract)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(t *Tesseract) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// WithTimeout bounds one recognition run.
func WithTimeout(d time.Duration) Option {
	return func(t *Tesseract) {
		t.timeout = d
	}
}

// Tesseract runs the tesseract CLI, feeding the image on stdin and
// reading text from stdout.
type Tesseract struct {
	binary   string
	language string
	timeout  time.Duration
	exec     Executor
}

var _ Engine = (*Tesseract)(nil)

// NewTesseract constructs a runner for binary with the given language.
func NewTesseract(binary, language string, opts ...Option) (*Tesseract, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tesseract binary required")
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "eng"
	}
	t := &Tesseract{
		binary:   binary,
		language: language,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Recognize returns the text found in image.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("image required")
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	args := []string{"stdin", "stdout", "-l", t.language}
	out, err := t.exec.Run(ctx, t.binary, args, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
