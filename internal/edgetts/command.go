package edgetts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const (
	// DefaultCommand is the edge-tts executable looked up on PATH.
	DefaultCommand = "edge-tts"
	// DefaultPython runs the edge_tts module when the executable fails.
	DefaultPython = "python"

	stderrLimit = 4096
)

// CommandSynthesizer runs the edge-tts command line tool and reads back the
// media file it writes. When the executable fails it retries once through
// "python -m edge_tts".
type CommandSynthesizer struct {
	command string
	python  string
	tempDir string
	format  string
	log     *slog.Logger
}

// CommandOption configures a CommandSynthesizer.
type CommandOption func(*CommandSynthesizer)

// WithCommand sets the edge-tts executable.
func WithCommand(path string) CommandOption {
	return func(c *CommandSynthesizer) { c.command = path }
}

// WithPython sets the python interpreter used for the module fallback. An
// empty value disables the fallback.
func WithPython(path string) CommandOption {
	return func(c *CommandSynthesizer) { c.python = path }
}

// WithTempDir sets where intermediate media files are written.
func WithTempDir(dir string) CommandOption {
	return func(c *CommandSynthesizer) { c.tempDir = dir }
}

// WithFormat sets the media file extension (default "mp3").
func WithFormat(format string) CommandOption {
	return func(c *CommandSynthesizer) { c.format = format }
}

// NewCommandSynthesizer returns a synthesizer using the edge-tts tool.
func NewCommandSynthesizer(logger *slog.Logger, opts ...CommandOption) *CommandSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CommandSynthesizer{
		command: DefaultCommand,
		python:  DefaultPython,
		format:  "mp3",
		log:     logger.With("component", "edge_tts_command"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize writes the audio for text to a temporary file and returns its bytes.
func (c *CommandSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := checkRequest(text, voice); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(c.tempDir, "tts_output_*."+c.format)
	if err != nil {
		return nil, fmt.Errorf("edgetts: create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	args := []string{"--voice", voice, "--text", text, "--write-media", path}

	if runErr := c.run(ctx, c.command, args...); runErr != nil {
		if c.python == "" {
			return nil, runErr
		}
		c.log.Warn("edge-tts command failed, retrying through python module", "error", runErr)
		if err := c.run(ctx, c.python, append([]string{"-m", "edge_tts"}, args...)...); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SynthesisError{Backend: "edge-tts", Voice: voice, Detail: "read audio file", Err: err}
	}
	if len(data) == 0 {
		return nil, &SynthesisError{Backend: "edge-tts", Voice: voice, Detail: "no audio data generated"}
	}

	c.log.Debug("edge-tts synthesis completed", "voice", voice, "bytes", len(data))
	return data, nil
}

func (c *CommandSynthesizer) run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > stderrLimit {
			detail = detail[:stderrLimit]
		}
		return &SynthesisError{Backend: name, Voice: voiceArg(args), Detail: detail, Err: err}
	}
	return nil
}

func voiceArg(args []string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--voice" {
			return args[i+1]
		}
	}
	return ""
}
