package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-remote-edge/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/config"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/ssml"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/synthesis"
)

const (
	chunkSize = 4096 // bytes per chunk

	// edge-tts default output is audio-24khz-48kbitrate-mono-mp3.
	mp3BytesPerSecond = 48000 / 8
	// PCM16 mono at 16 kHz, produced by the stub synthesizer.
	pcmBytesPerSecond = 16000 * 2
)

// Server implements the TextToSpeechService on top of a synthesis.Orchestrator.
type Server struct {
	napv1.UnimplementedTextToSpeechServiceServer

	cfg  config.Config
	log  *slog.Logger
	orch *synthesis.Orchestrator
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, orch *synthesis.Orchestrator) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if orch == nil {
		panic("server: orchestrator must not be nil")
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"default_voice", cfg.DefaultVoice,
		),
		orch: orch,
	}
}

// StreamSynthesis accepts a text synthesis request and streams back audio chunks.
func (s *Server) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	if req == nil {
		return fmt.Errorf("server: request is nil")
	}

	text := req.GetText()
	logEntry := s.log.With(
		"session_id", req.GetSessionId(),
		"stream_id", req.GetStreamId(),
		"text_length", len(text),
	)

	if strings.TrimSpace(text) == "" {
		logEntry.Warn("empty text in synthesis request")
		return s.sendError(stream, "text is required")
	}

	ctx := stream.Context()
	lang := resolveLanguage(s.cfg.Language, req.GetMetadata())
	voiceName := s.selectVoice(ctx, lang, logEntry)
	payload, markup, err := s.prepare(text, voiceName)
	if err != nil {
		logEntry.Warn("cannot prepare request", "error", err)
		return s.sendError(stream, err.Error())
	}
	logEntry = logEntry.With("language", lang, "voice", voiceName, "markup", markup)
	logEntry.Info("synthesis request received")

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED, nil); err != nil {
		logEntry.Error("failed to send started status", "error", err)
		return err
	}

	alternate := s.cfg.FallbackVoice
	if alternate == voiceName {
		alternate = ""
	}

	start := time.Now()
	res, err := s.orch.Process(ctx, synthesis.Request{
		Text:      payload,
		Voice:     voiceName,
		Alternate: alternate,
		Markup:    markup,
		Render: func(v string) (string, bool, error) {
			return s.prepare(text, v)
		},
	})
	if err != nil {
		logEntry.Error("synthesis failed", "error", err)
		return s.sendError(stream, fmt.Sprintf("synthesis failed: %v", err))
	}
	elapsed := time.Since(start)

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING, nil); err != nil {
		logEntry.Error("failed to send playing status", "error", err)
		return err
	}

	chunks, err := s.streamAudio(ctx, stream, res)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		logEntry.Info("synthesis interrupted", "reason", ctx.Err())
		return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_INTERRUPTED, map[string]string{
			"reason": ctx.Err().Error(),
		})
	}

	source := "backend"
	if res.Cached {
		source = "cache"
	}
	logEntry.Info("synthesis completed",
		"total_bytes", len(res.Audio),
		"chunks", chunks,
		"voice_used", res.Voice,
		"source", source,
		"duration_sec", elapsed.Seconds(),
	)

	return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED, map[string]string{
		"total_bytes":  fmt.Sprintf("%d", len(res.Audio)),
		"total_chunks": fmt.Sprintf("%d", chunks),
		"duration_sec": fmt.Sprintf("%.2f", elapsed.Seconds()),
		"text_length":  fmt.Sprintf("%d", len(text)),
		"voice":        res.Voice,
		"source":       source,
	})
}

// selectVoice keeps the default voice when it already speaks lang, and
// otherwise asks the catalog for one that does.
func (s *Server) selectVoice(ctx context.Context, lang string, logEntry *slog.Logger) string {
	def := s.cfg.DefaultVoice
	if lang == "auto" || voiceSpeaks(def, lang) {
		return def
	}
	name, err := s.orch.ResolveVoice(ctx, lang, def)
	if err != nil {
		logEntry.Warn("voice lookup failed, using default voice", "language", lang, "error", err)
		return def
	}
	return name
}

// voiceSpeaks reports whether a voice name such as "en-US-AriaNeural" belongs
// to lang, given either as a language ("en") or a locale ("en-US").
func voiceSpeaks(voiceName, lang string) bool {
	locale := ssml.LanguageFromVoice(voiceName)
	return locale == lang || strings.HasPrefix(locale, lang+"-")
}

// prepare turns request text into the backend payload. Text starting with a
// <speak> root, or any text when the SSML option is set, is passed through as
// markup. Plain text picks up the configured template or prosody.
func (s *Server) prepare(text, voiceName string) (string, bool, error) {
	if s.cfg.SSML || strings.HasPrefix(strings.TrimSpace(text), "<speak") {
		return text, true, nil
	}
	if s.cfg.Template != "" {
		doc, err := ssml.Render(s.cfg.Template, text, voiceName)
		if err != nil {
			return "", false, err
		}
		return doc, true, nil
	}
	if p := s.cfg.Prosody(); p != (ssml.Prosody{}) {
		return ssml.ProsodyDocument(text, voiceName, p), true, nil
	}
	return text, false, nil
}

// streamAudio sends res.Audio in fixed-size chunks. It stops early without
// error when the client goes away.
func (s *Server) streamAudio(ctx context.Context, stream napv1.TextToSpeechService_StreamSynthesisServer, res synthesis.Result) (uint64, error) {
	data := res.Audio
	metadata := adapterinfo.SynthesisMetadata(res.Voice, s.cfg.OutputFormat)

	var sequence uint64
	for offset := 0; offset < len(data); offset += chunkSize {
		if ctx.Err() != nil {
			return sequence, nil
		}
		end := min(offset+chunkSize, len(data))
		sequence++

		chunk := &napv1.AudioChunk{
			Data:       data[offset:end],
			Sequence:   sequence,
			First:      sequence == 1,
			Last:       end == len(data),
			DurationMs: s.chunkDuration(end - offset),
			Metadata:   metadata,
		}
		if err := stream.Send(&napv1.SynthesisResponse{
			Status: napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING,
			Chunk:  chunk,
		}); err != nil {
			s.log.Error("failed to send audio chunk", "error", err, "sequence", sequence)
			return sequence, err
		}
	}
	return sequence, nil
}

func (s *Server) chunkDuration(n int) uint32 {
	rate := mp3BytesPerSecond
	if s.cfg.UseStubSynthesizer || s.cfg.OutputFormat == "pcm" {
		rate = pcmBytesPerSecond
	}
	return uint32(n * 1000 / rate)
}

func (s *Server) sendStatus(stream napv1.TextToSpeechService_StreamSynthesisServer, status napv1.SynthesisStatus, metadata map[string]string) error {
	return stream.Send(&napv1.SynthesisResponse{
		Status:   status,
		Metadata: metadata,
	})
}

func (s *Server) sendError(stream napv1.TextToSpeechService_StreamSynthesisServer, message string) error {
	resp := &napv1.SynthesisResponse{
		Status:       napv1.SynthesisStatus_SYNTHESIS_STATUS_ERROR,
		ErrorMessage: message,
	}
	if err := stream.Send(resp); err != nil {
		return err
	}
	return fmt.Errorf("synthesis error: %s", message)
}

// resolveLanguage returns the language used to pick a voice.
//
// Modes:
//   - "client": read nupi.lang.iso1 from metadata; fall back to "auto" if absent.
//   - "auto":   always "auto", meaning the configured default voice.
//   - other:    the configured code verbatim, metadata is ignored.
func resolveLanguage(configLang string, metadata map[string]string) string {
	if configLang != "client" {
		return configLang
	}
	if code := strings.TrimSpace(metadata["nupi.lang.iso1"]); code != "" {
		return code
	}
	return "auto"
}
