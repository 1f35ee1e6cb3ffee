package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
)

var ErrTranscriptionUnavailable = errors.New("transcription service not configured")

// TranscriptionService converts recorded dream narrations to text with
// AssemblyAI.
type TranscriptionService struct {
	client          *aai.Client
	defaultLanguage string
	timeout         time.Duration
}

func NewTranscriptionService(cfg *config.Config) *TranscriptionService {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	svc := &TranscriptionService{defaultLanguage: cfg.TranscriptionLanguage, timeout: timeout}
	if cfg.AssemblyAIAPIKey != "" {
		opts := []aai.ClientOption{aai.WithAPIKey(cfg.AssemblyAIAPIKey)}
		if cfg.AssemblyAIBaseURL != "" {
			opts = append(opts, aai.WithBaseURL(cfg.AssemblyAIBaseURL))
		}
		svc.client = aai.NewClientWithOptions(opts...)
	}
	return svc
}

func (s *TranscriptionService) Available() bool {
	return s.client != nil
}

// Transcribe uploads audio and blocks until the transcript is ready, the
// AI timeout elapses or ctx ends. An empty language uses the configured
// default.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	if !s.Available() {
		return "", ErrTranscriptionUnavailable
	}
	if language == "" {
		language = s.defaultLanguage
	}

	params := &aai.TranscriptOptionalParams{}
	if language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transcript, err := s.client.Transcripts.TranscribeFromReader(ctx, audio, params)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return "", fmt.Errorf("transcribe audio: %s", msg)
	}
	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
