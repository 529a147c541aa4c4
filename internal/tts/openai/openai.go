// Package openai provides a speech synthesizer backed by the OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/tts"
)

// Ensure Synthesizer implements tts.Synthesizer.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesizer implements tts.Synthesizer using the OpenAI speech endpoint.
type Synthesizer struct {
	client oai.Client
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Synthesizer.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Synthesizer.
func New(apiKey string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai tts: apiKey must not be empty")
	}
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}
	return &Synthesizer{client: oai.NewClient(reqOpts...)}, nil
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice model.VoiceConfig) ([]byte, error) {
	resp, err := s.client.Audio.Speech.New(ctx, buildParams(text, voice))
	if err != nil {
		return nil, fmt.Errorf("openai tts: synthesize: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read audio: %w", err)
	}
	return audio, nil
}

func buildParams(text string, voice model.VoiceConfig) oai.AudioSpeechNewParams {
	params := oai.AudioSpeechNewParams{
		Input:          text,
		Model:          oai.SpeechModel(voice.Model),
		Voice:          oai.AudioSpeechNewParamsVoice(voice.Voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormat(strings.ToLower(voice.Format)),
	}
	if voice.Speed > 0 {
		params.Speed = oai.Float(voice.Speed)
	}
	// Only the gpt-4o speech models accept free-form instructions.
	if voice.Language != "" && strings.HasPrefix(voice.Model, "gpt-4o") {
		params.Instructions = oai.String(fmt.Sprintf("Read the sentence clearly in %s.", voice.Language))
	}
	return params
}
