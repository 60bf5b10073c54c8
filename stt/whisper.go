package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultWhisperURL = "https://api.openai.com/v1/audio/transcriptions"

// ErrNoSpeech is returned when the service produced an empty transcript.
var ErrNoSpeech = errors.New("stt: no speech recognized")

// Whisper implements Provider against the OpenAI transcription endpoint or
// any compatible server.
type Whisper struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// WhisperConfig holds configuration for the Whisper provider.
type WhisperConfig struct {
	APIKey  string
	BaseURL string        // optional, defaults to the OpenAI endpoint
	Model   string        // optional, defaults to "whisper-1"
	Timeout time.Duration // per-call timeout, default 15s
}

// NewWhisper creates a Whisper provider. The API key is required.
func NewWhisper(cfg WhisperConfig) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("stt: API key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWhisperURL
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Whisper{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (w *Whisper) Name() string { return "whisper-api" }

// Transcribe sends one audio chunk to the transcription endpoint.
func (w *Whisper) Transcribe(ctx context.Context, audio []float32, language string) (*Result, error) {
	body, contentType, err := buildTranscribeForm(audio, w.model, language)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("X-Client-Trace-Id", uuid.NewString())

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, raw)
	}

	var apiResp struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if apiResp.Text == "" {
		return nil, ErrNoSpeech
	}

	return &Result{
		Text:       apiResp.Text,
		Language:   apiResp.Language,
		Confidence: 1.0, // endpoint does not report confidence
	}, nil
}

func (w *Whisper) Close() error { return nil }

func buildTranscribeForm(audio []float32, model, language string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if err := writeWAV(part, audio, 16000); err != nil {
		return nil, "", fmt.Errorf("encode wav: %w", err)
	}

	if err := form.WriteField("model", model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	// "auto" is our sentinel for auto-detect; the endpoint wants the field absent.
	if language != "" && language != "auto" {
		if err := form.WriteField("language", baseLanguage(language)); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := form.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}

	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}

// baseLanguage reduces a recognition locale to the ISO 639-1 code the
// transcription endpoint accepts: "es-ES" becomes "es". Bare codes pass
// through unchanged.
func baseLanguage(language string) string {
	if i := strings.IndexByte(language, '-'); i > 0 {
		language = language[:i]
	}
	return strings.ToLower(language)
}

// writeWAV encodes float32 PCM as a 16-bit mono RIFF/WAVE stream.
func writeWAV(w io.Writer, samples []float32, sampleRate int) error {
	dataSize := len(samples) * 2

	type fmtChunk struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36+dataSize)); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVEfmt ")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, fmtChunk{
		AudioFormat:   1, // PCM
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
	}); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dataSize)); err != nil {
		return err
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1.0:
			s = 1.0
		case s < -1.0:
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}
	return binary.Write(w, binary.LittleEndian, pcm)
}
