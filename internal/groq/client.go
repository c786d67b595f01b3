// Package groq wraps the Groq HTTP API for the two capabilities the journal
// uses: speech-to-text transcription and short entry summaries.
package groq

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/model"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	transcribeModel = "whisper-large-v3"
	summarizeModel  = "llama-3.3-70b-versatile"
)

type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &Client{http: rc, log: log.With().Str("component", "groq").Logger()}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio bytes to the transcription endpoint and returns
// the recognized text. filename carries the extension Groq uses to sniff the
// container format.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var out transcribeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetFormData(map[string]string{"model": transcribeModel}).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("%w: groq transcription: %v", model.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Msg("groq transcription failed")
		return "", fmt.Errorf("%w: groq transcription returned %d", model.ErrUpstreamUnavailable, resp.StatusCode())
	}
	return out.Text, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize asks the chat model for a summary of text in at most maxWords
// words.
func (c *Client) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 50
	}
	req := chatRequest{
		Model: summarizeModel,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf("Summarize the user's journal entry in at most %d words. Reply with the summary only.", maxWords)},
			{Role: "user", Content: text},
		},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: groq summarize: %v", model.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Msg("groq summarize failed")
		return "", fmt.Errorf("%w: groq summarize returned %d", model.ErrUpstreamUnavailable, resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: groq summarize returned no choices", model.ErrUpstreamUnavailable)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
