package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kuapa-ai/kuapa/internal/config"
	"github.com/kuapa-ai/kuapa/internal/retriever"
)

// part is one piece of Gemini content: text or inline media
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

// inlineData carries base64-encoded media inside a request
type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// content is a role-tagged sequence of parts
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generationConfig holds model sampling options
type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
}

// generateRequest is the body of a generateContent call
type generateRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// generateResponse is the body of a generateContent reply
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// StreamHandler is a callback function for handling streamed responses
type StreamHandler func(content string, done bool) error

// Client is a Gemini API client
type Client struct {
	host            string
	apiKey          string
	model           string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
}

// NewClient creates a new Gemini client
func NewClient(cfg config.GeminiConfig) *Client {
	return &Client{
		host:            cfg.Host,
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Configured reports whether an API key is available
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Answer generates an advisory answer for the query, grounded on the
// retrieved context chunks, in the requested language. When no API key
// is configured it degrades to a fixed apology instead of failing.
func (c *Client) Answer(ctx context.Context, query string, chunks []retriever.Result, language string) (string, error) {
	if !c.Configured() {
		return unconfiguredReply, nil
	}

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: buildPrompt(query, chunks, language)}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
			TopP:            0.95,
		},
	}

	resp, err := c.generate(ctx, "generateContent", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return firstCandidateText(genResp), nil
}

// AnswerStream generates an answer and streams it chunk by chunk
func (c *Client) AnswerStream(ctx context.Context, query string, chunks []retriever.Result, language string, handler StreamHandler) error {
	if !c.Configured() {
		return handler(unconfiguredReply, true)
	}

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: buildPrompt(query, chunks, language)}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
			TopP:            0.95,
		},
	}

	resp, err := c.generate(ctx, "streamGenerateContent?alt=sse", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var genResp generateResponse
		if err := json.Unmarshal([]byte(payload), &genResp); err != nil {
			continue
		}
		if text := firstCandidateText(genResp); text != "" {
			if err := handler(text, false); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return handler("", true)
}

// Transcribe sends inline audio to Gemini and returns the transcription
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini API key not configured")
	}

	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{
				{Text: transcriptionPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			}},
		},
	}

	resp, err := c.generate(ctx, "generateContent", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(firstCandidateText(genResp))
	if text == "" || strings.EqualFold(text, couldNotTranscribe) {
		return "", fmt.Errorf("could not transcribe audio")
	}
	return text, nil
}

// CheckHealth checks if the Gemini API is reachable with the configured key
func (c *Client) CheckHealth(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("gemini API key not configured")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s", c.host, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gemini is not accessible at %s: %w", c.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

func (c *Client) generate(ctx context.Context, method string, req generateRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:%s", c.host, c.model, method)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return resp, nil
}

func firstCandidateText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
