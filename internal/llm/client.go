package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lingodrill/internal/types"

	"github.com/goccy/go-json"
)

// Client talks to an OpenAI-compatible chat completions endpoint. It serves
// both answer validation and feedback translation; callers dedupe requests
// through the task cache so the client itself stays stateless.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const validateSystemPrompt = "You are a strict but encouraging language tutor. " +
	"Judge the student's answer to the exercise. Respond with a JSON object " +
	`{"is_correct": bool, "feedback": string}. ` +
	"Write the feedback in the language named by the user, two sentences at most."

type verdict struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

func (c *Client) ValidateAttempt(ctx context.Context, language string, ex types.Exercise, answerText string) (bool, string, error) {
	user := fmt.Sprintf(
		"Exercise (%s, target language %s):\n%s\n\nStudent's answer:\n%s\n\nFeedback language: %s",
		ex.Type, ex.TargetLanguage, ex.Text, answerText, language,
	)
	raw, err := c.chat(ctx, validateSystemPrompt, user)
	if err != nil {
		return false, "", err
	}
	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, "", fmt.Errorf("malformed validation verdict: %w", err)
	}
	return v.IsCorrect, v.Feedback, nil
}

const translateSystemPrompt = "You translate short language-learning feedback. " +
	"Keep the tone and any quoted exercise fragments intact. " +
	"Respond with the translated text only, no commentary."

func (c *Client) TranslateFeedback(ctx context.Context, feedback, targetLanguage string, ex types.Exercise, answerText, exerciseLanguage string) (string, error) {
	user := fmt.Sprintf(
		"Translate into %s. The feedback is about an exercise in %s and the answer %q.\n\n%s",
		targetLanguage, exerciseLanguage, answerText, feedback,
	)
	out, err := c.chatPlain(ctx, translateSystemPrompt, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
}

func (c *Client) chatPlain(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("completion endpoint returned %d: %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(out.Choices) == 0 {
		return "", fmt.Errorf("completion endpoint returned %d with no choices", resp.StatusCode)
	}
	return out.Choices[0].Message.Content, nil
}
