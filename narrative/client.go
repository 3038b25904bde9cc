package narrative

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BonChain/saga-sub000/logger"
)

// Client talks to the external text-generation service that turns an action
// into root-consequence text. OpenRouter is primary, Gemini the fallback.
type Client struct {
	ApiKey   string
	Model    string
	Provider string // "openrouter" or "gemini"
	BaseURL  string

	// Circuit Breaker State
	failureCount    int
	lastFailureTime time.Time
	circuitOpen     bool

	// Rate Limiting
	requestCount         int
	windowStart          time.Time
	maxRequestsPerMinute int

	// Fallback Client
	fallback *Client
}

// NewClient wires the provider chain from environment keys. With no keys
// configured the client is inert and the caller falls back to the offline
// generator.
func NewClient() *Client {
	var primary *Client
	var fallback *Client

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		model := os.Getenv("OPENROUTER_MODEL")
		if model == "" {
			model = "x-ai/grok-beta"
		}
		logger.Info(logger.StatusOK, "Primary narrative LLM: OpenRouter (%s)", model)
		primary = &Client{
			ApiKey:               key,
			Model:                model,
			Provider:             "openrouter",
			BaseURL:              "https://openrouter.ai/api/v1/chat/completions",
			maxRequestsPerMinute: 60,
			windowStart:          time.Now(),
		}
	}

	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			model = "gemini-1.5-flash"
		}
		logger.Info(logger.StatusOK, "Fallback narrative LLM: Google Gemini (%s)", model)
		fallback = &Client{
			ApiKey:               geminiKey,
			Model:                model,
			Provider:             "gemini",
			BaseURL:              "https://generativelanguage.googleapis.com/v1beta/models",
			maxRequestsPerMinute: 60,
			windowStart:          time.Now(),
		}
	}

	if primary != nil {
		primary.fallback = fallback
		return primary
	}
	if fallback != nil {
		return fallback
	}

	logger.Warn(logger.StatusWarn, "No narrative API keys configured; using offline templates")
	return &Client{}
}

// Configured reports whether any provider key is available.
func (c *Client) Configured() bool {
	return c != nil && c.ApiKey != ""
}

// --- Gemini Types ---
type geminiPart struct {
	Text string `json:"text"`
}
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- OpenRouter / OpenAI Types ---
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
	Error *struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"` // Can be int or string
	} `json:"error"`
}

// checkCircuitBreaker determines if the circuit is open (too many failures)
func (c *Client) checkCircuitBreaker() error {
	const cooldownPeriod = 60 * time.Second

	if c.circuitOpen {
		if time.Since(c.lastFailureTime) > cooldownPeriod {
			logger.InfoDepth(1, logger.StatusWait, "Circuit breaker cooling down, attempting reset...")
			c.circuitOpen = false
			c.failureCount = 0
		} else {
			return fmt.Errorf("circuit breaker OPEN - too many API failures. Retry after %v", cooldownPeriod-time.Since(c.lastFailureTime))
		}
	}

	return nil
}

// recordFailure increments failure count and potentially opens circuit
func (c *Client) recordFailure() {
	c.failureCount++
	c.lastFailureTime = time.Now()

	if c.failureCount >= 5 {
		c.circuitOpen = true
		logger.WarnDepth(1, logger.StatusWarn, "CIRCUIT BREAKER OPENED after %d consecutive failures", c.failureCount)
	}
}

// recordSuccess resets failure counter
func (c *Client) recordSuccess() {
	c.failureCount = 0
	c.circuitOpen = false
}

// enforceRateLimit checks and enforces request rate limiting
func (c *Client) enforceRateLimit() error {
	now := time.Now()

	if now.Sub(c.windowStart) > time.Minute {
		c.windowStart = now
		c.requestCount = 0
	}

	if c.requestCount >= c.maxRequestsPerMinute {
		waitTime := time.Minute - now.Sub(c.windowStart)
		return fmt.Errorf("rate limit exceeded (%d requests/min). Wait %v", c.maxRequestsPerMinute, waitTime)
	}

	c.requestCount++
	return nil
}

// Complete sends one prompt through the provider chain.
func (c *Client) Complete(prompt string) (string, error) {
	if c.ApiKey == "" {
		return "", errors.New("API_KEY not set (OPENROUTER_API_KEY or GEMINI_API_KEY)")
	}

	if err := c.checkCircuitBreaker(); err != nil {
		if c.fallback != nil {
			logger.Warn(logger.StatusWarn, "Primary LLM circuit open, using fallback (%s)", c.fallback.Provider)
			return c.fallback.Complete(prompt)
		}
		return "", err
	}

	if err := c.enforceRateLimit(); err != nil {
		if c.fallback != nil {
			logger.Warn(logger.StatusWarn, "Primary LLM rate limited, using fallback (%s)", c.fallback.Provider)
			return c.fallback.Complete(prompt)
		}
		return "", err
	}

	var result string
	var err error

	if c.Provider == "openrouter" {
		result, err = c.completeOpenRouter(prompt)
	} else {
		result, err = c.completeGemini(prompt)
	}

	if err != nil {
		c.recordFailure()
		if c.fallback != nil {
			logger.Warn(logger.StatusWarn, "Primary LLM failed (%v), trying fallback (%s)", err, c.fallback.Provider)
			return c.fallback.Complete(prompt)
		}
	} else {
		c.recordSuccess()
	}

	return result, err
}

func (c *Client) completeOpenRouter(prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	jsonData, _ := json.Marshal(reqBody)

	maxRetries := 3
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, _ := http.NewRequest("POST", c.BaseURL, bytes.NewBuffer(jsonData))
		req.Header.Set("Authorization", "Bearer "+c.ApiKey)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == 200 {
			var chatResp chatResponse
			if err := json.Unmarshal(body, &chatResp); err != nil {
				return "", err
			}
			if chatResp.Error != nil {
				return "", fmt.Errorf("OpenRouter error: %s", chatResp.Error.Message)
			}
			if len(chatResp.Choices) > 0 {
				return chatResp.Choices[0].Message.Content, nil
			}
			return "", errors.New("no content in OpenRouter response")
		}

		if resp.StatusCode == 429 {
			logger.InfoDepth(2, logger.StatusWait, "OpenRouter rate limit. Retrying in 5s...")
			time.Sleep(5 * time.Second)
			continue
		}

		return "", fmt.Errorf("OpenRouter error %d: %s", resp.StatusCode, string(body))
	}
	return "", errors.New("max retries exceeded")
}

func (c *Client) completeGemini(prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.BaseURL, c.Model, c.ApiKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	maxRetries := 5
	var body []byte
	var status int

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			return "", err
		}
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		status = resp.StatusCode

		if status == 200 {
			break
		}

		if status == 429 || status == 503 {
			if attempt == maxRetries {
				break
			}
			delay := time.Duration(5*(1<<attempt)) * time.Second
			logger.InfoDepth(2, logger.StatusWait, "Rate limit (%d). Retrying in %v...", status, delay)
			time.Sleep(delay)
			continue
		}

		return "", fmt.Errorf("API request failed with status %d: %s", status, string(body))
	}

	if status != 200 {
		return "", fmt.Errorf("API request failed after retries with status %d: %s", status, string(body))
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", err
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("API error: %s", genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content generated")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// cleanJSON strips a markdown code fence if the model wrapped its output.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
