package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/metrics"
)

var ErrAIDisabled = errors.New("ai service disabled: no api key configured")

const (
	DefaultAIURL         = "https://api.openai.com/v1/chat/completions"
	DefaultAIModel       = "gpt-4o-mini"
	defaultAIMaxTokens   = 500
	defaultAITemperature = 0.7
	defaultAITimeout     = 30 * time.Second
)

var tracer = otel.Tracer("loan-dashboard/service")

// Completer produces one assistant reply for a system instruction and a
// conversation.
type Completer interface {
	Complete(ctx context.Context, system string, messages []domain.Message) (string, error)
}

type AIConfig struct {
	APIKey      string
	APIURL      string
	Model       string
	MaxTokens   int
	// Temperature is left to the default when nil; zero is a valid setting.
	Temperature *float64
	Timeout     time.Duration
}

// AIService talks to an OpenAI compatible chat completions endpoint.
type AIService struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	enabled     bool
	httpClient  *http.Client
	logger      *zap.Logger
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func NewAIService(cfg AIConfig, logger *zap.Logger) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultAIMaxTokens
	}
	temperature := defaultAITemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAITimeout
	}

	return &AIService{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: temperature,
		enabled:     cfg.APIKey != "",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (s *AIService) Enabled() bool { return s.enabled }

type aiOperationKey struct{}

// withAIOperation labels the completion calls made under ctx for metrics.
func withAIOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, aiOperationKey{}, op)
}

func aiOperation(ctx context.Context) string {
	if op, ok := ctx.Value(aiOperationKey{}).(string); ok {
		return op
	}
	return "complete"
}

func (s *AIService) Complete(ctx context.Context, system string, messages []domain.Message) (string, error) {
	op := aiOperation(ctx)
	if !s.enabled {
		metrics.AICalls.WithLabelValues(op, "disabled").Inc()
		return "", ErrAIDisabled
	}

	ctx, span := tracer.Start(ctx, "ai.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.operation", op),
		attribute.String("ai.model", s.model),
		attribute.Int("ai.messages", len(messages)),
	)

	start := time.Now()
	reply, err := s.callLLM(ctx, system, messages)
	metrics.AICallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AICalls.WithLabelValues(op, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("completion call failed", zap.String("operation", op), zap.Error(err))
		return "", err
	}
	metrics.AICalls.WithLabelValues(op, "ok").Inc()
	return reply, nil
}

func (s *AIService) callLLM(ctx context.Context, system string, messages []domain.Message) (string, error) {
	reqBody := openAIRequest{
		Model:       s.model,
		Messages:    make([]openAIMessage, 0, len(messages)+1),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
	if system != "" {
		reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var openAIResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}
