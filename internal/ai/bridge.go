// Package ai asks an OpenAI-compatible chat endpoint to turn a natural
// language request about the selected table into SQL.
package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/database"
	"github.com/johan-st/sqlhelper/internal/history"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Workbench is the part of the workbench the bridge needs.
type Workbench interface {
	Config() config.Config
	Selection() workbench.Selection
	Columns(ctx context.Context) ([]database.ColumnDescriptor, error)
	Execute(ctx context.Context, sqlText string) (*workbench.Display, error)
}

// Recorder receives every exchange, failed ones included.
type Recorder interface {
	RecordExchange(record history.ExchangeRecord) error
}

// Exchange is a generated statement awaiting confirmation.
type Exchange struct {
	Database    string
	Table       string
	Request     string
	Context     string
	SQL         string
	Explanation string
	CreatedAt   time.Time
}

// Bridge holds at most one pending exchange.
type Bridge struct {
	wb       Workbench
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	pending *Exchange
}

// NewBridge creates a bridge over wb. recorder may be nil.
func NewBridge(wb Workbench, recorder Recorder, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{wb: wb, recorder: recorder, logger: logger.Named("ai")}
}

// Generate asks the endpoint for SQL answering request against the selected
// table. On any failure the previous pending exchange is kept.
func (b *Bridge) Generate(ctx context.Context, request string) (*Exchange, error) {
	const op = "generate"

	sel := b.wb.Selection()
	if sel.Empty() {
		return nil, apperr.Validation(op, "select a table first")
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, apperr.Validation(op, "describe what you need")
	}
	cfg := b.wb.Config()
	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		return nil, apperr.New(apperr.KindConfiguration, op, "AI API key is not configured")
	}

	cols, err := b.wb.Columns(ctx)
	if err != nil {
		return nil, err
	}
	tableContext := BuildContext(sel.Table, cols)

	ex := &Exchange{
		Database:  sel.Database,
		Table:     sel.Table,
		Request:   request,
		Context:   tableContext,
		CreatedAt: time.Now(),
	}

	content, err := b.complete(ctx, cfg, buildPrompt(cfg.Database.Driver, tableContext, request))
	if err != nil {
		b.record(ex, err)
		return nil, err
	}

	r, err := parseReply(content)
	if err != nil {
		err = apperr.Wrap(apperr.KindResponseShape, op, err)
		b.logger.Warn("unusable reply", zap.String("content", content), zap.Error(err))
		b.record(ex, err)
		return nil, err
	}
	ex.SQL, ex.Explanation = r.SQL, r.Explanation
	b.record(ex, nil)

	b.mu.Lock()
	b.pending = ex
	b.mu.Unlock()
	return ex, nil
}

func (b *Bridge) complete(ctx context.Context, cfg config.Config, prompt string) (string, error) {
	clientCfg := openai.DefaultConfig(cfg.AI.APIKey)
	clientCfg.BaseURL = baseURL(cfg.AI.URL)
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.AI.RequestTimeout()}
	client := openai.NewClientWithConfig(clientCfg)

	b.logger.Debug("AI request",
		zap.String("url", clientCfg.BaseURL),
		zap.String("model", cfg.AI.Model),
		zap.Int("prompt_len", len(prompt)))
	start := time.Now()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.AI.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(cfg.AI.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		b.logger.Warn("AI request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", apperr.Wrap(apperr.KindNetwork, "generate", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindResponseShape, "generate", "reply has no choices")
	}

	b.logger.Info("AI request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

// baseURL accepts either an API root or a full chat-completions URL.
func baseURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	return strings.TrimSuffix(url, "/chat/completions")
}

// classify keeps the HTTP status in the message when the endpoint answered.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &statusError{code: apiErr.HTTPStatusCode, err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &statusError{code: reqErr.HTTPStatusCode, err: err}
	}
	return err
}

type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	return http.StatusText(e.code) + ": " + e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

func (b *Bridge) record(ex *Exchange, err error) {
	if b.recorder == nil {
		return
	}
	rec := history.ExchangeRecord{
		Database:    ex.Database,
		Table:       ex.Table,
		Request:     ex.Request,
		SQL:         ex.SQL,
		Explanation: ex.Explanation,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if rerr := b.recorder.RecordExchange(rec); rerr != nil {
		b.logger.Warn("failed to record exchange", zap.Error(rerr))
	}
}

// Pending returns the exchange awaiting confirmation, or nil.
func (b *Bridge) Pending() *Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Statement returns the pending SQL as one line, comment lines removed.
func (b *Bridge) Statement() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statement()
}

func (b *Bridge) statement() (string, error) {
	if b.pending == nil {
		return "", apperr.Validation("execute", "no generated SQL to run")
	}
	stmt := CleanStatement(b.pending.SQL)
	if stmt == "" {
		return "", apperr.Validation("execute", "generated SQL is only comments")
	}
	return stmt, nil
}

// Execute runs the pending statement through the workbench. Call it only
// after the user confirmed Statement(). The exchange is consumed either way.
func (b *Bridge) Execute(ctx context.Context) (*workbench.Display, error) {
	b.mu.Lock()
	stmt, err := b.statement()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.pending = nil
	b.mu.Unlock()

	b.logger.Info("running generated SQL", zap.String("sql", stmt))
	return b.wb.Execute(ctx, stmt)
}

// Discard drops the pending exchange.
func (b *Bridge) Discard() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}
