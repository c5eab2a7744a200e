package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/database"
	"github.com/johan-st/sqlhelper/internal/history"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWorkbench struct {
	cfg       config.Config
	sel       workbench.Selection
	cols      []database.ColumnDescriptor
	described int
	executed  []string
}

func (f *fakeWorkbench) Config() config.Config          { return f.cfg }
func (f *fakeWorkbench) Selection() workbench.Selection { return f.sel }

func (f *fakeWorkbench) Columns(context.Context) ([]database.ColumnDescriptor, error) {
	f.described++
	return f.cols, nil
}
func (f *fakeWorkbench) Execute(_ context.Context, sqlText string) (*workbench.Display, error) {
	f.executed = append(f.executed, sqlText)
	return &workbench.Display{Kind: workbench.DisplayStatus, Message: workbench.StatementOKMarker}, nil
}

type memRecorder struct {
	exchanges []history.ExchangeRecord
}

func (m *memRecorder) RecordExchange(r history.ExchangeRecord) error {
	m.exchanges = append(m.exchanges, r)
	return nil
}

// endpoint serves chat completions whose content is produced by reply.
type endpoint struct {
	*httptest.Server
	hits atomic.Int32

	mu      sync.Mutex
	lastReq openai.ChatCompletionRequest
}

func (e *endpoint) request() openai.ChatCompletionRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReq
}

func newEndpoint(t *testing.T, handler func(w http.ResponseWriter, req openai.ChatCompletionRequest)) *endpoint {
	t.Helper()
	e := &endpoint{}
	e.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.hits.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		e.mu.Lock()
		e.lastReq = req
		e.mu.Unlock()
		handler(w, req)
	}))
	t.Cleanup(e.Close)
	return e
}

func replyWith(content string) func(http.ResponseWriter, openai.ChatCompletionRequest) {
	return func(w http.ResponseWriter, _ openai.ChatCompletionRequest) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}
}

func peopleBench(url, key string) *fakeWorkbench {
	cfg := config.DefaultConfig()
	cfg.AI.URL = url + "/v1/chat/completions"
	cfg.AI.APIKey = key
	return &fakeWorkbench{
		cfg: cfg,
		sel: workbench.Selection{Database: "shop", Table: "t"},
		cols: []database.ColumnDescriptor{
			{Field: "id", Type: "int", Null: "NO", Key: "PRI"},
			{Field: "name", Type: "varchar(20)", Null: "YES"},
		},
	}
}

func TestGenerate_MissingKeyFailsBeforeNetwork(t *testing.T) {
	ep := newEndpoint(t, replyWith(`{"sql":"SELECT 1"}`))
	wb := peopleBench(ep.URL, "")
	b := NewBridge(wb, nil, zaptest.NewLogger(t))

	_, err := b.Generate(context.Background(), "find all rows where name is empty")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Zero(t, ep.hits.Load())
	assert.Zero(t, wb.described)
}

func TestGenerate_Preconditions(t *testing.T) {
	ep := newEndpoint(t, replyWith(`{"sql":"SELECT 1"}`))

	wb := peopleBench(ep.URL, "")
	wb.sel = workbench.Selection{}
	b := NewBridge(wb, nil, nil)

	// Selection is checked before the text and the key.
	_, err := b.Generate(context.Background(), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	wb.sel = workbench.Selection{Database: "shop", Table: "t"}
	_, err = b.Generate(context.Background(), "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Zero(t, ep.hits.Load())
}

func TestGenerate_Success(t *testing.T) {
	content := "Here you go:\n```json\n{\"sql\": \"-- rows without a name\\nSELECT *\\nFROM t\\nWHERE name = '';\", \"explanation\": \"filters on name\"}\n```"
	ep := newEndpoint(t, replyWith(content))
	wb := peopleBench(ep.URL, "secret")
	rec := &memRecorder{}
	b := NewBridge(wb, rec, zaptest.NewLogger(t))

	ex, err := b.Generate(context.Background(), "find all rows where name is empty")
	require.NoError(t, err)
	assert.Equal(t, "filters on name", ex.Explanation)
	assert.Same(t, ex, b.Pending())
	assert.Contains(t, ex.Context, "- id: int, NOT NULL, PRI\n")
	assert.Contains(t, ex.Context, "- name: varchar(20), NULL, \n")

	req := ep.request()
	assert.Equal(t, "silicon-flow-model", req.Model)
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "find all rows where name is empty")
	assert.Contains(t, req.Messages[0].Content, "MySQL")

	stmt, err := b.Statement()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE name = '';", stmt)

	require.Len(t, rec.exchanges, 1)
	assert.Equal(t, "t", rec.exchanges[0].Table)
	assert.Empty(t, rec.exchanges[0].Error)
}

func TestGenerate_FailuresKeepPrevious(t *testing.T) {
	var mode atomic.Int32
	ep := newEndpoint(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		switch mode.Load() {
		case 0:
			replyWith(`{"sql":"SELECT 1","explanation":"one"}`)(w, req)
		case 1:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		case 2:
			replyWith(`{"explanation":"no sql here"}`)(w, req)
		case 3:
			replyWith("I cannot help with that.")(w, req)
		}
	})
	wb := peopleBench(ep.URL, "secret")
	rec := &memRecorder{}
	b := NewBridge(wb, rec, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := b.Generate(ctx, "one")
	require.NoError(t, err)

	mode.Store(1)
	_, err = b.Generate(ctx, "two")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Same(t, first, b.Pending())

	for _, m := range []int32{2, 3} {
		mode.Store(m)
		_, err = b.Generate(ctx, "three")
		require.Error(t, err)
		assert.Equal(t, apperr.KindResponseShape, apperr.KindOf(err), "mode %d", m)
		assert.Same(t, first, b.Pending())
	}

	require.Len(t, rec.exchanges, 4)
	assert.NotEmpty(t, rec.exchanges[1].Error)
}

func TestGenerate_Timeout(t *testing.T) {
	ep := newEndpoint(t, func(w http.ResponseWriter, req openai.ChatCompletionRequest) {
		time.Sleep(300 * time.Millisecond)
		replyWith(`{"sql":"SELECT 1"}`)(w, req)
	})
	wb := peopleBench(ep.URL, "secret")
	wb.cfg.AI.Timeout = "50ms"
	b := NewBridge(wb, nil, nil)

	_, err := b.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
	assert.Nil(t, b.Pending())
}

func TestExecute(t *testing.T) {
	ep := newEndpoint(t, replyWith(`{"sql":"-- comment\nDELETE FROM t\n\nWHERE id = 1","explanation":"x"}`))
	wb := peopleBench(ep.URL, "secret")
	b := NewBridge(wb, nil, nil)
	ctx := context.Background()

	_, err := b.Execute(ctx)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = b.Generate(ctx, "remove row one")
	require.NoError(t, err)

	d, err := b.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, workbench.StatementOKMarker, d.Message)
	assert.Equal(t, []string{"DELETE FROM t WHERE id = 1"}, wb.executed)
	assert.Nil(t, b.Pending())

	_, err = b.Execute(ctx)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Len(t, wb.executed, 1)
}

func TestDiscard(t *testing.T) {
	ep := newEndpoint(t, replyWith(`{"sql":"SELECT 1"}`))
	b := NewBridge(peopleBench(ep.URL, "secret"), nil, nil)

	_, err := b.Generate(context.Background(), "one")
	require.NoError(t, err)
	b.Discard()
	assert.Nil(t, b.Pending())
}
