package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartKeepsExistingID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceID(Start(ctx)))

	fresh := Start(context.Background())
	assert.Len(t, TraceID(fresh), 26)
}

func TestLTagsTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	L(WithTraceID(context.Background(), "run-1")).Info("hello")
	L(context.Background()).Info("bare")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "run-1", entries[0].ContextMap()["trace_id"])
	assert.Equal(t, "-", entries[1].ContextMap()["trace_id"])
}
