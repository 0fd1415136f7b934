package index_test

import (
	"context"
	"testing"
	"time"

	"github.com/atomicobject/codesearch/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchBufferFlushesOnSizeThreshold(t *testing.T) {
	m, ws := newTestManager(t)
	buf := index.NewBatchBuffer(m, 2, time.Hour)
	ctx := context.Background()

	require.NoError(t, buf.Add(ctx, ws, index.Document{Path: "/ws/a.go", Content: "a"}))
	assert.Equal(t, 1, buf.Pending(ws))

	require.NoError(t, buf.Add(ctx, ws, index.Document{Path: "/ws/b.go", Content: "b"}))
	assert.Equal(t, 0, buf.Pending(ws), "reaching the size threshold should flush")

	stats, err := m.Statistics(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentCount)
}

func TestBatchBufferExplicitFlush(t *testing.T) {
	m, ws := newTestManager(t)
	buf := index.NewBatchBuffer(m, 500, time.Hour)
	ctx := context.Background()

	require.NoError(t, buf.Add(ctx, ws, index.Document{Path: "/ws/a.go", Content: "a"}))
	assert.Equal(t, 1, buf.Pending(ws))

	require.NoError(t, buf.Flush(ctx, ws))
	assert.Equal(t, 0, buf.Pending(ws))
}

func TestBatchBufferCommitAll(t *testing.T) {
	m, ws1 := newTestManager(t)
	ws2 := "/workspace/other"
	buf := index.NewBatchBuffer(m, 500, time.Hour)
	ctx := context.Background()

	require.NoError(t, buf.Add(ctx, ws1, index.Document{Path: "/ws/a.go", Content: "a"}))
	require.NoError(t, buf.Add(ctx, ws2, index.Document{Path: "/ws2/b.go", Content: "b"}))

	require.NoError(t, buf.CommitAll(ctx))
	assert.Equal(t, 0, buf.Pending(ws1))
	assert.Equal(t, 0, buf.Pending(ws2))
}

func TestBatchBufferSweepAgedFlushesStaleEntries(t *testing.T) {
	m, ws := newTestManager(t)
	buf := index.NewBatchBuffer(m, 500, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, buf.Add(ctx, ws, index.Document{Path: "/ws/a.go", Content: "a"}))
	time.Sleep(5 * time.Millisecond)

	buf.SweepAged(ctx)
	assert.Equal(t, 0, buf.Pending(ws))
}
