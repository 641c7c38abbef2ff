package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileplane/fileplane/internal/backend/memory"
	"github.com/fileplane/fileplane/internal/file"
)

func TestInstrumentCountsOps(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	b := m.Instrument("memory", memory.New(map[string]file.Record{
		"/f.txt": file.New([]byte("content"), time.Now()),
	}))
	ctx := context.Background()

	_, err := b.Read(ctx, "/f.txt", 0, 0)
	require.NoError(t, err)
	_, err = b.Read(ctx, "/missing", 0, 0)
	require.Error(t, err)
	_, err = b.Write(ctx, "/new.txt", "x")
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.ops.WithLabelValues("memory", "read", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.ops.WithLabelValues("memory", "read", "not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.ops.WithLabelValues("memory", "write", "ok")))
}

func TestInstrumentPassesThroughResults(t *testing.T) {
	m := New(prometheus.NewRegistry())
	b := m.Instrument("memory", memory.New(nil))

	path, err := b.Write(context.Background(), "/f", "hello")
	require.NoError(t, err)
	assert.Equal(t, "/f", path)

	got, err := b.Read(context.Background(), "/f", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "     1\thello", got)
}
