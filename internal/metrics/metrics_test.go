package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

func TestRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.Observe(terrain.FrameStats{LiveChunks: 13, FreeBlocks: 2, MeshSwaps: 5, Leaves: map[int]int{0: 12, 1: 1}}, 0.001)
	r.Observe(terrain.FrameStats{LiveChunks: 1, FreeBlocks: 5, MeshSwaps: 1, Leaves: map[int]int{2: 1}}, 0.002)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.frames))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.liveChunks))
	assert.Equal(t, float64(5), testutil.ToFloat64(r.freeBlocks))
	assert.Equal(t, float64(6), testutil.ToFloat64(r.meshSwaps))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.leaves.WithLabelValues("2")))
	// Levels absent from the last frame are dropped.
	assert.Equal(t, 1, testutil.CollectAndCount(r.leaves))
}

func TestRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestAdminHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)
	r.Observe(terrain.FrameStats{LiveChunks: 7}, 0)

	srv := httptest.NewServer(AdminHandler(reg))
	defer srv.Close()

	body := get(t, srv.URL+"/metrics")
	assert.Contains(t, body, "terrain_live_chunks 7")
	assert.Equal(t, "ok", get(t, srv.URL+"/health"))
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry(), zaptest.NewLogger(t))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}
