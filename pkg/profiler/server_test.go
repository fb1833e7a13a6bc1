package profiler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdown(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestServer_Lifecycle(t *testing.T) {
	server := New(0)
	assert.Empty(t, server.Addr(), "no address before Start")

	require.NoError(t, server.Start(context.Background()))
	addr := server.Addr()
	assert.True(t, strings.HasPrefix(addr, "127.0.0.1:") || strings.HasPrefix(addr, "[::1]:"), "bound to loopback, got %s", addr)

	shutdown(t, server)

	client := http.Client{Timeout: time.Second}
	_, err := client.Get("http://" + addr + "/debug/pprof/")
	assert.Error(t, err, "server accepts no requests after Shutdown")
}

func TestServer_Endpoints(t *testing.T) {
	server := New(0)
	require.NoError(t, server.Start(context.Background()))
	defer shutdown(t, server)

	for _, endpoint := range []string{
		"/debug/pprof/",
		"/debug/pprof/cmdline",
		"/debug/pprof/symbol",
		"/debug/pprof/heap",
	} {
		t.Run(endpoint, func(t *testing.T) {
			resp, err := http.Get("http://" + server.Addr() + endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
