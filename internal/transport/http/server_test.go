package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircserv/internal/core"
)

type fixedStats struct {
	st  core.Stats
	err error
}

func (f fixedStats) Stats(context.Context) (core.Stats, error) { return f.st, f.err }

func serve(t *testing.T, stats StatsSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	logger := zerolog.Nop()
	server := NewServer(":0", stats, &logger)

	req := httptest.NewRequest(stdhttp.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	resp := serve(t, fixedStats{}, "/health")
	if resp.Code != stdhttp.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected response: %d %q", resp.Code, resp.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	resp := serve(t, fixedStats{st: core.Stats{Clients: 3, Registered: 2, Channels: 1}}, "/stats")
	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var got core.Stats
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (core.Stats{Clients: 3, Registered: 2, Channels: 1}) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestStatsFromLiveHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := core.NewHub(core.Options{}, nil, nil)
	go hub.Run(ctx)

	resp := serve(t, hub, "/stats")
	if resp.Code != stdhttp.StatusOK || resp.Body.String() != `{"clients":0,"registered":0,"channels":0}` {
		t.Fatalf("unexpected response: %d %s", resp.Code, resp.Body.String())
	}
}

func TestStatsHubStopped(t *testing.T) {
	resp := serve(t, fixedStats{err: core.ErrHubClosed}, "/stats")
	if resp.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
}
