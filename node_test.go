// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agora

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startNode(t *testing.T, opts ...ConfigOptionFunc) (*Node, <-chan error) {
	t.Helper()
	n, err := New(NewConfig(opts...))
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(context.Background())
	}()
	select {
	case <-n.Started():
	case err := <-errCh:
		t.Fatalf("node failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node to start")
	}
	return n, errCh
}

func TestNodeRunStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	n, errCh := startNode(
		t,
		WithApiListenAddress("127.0.0.1:0"),
		WithPrometheusRegistry(prometheus.NewRegistry()),
	)
	require.NotNil(t, n.LedgerState())
	addr := n.APIAddr()
	require.NotNil(t, addr)

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	http.DefaultClient.CloseIdleConnections()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, health.IsHealthy)

	require.NoError(t, n.Stop())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	// Stop is idempotent
	require.NoError(t, n.Stop())
}

func TestNodeWithoutAPI(t *testing.T) {
	n, errCh := startNode(t)
	assert.Nil(t, n.APIAddr())
	require.NoError(t, n.Stop())
	require.NoError(t, <-errCh)
}

func TestNodeRunContextCancel(t *testing.T) {
	n, err := New(NewConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	<-n.Started()
	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, n.Stop())
}

func TestNodeAPIPortInUse(t *testing.T) {
	first, errCh := startNode(t, WithApiListenAddress("127.0.0.1:0"))
	defer func() {
		require.NoError(t, first.Stop())
		<-errCh
	}()
	n, err := New(NewConfig(WithApiListenAddress(first.APIAddr().String())))
	require.NoError(t, err)
	err = n.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start API")
}
