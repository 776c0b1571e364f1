package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FortressModels/shared/proto/query"
)

// fakeServer responde PING e RESOLVE_REQUEST como o servidor real.
func fakeServer(t *testing.T, status *query.ServerStatus) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if status != nil {
			conn.WriteMessage(websocket.BinaryMessage, query.Wrap(query.EnvelopeServerStatus, status))
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env query.Envelope
			if env.Unmarshal(data) != nil {
				continue
			}
			switch env.Type {
			case query.EnvelopePing:
				conn.WriteMessage(websocket.BinaryMessage, query.Wrap(query.EnvelopePong, nil))
			case query.EnvelopeResolveRequest:
				var req query.ResolveRequest
				req.Unmarshal(env.Payload)
				resp := query.ResolveResponse{ID: req.ID, Match: 0, ModelIndex: 3}
				switch req.Path {
				case "ERRO":
					resp = query.ResolveResponse{ID: req.ID, Match: 2, Error: "classe de forma inválida"}
				case "SILENCIO":
					continue
				}
				conn.WriteMessage(websocket.BinaryMessage, query.Wrap(query.EnvelopeResolveResponse, &resp))
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestResolveMatchesResponses(t *testing.T) {
	statuses := make(chan *query.ServerStatus, 1)
	ts := fakeServer(t, &query.ServerStatus{Message: "oi", Models: 4})

	c := NewNetworkClient(wsURL(ts))
	c.OnStatus = func(st *query.ServerStatus) { statuses <- st }
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	select {
	case st := <-statuses:
		assert.Equal(t, uint32(4), st.Models)
	case <-time.After(5 * time.Second):
		t.Fatal("status não recebido")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Resolve(ctx, 2, "GRANITE")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), resp.ModelIndex)

	resp, err = c.Resolve(ctx, 2, "ERRO")
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int32(2), resp.Match)

	require.NoError(t, c.Ping(ctx))
}

func TestResolveHonorsContext(t *testing.T) {
	ts := fakeServer(t, nil)
	c := NewNetworkClient(wsURL(ts))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Resolve(ctx, 2, "SILENCIO")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolveWithoutConnection(t *testing.T) {
	c := NewNetworkClient("ws://127.0.0.1:1/ws")
	_, err := c.Resolve(context.Background(), 2, "GRANITE")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Send(query.EnvelopePing, nil), ErrNotConnected)
}

func TestConnectGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(ts)
	ts.Close()

	c := NewNetworkClient(url)
	c.MaxRetries = 2
	c.RetryDelay = time.Millisecond
	assert.Error(t, c.Connect(context.Background()))
	assert.False(t, c.IsConnected())
}
