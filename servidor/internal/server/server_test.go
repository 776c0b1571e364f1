package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FortressModels/shared/catalog"
	"FortressModels/shared/pipeline"
	"FortressModels/shared/proto/query"
)

func buildResult(t *testing.T) *pipeline.Result {
	t.Helper()
	models := memfs.New()
	files := map[string]string{
		"wall/mod.hcl":     "params { main = \"stone.png\" }\nface \"up\" { texture = \"main\" }\n",
		"wall/granite.hcl": "transparent = true\ninherit \"wall/mod\" {}\n",
	}
	for name, content := range files {
		require.NoError(t, util.WriteFile(models, name, []byte(content), 0o644))
	}
	textures := memfs.New()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	require.NoError(t, util.WriteFile(textures, "stone.png", buf.Bytes(), 0o644))

	res, err := pipeline.Build(context.Background(), pipeline.Env{
		Models:   models,
		Textures: textures,
		Logger:   log.New(io.Discard, "", 0),
		PageSize: 32,
		Workers:  1,
	})
	require.NoError(t, err)
	return res
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(buildResult(t), log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) query.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env query.Envelope
	require.NoError(t, env.Unmarshal(data))
	return env
}

func readStatus(t *testing.T, conn *websocket.Conn) query.ServerStatus {
	t.Helper()
	env := readEnvelope(t, conn)
	require.Equal(t, query.EnvelopeServerStatus, env.Type)
	var st query.ServerStatus
	require.NoError(t, st.Unmarshal(env.Payload))
	return st
}

func resolve(t *testing.T, conn *websocket.Conn, req query.ResolveRequest) query.ResolveResponse {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, query.Wrap(query.EnvelopeResolveRequest, &req)))
	env := readEnvelope(t, conn)
	require.Equal(t, query.EnvelopeResolveResponse, env.Type)
	var resp query.ResolveResponse
	require.NoError(t, resp.Unmarshal(env.Payload))
	return resp
}

func TestResolveOverWebSocket(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	st := readStatus(t, conn)
	assert.Equal(t, uint32(2), st.Models)
	assert.Equal(t, uint32(1), st.Pages)
	assert.Equal(t, uint32(32), st.PageSize)

	wall := int32(catalog.ShapeWall)

	resp := resolve(t, conn, query.ResolveRequest{ID: 1, Shape: wall, Path: "GRANITE"})
	assert.Equal(t, uint32(1), resp.ID)
	assert.Equal(t, int32(catalog.Exact), resp.Match)
	// granite.hcl vem antes de mod.hcl na ordem de carga.
	assert.Equal(t, uint32(1), resp.ModelIndex)
	assert.True(t, resp.Transparent)
	require.Len(t, resp.Primitives, 1)
	m, err := resp.ToModel()
	require.NoError(t, err)
	require.Len(t, m.Primitives, 1)
	assert.Len(t, m.Primitives[0].Vertices, 4)

	resp = resolve(t, conn, query.ResolveRequest{ID: 2, Shape: wall, Path: "GRANITE:STRUCTURAL"})
	assert.Equal(t, int32(catalog.Fallback), resp.Match)
	assert.Equal(t, uint32(1), resp.ModelIndex)

	resp = resolve(t, conn, query.ResolveRequest{ID: 3, Shape: wall, Path: "OBSIDIAN"})
	assert.Equal(t, int32(catalog.Missing), resp.Match)
	assert.Equal(t, uint32(2), resp.ModelIndex, "o padrão da classe ainda é devolvido")
	assert.False(t, resp.Transparent)

	resp = resolve(t, conn, query.ResolveRequest{ID: 4, Shape: 999, Path: "GRANITE"})
	assert.Equal(t, int32(catalog.Missing), resp.Match)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Primitives)
}

// lockedBuffer aceita escritas de várias goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHubLogsThroughServerLogger(t *testing.T) {
	var logs lockedBuffer
	s := New(buildResult(t), log.New(&logs, "", 0))
	ts := httptest.NewServer(s.Handler())
	defer s.Close()
	defer ts.Close()

	conn := dial(t, ts)
	readStatus(t, conn)
	assert.Contains(t, logs.String(), "[Hub] Cliente registrado")
}

func TestPingPong(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	readStatus(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, query.Wrap(query.EnvelopePing, nil)))
	assert.Equal(t, query.EnvelopePong, readEnvelope(t, conn).Type)
}

func TestSetResultBroadcastsStatus(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	readStatus(t, conn)

	s.SetResult(buildResult(t))
	st := readStatus(t, conn)
	assert.Equal(t, "Catálogo recarregado", st.Message)
	assert.Equal(t, uint32(2), st.Models)
}

func TestAtlasPages(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/atlas/0.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	for path, code := range map[string]int{
		"/atlas/7.png":  http.StatusNotFound,
		"/atlas/x.png":  http.StatusBadRequest,
		"/atlas/0.jpeg": http.StatusBadRequest,
	} {
		r, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		r.Body.Close()
		assert.Equal(t, code, r.StatusCode, path)
	}
}

func TestResolveWithoutCatalog(t *testing.T) {
	s := New(nil, log.New(io.Discard, "", 0))
	defer s.Close()
	resp := s.Resolve(&query.ResolveRequest{ID: 5, Shape: int32(catalog.ShapeWall)})
	assert.Equal(t, uint32(5), resp.ID)
	assert.Equal(t, int32(catalog.Missing), resp.Match)
	assert.NotEmpty(t, resp.Error)
}
