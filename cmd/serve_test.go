package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/doc-extractor/internal/config"
	"github.com/sells-group/doc-extractor/internal/extract"
	"github.com/sells-group/doc-extractor/internal/fetcher/mocks"
	"github.com/sells-group/doc-extractor/internal/source"
)

func TestResolvePort_FlagSet(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8000))
}

func TestResolvePort_FlagZero(t *testing.T) {
	assert.Equal(t, 8000, resolvePort(0, 8000))
}

func TestResolvePort_BothZero(t *testing.T) {
	assert.Equal(t, 0, resolvePort(0, 0))
}

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.OCR.Provider = "google"
	c.OCR.TimeoutSecs = 5
	c.Fetch.TimeoutSecs = 5
	c.Fetch.MaxBytes = 1 << 20
	c.Server.Port = 8000
	c.Server.MaxUploadMB = 1
	c.Server.CORSOrigins = []string{"*"}
	c.Extract.FallbackEncoding = "windows-1252"
	return c
}

func testPipeline(t *testing.T) *extract.Pipeline {
	t.Helper()
	resolver := source.NewResolver(mocks.NewMockFetcher(t), source.Options{TempDir: t.TempDir()})
	return extract.New(resolver, nil, extract.Options{})
}

func TestBuildRouter_Health(t *testing.T) {
	h := buildRouter(testPipeline(t), testConfig())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ocr_configured"])
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := buildRouter(testPipeline(t), testConfig())
	port := getFreePort(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- startServer(ctx, h, port)
	}()

	// Wait for server to be ready.
	var ready bool
	for i := 0; i < 50; i++ {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", port))
		if err == nil {
			resp.Body.Close()
			ready = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready in time")

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestStartServer_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	err = startServer(context.Background(), http.NotFoundHandler(), port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server listen")
}

func TestInitPipeline_MissingCredentialIsNotFatal(t *testing.T) {
	p, err := initPipeline(testConfig(), "serve")
	require.NoError(t, err)
	assert.False(t, p.OCRConfigured())
}

func TestInitPipeline_WithCredential(t *testing.T) {
	c := testConfig()
	c.Vision.APIKey = "key"
	p, err := initPipeline(c, "extract")
	require.NoError(t, err)
	assert.True(t, p.OCRConfigured())
}

func TestInitPipeline_AnthropicProvider(t *testing.T) {
	c := testConfig()
	c.OCR.Provider = "anthropic"
	p, err := initPipeline(c, "extract")
	require.NoError(t, err)
	assert.False(t, p.OCRConfigured())

	c.Anthropic.APIKey = "key"
	p, err = initPipeline(c, "extract")
	require.NoError(t, err)
	assert.True(t, p.OCRConfigured())
}

func TestInitPipeline_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.OCR.Provider = "tesseract"
	_, err := initPipeline(c, "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.provider")
}
