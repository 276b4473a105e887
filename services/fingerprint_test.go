package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelmaker/utils"
)

const testSecret = "shh"

type recognitionServer struct {
	*httptest.Server
	hits atomic.Int32
}

// newRecognitionServer verifies the signed form and replies with status and body
func newRecognitionServer(t *testing.T, status int, body string) *recognitionServer {
	t.Helper()
	rs := &recognitionServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		key := r.FormValue("access_key")
		assert.Equal(t, "audio", r.FormValue("data_type"))
		assert.Equal(t, "1", r.FormValue("signature_version"))
		assert.Equal(t, Sign(testSecret, r.URL.Path, key, r.FormValue("timestamp")), r.FormValue("signature"))

		file, _, err := r.FormFile("sample")
		if assert.NoError(t, err) {
			sample, _ := io.ReadAll(file)
			assert.Equal(t, "encoded", string(sample))
			assert.Equal(t, "7", r.FormValue("sample_bytes"))
		}

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestChecker(runner utils.Runner, host string, keys *utils.CredentialPool, dir string) *FingerprintChecker {
	return NewFingerprintChecker(runner, host, testSecret, keys, 5*time.Second, time.Minute, dir, testLogger())
}

func TestSign(t *testing.T) {
	assert.Equal(t, "hjKBhwF86VN6RNNqd3ibDl8yfRE=", Sign("shh", "/v1/identify", "key-one", "1700000000"))
}

func TestParseRecognition(t *testing.T) {
	t.Run("Full match", func(t *testing.T) {
		res := ParseRecognition([]byte(`{"status":{"code":0},"metadata":{"music":[{"title":"Song A","artists":[{"name":"Artist A"}]},{"title":"Other"}]}}`))
		assert.True(t, res.Matched)
		require.NotNil(t, res.Title)
		require.NotNil(t, res.Artist)
		assert.Equal(t, "Song A", *res.Title)
		assert.Equal(t, "Artist A", *res.Artist)
	})

	t.Run("Match without artists", func(t *testing.T) {
		res := ParseRecognition([]byte(`{"metadata":{"music":[{"title":"Song B"}]}}`))
		assert.True(t, res.Matched)
		require.NotNil(t, res.Title)
		assert.Equal(t, "Song B", *res.Title)
		assert.Nil(t, res.Artist)
	})

	for name, body := range map[string]string{
		"No metadata":  `{"status":{"code":1001,"msg":"No result"}}`,
		"Empty music":  `{"metadata":{"music":[]}}`,
		"Not JSON":     `<html>oops</html>`,
		"Empty body":   ``,
		"Music scalar": `{"metadata":{"music":["x"]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			res := ParseRecognition([]byte(body))
			assert.False(t, res.Matched)
			assert.Nil(t, res.Title)
			assert.Nil(t, res.Artist)
		})
	}
}

func TestCheckMatch(t *testing.T) {
	dir := t.TempDir()
	server := newRecognitionServer(t, http.StatusOK, `{"metadata":{"music":[{"title":"Song A","artists":[{"name":"Artist A"}]}]}}`)
	runner := &fakeRunner{}

	res := newTestChecker(runner, server.URL+"/v1/identify", utils.NewCredentialPool([]string{"key-one"}), dir).
		Check(context.Background(), "/videos/in.mp4", 5, 10)

	assert.True(t, res.Matched)
	require.NotNil(t, res.Title)
	assert.Equal(t, "Song A", *res.Title)
	assert.Equal(t, int32(1), server.hits.Load())

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "00:00:05.000", argAfter(calls[0], "-ss"))
	assert.Equal(t, "10", argAfter(calls[0], "-t"))
	assert.Contains(t, calls[0], "-vn")

	assert.Empty(t, dirNames(t, dir), "snippet must be removed")
}

func TestCheckDefaults(t *testing.T) {
	server := newRecognitionServer(t, http.StatusOK, `{}`)
	runner := &fakeRunner{}

	newTestChecker(runner, server.URL+"/v1/identify", utils.NewCredentialPool([]string{"k"}), t.TempDir()).
		Check(context.Background(), "in.mp4", -1, 0)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "00:00:05.000", argAfter(calls[0], "-ss"))
	assert.Equal(t, "10", argAfter(calls[0], "-t"))
}

func TestCheckNoMatch(t *testing.T) {
	dir := t.TempDir()
	server := newRecognitionServer(t, http.StatusOK, `{"status":{"code":1001}}`)

	res := newTestChecker(&fakeRunner{}, server.URL+"/v1/identify", utils.NewCredentialPool([]string{"k"}), dir).
		Check(context.Background(), "in.mp4", 0, 10)
	assert.False(t, res.Matched)
	assert.Empty(t, dirNames(t, dir))
}

func TestCheckMalformedResponse(t *testing.T) {
	dir := t.TempDir()
	server := newRecognitionServer(t, http.StatusOK, `not json`)

	res := newTestChecker(&fakeRunner{}, server.URL+"/v1/identify", utils.NewCredentialPool([]string{"k"}), dir).
		Check(context.Background(), "in.mp4", 5, 10)
	assert.False(t, res.Matched)
	assert.Empty(t, dirNames(t, dir))
}

func TestCheckNoAudio(t *testing.T) {
	dir := t.TempDir()
	server := newRecognitionServer(t, http.StatusOK, `{}`)
	runner := &fakeRunner{hook: func([]string) error { return exitError(1) }}

	res := newTestChecker(runner, server.URL+"/v1/identify", utils.NewCredentialPool([]string{"k"}), dir).
		Check(context.Background(), "silent.mp4", 5, 10)
	assert.False(t, res.Matched)
	assert.Equal(t, int32(0), server.hits.Load())
	assert.Empty(t, dirNames(t, dir))
}

func TestCheckWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	server := newRecognitionServer(t, http.StatusOK, `{}`)

	res := newTestChecker(&fakeRunner{}, server.URL+"/v1/identify", utils.NewCredentialPool(nil), dir).
		Check(context.Background(), "in.mp4", 5, 10)
	assert.False(t, res.Matched)
	assert.Equal(t, int32(0), server.hits.Load())
	assert.Empty(t, dirNames(t, dir))
}

func TestCheckBenchesRejectedKey(t *testing.T) {
	server := newRecognitionServer(t, http.StatusTooManyRequests, `{"status":{"code":3003}}`)
	keys := utils.NewCredentialPool([]string{"only"})

	res := newTestChecker(&fakeRunner{}, server.URL+"/v1/identify", keys, t.TempDir()).
		Check(context.Background(), "in.mp4", 5, 10)
	assert.False(t, res.Matched)
	assert.Equal(t, 0, keys.Available())
}
