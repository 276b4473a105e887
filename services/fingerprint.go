package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"reelmaker/metrics"
	"reelmaker/models"
	"reelmaker/utils"
)

const (
	// DefaultSnippetStart is where the sample is cut from, in seconds
	DefaultSnippetStart = 5.0
	// DefaultSnippetDuration is the sample length, in seconds
	DefaultSnippetDuration = 10.0

	maxRecognitionResponse = 1 << 20
)

// FingerprintChecker asks a remote recognition service whether a video's
// audio matches a known track. It is advisory: every failure reads as no match.
type FingerprintChecker struct {
	runner     utils.Runner
	httpClient *http.Client
	host       string
	secret     string
	keys       *utils.CredentialPool
	cooldown   time.Duration
	workDir    string
	logger     *zap.Logger
	now        func() time.Time
}

// NewFingerprintChecker creates a new checker
func NewFingerprintChecker(runner utils.Runner, host, secret string, keys *utils.CredentialPool, timeout, cooldown time.Duration, workDir string, logger *zap.Logger) *FingerprintChecker {
	return &FingerprintChecker{
		runner: runner,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		host:     host,
		secret:   secret,
		keys:     keys,
		cooldown: cooldown,
		workDir:  workDir,
		logger:   logger,
		now:      time.Now,
	}
}

// Check samples durationSeconds of audio from startSeconds into videoPath and
// looks it up. A negative start or non-positive duration falls back to the defaults. The
// temporary sample is always removed before returning.
func (fc *FingerprintChecker) Check(ctx context.Context, videoPath string, startSeconds, durationSeconds float64) models.FingerprintResult {
	if startSeconds < 0 {
		startSeconds = DefaultSnippetStart
	}
	if durationSeconds <= 0 {
		durationSeconds = DefaultSnippetDuration
	}

	snippet := filepath.Join(fc.workDir, utils.UniqueName("snippet", 0, "wav"))
	defer func() {
		if err := os.Remove(snippet); err != nil && !os.IsNotExist(err) {
			fc.logger.Warn("failed to remove audio snippet", zap.String("path", snippet), zap.Error(err))
		}
	}()

	args := utils.SnippetArgs(videoPath, snippet, startSeconds, durationSeconds)
	if err := runStage(ctx, fc.runner, StageSnippet, args, snippet); err != nil {
		fc.logger.Debug("no audio snippet extracted", zap.Error(err))
		metrics.FingerprintChecksTotal.WithLabelValues("no_audio").Inc()
		return models.FingerprintResult{}
	}

	sample, err := os.ReadFile(snippet)
	if err != nil {
		metrics.FingerprintChecksTotal.WithLabelValues("error").Inc()
		return models.FingerprintResult{}
	}

	body, err := fc.identify(ctx, sample)
	if err != nil {
		fc.logger.Warn("recognition request failed", zap.Error(err))
		metrics.FingerprintChecksTotal.WithLabelValues("error").Inc()
		return models.FingerprintResult{}
	}

	result := ParseRecognition(body)
	if result.Matched {
		metrics.FingerprintChecksTotal.WithLabelValues("match").Inc()
	} else {
		metrics.FingerprintChecksTotal.WithLabelValues("no_match").Inc()
	}
	return result
}

// identify posts the sample and returns the raw response body
func (fc *FingerprintChecker) identify(ctx context.Context, sample []byte) ([]byte, error) {
	key, err := fc.keys.Acquire()
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(fc.host)
	if err != nil {
		return nil, fmt.Errorf("invalid recognition host: %w", err)
	}
	timestamp := strconv.FormatInt(fc.now().Unix(), 10)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"access_key":        key,
		"data_type":         "audio",
		"sample_bytes":      strconv.Itoa(len(sample)),
		"signature_version": "1",
		"signature":         Sign(fc.secret, u.Path, key, timestamp),
		"timestamp":         timestamp,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := w.CreateFormFile("sample", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create sample part: %w", err)
	}
	if _, err := part.Write(sample); err != nil {
		return nil, fmt.Errorf("failed to write sample: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fc.host, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := fc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		fc.keys.Bench(key, fc.cooldown)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognition service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRecognitionResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// Sign computes the request signature: base64(HMAC-SHA1(secret, string-to-sign))
func Sign(secret, uri, accessKey, timestamp string) string {
	toSign := "POST\n" + uri + "\n" + accessKey + "\naudio\n1\n" + timestamp
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseRecognition reads the first music match out of a recognition response.
// Malformed bodies and empty match lists are reported as no match.
func ParseRecognition(body []byte) models.FingerprintResult {
	if !gjson.ValidBytes(body) {
		return models.FingerprintResult{}
	}
	music := gjson.GetBytes(body, "metadata.music.0")
	if !music.IsObject() {
		return models.FingerprintResult{}
	}

	result := models.FingerprintResult{Matched: true}
	if title := music.Get("title"); title.Exists() && title.Type == gjson.String {
		s := title.String()
		result.Title = &s
	}
	if artist := music.Get("artists.0.name"); artist.Exists() && artist.Type == gjson.String {
		s := artist.String()
		result.Artist = &s
	}
	return result
}
