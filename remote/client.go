// Package remote is the typed client for the three translation backend
// endpoints. All operations are stateless and safe to call concurrently;
// nothing here retries — a failure is surfaced once and acted on by the
// caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"parlo/audio"
	"parlo/log"
)

var (
	// ErrUnreachable covers transport failures, including deadline expiry.
	ErrUnreachable = errors.New("translation service unreachable")
	// ErrService covers non-success responses and malformed bodies.
	ErrService = errors.New("translation service error")
)

// Result is the response envelope; any subset of fields may be present
// depending on the operation.
type Result struct {
	Transcript  string
	Translation string
	AudioURL    string
}

type Client interface {
	TranslateAudio(ctx context.Context, take *audio.Take, src, tgt string) (Result, error)
	TranslateText(ctx context.Context, text, src, tgt string) (Result, error)
	SpeakText(ctx context.Context, text, lang string) (Result, error)
}

type HTTPClient struct {
	base   string
	client *TracedClient
}

func New(base string) *HTTPClient {
	return &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		client: NewTracedClient(),
	}
}

// Warm pre-opens the connection; fire from a goroutine before an upload.
func (c *HTTPClient) Warm() {
	c.client.Warm(c.base + "/")
}

func (c *HTTPClient) TranslateAudio(ctx context.Context, take *audio.Take, src, tgt string) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "take."+string(take.Format))
	if err != nil {
		return Result{}, fmt.Errorf("%w: translate-audio: %v", ErrService, err)
	}
	if _, err := part.Write(take.Data); err != nil {
		return Result{}, fmt.Errorf("%w: translate-audio: %v", ErrService, err)
	}
	writer.WriteField("src_lang", src)
	writer.WriteField("tgt_lang", tgt)
	writer.Close()

	var parsed struct {
		Transcript  string `json:"transcript"`
		Translation string `json:"translation"`
		AudioURL    string `json:"audio_url"`
	}
	if err := c.post(ctx, "translate-audio", "/translate", writer.FormDataContentType(), &body, &parsed); err != nil {
		return Result{}, err
	}
	return Result{
		Transcript:  parsed.Transcript,
		Translation: parsed.Translation,
		AudioURL:    parsed.AudioURL,
	}, nil
}

func (c *HTTPClient) TranslateText(ctx context.Context, text, src, tgt string) (Result, error) {
	payload, err := json.Marshal(struct {
		Text    string `json:"text"`
		SrcLang string `json:"src_lang"`
		TgtLang string `json:"tgt_lang"`
	}{text, src, tgt})
	if err != nil {
		return Result{}, fmt.Errorf("%w: translate-text: %v", ErrService, err)
	}

	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := c.post(ctx, "translate-text", "/translate-text", "application/json", bytes.NewBuffer(payload), &parsed); err != nil {
		return Result{}, err
	}
	return Result{Translation: parsed.Translation}, nil
}

func (c *HTTPClient) SpeakText(ctx context.Context, text, lang string) (Result, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", lang)
	body := bytes.NewBufferString(form.Encode())

	var parsed struct {
		AudioURL string `json:"audio_url"`
	}
	if err := c.post(ctx, "speak-text", "/speak-text", "application/x-www-form-urlencoded", body, &parsed); err != nil {
		return Result{}, err
	}
	return Result{AudioURL: parsed.AudioURL}, nil
}

func (c *HTTPClient) post(ctx context.Context, op, path, contentType string, body *bytes.Buffer, out any) error {
	sentKB := float64(body.Len()) / 1024

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrService, op, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, op, err)
	}

	log.Request(log.RequestStats{
		Op:         op,
		Status:     resp.StatusCode,
		ConnReused: resp.Timing.ConnReused,
		DNSMs:      float64(resp.Timing.DNS.Milliseconds()),
		TLSMs:      float64(resp.Timing.TLS.Milliseconds()),
		TTFBMs:     float64(resp.Timing.TTFB.Milliseconds()),
		TotalMs:    float64(resp.Timing.Total.Milliseconds()),
		SentKB:     sentKB,
		RecvKB:     float64(len(resp.Body)) / 1024,
	})

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d: %s", ErrService, op, resp.StatusCode, snippet(resp.Body))
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s: parsing response: %v", ErrService, op, err)
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
