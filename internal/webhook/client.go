package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Options configures a webhook Client.
type Options struct {
	ImageURL       string
	VideoURL       string
	VideoStatusURL string
	HTTPClient     *http.Client
	SubmitTimeout  time.Duration
	Logger         zerolog.Logger
}

// Client talks to the n8n-backed generation webhooks. It owns nothing
// beyond the network calls: callers handle the gate and the ledger.
type Client struct {
	httpClient    *http.Client
	imageURL      string
	videoURL      string
	statusURL     string
	submitTimeout time.Duration
	logger        zerolog.Logger
}

// mediaTimeoutFactor stretches the submit timeout when reference media
// is attached; upstream payload processing takes roughly that much longer.
const mediaTimeoutFactor = 3

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:    client,
		imageURL:      strings.TrimRight(opts.ImageURL, "/"),
		videoURL:      strings.TrimRight(opts.VideoURL, "/"),
		statusURL:     strings.TrimRight(opts.VideoStatusURL, "/"),
		submitTimeout: timeout,
		logger:        opts.Logger,
	}
}

// ImageRequest is one image generation submission. Up to two reference
// images are embedded as base64 fields with positional keys.
type ImageRequest struct {
	Model           string
	Prompt          string
	ReferenceImages [][]byte
}

// VideoRequest is one video generation submission. At most one starting
// image may be attached.
type VideoRequest struct {
	Model         string
	Prompt        string
	AspectRatio   string
	StartingImage []byte
}

// Outcome is the interpreted submit response: either an immediate
// result URL or an async job id, never both.
type Outcome struct {
	URL   string
	JobID string
}

// Immediate reports whether the provider answered with a result URL.
func (o Outcome) Immediate() bool { return o.URL != "" }

func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (Outcome, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Outcome{}, domain.ErrEmptyPrompt
	}
	body := map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
	}
	attached := 0
	for _, img := range req.ReferenceImages {
		if len(img) == 0 {
			continue
		}
		attached++
		if attached > 2 {
			break
		}
		body[fmt.Sprintf("reference_image_%d", attached)] = base64.StdEncoding.EncodeToString(img)
	}
	return c.submit(ctx, domain.KindImage, c.imageURL, body, attached > 0)
}

func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (Outcome, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Outcome{}, domain.ErrEmptyPrompt
	}
	body := map[string]any{
		"model":        req.Model,
		"prompt":       req.Prompt,
		"aspect_ratio": req.AspectRatio,
		"duration":     10,
	}
	if len(req.StartingImage) > 0 {
		body["starting_image"] = base64.StdEncoding.EncodeToString(req.StartingImage)
	}
	return c.submit(ctx, domain.KindVideo, c.videoURL, body, len(req.StartingImage) > 0)
}

func (c *Client) submit(ctx context.Context, kind domain.Kind, endpoint string, body map[string]any, hasMedia bool) (Outcome, error) {
	if endpoint == "" {
		return Outcome{}, domain.NewGenerationError(domain.CategoryUnexpected, "", fmt.Errorf("webhook: %s endpoint not configured", kind))
	}

	timeout := c.submitTimeout
	if hasMedia {
		timeout *= mediaTimeoutFactor
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("kind", string(kind)).Bool("media", hasMedia).Msg("webhook: submit")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Outcome{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Outcome{}, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, httpStatusError(resp.StatusCode, raw)
	}
	return interpretSubmitResponse(kind, raw)
}

// PollResult is the raw signal extracted from one status response.
// Interpretation into a terminal decision happens in the poller.
type PollResult struct {
	URL      string
	ErrorMsg string
	State    string
}

// PollStatus queries the status webhook for jobID. Transport and parse
// failures surface as errors; the caller treats them as transient.
func (c *Client) PollStatus(ctx context.Context, jobID string) (PollResult, error) {
	if c.statusURL == "" {
		return PollResult{}, fmt.Errorf("webhook: status endpoint not configured")
	}
	payload, err := json.Marshal(map[string]string{"task_id": jobID})
	if err != nil {
		return PollResult{}, fmt.Errorf("webhook: encode poll request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.statusURL, bytes.NewReader(payload))
	if err != nil {
		return PollResult{}, fmt.Errorf("webhook: build poll request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return PollResult{}, fmt.Errorf("webhook: poll: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("webhook: poll read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PollResult{}, fmt.Errorf("webhook: poll http %d", resp.StatusCode)
	}
	result, err := interpretPollResponse(raw)
	if err != nil {
		return PollResult{}, err
	}
	c.logger.Debug().Str("job_id", jobID).Str("state", result.State).Msg("webhook: poll")
	return result, nil
}
