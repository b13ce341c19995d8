package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"server/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Options{
		ImageURL:       srv.URL + "/image",
		VideoURL:       srv.URL + "/video",
		VideoStatusURL: srv.URL + "/status",
		HTTPClient:     srv.Client(),
		SubmitTimeout:  5 * time.Second,
	})
	return c, srv
}

func TestSubmitImageImmediateResult(t *testing.T) {
	var gotBody map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"image_url":"https://x/1.png"}`))
	})

	out, err := c.SubmitImage(context.Background(), ImageRequest{Model: "Nano Banana", Prompt: "sunset"})
	if err != nil {
		t.Fatalf("SubmitImage: %v", err)
	}
	if !out.Immediate() || out.URL != "https://x/1.png" {
		t.Fatalf("Outcome = %+v, want immediate https://x/1.png", out)
	}
	if gotBody["model"] != "Nano Banana" || gotBody["prompt"] != "sunset" {
		t.Fatalf("request body = %v", gotBody)
	}
}

func TestSubmitImageEmbedsReferenceImagesPositionally(t *testing.T) {
	var gotBody map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"url":"https://x/2.png"}`))
	})

	_, err := c.SubmitImage(context.Background(), ImageRequest{
		Prompt:          "edit this",
		ReferenceImages: [][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")},
	})
	if err != nil {
		t.Fatalf("SubmitImage: %v", err)
	}
	if _, ok := gotBody["reference_image_1"]; !ok {
		t.Fatal("reference_image_1 missing")
	}
	if _, ok := gotBody["reference_image_2"]; !ok {
		t.Fatal("reference_image_2 missing")
	}
	if _, ok := gotBody["reference_image_3"]; ok {
		t.Fatal("more than two reference images embedded")
	}
}

func TestSubmitImageSkipsEmptyReferenceImages(t *testing.T) {
	var gotBody map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"url":"https://x/3.png"}`))
	})

	_, err := c.SubmitImage(context.Background(), ImageRequest{
		Prompt:          "edit this",
		ReferenceImages: [][]byte{nil, []byte("bbb")},
	})
	if err != nil {
		t.Fatalf("SubmitImage: %v", err)
	}
	// An empty slot does not consume a positional key.
	if _, ok := gotBody["reference_image_1"]; !ok {
		t.Fatal("non-empty reference image dropped after an empty slot")
	}
	if _, ok := gotBody["reference_image_2"]; ok {
		t.Fatal("empty reference image embedded")
	}
}

func TestSubmitVideoAsyncHandle(t *testing.T) {
	var gotBody map[string]any
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task_id":"job_abc"}`))
	})

	out, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "a fox", Model: "Sora 2", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if out.Immediate() || out.JobID != "job_abc" {
		t.Fatalf("Outcome = %+v, want async job_abc", out)
	}
	if gotBody["aspect_ratio"] != "16:9" {
		t.Fatalf("aspect_ratio = %v, want 16:9", gotBody["aspect_ratio"])
	}
	if gotBody["duration"] != float64(10) {
		t.Fatalf("duration = %v, want 10", gotBody["duration"])
	}
}

func TestSubmitEmptyPromptRejectedBeforeNetwork(t *testing.T) {
	called := false
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "   "})
	if !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Fatalf("error = %v, want ErrEmptyPrompt", err)
	}
	if called {
		t.Fatal("no network call should happen for an empty prompt")
	}
}

func TestSubmitUnexpectedResponseShape(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"progress": 42}`))
	})

	_, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "a fox"})
	var ge *domain.GenerationError
	if !errors.As(err, &ge) || ge.Category != domain.CategoryUnexpected {
		t.Fatalf("error = %v, want unexpected-shape category", err)
	}
}

func TestSubmitProviderRejectedClassified(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"prompt flagged as nsfw"}`))
	})

	_, err := c.SubmitImage(context.Background(), ImageRequest{Prompt: "x"})
	var ge *domain.GenerationError
	if !errors.As(err, &ge) || ge.Category != domain.CategoryContentPolicy {
		t.Fatalf("error = %v, want content-policy category", err)
	}
}

func TestSubmitNullStringAliasIgnored(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"null","id":"job_9"}`))
	})

	out, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if out.JobID != "job_9" {
		t.Fatalf("JobID = %q, want job_9 (literal \"null\" url skipped)", out.JobID)
	}
}

func TestSubmitNestedDataTaskID(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"queued","data":{"task_id":"job_7"}}`))
	})

	out, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if out.JobID != "job_7" {
		t.Fatalf("JobID = %q, want job_7", out.JobID)
	}
}

func TestSubmitHTTPErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorCategory
	}{
		{400, domain.CategoryInvalid},
		{429, domain.CategoryQuota},
		{500, domain.CategoryOther},
	}
	for _, tc := range tests {
		c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{}`))
		})
		_, err := c.SubmitVideo(context.Background(), VideoRequest{Prompt: "x"})
		var ge *domain.GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("status %d: error = %v, want GenerationError", tc.status, err)
		}
		if ge.Status != tc.status || ge.Category != tc.want {
			t.Fatalf("status %d: got category %s status %d", tc.status, ge.Category, ge.Status)
		}
	}
}

func TestPollStatusExtractsSignals(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PollResult
	}{
		{
			name: "result url",
			body: `{"status":"completed","video_url":"https://x/v.mp4"}`,
			want: PollResult{URL: "https://x/v.mp4", State: "completed"},
		},
		{
			name: "french state field with error",
			body: `{"etat":"failed","errorMessage":"nsfw content"}`,
			want: PollResult{State: "failed", ErrorMsg: "nsfw content"},
		},
		{
			name: "nested error object",
			body: `{"status":"error","error":{"message":"boom"}}`,
			want: PollResult{State: "error", ErrorMsg: "boom"},
		},
		{
			name: "completed without url",
			body: `{"status":"completed"}`,
			want: PollResult{State: "completed"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req["task_id"] != "job_abc" {
					t.Errorf("poll body task_id = %q, want job_abc", req["task_id"])
				}
				_, _ = w.Write([]byte(tc.body))
			})
			got, err := c.PollStatus(context.Background(), "job_abc")
			if err != nil {
				t.Fatalf("PollStatus: %v", err)
			}
			if got != tc.want {
				t.Fatalf("PollStatus = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPollStatusMalformedBodyIsError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := c.PollStatus(context.Background(), "job_abc"); err == nil {
		t.Fatal("malformed poll body should surface an error for the caller to swallow")
	}
}
