package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"teamreel/pkg/httputil"
)

type fakeTokens struct {
	calls int32
	err   error
}

func (f *fakeTokens) Token(ctx context.Context, channel string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	if channel == "" {
		return "", errConfig("channel identity is required")
	}
	return "tok-" + channel, nil
}

// fakePlatform is an in-memory stand-in for the hosting platform's videos
// API, mirroring the endpoints the pipeline talks to.
type fakePlatform struct {
	mu            sync.Mutex
	videos        map[string]videoResource
	nextID        int
	createPrivacy string // when set, the platform silently applies this on create
	failPuts      bool
	failUploads   int32 // fail this many upload attempts with a 500 before accepting
	uploads       int32
	lastVideoSize int64 // video part bytes seen by the most recent accepted upload
	lastAuth      atomic.Value
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{videos: map[string]videoResource{}}
}

func (p *fakePlatform) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", p.handleUpload)
	mux.HandleFunc("/videos", p.handleVideos)
	return httptest.NewServer(mux)
}

func (p *fakePlatform) handleUpload(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&p.uploads, 1)
	p.lastAuth.Store(r.Header.Get("Authorization"))

	if atomic.LoadInt32(&p.failUploads) > 0 {
		atomic.AddInt32(&p.failUploads, -1)
		http.Error(w, `{"error":{"message":"backend error"}}`, http.StatusInternalServerError)
		return
	}

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, `{"error":{"message":"bad content type"}}`, http.StatusBadRequest)
		return
	}

	var meta videoResource
	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, `{"error":{"message":"bad multipart"}}`, http.StatusBadRequest)
			return
		}
		switch part.FormName() {
		case "metadata":
			if err := json.NewDecoder(part).Decode(&meta); err != nil {
				http.Error(w, `{"error":{"message":"bad metadata"}}`, http.StatusBadRequest)
				return
			}
		case "video":
			n, _ := io.Copy(io.Discard, part)
			atomic.StoreInt64(&p.lastVideoSize, n)
		}
	}

	p.mu.Lock()
	p.nextID++
	meta.ID = fmt.Sprintf("vid-%d", p.nextID)
	if p.createPrivacy != "" {
		meta.Status.PrivacyStatus = p.createPrivacy
	}
	p.videos[meta.ID] = meta
	p.mu.Unlock()

	_ = json.NewEncoder(w).Encode(meta)
}

func (p *fakePlatform) handleVideos(w http.ResponseWriter, r *http.Request) {
	p.lastAuth.Store(r.Header.Get("Authorization"))

	switch r.Method {
	case http.MethodGet:
		p.mu.Lock()
		v, ok := p.videos[r.URL.Query().Get("id")]
		p.mu.Unlock()
		list := videoListResponse{}
		if ok {
			list.Items = append(list.Items, v)
		}
		_ = json.NewEncoder(w).Encode(list)

	case http.MethodPut:
		if p.failPuts {
			http.Error(w, `{"error":{"message":"backend error"}}`, http.StatusInternalServerError)
			return
		}
		var incoming videoResource
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, `{"error":{"message":"bad body"}}`, http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		current, ok := p.videos[incoming.ID]
		if !ok {
			http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
			return
		}
		parts := r.URL.Query().Get("part")
		if strings.Contains(parts, "snippet") {
			current.Snippet = incoming.Snippet
		}
		if strings.Contains(parts, "status") {
			current.Status = incoming.Status
		}
		p.videos[incoming.ID] = current
		_ = json.NewEncoder(w).Encode(current)

	case http.MethodDelete:
		p.mu.Lock()
		defer p.mu.Unlock()
		id := r.URL.Query().Get("id")
		if _, ok := p.videos[id]; !ok {
			http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
			return
		}
		delete(p.videos, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, platform *fakePlatform, tokens TokenSource) (*Client, *httptest.Server) {
	t.Helper()
	server := platform.server(t)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		Tokens:     tokens,
		HTTPClient: server.Client(),
		UploadURL:  server.URL + "/upload",
		VideosURL:  server.URL + "/videos",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return client, server
}

func uploadRequest(meta Metadata) UploadRequest {
	return UploadRequest{
		Channel:  "UC1",
		Source:   NewMemorySource("clip.mp4", "video/mp4", []byte("payload")),
		Metadata: meta,
	}
}

func TestUploadRoundTrip(t *testing.T) {
	platform := newFakePlatform()
	tokens := &fakeTokens{}
	client, _ := newTestClient(t, platform, tokens)

	meta := validMetadata()
	res, err := client.Upload(context.Background(), uploadRequest(meta))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if res.ID == "" {
		t.Fatal("Upload() returned empty id")
	}
	if want := fmt.Sprintf("%s?v=%s", defaultWatchURL, res.ID); res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
	if auth, _ := platform.lastAuth.Load().(string); auth != "Bearer tok-UC1" {
		t.Errorf("platform saw Authorization %q, want %q", auth, "Bearer tok-UC1")
	}

	got, err := client.Read(context.Background(), "UC1", res.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Metadata.Title != meta.Title {
		t.Errorf("read-back title = %q, want %q", got.Metadata.Title, meta.Title)
	}
}

func TestUploadReconcilesPrivacy(t *testing.T) {
	platform := newFakePlatform()
	platform.createPrivacy = PrivacyPrivate // platform overrides on create
	client, _ := newTestClient(t, platform, &fakeTokens{})

	meta := validMetadata()
	meta.Privacy = PrivacyUnlisted

	res, err := client.Upload(context.Background(), uploadRequest(meta))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.Metadata.Privacy != PrivacyUnlisted {
		t.Errorf("resource privacy = %q, want %q", res.Metadata.Privacy, PrivacyUnlisted)
	}

	got, err := client.Read(context.Background(), "UC1", res.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Metadata.Privacy != PrivacyUnlisted {
		t.Errorf("platform privacy after reconcile = %q, want %q", got.Metadata.Privacy, PrivacyUnlisted)
	}
}

func TestUploadSurvivesFailedReconcile(t *testing.T) {
	platform := newFakePlatform()
	platform.createPrivacy = PrivacyPrivate
	platform.failPuts = true
	client, _ := newTestClient(t, platform, &fakeTokens{})

	meta := validMetadata()
	meta.Privacy = PrivacyUnlisted

	res, err := client.Upload(context.Background(), uploadRequest(meta))
	if err != nil {
		t.Fatalf("Upload() must not fail when reconciliation fails, got %v", err)
	}
	// The platform's original status stands.
	if res.Metadata.Privacy != PrivacyPrivate {
		t.Errorf("resource privacy = %q, want platform's %q", res.Metadata.Privacy, PrivacyPrivate)
	}
}

func TestReconcileResult(t *testing.T) {
	platform := newFakePlatform()
	platform.createPrivacy = PrivacyPrivate
	client, _ := newTestClient(t, platform, &fakeTokens{})

	meta := validMetadata()
	meta.Privacy = PrivacyPublic
	res, err := client.Upload(context.Background(), uploadRequest(meta))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// Already matching: nothing to correct.
	result := client.Reconcile(context.Background(), "tok-UC1", res.ID, meta)
	if !result.Checked || result.Corrected || result.Err != nil {
		t.Errorf("Reconcile() on a matching video = %+v, want checked only", result)
	}

	// Missing video: observable error, no panic.
	result = client.Reconcile(context.Background(), "tok-UC1", "vid-missing", meta)
	if result.Checked || result.Err == nil {
		t.Errorf("Reconcile() on a missing video = %+v, want error", result)
	}
}

func TestUploadProgressMilestones(t *testing.T) {
	platform := newFakePlatform()
	client, _ := newTestClient(t, platform, &fakeTokens{})

	progress := make(chan UploadProgress, 16)
	req := uploadRequest(validMetadata())
	req.Progress = progress

	if _, err := client.Upload(context.Background(), req); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	close(progress)

	var stages []Stage
	last := -1
	for p := range progress {
		if p.Percent < last {
			t.Errorf("progress went backwards: %d after %d", p.Percent, last)
		}
		if p.Percent < 0 || p.Percent > 100 {
			t.Errorf("progress out of range: %d", p.Percent)
		}
		last = p.Percent
		stages = append(stages, p.Stage)
	}

	want := []Stage{StageTokenAcquired, StageEncoded, StageTransferStarted, StageTransferDone, StageCompleted}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestUploadDoesNotBlockOnFullProgressChannel(t *testing.T) {
	platform := newFakePlatform()
	client, _ := newTestClient(t, platform, &fakeTokens{})

	progress := make(chan UploadProgress) // unbuffered, never drained
	req := uploadRequest(validMetadata())
	req.Progress = progress

	if _, err := client.Upload(context.Background(), req); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestNoTokenReuseAcrossOperations(t *testing.T) {
	platform := newFakePlatform()
	tokens := &fakeTokens{}
	client, _ := newTestClient(t, platform, tokens)

	res, err := client.Upload(context.Background(), uploadRequest(validMetadata()))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := client.Update(context.Background(), "UC1", res.ID, Metadata{Title: "Renamed"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := atomic.LoadInt32(&tokens.calls); got != 2 {
		t.Errorf("token fetches = %d, want one per operation (2)", got)
	}
}

func TestUploadDoesNotRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, `{"error":{"message":"backend error"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{
		Tokens:     &fakeTokens{},
		HTTPClient: server.Client(),
		UploadURL:  server.URL + "/upload",
		VideosURL:  server.URL + "/videos",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := client.Upload(context.Background(), uploadRequest(validMetadata()))
	if KindOf(err) != KindServer {
		t.Fatalf("Upload() error kind = %q, want %q", KindOf(err), KindServer)
	}
	if !IsRetriable(err) {
		t.Error("5xx failures must be marked retriable for the caller")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("upload attempts = %d, want exactly 1 (retry policy belongs to the caller)", got)
	}
}

// newRetryingTestClient mounts the caller-side retry transport under the
// pipeline, the way the CLI wires --retry.
func newRetryingTestClient(t *testing.T, platform *fakePlatform, tokens TokenSource) *Client {
	t.Helper()
	server := platform.server(t)
	t.Cleanup(server.Close)

	retrying := &http.Client{
		Transport: &httputil.Transport{
			Retry: httputil.NewRetryClient(server.Client(), httputil.RetryConfig{
				MaxRetries:   2,
				InitialDelay: time.Millisecond,
				MaxDelay:     10 * time.Millisecond,
				Multiplier:   2.0,
			}),
		},
	}

	return NewClient(Config{
		Tokens:     tokens,
		HTTPClient: retrying,
		UploadURL:  server.URL + "/upload",
		VideosURL:  server.URL + "/videos",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRetryingTransportReplaysBufferedUpload(t *testing.T) {
	platform := newFakePlatform()
	platform.failUploads = 1
	client := newRetryingTestClient(t, platform, &fakeTokens{})

	meta := validMetadata()
	req := uploadRequest(meta)
	payload := []byte("binary-video-bytes")
	req.Source = NewMemorySource("clip.mp4", "video/mp4", payload)

	res, err := client.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := atomic.LoadInt32(&platform.uploads); got != 2 {
		t.Fatalf("upload attempts = %d, want 2 (one failure, one retry)", got)
	}
	if got := atomic.LoadInt64(&platform.lastVideoSize); got != int64(len(payload)) {
		t.Errorf("retried upload carried %d video bytes, want the full %d", got, len(payload))
	}

	got, err := client.Read(context.Background(), "UC1", res.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Metadata.Title != meta.Title {
		t.Errorf("retried upload stored title %q, want %q", got.Metadata.Title, meta.Title)
	}
}

func TestRetryingTransportDoesNotResendStreamedUpload(t *testing.T) {
	platform := newFakePlatform()
	platform.failUploads = 1
	client := newRetryingTestClient(t, platform, &fakeTokens{})

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("binary-video-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	req := uploadRequest(validMetadata())
	req.Source = NewFileSource(path)

	_, err := client.Upload(context.Background(), req)
	if KindOf(err) != KindServer {
		t.Fatalf("Upload() error kind = %q, want %q", KindOf(err), KindServer)
	}
	if !IsRetriable(err) {
		t.Error("the single-attempt failure must stay retriable for the caller")
	}
	if got := atomic.LoadInt32(&platform.uploads); got != 1 {
		t.Errorf("upload attempts = %d, want 1 (a streamed body cannot be replayed)", got)
	}
}

func TestUploadTokenFailureStopsPipeline(t *testing.T) {
	platform := newFakePlatform()
	tokens := &fakeTokens{err: errAuth("no session")}
	client, _ := newTestClient(t, platform, tokens)

	_, err := client.Upload(context.Background(), uploadRequest(validMetadata()))
	if KindOf(err) != KindAuth {
		t.Fatalf("Upload() error kind = %q, want %q", KindOf(err), KindAuth)
	}
	if got := atomic.LoadInt32(&platform.uploads); got != 0 {
		t.Errorf("platform saw %d uploads, want 0", got)
	}
}

func TestUpdatePreservesServerFields(t *testing.T) {
	platform := newFakePlatform()
	client, _ := newTestClient(t, platform, &fakeTokens{})

	meta := validMetadata()
	res, err := client.Upload(context.Background(), uploadRequest(meta))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := client.Update(context.Background(), "UC1", res.ID, Metadata{Title: "X"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := client.Read(context.Background(), "UC1", res.ID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Metadata.Title != "X" {
		t.Errorf("title = %q, want %q", got.Metadata.Title, "X")
	}
	if len(got.Metadata.Tags) != len(meta.Tags) {
		t.Errorf("tags = %v, want preserved %v", got.Metadata.Tags, meta.Tags)
	}
	if got.Metadata.CategoryID != meta.CategoryID {
		t.Errorf("categoryId = %q, want preserved %q", got.Metadata.CategoryID, meta.CategoryID)
	}
	if got.Metadata.Privacy != meta.Privacy {
		t.Errorf("privacy = %q, want preserved %q", got.Metadata.Privacy, meta.Privacy)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	platform := newFakePlatform()
	client, _ := newTestClient(t, platform, &fakeTokens{})

	res, err := client.Upload(context.Background(), uploadRequest(validMetadata()))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := client.Delete(context.Background(), "UC1", res.ID); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := client.Delete(context.Background(), "UC1", res.ID); err != nil {
		t.Errorf("second Delete() error = %v, want nil (404 is success)", err)
	}
}

func TestUpdateMissingVideo(t *testing.T) {
	platform := newFakePlatform()
	client, _ := newTestClient(t, platform, &fakeTokens{})

	err := client.Update(context.Background(), "UC1", "vid-none", Metadata{Title: "X"})
	if KindOf(err) != KindValidation {
		t.Errorf("Update() error kind = %q, want %q", KindOf(err), KindValidation)
	}
}
