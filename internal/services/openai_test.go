package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

const visionSuccessBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {
			"role": "assistant",
			"content": "{\"description\":\"A bright kitchen with granite counters.\",\"feature_tags\":[\"granite\",\"island\"]}"
		}
	}]
}`

// visionStub fails the first failures requests with a 500 and succeeds after
// that. SDK-level retries are disabled so every request maps to one attempt.
type visionStub struct {
	requests atomic.Int64
	failures int64
	onFail   func()
}

func (v *visionStub) handler(w http.ResponseWriter, _ *http.Request) {
	n := v.requests.Add(1)
	if n <= v.failures {
		if v.onFail != nil {
			v.onFail()
		}
		http.Error(w, `{"error":{"message":"upstream boom"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(visionSuccessBody))
}

func stubbedService(t *testing.T, stub *visionStub) *OpenAIService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	return &OpenAIService{
		client: openai.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		),
		apiKey:      "test-key",
		visionModel: "gpt-4o-mini",
		backoffUnit: time.Millisecond,
	}
}

func TestDescribeImageRetriesThenSucceeds(t *testing.T) {
	stub := &visionStub{failures: 2}
	svc := stubbedService(t, stub)

	asset := domain.UploadedAsset{FileName: "kitchen.jpg", Category: "kitchen"}
	analysis, err := svc.DescribeImage(context.Background(), []byte("jpegdata"), "image/jpeg", asset, domain.NicheRealEstate)
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}

	if got := stub.requests.Load(); got != 3 {
		t.Fatalf("expected 3 attempts (2 failures then success), got %d", got)
	}
	if analysis.Category != "kitchen" {
		t.Fatalf("expected category carried over, got %q", analysis.Category)
	}
	if analysis.Description != "A bright kitchen with granite counters." {
		t.Fatalf("unexpected description: %q", analysis.Description)
	}
}

func TestDescribeImageGivesUpAfterRetries(t *testing.T) {
	// More planned failures than attempts, so every attempt fails.
	stub := &visionStub{failures: 100}
	svc := stubbedService(t, stub)

	asset := domain.UploadedAsset{FileName: "kitchen.jpg", Category: "kitchen"}
	_, err := svc.DescribeImage(context.Background(), []byte("jpegdata"), "image/jpeg", asset, domain.NicheRealEstate)
	if err == nil {
		t.Fatal("expected failure once retries are exhausted")
	}

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected AnalysisError, got %T: %v", err, err)
	}
	if analysisErr.FileName != "kitchen.jpg" {
		t.Fatalf("expected failing file recorded, got %q", analysisErr.FileName)
	}

	if got := stub.requests.Load(); got != 4 {
		t.Fatalf("expected 4 attempts (initial plus 3 retries), got %d", got)
	}

	// Exhausting one image's retries must not bleed into the next call.
	stub.failures = 0
	stub.requests.Store(0)
	if _, err := svc.DescribeImage(context.Background(), []byte("jpegdata"), "image/jpeg", asset, domain.NicheRealEstate); err != nil {
		t.Fatalf("expected a fresh call to succeed: %v", err)
	}
	if got := stub.requests.Load(); got != 1 {
		t.Fatalf("expected a single attempt on the fresh call, got %d", got)
	}
}

func TestDescribeImageCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stub := &visionStub{failures: 100, onFail: cancel}
	svc := stubbedService(t, stub)

	asset := domain.UploadedAsset{FileName: "kitchen.jpg", Category: "kitchen"}
	_, err := svc.DescribeImage(ctx, []byte("jpegdata"), "image/jpeg", asset, domain.NicheRealEstate)
	if err == nil {
		t.Fatal("expected cancelled analysis to fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation surfaced, got %v", err)
	}

	if got := stub.requests.Load(); got != 1 {
		t.Fatalf("expected no retry after cancellation, got %d attempts", got)
	}
}
