package hosting

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantKind      Kind
		wantRetriable bool
	}{
		{
			name:     "forbidden",
			status:   403,
			body:     `{"error":{"message":"forbidden"}}`,
			wantKind: KindAuth,
		},
		{
			name:     "unauthorized",
			status:   401,
			body:     `{"error":{"message":"Invalid Credentials"}}`,
			wantKind: KindAuth,
		},
		{
			name:     "quotaMarker",
			status:   400,
			body:     `{"error":{"errors":[{"reason":"uploadLimitExceeded"}],"message":"The user has exceeded the number of videos they may upload."}}`,
			wantKind: KindQuota,
		},
		{
			name:     "badRequest",
			status:   400,
			body:     `{"error":{"message":"Invalid title"}}`,
			wantKind: KindValidation,
		},
		{
			name:          "serverError",
			status:        500,
			body:          `{"error":{"message":"Backend Error"}}`,
			wantKind:      KindServer,
			wantRetriable: true,
		},
		{
			name:          "unclassifiedBody",
			status:        502,
			body:          "<html>bad gateway</html>",
			wantKind:      KindServer,
			wantRetriable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, []byte(tt.body))
			if got.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Retriable != tt.wantRetriable {
				t.Errorf("Classify() retriable = %v, want %v", got.Retriable, tt.wantRetriable)
			}
			if got.Message == "" {
				t.Error("Classify() returned empty message")
			}
		})
	}
}

func TestClassifyQuotaRewritesMessage(t *testing.T) {
	raw := `{"error":{"errors":[{"reason":"uploadLimitExceeded"}],"message":"raw api text"}}`
	got := Classify(400, []byte(raw))

	if got.Kind != KindQuota {
		t.Fatalf("kind = %q, want %q", got.Kind, KindQuota)
	}
	if got.Retriable {
		t.Error("quota errors must not be retriable")
	}
	if strings.Contains(got.Message, "raw api text") {
		t.Errorf("quota message should be rewritten, got %q", got.Message)
	}
	if got.Raw != raw {
		t.Error("raw payload was not preserved")
	}
}

func TestClassifyPreservesUnclassifiedRaw(t *testing.T) {
	got := Classify(500, []byte("something opaque"))
	if got.Raw != "something opaque" {
		t.Errorf("Raw = %q, want original body", got.Raw)
	}
}

func TestClassifyTransport(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	got := ClassifyTransport(cause)

	if got.Kind != KindNetwork {
		t.Errorf("kind = %q, want %q", got.Kind, KindNetwork)
	}
	if !got.Retriable {
		t.Error("network errors must be retriable")
	}
	if !errors.Is(got, cause) {
		t.Error("transport cause was not wrapped")
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := errAuth("no session")
	wrapped := fmt.Errorf("failed to fetch access token: %w", inner)

	if got := KindOf(wrapped); got != KindAuth {
		t.Errorf("KindOf() = %q, want %q", got, KindAuth)
	}
	if IsRetriable(wrapped) {
		t.Error("auth errors must not be retriable")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf() on a plain error should be empty")
	}
}
