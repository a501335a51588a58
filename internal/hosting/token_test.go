package hosting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestBrokerTokenSourceMissingConfig(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		channel  string
		wantKind Kind
	}{
		{
			name:     "noBrokerURL",
			baseURL:  "",
			channel:  "UC123",
			wantKind: KindConfig,
		},
		{
			name:     "noChannel",
			baseURL:  "http://broker.local",
			channel:  "",
			wantKind: KindConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewBrokerTokenSource(tt.baseURL, StaticSession("sess"), nil)
			_, err := src.Token(context.Background(), tt.channel)
			if KindOf(err) != tt.wantKind {
				t.Errorf("Token() error kind = %q, want %q", KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestBrokerTokenSourceNoSession(t *testing.T) {
	src := NewBrokerTokenSource("http://broker.local", StaticSession(""), nil)
	_, err := src.Token(context.Background(), "UC123")
	if KindOf(err) != KindAuth {
		t.Errorf("Token() error kind = %q, want %q", KindOf(err), KindAuth)
	}
}

func TestBrokerTokenSourceExchange(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		gotAuth.Store(r.Header.Get("Authorization"))

		var req struct {
			ChannelID string `json:"channel_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "ya29.token-for-" + req.ChannelID})
	}))
	defer server.Close()

	src := NewBrokerTokenSource(server.URL, StaticSession("session-abc"), server.Client())
	token, err := src.Token(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "ya29.token-for-UC123" {
		t.Errorf("Token() = %q, want %q", token, "ya29.token-for-UC123")
	}
	if gotAuth.Load() != "Bearer session-abc" {
		t.Errorf("Authorization = %q, want %q", gotAuth.Load(), "Bearer session-abc")
	}
}

func TestBrokerTokenSourceBrokerRejects(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
	}{
		{
			name:     "unauthorizedSession",
			status:   401,
			body:     `{"error":{"message":"invalid session"}}`,
			wantKind: KindAuth,
		},
		{
			name:     "unknownChannel",
			status:   404,
			body:     `{"error":{"message":"channel not registered"}}`,
			wantKind: KindValidation,
		},
		{
			name:     "brokerDown",
			status:   503,
			body:     "unavailable",
			wantKind: KindServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			src := NewBrokerTokenSource(server.URL, StaticSession("sess"), server.Client())
			_, err := src.Token(context.Background(), "UC123")
			if KindOf(err) != tt.wantKind {
				t.Errorf("Token() error kind = %q, want %q", KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestBrokerTokenSourceTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	src := NewBrokerTokenSource(server.URL, StaticSession("sess"), nil)
	_, err := src.Token(context.Background(), "UC123")
	if KindOf(err) != KindNetwork {
		t.Errorf("Token() error kind = %q, want %q", KindOf(err), KindNetwork)
	}
	if !IsRetriable(err) {
		t.Error("transport failures must be retriable")
	}
}

func TestBrokerTokenSourceEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":""}`))
	}))
	defer server.Close()

	src := NewBrokerTokenSource(server.URL, StaticSession("sess"), server.Client())
	_, err := src.Token(context.Background(), "UC123")
	if KindOf(err) != KindServer {
		t.Errorf("Token() error kind = %q, want %q", KindOf(err), KindServer)
	}
}
