package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecclesia/internal/llm"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Options{
		APIKey:  "test-api-key",
		Backend: BackendAPI,
		BaseURL: serverURL,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		responseBody string
		wantErr      bool
		want         string
	}{
		{
			name:         "singlePart",
			statusCode:   http.StatusOK,
			responseBody: `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"cuts\":[]}"}]},"finishReason":"STOP"}]}`,
			want:         `{"cuts":[]}`,
		},
		{
			name:         "multipleParts",
			statusCode:   http.StatusOK,
			responseBody: `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"cuts\":"},{"text":"[]}"}]},"finishReason":"STOP"}]}`,
			want:         `{"cuts":[]}`,
		},
		{
			name:         "noCandidates",
			statusCode:   http.StatusOK,
			responseBody: `{"candidates":[]}`,
			want:         "",
		},
		{
			name:         "serverError",
			statusCode:   http.StatusBadRequest,
			responseBody: `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			got, err := client.Generate(context.Background(), llm.Request{
				Model:           "gemini-2.5-flash",
				System:          "system",
				Prompt:          "prompt",
				Temperature:     0.1,
				MaxOutputTokens: 4096,
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateRequestShape(t *testing.T) {
	tests := []struct {
		name       string
		structured bool
		wantJSON   bool
	}{
		{name: "instructionOnly", structured: false, wantJSON: false},
		{name: "structuredOutput", structured: true, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body, path string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				body = string(data)
				path = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{}"}]}}]}`))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Generate(context.Background(), llm.Request{
				Model:      "gemini-2.5-pro",
				System:     "scenario expert",
				Prompt:     "Cut 1: 30s, 'garden'",
				Structured: tt.structured,
			})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			if !strings.Contains(path, "gemini-2.5-pro") {
				t.Errorf("request path = %q, want model gemini-2.5-pro", path)
			}
			if !strings.Contains(body, "scenario expert") {
				t.Error("request body is missing the system instruction")
			}
			if !strings.Contains(body, "Cut 1: 30s") {
				t.Error("request body is missing the prompt")
			}
			if got := strings.Contains(body, "application/json"); got != tt.wantJSON {
				t.Errorf("JSON mime type requested = %v, want %v", got, tt.wantJSON)
			}
			if got := strings.Contains(body, "scene_details"); got != tt.wantJSON {
				t.Errorf("response schema sent = %v, want %v", got, tt.wantJSON)
			}
		})
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "missingAPIKey", opts: Options{Backend: BackendAPI}},
		{name: "unknownBackend", opts: Options{Backend: "azure", APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(context.Background(), tt.opts); err == nil {
				t.Error("NewClient() expected error")
			}
		})
	}
}
