package recognize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/binsight/go-binsight/pkg/waste"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) (*Remote, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	remote, err := NewRemote(RemoteConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	return remote, server
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestRemoteRecognize(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Errorf("model = %v", payload["model"])
		}

		w.Write([]byte(completionBody(
			`{"label": "battery", "category": "hazardous", "confidence": 0.92}`)))
	})

	res, err := remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Label != "battery" || res.Category != waste.Hazardous {
		t.Errorf("got %+v", res)
	}
	if res.Confidence != 0.92 {
		t.Errorf("confidence = %f", res.Confidence)
	}
}

func TestRemoteRecognizeToleratesProse(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(
			"Sure! Here is the classification:\n```json\n" +
				`{"label": "paper", "category": "recyclable", "confidence": 0.7}` +
				"\n```")))
	})

	res, err := remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Category != waste.Recyclable {
		t.Errorf("category = %s", res.Category)
	}
}

func TestRemoteRecognizeUnknownCategoryFallsBack(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(
			`{"label": "mystery", "category": "antimatter", "confidence": 0.5}`)))
	})

	res, err := remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Category != waste.Unknown {
		t.Errorf("category = %s, want unknown fallback", res.Category)
	}
}

func TestRemoteRecognizeServerError(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	})

	_, err := remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if err == nil {
		t.Fatal("expected error")
	}
	if Classify(err) != KindUnavailable {
		t.Errorf("classified as %s, want unavailable", Classify(err))
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("error lost API message: %v", err)
	}
}

func TestRemoteRecognizeMalformedReply(t *testing.T) {
	remote, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("I cannot classify this image, sorry.")))
	})

	_, err := remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if err == nil {
		t.Fatal("expected error for reply without JSON")
	}
	if Classify(err) != KindModelError {
		t.Errorf("classified as %s, want model_error", Classify(err))
	}
}

func TestRemoteRecognizeConnectionRefused(t *testing.T) {
	remote, err := NewRemote(RemoteConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	_, err = remote.Recognize(context.Background(), []byte("fake-jpeg"))
	if Classify(err) != KindUnavailable {
		t.Errorf("classified as %s, want unavailable", Classify(err))
	}
}

func TestNewRemoteValidation(t *testing.T) {
	if _, err := NewRemote(RemoteConfig{APIKey: "k"}); err == nil {
		t.Error("missing base URL accepted")
	}
	if _, err := NewRemote(RemoteConfig{BaseURL: "http://x"}); err != ErrNoAPIKey {
		t.Errorf("missing API key: got %v", err)
	}
}

func TestParseClassificationConfidenceClamped(t *testing.T) {
	res, err := parseClassification(`{"label": "x", "category": "food", "confidence": 1.7}`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %f, want clamped to 1", res.Confidence)
	}
}
