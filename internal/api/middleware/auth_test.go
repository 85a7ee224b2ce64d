package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	apiKey := "test-api-key"
	handler := APIKeyAuth(apiKey)(okHandler())

	tests := []struct {
		name  string
		setup func(r *http.Request)
		query string
	}{
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", apiKey) }, ""},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+apiKey) }, ""},
		{"query param", func(r *http.Request) {}, "?key=" + apiKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/vrok"+tt.query, nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if w.Body.String() != "success" {
				t.Errorf("body = %q, want %q", w.Body.String(), "success")
			}
		})
	}
}

func TestAPIKeyAuth_Rejected(t *testing.T) {
	handler := APIKeyAuth("test-api-key")(okHandler())

	tests := []struct {
		name    string
		header  string
		value   string
		message string
	}{
		{"missing key", "", "", "missing API key"},
		{"wrong key", "X-API-Key", "nope", "invalid API key"},
		{"wrong bearer", "Authorization", "Bearer nope", "invalid API key"},
		{"non-bearer scheme", "Authorization", "Basic dGVzdA==", "missing API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/vrok", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}

			var body errorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Success {
				t.Error("success should be false")
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	handler := APIKeyAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/vrok", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(okHandler())

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/vrok", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing Access-Control-Allow-Origin")
		}
		if w.Body.Len() != 0 {
			t.Error("preflight should not reach the handler")
		}
	})

	t.Run("post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/vrok", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Header().Get("Access-Control-Expose-Headers") != "X-Extraction-ID" {
			t.Errorf("Access-Control-Expose-Headers = %q", w.Header().Get("Access-Control-Expose-Headers"))
		}
	})
}
