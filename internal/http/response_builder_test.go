package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom = %q", w.Header().Get("X-Custom"))
	}
	var got map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if got["n"] != 1 {
		t.Errorf("body = %v", got)
	}
}

func TestJSONResponseBuilder_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Degraded(false).Body("x").Write(w)
	if w.Header().Get(DegradedHeader) != "" {
		t.Error("degraded header set on healthy response")
	}

	w = httptest.NewRecorder()
	NewJSONResponse().Degraded(true).Body("x").Write(w)
	if w.Header().Get(DegradedHeader) != "true" {
		t.Error("degraded header missing")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
	}{
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"bad gateway", BadGatewayError("bad"), http.StatusBadGateway},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
		{"not found", NotFoundError("bad"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != "bad" {
				t.Errorf("body = %q (%v)", w.Body.String(), err)
			}
		})
	}

	w := httptest.NewRecorder()
	MethodNotAllowedError("GET").Write(w)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET" {
		t.Errorf("405 response = %d allow=%q", w.Code, w.Header().Get("Allow"))
	}
}
