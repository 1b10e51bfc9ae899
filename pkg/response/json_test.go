package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"name": "mountain trip"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	body := decode(t, rec)
	if !body.Success || body.Error != nil {
		t.Fatalf("expected success envelope, got %+v", body)
	}
}

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMeta(rec, http.StatusOK, []int{1, 2}, &Meta{Page: 1, PerPage: 10, Total: 12, TotalPages: 2})

	body := decode(t, rec)
	if body.Meta == nil || body.Meta.TotalPages != 2 {
		t.Fatalf("pagination metadata missing: %+v", body.Meta)
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Conflict(rec, "user already joined event")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body.Success {
		t.Fatal("error envelope marked successful")
	}
	if body.Error == nil || body.Error.Code != "CONFLICT" || body.Error.Message != "user already joined event" {
		t.Fatalf("unexpected error payload: %+v", body.Error)
	}
}
