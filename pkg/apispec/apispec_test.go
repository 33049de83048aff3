package apispec_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/apispec"
)

func TestDocumentIsValid(t *testing.T) {
	doc, err := apispec.Document(context.Background())
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	want := []string{
		"GET /trscan",
		"GET /trscan/RunStatic",
		"GET /trscan/openapi.json",
		"GET /trscan/reports/{id}",
		"POST /trscan/RunStatic",
		"POST /trscan/report",
	}
	if diff := cmp.Diff(want, apispec.Routes(doc)); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerServesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	apispec.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trscan/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OpenAPI != "3.0.3" || body.Info.Title != "trscan" {
		t.Fatalf("unexpected document %+v", body)
	}
}
