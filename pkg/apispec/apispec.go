// Package apispec embeds and serves the OpenAPI description of the trscan
// HTTP routes.
package apispec

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var raw []byte

var (
	loadOnce sync.Once
	loaded   *openapi3.T
	loadErr  error
)

// Document parses and validates the embedded description once.
func Document(ctx context.Context) (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		loader.Context = ctx
		doc, err := loader.LoadFromData(raw)
		if err != nil {
			loadErr = fmt.Errorf("apispec: load: %w", err)
			return
		}
		if err := doc.Validate(ctx); err != nil {
			loadErr = fmt.Errorf("apispec: validate: %w", err)
			return
		}
		loaded = doc
	})
	return loaded, loadErr
}

// Routes lists "METHOD path" for every operation, sorted.
func Routes(doc *openapi3.T) []string {
	var out []string
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			out = append(out, method+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

// Handler serves the description as JSON.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, err := Document(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
