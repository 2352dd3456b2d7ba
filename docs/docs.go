// Package docs serves the PayAid OpenAPI document to the Swagger UI.
package docs

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag/v2"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// Load parses and validates the embedded OpenAPI document
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(openAPIYAML)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// spec renders the document as JSON once, on first read
type spec struct {
	once sync.Once
	json string
}

// ReadDoc implements swag.Swagger
func (s *spec) ReadDoc() string {
	s.once.Do(func() {
		doc, err := Load(context.Background())
		if err != nil {
			s.json = fmt.Sprintf(`{"error":%q}`, err.Error())
			return
		}
		b, err := json.Marshal(doc)
		if err != nil {
			s.json = fmt.Sprintf(`{"error":%q}`, err.Error())
			return
		}
		s.json = string(b)
	})
	return s.json
}

func init() {
	swag.Register(swag.Name, &spec{})
}
