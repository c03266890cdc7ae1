// Package apispec embeds the OpenAPI contract of the backend and validates
// responses against it.
package apispec

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// routeNotFoundSchema describes the body served for any unmatched route.
const routeNotFoundSchema = "RouteNotFound"

var (
	ErrUnknownOperation = errors.New("operation not declared in contract")
	ErrUndeclaredStatus = errors.New("status not declared for operation")
)

// Contract is a parsed and validated OpenAPI document.
type Contract struct {
	doc *openapi3.T
}

// Operation identifies one method and path declared in the contract.
type Operation struct {
	Method string
	Path   string
	ID     string
}

// Load parses the embedded document and validates it.
func Load() (*Contract, error) {
	return LoadFromData(document)
}

// LoadFromData parses and validates an OpenAPI document.
func LoadFromData(data []byte) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI contract validation failed: %w", err)
	}
	return &Contract{doc: doc}, nil
}

// Document returns the raw embedded contract.
func Document() []byte {
	return document
}

// Operations lists every declared operation ordered by path then method.
func (c *Contract) Operations() []Operation {
	paths := c.doc.Paths.Map()
	ops := make([]Operation, 0, len(paths))

	for path, item := range paths {
		for method, op := range item.Operations() {
			ops = append(ops, Operation{Method: method, Path: path, ID: op.OperationID})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}

// ValidateResponse checks a JSON body returned for method and path with the
// given status. Paths absent from the contract are only valid as a 404 with
// the route-not-found body.
func (c *Contract) ValidateResponse(method, path string, status int, body []byte) error {
	schema, err := c.responseSchema(method, path, status)
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("response body is not valid JSON: %w", err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("%s %s -> %d: %w", method, path, status, err)
	}
	return nil
}

func (c *Contract) responseSchema(method, path string, status int) (*openapi3.Schema, error) {
	if method == http.MethodHead {
		method = http.MethodGet
	}

	var op *openapi3.Operation
	if item := c.doc.Paths.Find(path); item != nil {
		op = item.GetOperation(method)
	}

	if op == nil {
		if status != http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownOperation, method, path)
		}
		var ref *openapi3.SchemaRef
		if c.doc.Components != nil {
			ref = c.doc.Components.Schemas[routeNotFoundSchema]
		}
		if ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("contract is missing the %s schema", routeNotFoundSchema)
		}
		return ref.Value, nil
	}

	resp := op.Responses.Status(status)
	if resp == nil {
		resp = op.Responses.Default()
	}
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("%w: %s %s -> %d", ErrUndeclaredStatus, method, path, status)
	}

	media := resp.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("no application/json schema for %s %s -> %d", method, path, status)
	}
	return media.Schema.Value, nil
}
