// Package api carries the HTTP API description.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /api/docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
