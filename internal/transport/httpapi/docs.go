package httpapi

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /docs
//
//go:embed openapi.yaml
var OpenAPISpec []byte
