package handler

import (
	"errors"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

// DocsHandler handles API documentation requests
type DocsHandler struct {
	specContent []byte
	info        DocsInfo
}

// DocsInfo summarizes the served OpenAPI document
type DocsInfo struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
	DocsURL     string `json:"docs_url" yaml:"-"`
}

// NewDocsHandler parses the info block of specContent so /docs/info never
// drifts from the document itself
func NewDocsHandler(specContent []byte) (*DocsHandler, error) {
	var doc struct {
		OpenAPI string   `yaml:"openapi"`
		Info    DocsInfo `yaml:"info"`
	}
	if err := yaml.Unmarshal(specContent, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if doc.OpenAPI == "" || doc.Info.Title == "" {
		return nil, errors.New("OpenAPI document is missing the openapi version or info.title")
	}

	doc.Info.DocsURL = "/docs"
	return &DocsHandler{specContent: specContent, info: doc.Info}, nil
}

// GetOpenAPISpec handles GET /docs - returns the OpenAPI specification
func (h *DocsHandler) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specContent)
}

// GetOpenAPIInfo handles GET /docs/info
func (h *DocsHandler) GetOpenAPIInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.info, http.StatusOK)
}
