package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// OpenAPIHandler serves the embedded API description as YAML and, converted
// on first use, as JSON
type OpenAPIHandler struct {
	yamlDoc []byte
	toJSON  func() ([]byte, error)
	logger  *zap.Logger
}

func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	return newOpenAPIHandler(openAPIYAML, logger)
}

func newOpenAPIHandler(doc []byte, logger *zap.Logger) *OpenAPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAPIHandler{
		yamlDoc: doc,
		logger:  logger,
		toJSON: sync.OnceValues(func() ([]byte, error) {
			var v map[string]any
			if err := yaml.Unmarshal(doc, &v); err != nil {
				return nil, fmt.Errorf("invalid openapi document: %w", err)
			}
			return json.Marshal(v)
		}),
	}
}

func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(h.yamlDoc)
}

func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := h.toJSON()
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}
