package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"TradePlan/internal/domain/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Property is one field definition inside a schema document.
type Property struct {
	Type        string        `json:"type"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Format      string        `json:"format,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Document is a loaded, compiled schema. Immutable after load.
type Document struct {
	Name        string
	Title       string
	Description string
	Required    []string
	Properties  map[string]Property
	compiled    *jsonschema.Schema
}

// FieldDoc describes one property for documentation output.
type FieldDoc struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Enum        []interface{} `json:"enum,omitempty"`
	Format      string        `json:"format,omitempty"`
}

// Definition is a human-readable schema summary.
type Definition struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	RequiredFields []string   `json:"requiredFields"`
	Properties     []FieldDoc `json:"properties"`
}

// Registry loads named schema documents from a directory and caches them
// for the process lifetime. Safe for concurrent use; entries are immutable
// once cached.
type Registry struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Document
}

// NewRegistry creates a schema registry rooted at dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:   dir,
		cache: make(map[string]*Document),
	}
}

// Get returns the named schema, loading it on first access.
func (r *Registry) Get(name string) (*Document, error) {
	r.mu.RLock()
	if doc, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return doc, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// another caller may have populated the entry while we waited
	if doc, ok := r.cache[name]; ok {
		return doc, nil
	}

	doc, err := r.load(name)
	if err != nil {
		return nil, err
	}
	r.cache[name] = doc
	return doc, nil
}

// Invalidate drops the named schema from the cache.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// ForceReload reloads the named schema from disk, replacing the cached
// entry.
func (r *Registry) ForceReload(name string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(name)
	if err != nil {
		return nil, err
	}
	r.cache[name] = doc
	return doc, nil
}

func (r *Registry) load(name string) (*Document, error) {
	path := filepath.Join(r.dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", path)
		}
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	var parsed struct {
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Required    []string            `json:"required"`
		Properties  map[string]Property `json:"properties"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(name+".json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &Document{
		Name:        name,
		Title:       parsed.Title,
		Description: parsed.Description,
		Required:    parsed.Required,
		Properties:  parsed.Properties,
		compiled:    compiled,
	}, nil
}

// Validate runs the compiled structural validation. Errors come back as
// values; only registry-level failures are Go errors.
func (d *Document) Validate(data interface{}) models.ValidationResult {
	err := d.compiled.Validate(data)
	if err == nil {
		return models.ValidationResult{Valid: true, Errors: []models.ValidationIssue{}, Schema: d.Name}
	}

	var issues []models.ValidationIssue
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		issues = flattenIssues(ve)
	} else {
		issues = []models.ValidationIssue{{Path: "(validator)", Message: err.Error()}}
	}
	return models.ValidationResult{Valid: false, Errors: issues, Schema: d.Name}
}

// flattenIssues walks the cause tree and keeps the leaves, which carry the
// specific failures.
func flattenIssues(ve *jsonschema.ValidationError) []models.ValidationIssue {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "(root)"
		}
		return []models.ValidationIssue{{
			Path:    path,
			Keyword: keywordFromLocation(ve.KeywordLocation),
			Message: ve.Message,
		}}
	}

	var issues []models.ValidationIssue
	for _, cause := range ve.Causes {
		issues = append(issues, flattenIssues(cause)...)
	}
	return issues
}

func keywordFromLocation(loc string) string {
	if loc == "" {
		return ""
	}
	parts := strings.Split(loc, "/")
	return parts[len(parts)-1]
}

// DefaultObject builds an object holding every required field, using the
// property default when declared or a type-appropriate zero value.
func (d *Document) DefaultObject() map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range d.Required {
		prop, ok := d.Properties[field]
		if !ok {
			continue
		}
		if prop.Default != nil {
			result[field] = prop.Default
			continue
		}
		switch prop.Type {
		case "string":
			result[field] = ""
		case "number", "integer":
			result[field] = float64(0)
		case "boolean":
			result[field] = false
		case "array":
			result[field] = []interface{}{}
		case "object":
			result[field] = map[string]interface{}{}
		default:
			result[field] = nil
		}
	}
	return result
}

// ExtractRequired projects data down to the schema's required fields.
func (d *Document) ExtractRequired(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range d.Required {
		if v, ok := data[field]; ok {
			result[field] = v
		}
	}
	return result
}

// Definition returns a documentation summary of the schema.
func (d *Document) Definition() Definition {
	def := Definition{
		Title:          d.Title,
		Description:    d.Description,
		RequiredFields: d.Required,
		Properties:     make([]FieldDoc, 0, len(d.Properties)),
	}
	if def.Title == "" {
		def.Title = d.Name
	}
	for name, prop := range d.Properties {
		def.Properties = append(def.Properties, FieldDoc{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    contains(d.Required, name),
			Enum:        prop.Enum,
			Format:      prop.Format,
		})
	}
	return def
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
