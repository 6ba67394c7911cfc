package models

// ValidationIssue is one structural validation error with its location.
type ValidationIssue struct {
	Path    string                 `json:"path"`
	Keyword string                 `json:"keyword,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ValidationResult is the outcome of a structural schema validation.
// Invalidity is a value, not an error.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors"`
	Schema string            `json:"schema"`
}

// TypeCheckResult is the outcome of schema-type rule validation (DP,
// MANCINI, TRADE_IDEA). Errors are plain strings in source order.
type TypeCheckResult struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
}

// FixResult is the outcome of a validate-and-fix run.
type FixResult struct {
	Valid     bool                   `json:"valid"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Schema    string                 `json:"schema"`
	Fixed     bool                   `json:"fixed"`
	Partial   bool                   `json:"partial,omitempty"`
	Attempted bool                   `json:"attempted,omitempty"`
	Errors    []ValidationIssue      `json:"errors,omitempty"`
}

// Domain validation source tags.
const (
	SourceSchemaValidation = "schema_validation"
	SourceDomainValidation = "domain_validation"
)

// DomainReport is the outcome of cross-field business-rule validation on
// trade data. Source tells whether failures came from the schema pass or
// the domain rules.
type DomainReport struct {
	Valid  bool     `json:"valid"`
	Source string   `json:"source"`
	Errors []string `json:"errors,omitempty"`
}
