package validation

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/domain/repository"
	"TradePlan/internal/schema"
	"TradePlan/pkg/logger"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond

	outcomeValid   = "valid"
	outcomePartial = "partial"
	outcomeFailed  = "failed"
)

// ParseError reports a JSON payload that could not be repaired into an
// object.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "Failed to parse JSON: " + e.Reason
}

var (
	singleQuotePattern   = regexp.MustCompile(`'`)
	unquotedKeyPattern   = regexp.MustCompile(`(\w+):`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)
)

// Fix coerces raw input into a JSON object, applying the common LLM output
// repairs when a string does not parse as-is: single quotes for double
// quotes, unquoted property names, trailing commas.
func Fix(raw interface{}) (map[string]interface{}, error) {
	switch data := raw.(type) {
	case map[string]interface{}:
		return data, nil
	case string:
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(data), &obj); err == nil {
			return obj, nil
		}

		repaired := singleQuotePattern.ReplaceAllString(data, `"`)
		repaired = unquotedKeyPattern.ReplaceAllString(repaired, `"$1":`)
		repaired = trailingCommaPattern.ReplaceAllString(repaired, `$1`)

		var fixed map[string]interface{}
		if err := json.Unmarshal([]byte(repaired), &fixed); err != nil {
			return nil, &ParseError{Reason: err.Error()}
		}
		return fixed, nil
	default:
		return nil, &ParseError{Reason: "Invalid data type: must be object or string"}
	}
}

// RepairConfig wires the repair pipeline's collaborators and retry policy.
type RepairConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Audit      *logger.AuditSink
	Metrics    repository.Metrics
}

// Repairer validates documents against registered schemas and applies
// bounded automatic repair.
type Repairer struct {
	schemas *schema.Registry
	config  RepairConfig
}

// NewRepairer creates a Repairer over the schema registry.
func NewRepairer(schemas *schema.Registry, cfg RepairConfig) *Repairer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Repairer{schemas: schemas, config: cfg}
}

// ValidateDocument runs the structural schema validation only. Registry
// failures surface as a single "(validator)" issue rather than a Go error
// so callers can treat every outcome uniformly.
func (r *Repairer) ValidateDocument(data interface{}, schemaName string) models.ValidationResult {
	doc, err := r.schemas.Get(schemaName)
	if err != nil {
		return models.ValidationResult{
			Valid:  false,
			Errors: []models.ValidationIssue{{Path: "(validator)", Message: err.Error()}},
			Schema: schemaName,
		}
	}

	result := doc.Validate(data)
	if !result.Valid {
		r.recordFailure(schemaName, result.Errors, 0)
	}
	return result
}

// FixOption overrides the repair policy for one call.
type FixOption func(*fixSettings)

type fixSettings struct {
	maxRetries int
	retryDelay time.Duration
	autoFix    bool
}

// WithMaxRetries bounds the repair attempts for this call.
func WithMaxRetries(n int) FixOption {
	return func(s *fixSettings) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between repair attempts.
func WithRetryDelay(d time.Duration) FixOption {
	return func(s *fixSettings) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithoutAutoFix disables repair, leaving pure validation with retries.
func WithoutAutoFix() FixOption {
	return func(s *fixSettings) { s.autoFix = false }
}

// ValidateAndFix validates data against the named schema, repairing what it
// can: parse repair for strings, default injection for missing required
// fields, and finally a required-fields-only projection. An already valid
// object returns immediately with Fixed false.
func (r *Repairer) ValidateAndFix(ctx context.Context, data interface{}, schemaName string, opts ...FixOption) models.FixResult {
	settings := fixSettings{
		maxRetries: r.config.MaxRetries,
		retryDelay: r.config.RetryDelay,
		autoFix:    true,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	doc, err := r.schemas.Get(schemaName)
	if err != nil {
		r.recordOutcome(schemaName, outcomeFailed)
		return models.FixResult{
			Valid:  false,
			Schema: schemaName,
			Errors: []models.ValidationIssue{{Path: "(validator)", Message: err.Error()}},
		}
	}

	var (
		current    = data
		fixed      map[string]interface{}
		changed    bool
		lastErrors []models.ValidationIssue
	)

	for attempt := 0; attempt < settings.maxRetries; attempt++ {
		var fixErr error
		if settings.autoFix {
			fixed, fixErr = Fix(current)
		} else {
			fixed, _ = current.(map[string]interface{})
		}

		if fixErr != nil {
			lastErrors = []models.ValidationIssue{{Path: "(fix)", Message: fixErr.Error()}}
			if err := sleepCtx(ctx, settings.retryDelay); err != nil {
				break
			}
			continue
		}
		if _, wasString := current.(string); wasString {
			changed = true
		}
		current = fixed

		result := doc.Validate(fixed)
		if result.Valid {
			r.recordOutcome(schemaName, outcomeValid)
			return models.FixResult{
				Valid:  true,
				Data:   fixed,
				Schema: schemaName,
				Fixed:  changed,
				Errors: []models.ValidationIssue{},
			}
		}
		lastErrors = result.Errors
		r.recordFailure(schemaName, result.Errors, attempt+1)

		if settings.autoFix {
			for key, value := range doc.DefaultObject() {
				if _, present := fixed[key]; !present {
					fixed[key] = value
					changed = true
				}
			}
		}

		if err := sleepCtx(ctx, settings.retryDelay); err != nil {
			break
		}
	}

	if settings.autoFix && fixed != nil {
		projected := doc.ExtractRequired(fixed)
		result := doc.Validate(projected)
		if result.Valid {
			r.recordOutcome(schemaName, outcomePartial)
			return models.FixResult{
				Valid:   true,
				Data:    projected,
				Schema:  schemaName,
				Fixed:   true,
				Partial: true,
				Errors:  []models.ValidationIssue{},
			}
		}
		lastErrors = result.Errors
	}

	r.recordOutcome(schemaName, outcomeFailed)
	return models.FixResult{
		Valid:     false,
		Data:      fixed,
		Schema:    schemaName,
		Errors:    lastErrors,
		Attempted: true,
	}
}

// MergeValidatedObjects folds the objects left to right, later fields
// winning. The merged result is validated and failures audited, but the
// merge is returned regardless so callers can decide what to salvage.
func (r *Repairer) MergeValidatedObjects(objects []map[string]interface{}, schemaName string) map[string]interface{} {
	if len(objects) == 0 {
		doc, err := r.schemas.Get(schemaName)
		if err != nil {
			return map[string]interface{}{}
		}
		return doc.DefaultObject()
	}

	merged := make(map[string]interface{})
	for _, obj := range objects {
		for key, value := range obj {
			merged[key] = value
		}
	}

	// failures are audited inside ValidateDocument; the merge is still
	// returned so the caller can salvage fields
	r.ValidateDocument(merged, schemaName)
	return merged
}

// Definition returns the named schema's documentation summary.
func (r *Repairer) Definition(schemaName string) (schema.Definition, error) {
	doc, err := r.schemas.Get(schemaName)
	if err != nil {
		return schema.Definition{}, err
	}
	return doc.Definition(), nil
}

func (r *Repairer) recordFailure(schemaName string, issues []models.ValidationIssue, attempt int) {
	if r.config.Audit == nil {
		return
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, issue.Path+": "+issue.Message)
	}
	r.config.Audit.Record(logger.AuditEntry{
		Schema:  schemaName,
		Source:  "structural_validation",
		Errors:  msgs,
		Attempt: attempt,
	})
}

func (r *Repairer) recordOutcome(schemaName, outcome string) {
	if r.config.Metrics != nil {
		r.config.Metrics.RecordRepair(schemaName, outcome)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
