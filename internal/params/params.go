package params

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTTL = 5 * time.Minute

	defaultESToSPXConversion = -20.0
	defaultMaxJSONSize       = 1048576
	defaultSchemaVersion     = "1.0"
	defaultPositionSize      = "QUARTER"
)

// Parameters mirrors the system parameter file. Keys keep their uppercase
// form so the file reads the same as the operational runbooks.
type Parameters struct {
	PositionSizeMatrix map[string]map[string]string `yaml:"POSITION_SIZE_MATRIX"`

	MarketConversionFactors struct {
		ESToSPXConversion *float64 `yaml:"ES_TO_SPX_CONVERSION"`
		SPXToSPYDivisor   *float64 `yaml:"SPX_TO_SPY_DIVISOR"`
	} `yaml:"MARKET_CONVERSION_FACTORS"`

	ValidationParameters struct {
		RequiredSchemaFields map[string][]string `yaml:"REQUIRED_SCHEMA_FIELDS"`
		MaxJSONSize          int                 `yaml:"MAX_JSON_SIZE"`
	} `yaml:"VALIDATION_PARAMETERS"`

	SchemaVersions struct {
		TradeDataSchemaVersion string `yaml:"TRADE_DATA_SCHEMA_VERSION"`
	} `yaml:"SCHEMA_VERSIONS"`
}

// Store loads parameters from a YAML file and caches them for a TTL so
// operators can edit the file without a restart.
type Store struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	loaded   *Parameters
	loadedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default five minute cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a parameter store backed by the file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		ttl:  defaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current parameters, reloading from disk when the cached
// copy has expired.
func (s *Store) Get() (*Parameters, error) {
	s.mu.RLock()
	if s.loaded != nil && s.now().Sub(s.loadedAt) < s.ttl {
		p := s.loaded
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()
	return s.ForceReload()
}

// ForceReload reads the parameter file unconditionally.
func (s *Store) ForceReload() (*Parameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		// a stale copy beats failing the pipeline mid-session
		if s.loaded != nil {
			return s.loaded, nil
		}
		return nil, fmt.Errorf("read parameters %s: %w", s.path, err)
	}

	var p Parameters
	if err := yaml.Unmarshal(raw, &p); err != nil {
		if s.loaded != nil {
			return s.loaded, nil
		}
		return nil, fmt.Errorf("parse parameters %s: %w", s.path, err)
	}

	s.loaded = &p
	s.loadedAt = s.now()
	return s.loaded, nil
}

// PositionSize resolves the recommended size for a conviction and duration
// pair, falling back to QUARTER when either axis is missing from the
// matrix.
func (s *Store) PositionSize(confidence, duration string) string {
	if size, ok := s.MatrixLookup(confidence, duration); ok {
		return size
	}
	return defaultPositionSize
}

// MatrixLookup reports the matrix entry and whether it exists.
func (s *Store) MatrixLookup(confidence, duration string) (string, bool) {
	p, err := s.Get()
	if err != nil {
		return "", false
	}
	row, ok := p.PositionSizeMatrix[confidence]
	if !ok {
		return "", false
	}
	size, ok := row[duration]
	return size, ok
}

// ESToSPXConversion returns the additive ES futures to SPX cash offset.
func (s *Store) ESToSPXConversion() float64 {
	p, err := s.Get()
	if err != nil || p.MarketConversionFactors.ESToSPXConversion == nil {
		return defaultESToSPXConversion
	}
	return *p.MarketConversionFactors.ESToSPXConversion
}

// ConvertESToSPX maps an ES futures price to the SPX cash equivalent.
func (s *Store) ConvertESToSPX(es float64) float64 {
	return es + s.ESToSPXConversion()
}

// RequiredFields returns the top-level required fields for a schema type.
// The second result is false for unknown types.
func (s *Store) RequiredFields(schemaType string) ([]string, bool) {
	p, err := s.Get()
	if err != nil {
		return nil, false
	}
	fields, ok := p.ValidationParameters.RequiredSchemaFields[schemaType]
	return fields, ok
}

// MaxJSONSize returns the serialized document size limit in bytes.
func (s *Store) MaxJSONSize() int {
	p, err := s.Get()
	if err != nil || p.ValidationParameters.MaxJSONSize <= 0 {
		return defaultMaxJSONSize
	}
	return p.ValidationParameters.MaxJSONSize
}

// SchemaVersion returns the expected document schema version.
func (s *Store) SchemaVersion() string {
	p, err := s.Get()
	if err != nil || p.SchemaVersions.TradeDataSchemaVersion == "" {
		return defaultSchemaVersion
	}
	return p.SchemaVersions.TradeDataSchemaVersion
}
