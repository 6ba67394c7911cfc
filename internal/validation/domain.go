package validation

import (
	"fmt"
	"math"
	"strings"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/domain/repository"
	"TradePlan/internal/params"
	"TradePlan/pkg/logger"
	"TradePlan/pkg/util"
)

// DomainValidator checks business consistency across a validated trade
// document: level ordering, risk/reward arithmetic, sizing discipline and
// the plan-wide bias sanity check. Inconsistency is a reported finding,
// never a Go error.
type DomainValidator struct {
	types   *TypeValidator
	params  *params.Store
	audit   *logger.AuditSink
	metrics repository.Metrics
}

// DomainValidatorOption configures a DomainValidator.
type DomainValidatorOption func(*DomainValidator)

// WithDomainAudit mirrors failures into the audit log.
func WithDomainAudit(sink *logger.AuditSink) DomainValidatorOption {
	return func(v *DomainValidator) { v.audit = sink }
}

// WithDomainMetrics records validation outcomes.
func WithDomainMetrics(m repository.Metrics) DomainValidatorOption {
	return func(v *DomainValidator) { v.metrics = m }
}

// NewDomainValidator creates a domain validator. The type validator runs
// first as a precondition.
func NewDomainValidator(types *TypeValidator, store *params.Store, opts ...DomainValidatorOption) *DomainValidator {
	v := &DomainValidator{types: types, params: store}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateTradeData validates a trade document's business rules. The
// schema pass must succeed first; its failures come back tagged with the
// schema_validation source so callers can tell the stages apart.
func (v *DomainValidator) ValidateTradeData(data map[string]interface{}, schemaType string) models.DomainReport {
	schemaResult := v.types.Validate(data, schemaType)
	if !schemaResult.Valid {
		return models.DomainReport{
			Valid:  false,
			Source: models.SourceSchemaValidation,
			Errors: schemaResult.Errors,
		}
	}

	var errs []string
	trades := tradeList(data)
	for i, trade := range trades {
		errs = append(errs, v.checkLevelConsistency(trade, i)...)
		errs = append(errs, v.checkRiskReward(trade, i)...)
		errs = append(errs, v.checkPositionSizing(trade, i)...)
	}
	errs = append(errs, checkMarketBias(data, trades)...)

	report := models.DomainReport{
		Valid:  len(errs) == 0,
		Source: models.SourceDomainValidation,
		Errors: errs,
	}
	if v.metrics != nil {
		v.metrics.RecordValidation(schemaType+"_domain", report.Valid)
	}
	if !report.Valid && v.audit != nil {
		v.audit.Record(logger.AuditEntry{
			Schema: schemaType,
			Source: models.SourceDomainValidation,
			Errors: errs,
		})
	}
	return report
}

// checkLevelConsistency verifies entry/target/stop ordering for the trade
// direction. Each violated rule yields exactly one error.
func (v *DomainValidator) checkLevelConsistency(trade map[string]interface{}, index int) []string {
	direction := normalize(trade["direction"])
	levels, _ := trade["levels"].(map[string]interface{})
	if levels == nil {
		return nil
	}

	entry, entryOK := firstNumber(levels["entry"])
	targets := allNumbers(levelValue(levels, "targets", "target"))
	stop, stopOK := firstNumber(levelValue(levels, "stops", "stop"))

	var errs []string
	prefix := fmt.Sprintf("TRADE_DATA[%d]: ", index)

	switch direction {
	case models.DirectionLong:
		if entryOK && len(targets) > 0 {
			if low := minOf(targets); entry >= low {
				errs = append(errs, prefix+fmt.Sprintf("entry (%s) must be lower than target (%s)",
					util.FormatPrice(entry), util.FormatPrice(low)))
			}
		}
		if entryOK && stopOK && stop >= entry {
			errs = append(errs, prefix+fmt.Sprintf("stop (%s) must be lower than entry (%s)",
				util.FormatPrice(stop), util.FormatPrice(entry)))
		}
		if !ascending(targets) {
			errs = append(errs, prefix+"targets must ascend for a LONG trade")
		}
	case models.DirectionShort:
		if entryOK && len(targets) > 0 {
			if high := maxOf(targets); entry <= high {
				errs = append(errs, prefix+fmt.Sprintf("entry (%s) must be higher than target (%s)",
					util.FormatPrice(entry), util.FormatPrice(high)))
			}
		}
		if entryOK && stopOK && stop <= entry {
			errs = append(errs, prefix+fmt.Sprintf("stop (%s) must be higher than entry (%s)",
				util.FormatPrice(stop), util.FormatPrice(entry)))
		}
		if !descending(targets) {
			errs = append(errs, prefix+"targets must descend for a SHORT trade")
		}
	}

	return errs
}

// checkRiskReward compares the declared risk/reward ratio against the one
// implied by entry, first target and stop. The tolerance is 10% relative
// to the larger of the two ratios.
func (v *DomainValidator) checkRiskReward(trade map[string]interface{}, index int) []string {
	rr, _ := trade["risk_reward"].(map[string]interface{})
	if rr == nil {
		return nil
	}
	declared, ok := firstNumber(rr["ratio"])
	if !ok {
		return nil
	}

	levels, _ := trade["levels"].(map[string]interface{})
	if levels == nil {
		return nil
	}
	entry, entryOK := firstNumber(levels["entry"])
	targets := allNumbers(levelValue(levels, "targets", "target"))
	stop, stopOK := firstNumber(levelValue(levels, "stops", "stop"))
	if !entryOK || !stopOK || len(targets) == 0 {
		return nil
	}

	risk := math.Abs(entry - stop)
	if risk == 0 {
		return nil
	}
	computed := math.Abs(targets[0]-entry) / risk

	if math.Abs(computed-declared) > 0.1*math.Max(computed, declared) {
		return []string{fmt.Sprintf(
			"TRADE_DATA[%d]: risk/reward mismatch: declared ratio %s, computed ratio %s",
			index, util.FormatPrice(declared), util.FormatPrice(math.Round(computed*100)/100))}
	}
	return nil
}

// checkPositionSizing verifies the declared size against the conviction by
// duration matrix.
func (v *DomainValidator) checkPositionSizing(trade map[string]interface{}, index int) []string {
	confidence := normalize(trade["confidence"])
	duration := normalize(trade["duration"])
	if confidence == "" || duration == "" {
		return nil
	}

	expected, ok := v.params.MatrixLookup(confidence, duration)
	if !ok {
		return []string{fmt.Sprintf(
			"TRADE_DATA[%d]: no position size defined for confidence %s and duration %s",
			index, confidence, duration)}
	}

	declared := normalize(trade["position_size"])
	if declared == "" {
		return nil
	}
	if declared != strings.ToUpper(expected) {
		return []string{fmt.Sprintf(
			"TRADE_DATA[%d]: position size mismatch: declared %s, matrix requires %s",
			index, declared, expected)}
	}
	return nil
}

// checkMarketBias flags a stated bias that contradicts the trade mix.
func checkMarketBias(data map[string]interface{}, trades []map[string]interface{}) []string {
	bias, _ := data["MARKET_BIAS"].(map[string]interface{})
	if bias == nil {
		return nil
	}
	overall := normalize(bias["overall"])

	var longs, shorts int
	for _, trade := range trades {
		switch normalize(trade["direction"]) {
		case models.DirectionLong:
			longs++
		case models.DirectionShort:
			shorts++
		}
	}

	switch {
	case overall == models.BiasBullish && shorts > longs:
		return []string{fmt.Sprintf(
			"market bias BULLISH conflicts with trade mix: %d SHORT vs %d LONG", shorts, longs)}
	case overall == models.BiasBearish && longs > shorts:
		return []string{fmt.Sprintf(
			"market bias BEARISH conflicts with trade mix: %d LONG vs %d SHORT", longs, shorts)}
	}
	return nil
}

func tradeList(data map[string]interface{}) []map[string]interface{} {
	raw, _ := data["TRADE_DATA"].([]interface{})
	trades := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if trade, ok := item.(map[string]interface{}); ok {
			trades = append(trades, trade)
		}
	}
	return trades
}

// levelValue returns the first present key, tolerating both singular and
// plural field names.
func levelValue(levels map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := levels[key]; ok {
			return v
		}
	}
	return nil
}

// firstNumber extracts the first finite number from a scalar or sequence.
func firstNumber(v interface{}) (float64, bool) {
	nums := allNumbers(v)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

// allNumbers extracts every finite number from a scalar or sequence,
// tolerating currency-formatted strings.
func allNumbers(v interface{}) []float64 {
	var out []float64
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		for _, item := range t {
			if n, ok := parseFinite(item); ok {
				out = append(out, n)
			}
		}
	default:
		if n, ok := parseFinite(t); ok {
			out = append(out, n)
		}
	}
	return out
}

func parseFinite(v interface{}) (float64, bool) {
	n, ok := util.ParseNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func ascending(nums []float64) bool {
	for i := 1; i < len(nums); i++ {
		if nums[i] <= nums[i-1] {
			return false
		}
	}
	return true
}

func descending(nums []float64) bool {
	for i := 1; i < len(nums); i++ {
		if nums[i] >= nums[i-1] {
			return false
		}
	}
	return true
}

func minOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func maxOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m
}

func normalize(v interface{}) string {
	s, _ := v.(string)
	return strings.ToUpper(strings.TrimSpace(s))
}
