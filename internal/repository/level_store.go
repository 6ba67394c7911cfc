package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/domain/repository"
)

// ClickHouseLevelStore persists generated plan runs: one header row per
// run holding the full document, plus flattened per-category level rows
// for confluence research queries.
type ClickHouseLevelStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseLevelStore creates a level store writing to table (runs)
// and table_levels (flattened rows).
func NewClickHouseLevelStore(db *sql.DB, table string) repository.LevelStore {
	return &ClickHouseLevelStore{db: db, table: table}
}

func (s *ClickHouseLevelStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_ts DateTime,
			plan_id String,
			symbol LowCardinality(String),
			current_price Float64,
			plan String
		) ENGINE = MergeTree() ORDER BY (symbol, run_ts)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_levels (
			run_ts DateTime,
			plan_id String,
			symbol LowCardinality(String),
			category LowCardinality(String),
			level Float64,
			context String,
			type LowCardinality(String),
			source LowCardinality(String),
			weight Float64
		) ENGINE = MergeTree() ORDER BY (symbol, run_ts, category)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("level store init: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseLevelStore) StoreRun(ctx context.Context, plan *models.TradePlan) error {
	if plan == nil || plan.Levels == nil {
		return nil
	}

	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (run_ts, plan_id, symbol, current_price, plan) VALUES (?, ?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q,
		plan.GeneratedAt,
		plan.PlanID,
		plan.Symbol,
		plan.CurrentPrice,
		string(doc),
	); err != nil {
		return fmt.Errorf("store run: %w", err)
	}

	return s.storeLevels(ctx, plan)
}

// storeLevels flattens the categorized levels into one batched insert.
func (s *ClickHouseLevelStore) storeLevels(ctx context.Context, plan *models.TradePlan) error {
	type row struct {
		category string
		level    models.PlanLevel
	}
	var rows []row
	collect := func(category string, levels []models.PlanLevel) {
		for _, level := range levels {
			rows = append(rows, row{category, level})
		}
	}
	collect("macro_resistance", plan.Levels.MacroResistance)
	collect("major_resistance", plan.Levels.MajorResistance)
	collect("minor_resistance", plan.Levels.MinorResistance)
	collect("minor_support", plan.Levels.MinorSupport)
	collect("major_support", plan.Levels.MajorSupport)
	collect("macro_support", plan.Levels.MacroSupport)
	if len(rows) == 0 {
		return nil
	}

	const chunkSize = 1000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, r := range rows[start:end] {
			price, err := parsePrice(r.level.Level)
			if err != nil {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				plan.GeneratedAt,
				plan.PlanID,
				plan.Symbol,
				r.category,
				price,
				r.level.Context,
				r.level.Type,
				r.level.Source,
				r.level.Weight,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s_levels (run_ts, plan_id, symbol, category, level, context, type, source, weight) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store levels: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseLevelStore) QueryRuns(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradePlan, error) {
	q := fmt.Sprintf("SELECT plan FROM %s WHERE symbol = ? AND run_ts >= ? AND run_ts <= ? ORDER BY run_ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.TradePlan
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var plan models.TradePlan
		if err := json.Unmarshal([]byte(doc), &plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan: %w", err)
		}
		plans = append(plans, &plan)
	}
	return plans, rows.Err()
}

func (s *ClickHouseLevelStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseLevelStore) Close() error {
	return nil // pool owned by pkg client
}

func parsePrice(level string) (float64, error) {
	return strconv.ParseFloat(level, 64)
}
