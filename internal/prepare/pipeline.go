//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package prepare turns raw customer, product and sale tables into cleaned
// snapshots ready for the warehouse.
package prepare

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salescube/internal/scrub"
	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// Options holds the cleaning policy shared by all entities.
type Options struct {
	// NumericFill fills missing numeric cells unless a column overrides it.
	NumericFill scrub.FillStrategy

	// Placeholder fills missing text cells unless a column overrides it.
	Placeholder string

	// Outliers is applied to every column flagged for outlier removal.
	Outliers scrub.OutlierMethod
}

// DefaultOptions returns mean fill, an "unknown" placeholder and the
// 1.5 IQR rule.
func DefaultOptions() Options {
	return Options{
		NumericFill: scrub.Mean{},
		Placeholder: "unknown",
		Outliers:    scrub.IQR{Multiplier: 1.5},
	}
}

// Pipeline prepares raw tables from RawDir into PreparedDir.
type Pipeline struct {
	RawDir      string
	PreparedDir string
	Options     Options
	Log         zerolog.Logger
}

// Run prepares the named entities, or all registered entities when none
// are given. It stops at the first fatal error; reports for the entities
// completed so far are returned alongside it.
func (p *Pipeline) Run(names ...string) ([]*Report, error) {
	if len(names) == 0 {
		names = List()
	}

	var reports []*Report
	for _, name := range names {
		spec, err := Get(name)
		if err != nil {
			return reports, err
		}
		report, err := p.RunEntity(spec)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// RunEntity loads, prepares and writes one entity.
func (p *Pipeline) RunEntity(spec EntitySpec) (*Report, error) {
	path := filepath.Join(p.RawDir, spec.RawFile)

	raw, err := table.ReadCSVFile(spec.Name, path)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Table: spec.Name, Err: err}
	}
	if raw.Len() == 0 {
		return nil, &StageError{Stage: StageLoad, Table: spec.Name,
			Err: &EmptyTableError{Table: spec.Name, Path: path}}
	}
	p.Log.Info().
		Str("table", spec.Name).
		Str("stage", StageLoad).
		Str("path", path).
		Int("rows_in", raw.Len()).
		Int("rows_out", raw.Len()).
		Msg("Stage complete")

	out, report, err := p.Prepare(spec, raw)
	if err != nil {
		return report, err
	}

	report.Output = filepath.Join(p.PreparedDir, spec.PreparedFile)
	if err := table.WriteCSVFile(report.Output, out); err != nil {
		return report, &StageError{Stage: StageWrite, Table: spec.Name, Err: err}
	}
	report.stage(StageWrite, out.Len(), out.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	p.Log.Info().EmbedObject(report).Str("path", report.Output).Msg("Prepared table")
	return report, nil
}

// Prepare runs the cleaning stages over a raw table and returns the
// cleaned table. The raw table is not modified.
func (p *Pipeline) Prepare(spec EntitySpec, raw *table.Table) (*table.Table, *Report, error) {
	report := newReport(spec.Name)
	report.RowsRead = raw.Len()

	if raw.Len() == 0 {
		return nil, report, &StageError{Stage: StageLoad, Table: spec.Name,
			Err: &EmptyTableError{Table: spec.Name}}
	}

	opts := p.Options
	if opts.NumericFill == nil {
		opts.NumericFill = DefaultOptions().NumericFill
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultOptions().Placeholder
	}
	if opts.Outliers == nil {
		opts.Outliers = DefaultOptions().Outliers
	}

	// Detect columns.
	mapping := make(map[string]string)
	var present []ColumnSpec
	for _, col := range spec.Columns {
		found, err := scrub.DetectColumn(raw, col.Candidates()...)
		if errors.Is(err, scrub.ErrNotFound) {
			if col.Required {
				return nil, report, &StageError{Stage: StageDetect, Table: spec.Name,
					Err: &table.MissingColumnError{Table: spec.Name, Column: col.Name}}
			}
			report.Missing = append(report.Missing, col.Name)
			p.Log.Debug().Str("table", spec.Name).Str("column", col.Name).Msg("Optional column not present")
			continue
		}
		if _, taken := mapping[found]; taken {
			report.Missing = append(report.Missing, col.Name)
			continue
		}
		mapping[found] = col.Name
		present = append(present, col)
	}
	report.stage(StageDetect, raw.Len(), raw.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Rename to canonical names and drop everything else.
	canonical := make([]string, len(present))
	for i, col := range present {
		canonical[i] = col.Name
	}
	t, err := raw.Rename(mapping).Select(canonical...)
	if err != nil {
		return nil, report, &StageError{Stage: StageRename, Table: spec.Name, Err: err}
	}
	report.stage(StageRename, raw.Len(), t.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Trim, then lowercase the configured text columns.
	var lower []string
	for _, col := range present {
		if col.Kind == Text && col.Lowercase {
			lower = append(lower, col.Name)
		}
	}
	t, trimmed := scrub.TrimAll(t)
	t, lowered := scrub.TrimAndLowercase(t, lower...)
	report.stage(StageTrim, t.Len(), t.Len(), trimmed+lowered)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Coerce typed columns.
	coerced := 0
	for _, col := range present {
		var bad int
		switch col.Kind {
		case Numeric:
			t, bad, err = scrub.CoerceNumeric(t, col.Name)
		case Date:
			t, bad, err = scrub.CoerceDate(t, col.Name)
		default:
			continue
		}
		if err != nil {
			return nil, report, &StageError{Stage: StageCoerce, Table: spec.Name, Err: err}
		}
		if bad > 0 {
			report.Unparseable[col.Name] += bad
			p.Log.Warn().
				Str("table", spec.Name).
				Str("column", col.Name).
				Str("kind", col.Kind.String()).
				Int("count", bad).
				Msg("Unparseable values set to missing")
		}
		coerced += bad
	}
	report.stage(StageCoerce, t.Len(), t.Len(), coerced)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Drop rows missing a key.
	in := t.Len()
	for _, col := range present {
		if !col.Key {
			continue
		}
		var n int
		t, n, err = scrub.DropMissing(t, col.Name)
		if err != nil {
			return nil, report, &StageError{Stage: StageDropKeys, Table: spec.Name, Err: err}
		}
		report.Dropped[ReasonMissingKey] += n
	}
	report.stage(StageDropKeys, in, t.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Fill missing values.
	filled := 0
	for _, col := range present {
		strategy := fillStrategy(col, opts)
		if strategy == nil {
			continue
		}
		var n int
		t, n, err = scrub.FillMissing(t, col.Name, strategy)
		if err != nil {
			return nil, report, &StageError{Stage: StageFill, Table: spec.Name, Err: err}
		}
		if n > 0 {
			report.Filled[col.Name] += n
			p.Log.Debug().
				Str("table", spec.Name).
				Str("column", col.Name).
				Stringer("strategy", strategy).
				Int("count", n).
				Msg("Filled missing values")
		}
		filled += n
	}
	report.stage(StageFill, t.Len(), t.Len(), filled)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Drop duplicates by natural key.
	in = t.Len()
	var keys []string
	if spec.NaturalKey != "" && t.HasColumn(spec.NaturalKey) {
		keys = append(keys, spec.NaturalKey)
	}
	t, dup, err := scrub.DropDuplicates(t, keys...)
	if err != nil {
		return nil, report, &StageError{Stage: StageDedupe, Table: spec.Name, Err: err}
	}
	report.Dropped[ReasonDuplicate] += dup
	report.stage(StageDedupe, in, t.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Remove outliers.
	in = t.Len()
	for _, col := range present {
		if !col.Outliers || col.Kind != Numeric {
			continue
		}
		var (
			r scrub.Range
			n int
		)
		t, r, n, err = scrub.RemoveOutliers(t, col.Name, opts.Outliers)
		if err != nil {
			return nil, report, &StageError{Stage: StageOutliers, Table: spec.Name, Err: err}
		}
		report.Dropped[ReasonOutlier] += n
		p.Log.Debug().
			Str("table", spec.Name).
			Str("column", col.Name).
			Stringer("method", opts.Outliers).
			Float64("lower", r.Lower).
			Float64("upper", r.Upper).
			Int("removed", n).
			Msg("Outlier range")
	}
	report.stage(StageOutliers, in, t.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	// Validate.
	in = t.Len()
	for _, col := range present {
		if !col.NonNegative || col.Kind != Numeric {
			continue
		}
		var n int
		t, n, err = scrub.DropNegative(t, col.Name)
		if err != nil {
			return nil, report, &StageError{Stage: StageValidate, Table: spec.Name, Err: err}
		}
		report.Dropped[ReasonNegative] += n
	}
	report.stage(StageValidate, in, t.Len(), 0)
	p.logStage(spec.Name, report.Stages[len(report.Stages)-1])

	report.RowsWritten = t.Len()
	return t, report, nil
}

// fillStrategy returns the strategy for a column, or nil when the column
// is not filled. Keys and dates are never filled.
func fillStrategy(col ColumnSpec, opts Options) scrub.FillStrategy {
	if col.Key || col.Kind == Date {
		return nil
	}
	if col.Fill != nil {
		return col.Fill
	}
	if col.Kind == Numeric {
		return opts.NumericFill
	}
	return scrub.Constant{Value: opts.Placeholder}
}

func (p *Pipeline) logStage(entity string, s StageStat) {
	p.Log.Info().
		Str("table", entity).
		Str("stage", s.Stage).
		Int("rows_in", s.RowsIn).
		Int("rows_out", s.RowsOut).
		Int("changed", s.Changed).
		Msg("Stage complete")
}
