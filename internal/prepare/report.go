//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package prepare

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Reasons a row can be dropped.
const (
	ReasonMissingKey = "missing_key"
	ReasonDuplicate  = "duplicate_key"
	ReasonOutlier    = "outlier"
	ReasonNegative   = "negative_value"
)

// Stage names, in execution order.
const (
	StageLoad     = "load"
	StageDetect   = "detect"
	StageRename   = "rename"
	StageTrim     = "trim"
	StageCoerce   = "coerce"
	StageDropKeys = "drop_missing_keys"
	StageFill     = "fill"
	StageDedupe   = "dedupe"
	StageOutliers = "outliers"
	StageValidate = "validate"
	StageWrite    = "write"
)

// EmptyTableError is returned when a raw table has no rows.
type EmptyTableError struct {
	Table string
	Path  string
}

func (e *EmptyTableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("table %s is empty", e.Table)
	}
	return fmt.Sprintf("table %s is empty (%s)", e.Table, e.Path)
}

// StageError identifies the stage and table in which a fatal error occurred.
type StageError struct {
	Stage string
	Table string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("prepare %s: stage %s: %v", e.Table, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageStat records the row counts around one stage.
type StageStat struct {
	Stage   string
	RowsIn  int
	RowsOut int

	// Changed counts cells modified by the stage (trimmed, coerced, filled).
	Changed int
}

// Report summarises the preparation of one entity.
type Report struct {
	Entity      string
	RowsRead    int
	RowsWritten int
	Output      string
	Stages      []StageStat

	// Dropped counts removed rows per reason.
	Dropped map[string]int

	// Unparseable counts cells per column that failed numeric or date
	// parsing and were set to missing.
	Unparseable map[string]int

	// Filled counts filled cells per column.
	Filled map[string]int

	// Missing lists optional columns absent from the raw table.
	Missing []string
}

func newReport(entity string) *Report {
	return &Report{
		Entity:      entity,
		Dropped:     make(map[string]int),
		Unparseable: make(map[string]int),
		Filled:      make(map[string]int),
	}
}

// DroppedTotal returns the number of rows dropped for any reason.
func (r *Report) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// UnparseableTotal returns the number of cells that failed to parse.
func (r *Report) UnparseableTotal() int {
	n := 0
	for _, c := range r.Unparseable {
		n += c
	}
	return n
}

func (r *Report) stage(name string, in, out, changed int) {
	r.Stages = append(r.Stages, StageStat{Stage: name, RowsIn: in, RowsOut: out, Changed: changed})
}

// MarshalZerologObject renders the summary line fields.
func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("table", r.Entity).
		Int("rows_read", r.RowsRead).
		Int("rows_written", r.RowsWritten).
		Int("rows_dropped", r.DroppedTotal()).
		Int("unparseable", r.UnparseableTotal())

	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	d := zerolog.Dict()
	for _, reason := range reasons {
		d.Int(reason, r.Dropped[reason])
	}
	e.Dict("dropped", d)
}
