// Package core defines the shared language of the leapyear system.
//
// This package contains:
//   - Template configuration (TableTemplate, RelationTemplate)
//   - The column schema tagged union and its creation format (ColumnSchema, PropertySpec)
//   - Row values and store entities (Value, Row, Entity)
//   - Calendar buckets (WeekBucket, MonthBucket)
//   - Pipeline results and run records (PhaseResult, EnvEntry, RunRecord)
//   - The error taxonomy shared by every component
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
