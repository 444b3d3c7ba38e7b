// Copyright 2026, the rrnascreen contributors.

package sinkio

import (
	"io"
	"time"

	"github.com/kshedden/rrnascreen/internal/rstats"
)

// WriteLogSummary appends the human-readable end-of-run summary
// (totals, per-database percentages, min/max/mean read length,
// timestamp) to w.
func WriteLogSummary(w io.Writer, snap rstats.Snapshot, at time.Time) error {
	_, err := io.WriteString(w, snap.Summary(at))
	return err
}
