package gitdiff

import (
	"fmt"

	"github.com/waigani/diffparser"
)

// FileStat counts the lines a record adds and removes.
type FileStat struct {
	File    string
	Added   int
	Removed int
	Binary  bool
}

// Summarize parses every record's diff and counts changed lines.
func Summarize(records []Record) ([]FileStat, error) {
	out := make([]FileStat, 0, len(records))
	for _, r := range records {
		st, err := stat(r)
		if err != nil {
			return nil, fmt.Errorf("parse diff for %s: %w", r.File, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func stat(r Record) (FileStat, error) {
	st := FileStat{File: r.File}
	parsed, err := diffparser.Parse(r.Diff)
	if err != nil {
		return st, err
	}
	for _, f := range parsed.Files {
		if len(f.Hunks) == 0 {
			st.Binary = true
		}
		for _, h := range f.Hunks {
			for _, l := range h.WholeRange.Lines {
				switch l.Mode {
				case diffparser.ADDED:
					st.Added++
				case diffparser.REMOVED:
					st.Removed++
				}
			}
		}
	}
	return st, nil
}

// Totals sums the per-file counts.
func Totals(stats []FileStat) (added, removed int) {
	for _, s := range stats {
		added += s.Added
		removed += s.Removed
	}
	return added, removed
}
