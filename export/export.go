// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package export writes the results CSV. The file is derived output and is
// never read back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/danielhkuo/quickly-vote/models"
)

var header = []string{"candidate_id", "name", "department", "votes"}

// WriteResultsCSV writes a header row, then one row per candidate in the
// order given
func WriteResultsCSV(w io.Writer, candidates []models.Candidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range candidates {
		row := []string{strconv.Itoa(c.ID), c.Name, c.Department, strconv.Itoa(c.Votes)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveResultsCSV overwrites path with the results CSV
func SaveResultsCSV(path string, candidates []models.Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := WriteResultsCSV(f, candidates); err != nil {
		f.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
