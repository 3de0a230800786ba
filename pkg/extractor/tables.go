package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/xhad/esgx/internal/models"
)

var cellSplit = regexp.MustCompile(`\s{2,}|\t+`)

// Tables scans the layout-aware lines of each page for blocks of aligned
// rows and keeps the ones that look like real data tables.
func (e *Extractor) Tables(ex *models.Extraction) []models.Table {
	var tables []models.Table

	for _, page := range ex.Pages {
		index := 1
		var block [][]string

		flush := func() {
			if t, ok := e.buildTable(block, page.Number, index); ok {
				tables = append(tables, t)
				index++
			}
			block = nil
		}

		for _, line := range page.Lines {
			cells := splitCells(line)
			if len(cells) >= e.config.MinTableCols {
				block = append(block, cells)
				continue
			}
			flush()
		}
		flush()
	}

	return tables
}

func splitCells(line string) []string {
	var cells []string
	for _, c := range cellSplit.Split(strings.TrimSpace(line), -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// buildTable applies the tableness filter and promotes a header row when
// the first row's cells are non-empty and unique.
func (e *Extractor) buildTable(rows [][]string, page, index int) (models.Table, bool) {
	if !e.isTableLike(rows) {
		return models.Table{}, false
	}

	table := models.Table{
		Page:  page,
		Index: index,
		Rows:  rows,
	}

	first := rows[0]
	if headerLike(first) && len(rows) > 1 {
		table.Header = first
		table.Rows = rows[1:]
	}

	return table, true
}

// isTableLike filters out text blocks that merely happen to align: a table
// needs enough rows and columns, a share of numeric cells, and cells that
// are more than single-character scatter.
func (e *Extractor) isTableLike(rows [][]string) bool {
	if len(rows) < e.config.MinTableRows {
		return false
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols < e.config.MinTableCols {
		return false
	}

	// Sample up to 200 cells, as scanning everything on big tables is
	// wasted work.
	var sample []string
	for _, row := range rows {
		for _, cell := range row {
			if len(sample) == 200 {
				break
			}
			sample = append(sample, cell)
		}
	}
	if len(sample) == 0 {
		return false
	}

	withDigit := 0
	totalLen := 0
	for _, cell := range sample {
		if strings.IndexFunc(cell, unicode.IsDigit) >= 0 {
			withDigit++
		}
		totalLen += len(strings.TrimSpace(cell))
	}

	ratio := float64(withDigit) / float64(len(sample))
	avgLen := float64(totalLen) / float64(len(sample))

	return ratio >= e.config.MinDigitRatio && avgLen >= 2
}

func headerLike(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if c == "" || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}
