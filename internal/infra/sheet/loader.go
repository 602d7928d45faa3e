// Package sheet loads a question bank from a spreadsheet export (.csv or .xlsx).
//
// The first row is the header. Required columns are pregunta, respuesta_correcta,
// opcion_incorrecta_1, opcion_incorrecta_2 and opcion_incorrecta_3; categoria is optional.
// Column order does not matter and header names are matched case-insensitively.
package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"trivia-chat-service/internal/domain"
)

const (
	ColPrompt   = "pregunta"
	ColCorrect  = "respuesta_correcta"
	ColWrong1   = "opcion_incorrecta_1"
	ColWrong2   = "opcion_incorrecta_2"
	ColWrong3   = "opcion_incorrecta_3"
	ColCategory = "categoria"
)

var requiredColumns = []string{ColPrompt, ColCorrect, ColWrong1, ColWrong2, ColWrong3}

// Loader reads the whole bank from a file on every LoadBank call.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadBank(_ context.Context) ([]domain.Question, error) {
	rows, err := readRows(l.path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(l.path), filepath.Ext(l.path))
	return ParseRows(name, rows)
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sheet: %w", err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open sheet: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrSchema)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: unsupported sheet format %q", domain.ErrSchema, filepath.Ext(path))
}

// ParseRows turns a header row plus data rows into questions. IDs are name-<row>, where row
// is the 1-based spreadsheet row. Blank rows are skipped.
func ParseRows(name string, rows [][]string) ([]domain.Question, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty", domain.ErrSchema)
	}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrSchema, col)
		}
	}

	var out []domain.Question
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		cell := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		q := domain.NewBankQuestion(
			fmt.Sprintf("%s-%d", name, rowNum),
			cell(ColPrompt),
			cell(ColCorrect),
			[3]string{cell(ColWrong1), cell(ColWrong2), cell(ColWrong3)},
			cell(ColCategory),
		)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrSchema, rowNum, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
