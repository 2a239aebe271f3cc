package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("file must be .csv or .xlsx")

// Table is a header row plus data rows, as read from a spreadsheet.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func NewTable(header []string, rows [][]string) Table {
	t := Table{Header: header, Rows: rows, index: map[string]int{}}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, ok := t.index[key]; !ok {
			t.index[key] = i
		}
	}
	return t
}

// Field returns the first non-empty value among the given column names.
func (t Table) Field(rec []string, names ...string) string {
	for _, name := range names {
		pos, ok := t.index[normalizeHeader(name)]
		if !ok || pos >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[pos]); v != "" {
			return v
		}
	}
	return ""
}

// HasColumn reports whether any of the names is present in the header.
func (t Table) HasColumn(names ...string) bool {
	for _, name := range names {
		if _, ok := t.index[normalizeHeader(name)]; ok {
			return true
		}
	}
	return false
}

func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ReadTable picks the reader from the file extension.
func ReadTable(name string, r io.Reader) (Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx":
		return readXLSX(r)
	default:
		return Table{}, ErrUnsupportedFormat
	}
}

func readCSV(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comma = sniffDelimiter(data)

	headers, err := reader.Read()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}
		if blankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return NewTable(headers, rows), nil
}

// Spreadsheet exports in pt-BR locales use ';' because ',' is the decimal mark.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func readXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("workbook has no sheets")
	}
	all, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return Table{}, errors.New("failed to read header")
	}
	var rows [][]string
	for _, rec := range all[1:] {
		if blankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return NewTable(all[0], rows), nil
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
