package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Delimiter     = ';'
	CommentPrefix = "###"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	ErrInvalidEncoding = errors.New("import file is not valid UTF-8")
)

// ParseRows splits the uploaded content into candidate rows, one per physical line.
// Comment lines (first cell starting with ###) and empty lines are dropped. A quote
// never spans lines.
func ParseRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	var rows [][]string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		cells, err := splitLine(line)
		if err != nil {
			return nil, fmt.Errorf("parse import file line %d: %w", i+1, err)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func splitLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}
