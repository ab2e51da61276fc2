// Package report renders the rejected rows of an import so the user can fix
// them and upload the file again.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown report format")

const (
	errorColumn = "error"
	sheetName   = "Errors"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders errs in format f. When columns is not empty it is written as
// a header row followed by the error column.
func Write(w io.Writer, f Format, columns []string, errs []entity.ImportError) error {
	switch f {
	case CSV:
		return WriteCSV(w, columns, errs)
	case XLSX:
		return WriteXLSX(w, columns, errs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteCSV uses the same ';' delimiter as the import files.
func WriteCSV(w io.Writer, columns []string, errs []entity.ImportError) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if len(columns) > 0 {
		if err := cw.Write(header(columns)); err != nil {
			return err
		}
	}
	for _, e := range errs {
		if err := cw.Write(e.Cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, columns []string, errs []entity.ImportError) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	row := 1
	writeRow := func(cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		row++
		return f.SetSheetRow(sheetName, cell, &values)
	}

	if len(columns) > 0 {
		if err := writeRow(header(columns)); err != nil {
			return err
		}
		if err := f.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}
	for _, e := range errs {
		if err := writeRow(e.Cells()); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func header(columns []string) []string {
	h := make([]string, 0, len(columns)+1)
	h = append(h, columns...)
	return append(h, errorColumn)
}
