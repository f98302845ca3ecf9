// Package reports renders exported table blocks as CSV or plain text.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// ParseFormat defaults to JSON when s is empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatText:
		return FormatText, nil
	}
	return "", apperrors.New(apperrors.Validation, "unsupported report format %q (use json, csv or text)", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// SummaryBlock turns summary rows into a block so they share the renderers.
func SummaryBlock(rows []models.SummaryRow) models.TableBlock {
	block := models.TableBlock{
		Table:  "summary",
		Header: []string{"table", "records"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		block.Rows = append(block.Rows, []string{r.Table, strconv.FormatInt(r.Count, 10)})
	}
	return block
}

// WriteCSV writes one section per block: the table name on its own line,
// then the header and the rows. Sections are separated by an empty line.
func WriteCSV(w io.Writer, blocks []models.TableBlock) error {
	cw := csv.NewWriter(w)
	for i, block := range blocks {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{block.Table}); err != nil {
			return err
		}
		if err := cw.Write(block.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(block.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText renders every block as an ASCII table under its name.
func WriteText(w io.Writer, blocks []models.TableBlock) error {
	if len(blocks) == 0 {
		_, err := io.WriteString(w, "No records.\n")
		return err
	}

	for i, block := range blocks {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s (%d rows)\n", block.Table, len(block.Rows)); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader(block.Header)
		table.AppendBulk(block.Rows)
		table.Render()
	}
	return nil
}

// Write dispatches to the renderer for f. JSON is handled by the HTTP layer.
func Write(w io.Writer, f Format, blocks []models.TableBlock) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, blocks)
	case FormatText:
		return WriteText(w, blocks)
	}
	return apperrors.New(apperrors.Validation, "format %q has no stream renderer", f)
}
