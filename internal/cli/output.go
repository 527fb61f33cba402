package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/syssam/pgstmt"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeValue writes v as JSON, or text followed by a newline.
func writeValue(w io.Writer, format string, v any, text string) error {
	if format == "json" {
		return writeJSON(w, v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func writeRecord(w io.Writer, format string, rec *pgstmt.Record) error {
	if format == "json" {
		if rec == nil {
			return writeJSON(w, nil)
		}
		return writeJSON(w, textBytes(rec.Map()))
	}
	if rec == nil {
		_, err := fmt.Fprintln(w, "no row")
		return err
	}
	return writeTable(w, rec.Columns, [][]any{rec.Values})
}

func writeRowSet(w io.Writer, format string, set *pgstmt.RowSet) error {
	if format == "json" {
		rows := set.Maps()
		for _, row := range rows {
			textBytes(row)
		}
		return writeJSON(w, rows)
	}
	return writeTable(w, set.Columns, set.Rows)
}

func writeTable(w io.Writer, cols []pgstmt.Column, rows [][]any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Name)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell(v))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// textBytes replaces []byte values in place so they encode as text, not base64.
func textBytes(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
