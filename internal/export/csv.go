// Package export renders stored submissions as CSV for spreadsheet tools.
//
// Output is UTF-8 with a byte-order mark. The header is the fixed metadata
// columns followed by the union of every field key seen across the exported
// rows, in form field order when one is given; a row missing a key gets an
// empty cell.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// BOM is the UTF-8 byte-order mark written before the header.
const BOM = "\ufeff"

// ContentType is the media type of the export.
const ContentType = "text/csv; charset=utf-8"

// MetaColumns are the leading columns of every export.
var MetaColumns = []string{"submission_id", "form_id", "created_at", "ip_address"}

// TimeLayout formats created_at cells.
const TimeLayout = "2006-01-02 15:04:05"

// Columns returns the field keys of rows. Keys listed in order come first, in
// that order, when at least one row has them. The rest follow in first-seen
// order; keys within a single row are visited alphabetically so the result is
// deterministic.
func Columns(values []map[string]string, order ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, k := range order {
		if _, dup := seen[k]; dup || !anyHas(values, k) {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, v := range values {
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func anyHas(values []map[string]string, k string) bool {
	for _, v := range values {
		if _, ok := v[k]; ok {
			return true
		}
	}
	return false
}

// WriteCSV writes rows to w. fields is the form's field order, if known.
func WriteCSV(w io.Writer, rows []domain.Submission, fields ...string) error {
	values := make([]map[string]string, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	keys := Columns(values, fields...)

	if _, err := io.WriteString(w, BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := append(append([]string{}, MetaColumns...), keys...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range rows {
		rec := make([]string, 0, len(header))
		ip := ""
		if r.IPAddress != nil {
			ip = *r.IPAddress
		}
		rec = append(rec,
			fmt.Sprint(r.ID),
			fmt.Sprint(r.FormID),
			r.CreatedAt.UTC().Format(TimeLayout),
			ip,
		)
		for _, k := range keys {
			rec = append(rec, values[i][k])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the download name for an export taken at now.
func Filename(now time.Time) string {
	return "submissions-" + now.UTC().Format("2006-01-02-150405") + ".csv"
}
