package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dutycalc/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (19 columns).
var columns = []string{
	"Item",
	"HS Code",
	"Country",
	"Customs Value",
	"Calculation Date",
	"Best Rate Type",
	"General Duty",
	"FTA Duty",
	"FTA Agreement",
	"Anti-Dumping Duty",
	"Countervailing Duty",
	"Total Duty",
	"Duty-Inclusive Value",
	"GST",
	"Total Amount",
	"TCO Reference",
	"Degraded Sources",
	"Error Code",
	"Error Message",
}

// Row is one batch entry to export. Result is nil when the calculation
// failed, in which case the error columns are filled.
type Row struct {
	Index        int
	Result       *domain.DutyCalculationResult
	ErrorCode    string
	ErrorMessage string
}

// Writer wraps csv.Writer for exporting calculation results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRows converts batch entries to CSV rows and writes them.
func (w *Writer) WriteRows(rows []Row) error {
	for i := range rows {
		if err := w.csv.Write(resultToRow(&rows[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// resultToRow converts a single entry to a 19-element string slice. Failed
// entries only carry the item number and the error columns.
func resultToRow(r *Row) []string {
	row := make([]string, len(columns))
	row[0] = strconv.Itoa(r.Index + 1)
	row[17] = r.ErrorCode
	row[18] = r.ErrorMessage

	res := r.Result
	if res == nil {
		return row
	}

	row[1] = res.Input.HSCode
	row[2] = res.Input.CountryCode
	row[3] = formatMoney(res.Input.CustomsValue)
	row[4] = formatDate(res.Input.CalculationDate)
	row[5] = string(res.BestRateType)
	row[6] = componentAmount(res.Component(domain.DutyKindGeneral))
	if fta := res.Component(domain.DutyKindFTA); fta != nil {
		row[7] = formatMoney(fta.Amount)
		row[8] = fta.Reference
	}
	row[9] = componentAmount(res.Component(domain.DutyKindAntiDumping))
	row[10] = componentAmount(res.Component(domain.DutyKindCountervailing))
	row[11] = formatMoney(res.TotalDuty)
	row[12] = formatMoney(res.DutyInclusiveValue)
	row[13] = formatMoney(res.TotalGST)
	row[14] = formatMoney(res.TotalAmount)
	if res.TCOExemption != nil {
		row[15] = res.TCOExemption.ReferenceNumber
	}
	row[16] = strings.Join(res.DegradedSources, ";")

	return row
}

func componentAmount(c *domain.DutyComponent) string {
	if c == nil {
		return ""
	}
	return formatMoney(c.Amount)
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string, now time.Time) string {
	sanitized := SanitizeFilename(name)
	return fmt.Sprintf("%s_%s.csv", sanitized, now.Format(domain.DateLayout))
}
