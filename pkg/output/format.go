// Package output provides utilities for formatting and displaying revision results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/loan-revision/internal/revision"
	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/format"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"golang.org/x/text/message"
)

// Write renders result in the named format.
func Write(w io.Writer, outputFormat string, result *revision.Result) error {
	switch outputFormat {
	case "", constants.OutputFormatPretty:
		return PrettyFormat(w, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, result *revision.Result) error {
	p := format.Printer
	var buf bytes.Buffer

	params := result.Parameters
	index := params.CorrectionIndex.String()
	if index == "" {
		index = "none"
	}
	_, _ = p.Fprintf(&buf, "--- Revision %s ---\n", result.RunID)
	_, _ = p.Fprintf(&buf, "Price: %s | Down payment: %s | Financed: %s\n",
		format.Currency(params.Price), format.Currency(params.DownPayment), format.Currency(params.FinancedAmount()))
	_, _ = p.Fprintf(&buf, "Rate: %s %s | Installments: %d | First due: %s | Index: %s\n\n",
		format.Percent(params.InterestRate*constants.PercentageMultiplier), params.RatePeriod,
		params.Installments, params.FirstInstallmentDate, index)

	writeSchedule(&buf, p, "Price", result.Price)
	writeSchedule(&buf, p, "MQJS", result.MQJS)

	cmp := result.Comparison
	_, _ = p.Fprintf(&buf, "--- Comparison (%d installments) ---\n", cmp.PaidCount)
	_, _ = p.Fprintf(&buf, "No.  | Due date   | Price            | MQJS             | Difference       | %%\n")
	_, _ = p.Fprintf(&buf, "___  | __________ | ________________ | ________________ | ________________ | ______\n")
	for _, row := range cmp.Rows {
		_, _ = p.Fprintf(&buf, "%-4d | %s | %16s | %16s | %16s | %s\n",
			row.Number, row.DueDate,
			format.Currency(row.PricePayment), format.Currency(row.MQJSPayment),
			format.Currency(row.Difference), format.Percent(row.PercentDifference))
	}
	_, _ = p.Fprintf(&buf, "Total difference: %s\n", format.Currency(cmp.TotalDifference))
	if next := cmp.NextInstallment; next != nil {
		_, _ = p.Fprintf(&buf, "Next MQJS installment: #%d due %s, %s\n",
			next.Number, next.DueDate, format.Currency(next.EffectivePayment()))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeSchedule(buf *bytes.Buffer, p *message.Printer, name string, schedule []loans.CorrectedInstallment) {
	_, _ = p.Fprintf(buf, "--- %s schedule (%d installments) ---\n", name, len(schedule))
	_, _ = p.Fprintf(buf, "No.  | Due date   | Interest         | Amortization     | Payment          | Balance          | Correction | Corrected\n")
	_, _ = p.Fprintf(buf, "___  | __________ | ________________ | ________________ | ________________ | ________________ | __________ | ________________\n")
	for _, inst := range schedule {
		correction, corrected := "", ""
		if c := inst.Correction; c != nil {
			correction = format.Percent(c.Value)
			corrected = format.Currency(c.Payment)
		}
		_, _ = p.Fprintf(buf, "%-4d | %s | %16s | %16s | %16s | %16s | %10s | %s\n",
			inst.Number, inst.DueDate,
			format.Currency(inst.Interest), format.Currency(inst.Amortization),
			format.Currency(inst.Payment), format.Currency(inst.Balance),
			correction, corrected)
	}
	buf.WriteString("\n")
}

// CsvFormat outputs both schedules side by side in comma-separated value
// format. The difference columns are filled for compared installments only.
func CsvFormat(w io.Writer, result *revision.Result) error {
	cw := csv.NewWriter(w)

	header := []string{"number", "due_date"}
	for _, system := range []string{"price", "mqjs"} {
		header = append(header,
			system+"_interest", system+"_amortization", system+"_payment",
			system+"_balance", system+"_correction_pct", system+"_corrected_payment")
	}
	header = append(header, "difference", "percent_difference")
	if err := cw.Write(header); err != nil {
		return err
	}

	compared := make(map[int]loans.ComparisonRow, len(result.Comparison.Rows))
	for _, row := range result.Comparison.Rows {
		compared[row.Number] = row
	}

	n := len(result.Price)
	if len(result.MQJS) > n {
		n = len(result.MQJS)
	}
	for i := 0; i < n; i++ {
		var number int
		var due string
		record := make([]string, 0, len(header))
		cols := func(schedule []loans.CorrectedInstallment) {
			if i >= len(schedule) {
				record = append(record, "", "", "", "", "", "")
				return
			}
			inst := schedule[i]
			number, due = inst.Number, inst.DueDate
			correction, corrected := "", ""
			if c := inst.Correction; c != nil {
				correction = money(c.Value)
				corrected = money(c.Payment)
			}
			record = append(record,
				money(inst.Interest), money(inst.Amortization), money(inst.Payment),
				money(inst.Balance), correction, corrected)
		}
		cols(result.Price)
		cols(result.MQJS)

		if row, ok := compared[number]; ok {
			record = append(record, money(row.Difference), money(row.PercentDifference))
		} else {
			record = append(record, "", "")
		}
		record = append([]string{strconv.Itoa(number), due}, record...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the full result as indented JSON.
func JSONFormat(w io.Writer, result *revision.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
