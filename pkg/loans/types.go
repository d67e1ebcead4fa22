package loans

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RatePeriod tells whether LoanParameters.InterestRate is quoted per year or per month.
type RatePeriod int

const (
	// RateAnnual marks a nominal annual rate (e.g. 0.14 for 14% a.a.).
	RateAnnual RatePeriod = iota + 1
	// RateMonthly marks a rate already expressed per month.
	RateMonthly
)

// ParseRatePeriod converts "annual"/"monthly" (case-insensitive) to a RatePeriod.
func ParseRatePeriod(s string) (RatePeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "yearly", "a.a.":
		return RateAnnual, nil
	case "monthly", "a.m.":
		return RateMonthly, nil
	default:
		return 0, fmt.Errorf("unknown rate period %q: expected annual or monthly", s)
	}
}

func (p RatePeriod) String() string {
	switch p {
	case RateAnnual:
		return "annual"
	case RateMonthly:
		return "monthly"
	default:
		return fmt.Sprintf("RatePeriod(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared periods.
func (p RatePeriod) Valid() bool {
	return p == RateAnnual || p == RateMonthly
}

// MarshalText implements encoding.TextMarshaler.
func (p RatePeriod) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid rate period %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *RatePeriod) UnmarshalText(text []byte) error {
	parsed, err := ParseRatePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IndexFamily selects the monetary-correction index. The zero value means no
// correction.
type IndexFamily int

const (
	// IndexNone disables monetary correction.
	IndexNone IndexFamily = iota
	// IndexINCC is the national construction cost index.
	IndexINCC
	// IndexIPCA is the broad consumer price index.
	IndexIPCA
)

// IndexFamilies lists every selectable index, in storage order.
var IndexFamilies = []IndexFamily{IndexINCC, IndexIPCA}

// ParseIndexFamily converts "INCC"/"IPCA" (case-insensitive) to an IndexFamily.
// An empty string yields IndexNone.
func ParseIndexFamily(s string) (IndexFamily, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return IndexNone, nil
	case "INCC":
		return IndexINCC, nil
	case "IPCA":
		return IndexIPCA, nil
	default:
		return IndexNone, fmt.Errorf("unknown correction index %q: expected INCC or IPCA", s)
	}
}

func (f IndexFamily) String() string {
	switch f {
	case IndexNone:
		return ""
	case IndexINCC:
		return "INCC"
	case IndexIPCA:
		return "IPCA"
	default:
		return fmt.Sprintf("IndexFamily(%d)", int(f))
	}
}

// Valid reports whether f is IndexNone or a declared index.
func (f IndexFamily) Valid() bool {
	return f >= IndexNone && f <= IndexIPCA
}

// MarshalText implements encoding.TextMarshaler.
func (f IndexFamily) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid index family %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *IndexFamily) UnmarshalText(text []byte) error {
	parsed, err := ParseIndexFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// LoanParameters holds the contract terms a schedule is generated from.
type LoanParameters struct {
	Price                float64     `json:"price"`
	DownPayment          float64     `json:"downPayment"`
	InterestRate         float64     `json:"interestRate"`
	RatePeriod           RatePeriod  `json:"ratePeriod"`
	Installments         int         `json:"installments"`
	ContractDate         string      `json:"contractDate,omitempty"`
	FirstInstallmentDate string      `json:"firstInstallmentDate"`
	CorrectionIndex      IndexFamily `json:"correctionIndex,omitempty"`
}

// FinancedAmount is the price minus the down payment.
func (p LoanParameters) FinancedAmount() float64 {
	return p.Price - p.DownPayment
}

// Installment is one row of an amortization schedule.
type Installment struct {
	Number       int     `json:"number"`
	DueDate      string  `json:"dueDate"`
	Interest     float64 `json:"interest"`
	Amortization float64 `json:"amortization"`
	Payment      float64 `json:"payment"`
	Balance      float64 `json:"balance"`
}

// Correction holds the monetary-correction values applied to a matured installment.
type Correction struct {
	// AccumulatedIndex is the index accumulated value on the last day of the due month.
	AccumulatedIndex float64 `json:"accumulatedIndex"`
	// AccumulatedPercent is the running correction as a fraction (0.0123 = 1.23%).
	AccumulatedPercent float64 `json:"accumulatedPercent"`
	// Value is AccumulatedPercent expressed in percent, rounded to 2 places.
	Value        float64 `json:"value"`
	Payment      float64 `json:"payment"`
	Interest     float64 `json:"interest"`
	Amortization float64 `json:"amortization"`
}

// CorrectedInstallment is an Installment after the correction pass.
type CorrectedInstallment struct {
	Installment
	Index      IndexFamily `json:"index,omitempty"`
	Matured    bool        `json:"matured,omitempty"`
	Correction *Correction `json:"correction,omitempty"`
}

// EffectivePayment returns the corrected payment when a correction was
// applied and the original payment otherwise.
func (c CorrectedInstallment) EffectivePayment() float64 {
	if c.Correction != nil {
		return c.Correction.Payment
	}
	return c.Payment
}

// Uncorrected lifts a raw schedule into CorrectedInstallments without any
// correction data.
func Uncorrected(schedule []Installment) []CorrectedInstallment {
	out := make([]CorrectedInstallment, len(schedule))
	for i, inst := range schedule {
		out[i] = CorrectedInstallment{Installment: inst}
	}
	return out
}

// IndexDailyPoint is the accumulated index value of one family on one day.
type IndexDailyPoint struct {
	Family      IndexFamily     `json:"family"`
	Date        string          `json:"date"`
	DailyIndex  decimal.Decimal `json:"dailyIndex"`
	Accumulated decimal.Decimal `json:"accumulated"`
}

// IndexMonthlyPoint is the monthly variation of one family, dated on the first
// day of its month.
type IndexMonthlyPoint struct {
	Family       IndexFamily     `json:"family"`
	Date         string          `json:"date"`
	MonthlyIndex decimal.Decimal `json:"monthlyIndex"`
	DailyIndex   decimal.Decimal `json:"dailyIndex"`
}

// ComparisonRow is the Price-versus-MQJS difference for one paid installment.
type ComparisonRow struct {
	Number            int     `json:"number"`
	DueDate           string  `json:"dueDate"`
	PricePayment      float64 `json:"pricePayment"`
	MQJSPayment       float64 `json:"mqjsPayment"`
	Difference        float64 `json:"difference"`
	PercentDifference float64 `json:"percentDifference"`
}

// ScheduleComparison summarizes how much more was paid under Price than MQJS.
type ScheduleComparison struct {
	PaidCount       int                   `json:"paidCount"`
	Rows            []ComparisonRow       `json:"rows"`
	TotalDifference float64               `json:"totalDifference"`
	NextInstallment *CorrectedInstallment `json:"nextInstallment,omitempty"`
}
