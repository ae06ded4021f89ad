package domain

import "math"

// Status classifies a resolved record.
type Status string

const (
	StatusNoRecord       Status = "no-record"
	StatusNoCoverageData Status = "no-coverage-data"
	StatusUnresolvable   Status = "unresolvable"
	StatusZeroNeed       Status = "zero-need"
	StatusOK             Status = "ok"
)

// Resolution holds the display-ready values derived from one record.
type Resolution struct {
	Status       Status   `json:"status"`
	Annual       *float64 `json:"annual"`
	AnnualSource string   `json:"annual_source,omitempty"`
	Total        *float64 `json:"total"`
	TotalSource  string   `json:"total_source,omitempty"`
	Years        int      `json:"years"`

	TreecoverPct          *float64 `json:"treecover_pct"`
	PotentialTreecoverPct *float64 `json:"potential_treecover_pct"`
	GapPct                *float64 `json:"gap_pct"`
}

type numberField struct {
	name string
	get  func(*RawRecord) Number
}

// annualFields and totalFields are the precedence lists, first match wins.
var (
	annualFields = []numberField{
		{"annual_trees_needed_capped", func(r *RawRecord) Number { return r.AnnualTreesNeededCapped }},
		{"annual_trees_needed", func(r *RawRecord) Number { return r.AnnualTreesNeeded }},
	}
	totalFields = []numberField{
		{"trees_needed_feasible", func(r *RawRecord) Number { return r.TreesNeededFeasible }},
		{"trees_needed_theoretical", func(r *RawRecord) Number { return r.TreesNeededTheoretical }},
		{"trees_needed", func(r *RawRecord) Number { return r.TreesNeeded }},
	}
)

// Resolve derives annual and total targets from a record and classifies it.
// Classification order: no-record, no-coverage-data, unresolvable,
// zero-need, ok.
func Resolve(rec *RawRecord) Resolution {
	if rec == nil {
		return Resolution{Status: StatusNoRecord, Years: DefaultYearsTarget}
	}

	years := rec.Years()
	annual, annualSource := resolveAnnual(rec, years)
	total, totalSource := firstValid(rec, totalFields)

	res := Resolution{
		Annual:                annual.Ptr(),
		AnnualSource:          annualSource,
		Total:                 total.Ptr(),
		TotalSource:           totalSource,
		Years:                 years,
		TreecoverPct:          rec.TreecoverPct.Ptr(),
		PotentialTreecoverPct: rec.PotentialTreecoverPct.Ptr(),
		GapPct:                rec.GapPct.Ptr(),
	}

	switch {
	// Only an explicit null percentage means the district has no coverage
	// data; an absent field does not.
	case !bool(rec.HasTreecoverData) || rec.TreecoverPct.Null:
		res.Status = StatusNoCoverageData
	case !annual.Finite():
		res.Status = StatusUnresolvable
	case annual.Value == 0:
		res.Status = StatusZeroNeed
	default:
		res.Status = StatusOK
	}
	return res
}

// resolveAnnual falls back to the legacy total spread over the horizon when
// neither annual field is present.
func resolveAnnual(rec *RawRecord, years int) (Number, string) {
	if n, name := firstValid(rec, annualFields); n.Valid {
		return n, name
	}
	if rec.TreesNeeded.Valid {
		return NumberOf(rec.TreesNeeded.Value / float64(years)), "trees_needed"
	}
	return Number{}, ""
}

func firstValid(rec *RawRecord, fields []numberField) (Number, string) {
	for _, f := range fields {
		if n := f.get(rec); n.Valid && !math.IsNaN(n.Value) {
			return n, f.name
		}
	}
	return Number{}, ""
}
