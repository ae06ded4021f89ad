package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// DefaultYearsTarget is the planting horizon used when a record has no years_target.
const DefaultYearsTarget = 10

var jsonNull = []byte("null")

// Number is a nullable JSON number. Null, absent, and non-number values all
// decode to an invalid Number without failing the surrounding record. Null
// is set only for an explicit JSON null, so an absent field can be told apart.
type Number struct {
	Value float64
	Valid bool
	Null  bool
}

// NumberOf returns a valid Number holding v.
func NumberOf(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*n = Number{Null: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Finite() {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// Finite reports whether n holds a finite value.
func (n Number) Finite() bool {
	return n.Valid && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

// Ptr returns the value as a pointer, or nil when n is invalid.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Flag is a boolean that is true only for the JSON literal true.
// Strings such as "true" and numbers such as 1 decode to false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(bytes.Equal(bytes.TrimSpace(data), []byte("true")))
	return nil
}

// Name is a place-name field. Non-string JSON values decode to "".
type Name string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Name) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*n = ""
		return nil
	}
	*n = Name(s)
	return nil
}

// RawRecord is one district record as published in the lookup dataset.
type RawRecord struct {
	ProvinceName string `json:"province_name"`
	DistrictName string `json:"district_name"`

	HasTreecoverData      Flag   `json:"has_treecover_data"`
	TreecoverPct          Number `json:"treecover_pct"`
	PotentialTreecoverPct Number `json:"potential_treecover_pct"`
	GapPct                Number `json:"gap_pct"`

	AnnualTreesNeeded       Number `json:"annual_trees_needed"`
	AnnualTreesNeededCapped Number `json:"annual_trees_needed_capped"`
	TreesNeededFeasible     Number `json:"trees_needed_feasible"`
	TreesNeededTheoretical  Number `json:"trees_needed_theoretical"`
	TreesNeeded             Number `json:"trees_needed"` // legacy total-only field
	YearsTarget             Number `json:"years_target"`
}

// rawRecordJSON mirrors RawRecord with tolerant name fields for decoding.
type rawRecordJSON struct {
	ProvinceName Name `json:"province_name"`
	DistrictName Name `json:"district_name"`

	HasTreecoverData      Flag   `json:"has_treecover_data"`
	TreecoverPct          Number `json:"treecover_pct"`
	PotentialTreecoverPct Number `json:"potential_treecover_pct"`
	GapPct                Number `json:"gap_pct"`

	AnnualTreesNeeded       Number `json:"annual_trees_needed"`
	AnnualTreesNeededCapped Number `json:"annual_trees_needed_capped"`
	TreesNeededFeasible     Number `json:"trees_needed_feasible"`
	TreesNeededTheoretical  Number `json:"trees_needed_theoretical"`
	TreesNeeded             Number `json:"trees_needed"`
	YearsTarget             Number `json:"years_target"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var aux rawRecordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RawRecord{
		ProvinceName:            string(aux.ProvinceName),
		DistrictName:            string(aux.DistrictName),
		HasTreecoverData:        aux.HasTreecoverData,
		TreecoverPct:            aux.TreecoverPct,
		PotentialTreecoverPct:   aux.PotentialTreecoverPct,
		GapPct:                  aux.GapPct,
		AnnualTreesNeeded:       aux.AnnualTreesNeeded,
		AnnualTreesNeededCapped: aux.AnnualTreesNeededCapped,
		TreesNeededFeasible:     aux.TreesNeededFeasible,
		TreesNeededTheoretical:  aux.TreesNeededTheoretical,
		TreesNeeded:             aux.TreesNeeded,
		YearsTarget:             aux.YearsTarget,
	}
	return nil
}

// Years returns the planting horizon in whole years. Missing, non-finite and
// out-of-range values fall back to DefaultYearsTarget.
func (r *RawRecord) Years() int {
	if !r.YearsTarget.Finite() || r.YearsTarget.Value < 1 || r.YearsTarget.Value > math.MaxInt32 {
		return DefaultYearsTarget
	}
	return int(math.Trunc(r.YearsTarget.Value))
}
