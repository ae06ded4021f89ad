// Package domain models the district tree-need lookup dataset.
//
// # Data Source
//
// The dataset is a single JSON object produced by the upstream tree-cover
// pipeline and published as districts_trees_needed_lookup.json. Each member
// maps an arbitrary key to one district record:
//
//	{
//	  "adana|aladağ": {
//	    "province_name": "Adana", "district_name": "Aladağ",
//	    "has_treecover_data": true, "treecover_pct": 18.4,
//	    "potential_treecover_pct": 31.0, "gap_pct": 12.6,
//	    "annual_trees_needed": 41250, "annual_trees_needed_capped": 38000,
//	    "trees_needed_feasible": 380000, "trees_needed_theoretical": 412500,
//	    "years_target": 10
//	  }
//	}
//
// The member keys are informational only. Producers have keyed the file with
// more than one normalization scheme over time, so records are always
// re-addressed from their province_name and district_name fields.
//
// # Canonical Keys
//
// A canonical key is Normalize(province) + "|" + Normalize(district).
// [Normalize] folds Turkish place names to lower-case ASCII tokens:
//
//	"Kaş", "KAŞ", "  kas "     → "kas"
//	"İSTANBUL", "Istanbul"     → "istanbul"
//	"Afyon-Karahisar"          → "afyon karahisar"
//
// Diacritics are folded, not preserved. Two spellings that differ only by
// case, spacing, punctuation or diacritics address the same record. This is
// the contract with the dataset producer; [Index.Audit] reports member keys
// that were written under a different scheme.
//
// # Numeric Fields
//
// Every numeric field may be absent, null, or (in hand-edited files) a value
// of the wrong JSON type. All three decode to an invalid [Number].
//
// Field precedence used by [Resolve]:
//
//	annual: annual_trees_needed_capped → annual_trees_needed → trees_needed / years
//	total:  trees_needed_feasible → trees_needed_theoretical → trees_needed
//	years:  years_target → 10
//
// trees_needed is the legacy total-only shape of early dataset versions.
//
// # Ordering
//
// Provinces and districts are ordered by display label with Turkish
// collation ("Çankırı" before "Denizli", "Kırklareli" before "Kilis").
package domain
