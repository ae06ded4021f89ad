package domain

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ProvinceEntry is one option in the province list.
type ProvinceEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DistrictEntry is one option in a province's district list.
type DistrictEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Collision records a dataset member that replaced an earlier one under the
// same canonical key.
type Collision struct {
	Key      string `json:"key"`
	Replaced string `json:"replaced"`
	By       string `json:"by"`
}

// KeyMismatch records a dataset member whose own key differs from the
// canonical key computed from its names.
type KeyMismatch struct {
	DatasetKey   string `json:"dataset_key"`
	CanonicalKey string `json:"canonical_key"`
}

// BuildStats summarizes one index build.
type BuildStats struct {
	Entries      int `json:"entries"`
	Indexed      int `json:"indexed"`
	Malformed    int `json:"malformed"`
	MissingName  int `json:"missing_name"`
	EmptyKey     int `json:"empty_key"`
	Collisions   int `json:"collisions"`
	KeyMismatch  int `json:"key_mismatches"`
	Provinces    int `json:"provinces"`
	Districts    int `json:"districts"`
	SkippedTotal int `json:"skipped"`
}

// Index is an immutable snapshot derived from one dataset. Accessors return
// copies; nothing mutates an Index after Build returns.
type Index struct {
	records    map[string]RawRecord
	provinces  []ProvinceEntry
	districts  map[string][]DistrictEntry
	stats      BuildStats
	collisions []Collision
	mismatches []KeyMismatch
	skipped    []string
}

// Build derives the canonical index and sorted option lists from a dataset.
// Entries without an addressable province and district are skipped. Later
// entries replace earlier ones under the same canonical key.
func Build(ds Dataset, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	idx := &Index{
		records:   make(map[string]RawRecord, len(ds.Entries)),
		districts: make(map[string][]DistrictEntry),
	}
	idx.stats.Entries = len(ds.Entries)

	owners := make(map[string]string, len(ds.Entries))
	seenDistrict := make(map[string]struct{}, len(ds.Entries))

	for _, e := range ds.Entries {
		if e.Malformed {
			idx.stats.Malformed++
			idx.skipped = append(idx.skipped, e.Key)
			continue
		}
		rec := e.Record
		provinceLabel := strings.TrimSpace(rec.ProvinceName)
		districtLabel := strings.TrimSpace(rec.DistrictName)
		if provinceLabel == "" || districtLabel == "" {
			idx.stats.MissingName++
			idx.skipped = append(idx.skipped, e.Key)
			continue
		}

		pk, dk := Normalize(provinceLabel), Normalize(districtLabel)
		if pk == "" || dk == "" {
			idx.stats.EmptyKey++
			idx.skipped = append(idx.skipped, e.Key)
			continue
		}
		key := JoinKey(pk, dk)

		if _, ok := idx.districts[pk]; !ok {
			idx.provinces = append(idx.provinces, ProvinceEntry{Key: pk, Label: provinceLabel})
			idx.districts[pk] = nil
		}
		if _, ok := seenDistrict[key]; !ok {
			seenDistrict[key] = struct{}{}
			idx.districts[pk] = append(idx.districts[pk], DistrictEntry{Key: dk, Label: districtLabel})
		}

		if prev, ok := owners[key]; ok {
			idx.stats.Collisions++
			idx.collisions = append(idx.collisions, Collision{Key: key, Replaced: prev, By: e.Key})
			logger.Debug("canonical key collision, keeping later entry",
				"key", key,
				"replaced", prev,
				"by", e.Key,
			)
		}
		if e.Key != key {
			idx.mismatches = append(idx.mismatches, KeyMismatch{DatasetKey: e.Key, CanonicalKey: key})
		}
		owners[key] = e.Key
		idx.records[key] = rec
	}

	sortOptions(idx.provinces, func(p ProvinceEntry) (string, string) { return p.Label, p.Key })
	for pk, list := range idx.districts {
		sortOptions(list, func(d DistrictEntry) (string, string) { return d.Label, d.Key })
		idx.districts[pk] = list
		idx.stats.Districts += len(list)
	}

	idx.stats.Indexed = len(idx.records)
	idx.stats.Provinces = len(idx.provinces)
	idx.stats.KeyMismatch = len(idx.mismatches)
	idx.stats.SkippedTotal = idx.stats.Malformed + idx.stats.MissingName + idx.stats.EmptyKey
	return idx
}

// sortOptions orders by label with Turkish collation, ignoring case. Equal
// labels fall back to key order so the result is deterministic.
func sortOptions[T any](items []T, fields func(T) (label, key string)) {
	col := collate.New(language.Turkish, collate.IgnoreCase)
	slices.SortStableFunc(items, func(a, b T) int {
		la, ka := fields(a)
		lb, kb := fields(b)
		if c := col.CompareString(la, lb); c != 0 {
			return c
		}
		return strings.Compare(ka, kb)
	})
}

// Lookup returns the record stored under a composite key.
func (idx *Index) Lookup(key string) (RawRecord, bool) {
	if idx == nil {
		return RawRecord{}, false
	}
	rec, ok := idx.records[key]
	return rec, ok
}

// LookupNames normalizes free-text names and looks up their record.
func (idx *Index) LookupNames(province, district string) (RawRecord, bool) {
	return idx.Lookup(CompositeKey(province, district))
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.records)
}

// Provinces returns the sorted province list.
func (idx *Index) Provinces() []ProvinceEntry {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.provinces)
}

// Districts returns the sorted district list of a province key.
func (idx *Index) Districts(provinceKey string) []DistrictEntry {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.districts[provinceKey])
}

// Province returns the province entry for a key.
func (idx *Index) Province(key string) (ProvinceEntry, bool) {
	if idx == nil || key == "" {
		return ProvinceEntry{}, false
	}
	i := slices.IndexFunc(idx.provinces, func(p ProvinceEntry) bool { return p.Key == key })
	if i < 0 {
		return ProvinceEntry{}, false
	}
	return idx.provinces[i], true
}

// District returns the district entry for a key within a province.
func (idx *Index) District(provinceKey, districtKey string) (DistrictEntry, bool) {
	if idx == nil || districtKey == "" {
		return DistrictEntry{}, false
	}
	list := idx.districts[provinceKey]
	i := slices.IndexFunc(list, func(d DistrictEntry) bool { return d.Key == districtKey })
	if i < 0 {
		return DistrictEntry{}, false
	}
	return list[i], true
}

// Stats returns the build summary.
func (idx *Index) Stats() BuildStats {
	if idx == nil {
		return BuildStats{}
	}
	return idx.stats
}

// Each visits every indexed record in province then district order.
func (idx *Index) Each(fn func(p ProvinceEntry, d DistrictEntry, rec RawRecord)) {
	if idx == nil {
		return
	}
	for _, p := range idx.provinces {
		for _, d := range idx.districts[p.Key] {
			fn(p, d, idx.records[JoinKey(p.Key, d.Key)])
		}
	}
}
