package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionIndex() *Index {
	return Build(Dataset{Entries: []DatasetEntry{
		{Key: "1", Record: record("Muğla", "Ula")},
		{Key: "2", Record: record("Muğla", "Bodrum")},
		{Key: "3", Record: record("Adana", "Seyhan")},
		{Key: "4", Record: record("Adana", "Çukurova")},
		{Key: "5", Record: record("İzmir", "Karşıyaka")},
	}}, nil)
}

// assertConsistent checks the selection invariant against the controller's lists.
func assertConsistent(t *testing.T, c *SelectionController) {
	t.Helper()
	sel := c.Selection()
	provinces := c.Provinces()
	if len(provinces) == 0 {
		assert.Equal(t, Selection{}, sel)
		return
	}
	require.True(t, slices.ContainsFunc(provinces, func(p ProvinceEntry) bool { return p.Key == sel.ProvinceKey }),
		"province %q not in list", sel.ProvinceKey)
	districts := c.Districts(sel.ProvinceKey)
	if len(districts) == 0 {
		assert.Empty(t, sel.DistrictKey)
		return
	}
	assert.True(t, slices.ContainsFunc(districts, func(d DistrictEntry) bool { return d.Key == sel.DistrictKey }),
		"district %q not in list of %q", sel.DistrictKey, sel.ProvinceKey)
	assert.Equal(t, SelectionConsistent, c.State())
}

func TestSelectionController_Uninitialized(t *testing.T) {
	c := NewSelectionController()

	assert.Equal(t, SelectionUninitialized, c.State())
	assert.Equal(t, Selection{}, c.SelectProvince("Adana"))
	assert.Equal(t, Selection{}, c.SelectDistrict("Seyhan"))
	assert.Empty(t, c.Selection().Key())

	c.SetIndex(Build(Dataset{}, nil))
	assert.Equal(t, SelectionUninitialized, c.State())
	assert.Equal(t, Selection{}, c.Selection())
}

func TestSelectionController_SetIndexSelectsFirst(t *testing.T) {
	c := NewSelectionController()

	sel := c.SetIndex(selectionIndex())

	assert.Equal(t, Selection{ProvinceKey: "adana", DistrictKey: "cukurova"}, sel)
	assert.Equal(t, "adana|cukurova", sel.Key())
	assertConsistent(t, c)
}

func TestSelectionController_SwitchingProvinceResetsDistrict(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())
	c.SelectDistrict("Seyhan")
	require.Equal(t, "seyhan", c.Selection().DistrictKey)

	sel := c.SelectProvince("Muğla")

	assert.Equal(t, Selection{ProvinceKey: "mugla", DistrictKey: "bodrum"}, sel)
	assertConsistent(t, c)

	// Reselecting the same province keeps the district.
	c.SelectDistrict("ula")
	sel = c.SelectProvince("MUGLA")
	assert.Equal(t, "ula", sel.DistrictKey)
}

func TestSelectionController_UnknownInputsRepair(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())
	c.SelectProvince("izmir")

	sel := c.SelectProvince("Atlantis")
	assert.Equal(t, Selection{ProvinceKey: "adana", DistrictKey: "cukurova"}, sel)

	c.SelectDistrict("Seyhan")
	sel = c.SelectDistrict("Kaş")
	assert.Equal(t, Selection{ProvinceKey: "adana", DistrictKey: "cukurova"}, sel)

	sel = c.SelectDistrict("")
	assert.Equal(t, "cukurova", sel.DistrictKey)
	assertConsistent(t, c)
}

func TestSelectionController_DistrictFromOtherProvinceRejected(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())

	sel := c.SelectDistrict("Bodrum")

	assert.Equal(t, Selection{ProvinceKey: "adana", DistrictKey: "cukurova"}, sel)
}

func TestSelectionController_Select(t *testing.T) {
	tests := []struct {
		name     string
		province string
		district string
		expected Selection
	}{
		{"both valid", "Muğla", "Ula", Selection{"mugla", "ula"}},
		{"folded spelling", "mugla", "ULA", Selection{"mugla", "ula"}},
		{"province only", "İzmir", "", Selection{"izmir", "karsiyaka"}},
		{"bad district", "Adana", "Bodrum", Selection{"adana", "cukurova"}},
		{"bad province", "Nowhere", "Seyhan", Selection{"adana", "seyhan"}},
		{"empty", "", "", Selection{"adana", "cukurova"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSelectionController()
			c.SetIndex(selectionIndex())
			assert.Equal(t, tt.expected, c.Select(tt.province, tt.district))
			assertConsistent(t, c)
		})
	}
}

func TestSelectionController_InvariantAcrossSequences(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())

	inputs := []string{"", "Adana", "Seyhan", "Muğla", "Ula", "Bodrum", "İzmir", "Karşıyaka", "x", "ÇUKUROVA", "  adana  "}
	for _, p := range inputs {
		for _, d := range inputs {
			c.Select(p, d)
			assertConsistent(t, c)
		}
	}
}

func TestSelectionController_ReloadRepairs(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())
	c.Select("Muğla", "Ula")

	next := Build(Dataset{Entries: []DatasetEntry{
		{Key: "1", Record: record("Muğla", "Fethiye")},
		{Key: "2", Record: record("Bursa", "Nilüfer")},
	}}, nil)
	sel := c.SetIndex(next)

	assert.Equal(t, Selection{ProvinceKey: "bursa", DistrictKey: "nilufer"}, sel)
	assertConsistent(t, c)
	assert.Same(t, next, c.Index())
}

func TestSelectionController_Clear(t *testing.T) {
	c := NewSelectionController()
	c.SetIndex(selectionIndex())

	c.Clear()

	assert.Equal(t, Selection{}, c.Selection())
	assert.Nil(t, c.Index())
	assert.Empty(t, c.Provinces())
	assert.Equal(t, SelectionUninitialized, c.State())
}

func TestSelection_Key(t *testing.T) {
	assert.Equal(t, "adana|seyhan", Selection{ProvinceKey: "adana", DistrictKey: "seyhan"}.Key())
	assert.Empty(t, Selection{ProvinceKey: "adana"}.Key())
	assert.Empty(t, Selection{}.Key())
}

func TestSelectionController_UseNormalizer(t *testing.T) {
	var calls int
	c := NewSelectionController()
	c.UseNormalizer(func(s string) string {
		calls++
		return Normalize(s)
	})
	c.SetIndex(selectionIndex())

	sel := c.Select("Muğla", "Ula")

	assert.Equal(t, Selection{ProvinceKey: "mugla", DistrictKey: "ula"}, sel)
	assert.Equal(t, 2, calls)

	c.UseNormalizer(nil)
	assert.Equal(t, Selection{ProvinceKey: "izmir", DistrictKey: "karsiyaka"}, c.Select("İzmir", ""))
	assert.Equal(t, 2, calls)
}
