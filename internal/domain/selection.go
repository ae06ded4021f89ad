package domain

// Selection is the current province/district choice, held as canonical tokens.
type Selection struct {
	ProvinceKey string `json:"province"`
	DistrictKey string `json:"district"`
}

// Key returns the composite lookup key, or "" when either part is empty.
func (s Selection) Key() string {
	return JoinKey(s.ProvinceKey, s.DistrictKey)
}

// SelectionState classifies a selection against the current lists.
type SelectionState string

const (
	SelectionUninitialized SelectionState = "uninitialized"
	SelectionProvinceOnly  SelectionState = "province-only"
	SelectionConsistent    SelectionState = "consistent"
)

// SelectionController owns the dependent province → district selection.
// Every mutation runs the repair pass before returning, so callers only ever
// observe a selection where both keys are empty or both address entries of
// the current index (or the province has no districts and the district key
// is empty).
//
// SelectionController is not safe for concurrent use; the lookup service
// serializes access.
type SelectionController struct {
	index     *Index
	sel       Selection
	normalize func(string) string
}

// NewSelectionController returns a controller with no index.
func NewSelectionController() *SelectionController {
	return &SelectionController{normalize: Normalize}
}

// UseNormalizer replaces the function applied to selection input. fn must
// return the same tokens as Normalize; a memoizing wrapper is the intended use.
func (c *SelectionController) UseNormalizer(fn func(string) string) {
	if fn == nil {
		fn = Normalize
	}
	c.normalize = fn
}

// SetIndex replaces the dataset snapshot. The selection resets and then
// repairs to the first province and its first district.
func (c *SelectionController) SetIndex(idx *Index) Selection {
	c.index = idx
	c.sel = Selection{}
	c.repair("")
	return c.sel
}

// Clear drops the snapshot and empties the selection.
func (c *SelectionController) Clear() {
	c.index = nil
	c.sel = Selection{}
}

// Index returns the snapshot the controller currently serves.
func (c *SelectionController) Index() *Index {
	return c.index
}

// Selection returns the current selection.
func (c *SelectionController) Selection() Selection {
	return c.sel
}

// Provinces returns the current province list.
func (c *SelectionController) Provinces() []ProvinceEntry {
	return c.index.Provinces()
}

// Districts returns the district list of a province key.
func (c *SelectionController) Districts(provinceKey string) []DistrictEntry {
	return c.index.Districts(c.normalize(provinceKey))
}

// SelectProvince selects a province. Input is normalized, so display names
// and keys are both accepted. Changing province resets the district to the
// first one of the new province; an unknown province repairs to the first.
func (c *SelectionController) SelectProvince(province string) Selection {
	prev := c.sel.ProvinceKey
	c.sel.ProvinceKey = c.normalize(province)
	c.repair(prev)
	return c.sel
}

// SelectDistrict selects a district within the current province. An unknown
// district repairs to the first district of the province.
func (c *SelectionController) SelectDistrict(district string) Selection {
	c.sel.DistrictKey = c.normalize(district)
	c.repair(c.sel.ProvinceKey)
	return c.sel
}

// Select applies a province and then, when non-empty, a district choice.
func (c *SelectionController) Select(province, district string) Selection {
	c.SelectProvince(province)
	if district != "" {
		c.SelectDistrict(district)
	}
	return c.sel
}

// State classifies the current selection.
func (c *SelectionController) State() SelectionState {
	if c.index == nil || len(c.index.provinces) == 0 {
		return SelectionUninitialized
	}
	if _, ok := c.index.Province(c.sel.ProvinceKey); !ok {
		return SelectionProvinceOnly
	}
	districts := c.index.districts[c.sel.ProvinceKey]
	if len(districts) == 0 && c.sel.DistrictKey == "" {
		return SelectionConsistent
	}
	if _, ok := c.index.District(c.sel.ProvinceKey, c.sel.DistrictKey); ok {
		return SelectionConsistent
	}
	return SelectionProvinceOnly
}

// repair restores the selection invariant. prevProvince is the province key
// before the mutation that triggered the pass.
func (c *SelectionController) repair(prevProvince string) {
	if c.index == nil || len(c.index.provinces) == 0 {
		c.sel = Selection{}
		return
	}

	if _, ok := c.index.Province(c.sel.ProvinceKey); !ok {
		c.sel.ProvinceKey = c.index.provinces[0].Key
	}

	districts := c.index.districts[c.sel.ProvinceKey]
	first := ""
	if len(districts) > 0 {
		first = districts[0].Key
	}

	if c.sel.ProvinceKey != prevProvince {
		c.sel.DistrictKey = first
		return
	}
	if _, ok := c.index.District(c.sel.ProvinceKey, c.sel.DistrictKey); !ok {
		c.sel.DistrictKey = first
	}
}
