package feature

// CompareStore is a Store of reference features that also carries
// per-feature NET standard deviation and discriminant score. The extended
// attributes are stored at the same position as the base record.
type CompareStore struct {
	base *Store
	ext  []ExtAttr
}

// NewCompareStore creates an empty comparison store
func NewCompareStore(lookup Lookup, capacity int) *CompareStore {
	base := NewStore(lookup, capacity)
	return &CompareStore{
		base: base,
		ext:  make([]ExtAttr, 0, cap(base.recs)),
	}
}

// Add adds a reference feature. Extended attributes are only recorded
// when the base record was accepted.
func (c *CompareStore) Add(id int, name string, mass float64, net float32,
	netStdDev float32, discriminantScore float32) bool {
	if !c.base.Add(id, name, mass, net) {
		return false
	}
	if len(c.ext) == cap(c.ext) {
		ext := make([]ExtAttr, len(c.ext), cap(c.base.recs))
		copy(ext, c.ext)
		c.ext = ext
	}
	c.ext = append(c.ext, ExtAttr{
		NETStdDev:         netStdDev,
		DiscriminantScore: discriminantScore,
	})
	return true
}

// NETStdDevByPosition returns the NET standard deviation of the feature at
// pos, or 0 if pos is out of range.
func (c *CompareStore) NETStdDevByPosition(pos int) float32 {
	if !c.inRange(pos) {
		return 0
	}
	return c.ext[pos].NETStdDev
}

// ExtByPosition returns the extended attributes of the feature at pos
func (c *CompareStore) ExtByPosition(pos int) (ExtAttr, bool) {
	if !c.inRange(pos) {
		return ExtAttr{}, false
	}
	return c.ext[pos], true
}

func (c *CompareStore) inRange(pos int) bool {
	return pos >= 0 && pos < c.base.Count() && pos < len(c.ext)
}

func (c *CompareStore) Count() int                         { return c.base.Count() }
func (c *CompareStore) Contains(id int) bool               { return c.base.Contains(id) }
func (c *CompareStore) ByID(id int) (Feature, bool)        { return c.base.ByID(id) }
func (c *CompareStore) ByPosition(pos int) (Feature, bool) { return c.base.ByPosition(pos) }
func (c *CompareStore) MassSlice(start, end int) []float64 { return c.base.MassSlice(start, end) }

// Clear removes all features and their extended attributes
func (c *CompareStore) Clear() {
	c.base.Clear()
	c.ext = c.ext[:0]
}
