package feature

// Feature is a measured or candidate entity: identity plus mass and
// normalized elution time (NET). Values are never modified after Add.
type Feature struct {
	ID   int
	Name string
	Mass float64 // Uncharged monoisotopic mass
	NET  float32 // Normalized elution time, approximately 0..1
}

// Lookup selects how a Store resolves ids to positions
type Lookup int

const (
	// LookupMap keeps an id->position hash map, O(1) lookups at the cost of memory
	LookupMap Lookup = iota
	// LookupSearch binary searches an id-sorted index that is rebuilt lazily
	LookupSearch
)

func (l Lookup) String() string {
	switch l {
	case LookupMap:
		return "map"
	case LookupSearch:
		return "search"
	}
	return "unknown"
}

// ExtAttr holds the additional statistics that are known for comparison
// (reference) features.
type ExtAttr struct {
	NETStdDev         float32
	DiscriminantScore float32
}
