package match

import "runtime"

// DefaultMaxResults is the default number of results kept per feature
const DefaultMaxResults = 3

// Options configure an Engine
type Options struct {
	// Number of best scoring results to keep per feature, at least 1
	MaxResultsPerFeature int `json:"maxResultsPerFeature" yaml:"max_results_per_feature" msgpack:"maxResultsPerFeature"`
	// Only accept candidates inside the tolerance ellipse in the first pass.
	// Has no effect when UseBroadDistanceAndScoring is set.
	UseEllipseRegion bool `json:"useEllipseRegion" yaml:"use_ellipse_region" msgpack:"useEllipseRegion"`
	// Search with the broad tolerances first, then score and filter with
	// the final tolerances
	UseBroadDistanceAndScoring bool `json:"useBroadDistanceAndScoring" yaml:"use_broad_distance_and_scoring" msgpack:"useBroadDistanceAndScoring"`
	// Combine the configured NET deviation with that of each comparison
	// feature
	UsePerCandidateNETStdDev bool `json:"usePerCandidateNETStdDev" yaml:"use_per_candidate_net_stdev" msgpack:"usePerCandidateNETStdDev"`
	// Number of goroutines matching features; 0 means GOMAXPROCS
	Workers int `json:"workers" yaml:"workers" msgpack:"workers"`
}

// DefaultOptions returns the default engine options. Matching runs on a
// single goroutine by default.
func DefaultOptions() Options {
	return Options{
		MaxResultsPerFeature:       DefaultMaxResults,
		UseEllipseRegion:           true,
		UseBroadDistanceAndScoring: true,
		UsePerCandidateNETStdDev:   false,
		Workers:                    1,
	}
}

func (o Options) sanitize() Options {
	if o.MaxResultsPerFeature < 1 {
		o.MaxResultsPerFeature = 1
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}
