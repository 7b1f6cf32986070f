package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/524D/slicmatch/internal/feature"
	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/tolerance"
)

// DefaultBinWidth is the default width (Da) of the mass bins of a Summary
const DefaultBinWidth = 500.0

// Summary describes how well the features to identify were matched
type Summary struct {
	Features int `json:"features" msgpack:"features"`
	Matched  int `json:"matched" msgpack:"matched"`
	// Features with exactly one stored result
	Unique  int `json:"unique" msgpack:"unique"`
	Results int `json:"results" msgpack:"results"`
	// Errors of the best match of each matched feature
	MassErrPPMMean   float64   `json:"massErrPPMMean" msgpack:"massErrPPMMean"`
	MassErrPPMStdDev float64   `json:"massErrPPMStdDev" msgpack:"massErrPPMStdDev"`
	NETErrMean       float64   `json:"netErrMean" msgpack:"netErrMean"`
	NETErrStdDev     float64   `json:"netErrStdDev" msgpack:"netErrStdDev"`
	Bins             []MassBin `json:"bins" msgpack:"bins"`
}

// MassBin counts features with a mass in [Low, High)
type MassBin struct {
	Low      float64 `json:"low" msgpack:"low"`
	High     float64 `json:"high" msgpack:"high"`
	Features int     `json:"features" msgpack:"features"`
	Matched  int     `json:"matched" msgpack:"matched"`
	Unique   int     `json:"unique" msgpack:"unique"`
}

// Summarize computes the summary of results for the features in
// toIdentify. A binWidth that is not a positive number selects
// DefaultBinWidth. Masses that are not finite are left out of the bins.
func Summarize(results *match.ResultStore, toIdentify *feature.Store, binWidth float64) Summary {
	if !(binWidth > 0) || math.IsInf(binWidth, 1) {
		binWidth = DefaultBinWidth
	}
	var s Summary
	if toIdentify == nil {
		return s
	}
	s.Features = toIdentify.Count()
	s.Results = results.Count()

	all := make([]float64, 0, s.Features)
	var matched, unique, massErrs, netErrs []float64
	for pos := 0; pos < toIdentify.Count(); pos++ {
		f, _ := toIdentify.ByPosition(pos)
		all = append(all, f.Mass)
		m := results.Matches(f.ID)
		if len(m) == 0 {
			continue
		}
		s.Matched++
		matched = append(matched, f.Mass)
		if len(m) == 1 {
			s.Unique++
			unique = append(unique, f.Mass)
		}
		massErrs = append(massErrs, tolerance.MassToPPM(m[0].MassErr, f.Mass))
		netErrs = append(netErrs, m[0].NETErr)
	}
	s.MassErrPPMMean, s.MassErrPPMStdDev = meanStdDev(massErrs)
	s.NETErrMean, s.NETErrStdDev = meanStdDev(netErrs)
	s.Bins = massBins(all, matched, unique, binWidth)
	return s
}

// meanStdDev returns 0 for undefined values, so a summary always encodes
func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// maxMassBins bounds the number of mass bins; wider bins are used when
// the masses span more
const maxMassBins = 10000

func massBins(all, matched, unique []float64, width float64) []MassBin {
	all, matched, unique = finite(all), finite(matched), finite(unique)
	if len(all) == 0 {
		return nil
	}
	for _, x := range [][]float64{all, matched, unique} {
		sort.Float64s(x)
	}
	lo, hi := all[0], all[len(all)-1]
	if span := math.Floor(hi/width) - math.Floor(lo/width) + 1; !(span <= maxMassBins) {
		width = math.Max(width, hi/(maxMassBins-2)-lo/(maxMassBins-2))
	}
	first := math.Floor(lo / width)
	n := int(math.Floor(hi/width)-first) + 1
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = (first + float64(i)) * width
	}
	// stat.Histogram needs every value inside the dividers, also when
	// rounding of very large masses says otherwise
	dividers[0] = math.Min(dividers[0], lo)
	if dividers[n] <= hi {
		dividers[n] = math.Nextafter(hi, math.Inf(1))
	}

	counts := func(x []float64) []float64 {
		if len(x) == 0 {
			return make([]float64, n)
		}
		return stat.Histogram(nil, dividers, x, nil)
	}
	cAll, cMatched, cUnique := counts(all), counts(matched), counts(unique)

	bins := make([]MassBin, 0, n)
	for i := 0; i < n; i++ {
		if cAll[i] == 0 {
			continue
		}
		bins = append(bins, MassBin{
			Low:      math.Max(dividers[i], -math.MaxFloat64),
			High:     math.Min(dividers[i+1], math.MaxFloat64),
			Features: int(cAll[i]),
			Matched:  int(cMatched[i]),
			Unique:   int(cUnique[i]),
		})
	}
	return bins
}

// finite returns the values of x that are neither NaN nor infinite
func finite(x []float64) []float64 {
	out := x[:0:0]
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
