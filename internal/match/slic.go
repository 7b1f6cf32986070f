package match

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/524D/slicmatch/internal/tolerance"
)

const (
	// Substituted when the mass standard deviation (Da) is not positive
	fallbackMassStdDev = 0.003
	// Substituted when the combined NET standard deviation is not positive
	fallbackNETStdDev = 0.025
	// SLiC scores are rounded to this number of decimals
	slicDecimals = 5
)

// rawMatch is the scratch record of one candidate while a single feature
// is scored
type rawMatch struct {
	pos       int // position in the comparison store
	massErr   float64
	netErr    float64
	stdDist   float64 // standardized squared distance
	numerator float64
	slic      float64
	delSLiC   float64
}

// InEllipse reports whether (x, y) lies inside or on the ellipse with
// half axes a and b centered at the origin. A zero half axis only admits
// points with a zero coordinate on that axis.
func InEllipse(x, y, a, b float64) bool {
	return axisTerm(x, a)+axisTerm(y, b) <= 1
}

func axisTerm(v, half float64) float64 {
	if half == 0 {
		if v == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (v * v) / (half * half)
}

// scorer computes SLiC scores. One scorer is used per goroutine.
type scorer struct {
	slic           tolerance.SLiCOptions
	perCandidate   bool
	netStdDevOf    func(pos int) float32
	nums           []float64
	onMassFallback func()
	onNETFallback  func()
}

// score fills stdDist, numerator, slic and delSLiC of the candidates of the
// feature with mass featureMass, and sorts them by descending score.
// Equal scores are ordered by store position.
func (s *scorer) score(featureMass float64, raw []rawMatch) {
	if len(raw) == 0 {
		return
	}
	massStdDev := tolerance.PPMToMass(s.slic.MassPPMStDev, featureMass)
	if !(massStdDev > 0) {
		massStdDev = fallbackMassStdDev
		if s.onMassFallback != nil {
			s.onMassFallback()
		}
	}

	s.nums = s.nums[:0]
	for i := range raw {
		r := &raw[i]
		netStdDev := s.slic.NETStDev
		if s.perCandidate {
			c := float64(s.netStdDevOf(r.pos))
			netStdDev = math.Sqrt(netStdDev*netStdDev + c*c)
		}
		if !(netStdDev > 0) {
			netStdDev = fallbackNETStdDev
			if s.onNETFallback != nil {
				s.onNETFallback()
			}
		}
		dm := r.massErr / massStdDev
		dn := r.netErr / netStdDev
		r.stdDist = dm*dm + dn*dn
		r.numerator = 1 / (massStdDev * netStdDev) * math.Exp(-r.stdDist/2)
		s.nums = append(s.nums, r.numerator)
	}

	sum := floats.Sum(s.nums)
	valid := sum > 0 && !math.IsInf(sum, 1)
	for i := range raw {
		if valid {
			raw[i].slic = scalar.Round(raw[i].numerator/sum, slicDecimals)
		} else {
			raw[i].slic = 0
		}
	}

	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].slic != raw[j].slic {
			return raw[i].slic > raw[j].slic
		}
		return raw[i].pos < raw[j].pos
	})

	// delSLiC depends on the sorted order
	if len(raw) == 1 {
		raw[0].delSLiC = 1
		return
	}
	raw[0].delSLiC = raw[0].slic - raw[1].slic
	for i := 1; i < len(raw); i++ {
		raw[i].delSLiC = 0
	}
}
