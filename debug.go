// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"math"
	"regexp"
	"strconv"

	"github.com/524D/slicmatch/internal/feature"
	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/tolerance"
)

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// debugLogFeatures logs every feature in the id range r together with
// its results, including features that were not matched
func debugLogFeatures(r string, results *match.ResultStore, toIdentify *feature.Store, log *logger) {
	if r == `` {
		return
	}
	debugMin, debugMax, err := parseIntRange(r, math.MinInt, math.MaxInt)
	if err != nil {
		log.Warn("invalid debug range", "range", r, "err", err)
		return
	}
	for pos := 0; pos < toIdentify.Count(); pos++ {
		f, _ := toIdentify.ByPosition(pos)
		if f.ID < debugMin || f.ID > debugMax {
			continue
		}
		m := results.Matches(f.ID)
		log.Info("feature", "id", f.ID, "name", f.Name, "mass", f.Mass, "net", f.NET,
			"results", len(m))
		for i, res := range m {
			log.Info("  match", "rank", i+1, "id", res.MatchingID, "slic", res.SLiCScore,
				"delSLiC", res.DelSLiC, "massErrPPM", tolerance.MassToPPM(res.MassErr, f.Mass), "netErr", res.NETErr,
				"candidates", res.MultiHitCount)
		}
	}
}
