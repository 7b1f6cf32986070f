// Package tolerance converts configured mass and NET tolerances into the
// absolute search windows and standard deviations used for matching.
package tolerance

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/524D/slicmatch/internal/notify"
)

// MassUnit is the unit of the configured mass tolerance
type MassUnit int

const (
	PPM      MassUnit = iota // parts per million of the reference mass
	Absolute                 // Dalton
)

func (u MassUnit) String() string {
	switch u {
	case PPM:
		return "ppm"
	case Absolute:
		return "Da"
	}
	return fmt.Sprintf("MassUnit(%d)", int(u))
}

func (u MassUnit) valid() bool {
	return u == PPM || u == Absolute
}

var ErrUnknownMassUnit = errors.New("tolerance: unknown mass unit")

// ParseMassUnit converts "ppm" or "Da" (case insensitive, "abs" and
// "dalton" are accepted too) into a MassUnit
func ParseMassUnit(s string) (MassUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppm":
		return PPM, nil
	case "da", "dalton", "abs", "absolute":
		return Absolute, nil
	}
	return MassUnit(-1), fmt.Errorf("%w: %q", ErrUnknownMassUnit, s)
}

const (
	DefaultMassTolerance      = 5.0 // ppm
	DefaultNETTolerance       = 0.05
	DefaultMassPPMStDev       = 3.0
	DefaultNETStDev           = 0.025
	DefaultDistanceMultiplier = 2.0

	// Factor between a standard deviation and the half width of the
	// corresponding search window
	stDevScaling = 2.0
	// Mass at which an absolute tolerance is converted to ppm when the
	// standard deviations are derived
	nominalMass = 1000.0
)

// PPMToMass converts a ppm value into a mass difference at refMass
func PPMToMass(ppm, refMass float64) float64 {
	return ppm * refMass / 1e6
}

// MassToPPM converts a mass difference at refMass into ppm
func MassToPPM(delta, refMass float64) float64 {
	return delta * 1e6 / refMass
}

// SLiCOptions are the parameters of the SLiC score
type SLiCOptions struct {
	MassPPMStDev float64 // mass standard deviation in ppm
	NETStDev     float64
	// Widens the broad search window; values below 1 are raised to 1
	MaxSearchDistanceMultiplier float64
}

// Tolerances are the absolute half widths for one reference mass
type Tolerances struct {
	MassFinal float64 // Da
	MassBroad float64 // Da
	NETFinal  float64
	NETBroad  float64
}

// Thresholds holds the configured search tolerances. When AutoDefineSLiC
// is on (the default), changing a tolerance also updates the SLiC
// standard deviations.
type Thresholds struct {
	massTol    float64
	unit       MassUnit
	knownUnit  MassUnit // last valid unit, used when unit is invalid
	netTol     float64
	autoDefine bool
	slic       SLiCOptions
}

// New returns thresholds with default settings: 5 ppm, NET 0.05,
// automatically derived standard deviations
func New() *Thresholds {
	t := &Thresholds{
		massTol:    DefaultMassTolerance,
		unit:       PPM,
		knownUnit:  PPM,
		netTol:     DefaultNETTolerance,
		autoDefine: true,
		slic: SLiCOptions{
			MassPPMStDev:                DefaultMassPPMStDev,
			NETStDev:                    DefaultNETStDev,
			MaxSearchDistanceMultiplier: DefaultDistanceMultiplier,
		},
	}
	t.deriveStDevs()
	return t
}

func (t *Thresholds) MassTolerance() float64 { return t.massTol }
func (t *Thresholds) MassUnit() MassUnit     { return t.unit }
func (t *Thresholds) NETTolerance() float64  { return t.netTol }
func (t *Thresholds) AutoDefineSLiC() bool   { return t.autoDefine }
func (t *Thresholds) SLiC() SLiCOptions      { return t.slic }

// SetMassTolerance sets the mass tolerance, in the current unit
func (t *Thresholds) SetMassTolerance(tol float64) {
	t.massTol = tol
	t.deriveStDevs()
}

// SetMassUnit sets the unit of the mass tolerance. With an invalid unit,
// the previous valid unit stays in effect for computations; Check
// reports the problem.
func (t *Thresholds) SetMassUnit(u MassUnit) {
	t.unit = u
	if u.valid() {
		t.knownUnit = u
	}
	t.deriveStDevs()
}

// SetNETTolerance sets the NET tolerance
func (t *Thresholds) SetNETTolerance(tol float64) {
	t.netTol = tol
	t.deriveStDevs()
}

// SetAutoDefineSLiC turns automatic derivation of the SLiC standard
// deviations on or off. Turning it on derives them immediately.
func (t *Thresholds) SetAutoDefineSLiC(auto bool) {
	t.autoDefine = auto
	t.deriveStDevs()
}

// SetSLiC sets the SLiC options. With AutoDefineSLiC on, the standard
// deviations are replaced again on the next tolerance change.
func (t *Thresholds) SetSLiC(o SLiCOptions) {
	if o.MaxSearchDistanceMultiplier < 1 {
		o.MaxSearchDistanceMultiplier = 1
	}
	t.slic = o
}

// SetMaxSearchDistanceMultiplier sets the broad window multiplier (min 1)
func (t *Thresholds) SetMaxSearchDistanceMultiplier(m float64) {
	if m < 1 {
		m = 1
	}
	t.slic.MaxSearchDistanceMultiplier = m
}

// effectiveUnit returns the unit to compute with
func (t *Thresholds) effectiveUnit() MassUnit {
	if t.unit.valid() {
		return t.unit
	}
	return t.knownUnit
}

// Check reports configuration anomalies to r and returns false if there
// were any. Computations still work with anomalies present: an unknown
// unit falls back to the last valid one, degenerate standard deviations
// are replaced during scoring.
func (t *Thresholds) Check(r notify.Logger) bool {
	ok := true
	if !t.unit.valid() {
		r.Log(fmt.Sprintf("unknown mass tolerance unit %v, using %v", t.unit, t.knownUnit),
			notify.Error)
		ok = false
	}
	if t.massTol <= 0 {
		r.Log(fmt.Sprintf("mass tolerance %g is not positive", t.massTol), notify.Error)
		ok = false
	}
	if t.netTol <= 0 {
		r.Log(fmt.Sprintf("NET tolerance %g is not positive", t.netTol), notify.Error)
		ok = false
	}
	if t.slic.MassPPMStDev <= 0 {
		r.Log(fmt.Sprintf("mass standard deviation %g ppm is not positive", t.slic.MassPPMStDev),
			notify.Error)
		ok = false
	}
	if t.slic.NETStDev <= 0 {
		r.Log(fmt.Sprintf("NET standard deviation %g is not positive", t.slic.NETStDev),
			notify.Error)
		ok = false
	}
	return ok
}

// deriveStDevs sets the standard deviations to half the tolerances
func (t *Thresholds) deriveStDevs() {
	if !t.autoDefine {
		return
	}
	tolPPM := t.massTol
	if t.effectiveUnit() == Absolute {
		tolPPM = MassToPPM(t.massTol, nominalMass)
	}
	t.slic.MassPPMStDev = tolPPM / stDevScaling
	t.slic.NETStDev = t.netTol / stDevScaling
}

// Compute returns the broad and final tolerances around refMass
func (t *Thresholds) Compute(refMass float64) Tolerances {
	var tol Tolerances
	var tolPPM float64
	if t.effectiveUnit() == PPM {
		tolPPM = t.massTol
		tol.MassFinal = PPMToMass(t.massTol, refMass)
	} else {
		tolPPM = MassToPPM(t.massTol, refMass)
		tol.MassFinal = t.massTol
	}

	mult := math.Max(t.slic.MaxSearchDistanceMultiplier, 1)
	broadPPM := math.Max(tolPPM, t.slic.MassPPMStDev*mult*stDevScaling)
	tol.MassBroad = PPMToMass(broadPPM, refMass)

	tol.NETFinal = t.netTol
	tol.NETBroad = math.Max(t.netTol, t.slic.NETStDev*mult*stDevScaling)
	return tol
}

// Settings is a plain copy of the thresholds, for reports and config files
type Settings struct {
	MassTolerance               float64 `json:"massTolerance" yaml:"mass_tolerance" msgpack:"massTolerance"`
	MassUnit                    string  `json:"massUnit" yaml:"mass_unit" msgpack:"massUnit"`
	NETTolerance                float64 `json:"netTolerance" yaml:"net_tolerance" msgpack:"netTolerance"`
	AutoDefineSLiC              bool    `json:"autoDefineSLiC" yaml:"auto_define_slic" msgpack:"autoDefineSLiC"`
	MassPPMStDev                float64 `json:"massPPMStDev" yaml:"mass_ppm_stdev" msgpack:"massPPMStDev"`
	NETStDev                    float64 `json:"netStDev" yaml:"net_stdev" msgpack:"netStDev"`
	MaxSearchDistanceMultiplier float64 `json:"maxSearchDistanceMultiplier" yaml:"max_search_distance_multiplier" msgpack:"maxSearchDistanceMultiplier"`
}

// Settings returns the current settings
func (t *Thresholds) Settings() Settings {
	return Settings{
		MassTolerance:               t.massTol,
		MassUnit:                    t.unit.String(),
		NETTolerance:                t.netTol,
		AutoDefineSLiC:              t.autoDefine,
		MassPPMStDev:                t.slic.MassPPMStDev,
		NETStDev:                    t.slic.NETStDev,
		MaxSearchDistanceMultiplier: t.slic.MaxSearchDistanceMultiplier,
	}
}
