package tolerance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/slicmatch/internal/notify"
)

const eps = 1e-12

func TestConversions(t *testing.T) {
	assert.InDelta(t, 0.005, PPMToMass(5, 1000), eps)
	assert.InDelta(t, 5.0, MassToPPM(0.005, 1000), eps)
	assert.InDelta(t, 20.0, MassToPPM(PPMToMass(20, 2345.678), 2345.678), 1e-9)
}

func TestDefaults(t *testing.T) {
	th := New()
	assert.True(t, th.AutoDefineSLiC())
	assert.Equal(t, PPM, th.MassUnit())
	assert.InDelta(t, 2.5, th.SLiC().MassPPMStDev, eps)
	assert.InDelta(t, 0.025, th.SLiC().NETStDev, eps)

	tol := th.Compute(1000)
	assert.InDelta(t, 0.005, tol.MassFinal, eps)
	// broad: max(5 ppm, 2.5 ppm * 2 * 2) = 10 ppm
	assert.InDelta(t, 0.010, tol.MassBroad, eps)
	assert.InDelta(t, 0.05, tol.NETFinal, eps)
	assert.InDelta(t, 0.1, tol.NETBroad, eps)
}

func TestAbsoluteTolerance(t *testing.T) {
	th := New()
	th.SetMassUnit(Absolute)
	th.SetMassTolerance(0.01)
	// 0.01 Da at nominal mass 1000 is 10 ppm
	assert.InDelta(t, 5.0, th.SLiC().MassPPMStDev, eps)

	tol := th.Compute(2000)
	assert.InDelta(t, 0.01, tol.MassFinal, eps)
	assert.InDelta(t, PPMToMass(20, 2000), tol.MassBroad, eps)
}

func TestBroadNeverBelowConfigured(t *testing.T) {
	th := New()
	th.SetAutoDefineSLiC(false)
	th.SetSLiC(SLiCOptions{MassPPMStDev: 1, NETStDev: 0.01, MaxSearchDistanceMultiplier: 0.5})
	assert.Equal(t, 1.0, th.SLiC().MaxSearchDistanceMultiplier)

	tol := th.Compute(1000)
	assert.InDelta(t, tol.MassFinal, tol.MassBroad, eps)
	assert.InDelta(t, tol.NETFinal, tol.NETBroad, eps)

	// Without auto mode, tolerance changes keep the configured deviations
	th.SetNETTolerance(0.2)
	assert.InDelta(t, 0.01, th.SLiC().NETStDev, eps)
}

func TestDistanceMultiplier(t *testing.T) {
	th := New()
	th.SetMaxSearchDistanceMultiplier(3)
	tol := th.Compute(1000)
	// 2.5 ppm * 3 * 2 = 15 ppm
	assert.InDelta(t, 0.015, tol.MassBroad, eps)
	assert.InDelta(t, 0.15, tol.NETBroad, eps)

	th.SetMaxSearchDistanceMultiplier(0)
	assert.Equal(t, 1.0, th.SLiC().MaxSearchDistanceMultiplier)
}

func TestUnknownUnitUsesLastKnown(t *testing.T) {
	th := New()
	th.SetMassUnit(Absolute)
	th.SetMassTolerance(0.02)
	th.SetMassUnit(MassUnit(7))

	var logged []notify.Severity
	ok := th.Check(notify.Funcs{LogFunc: func(_ string, s notify.Severity) { logged = append(logged, s) }})
	assert.False(t, ok)
	assert.Equal(t, []notify.Severity{notify.Error}, logged)

	tol := th.Compute(1000)
	assert.InDelta(t, 0.02, tol.MassFinal, eps)
	assert.Equal(t, "MassUnit(7)", th.Settings().MassUnit)
}

func TestCheckDegenerate(t *testing.T) {
	th := New()
	assert.True(t, th.Check(notify.Nop{}))
	th.SetNETTolerance(0)
	n := 0
	th.Check(notify.Funcs{LogFunc: func(string, notify.Severity) { n++ }})
	// NET tolerance and the derived NET deviation
	assert.Equal(t, 2, n)
}

func TestParseMassUnit(t *testing.T) {
	u, err := ParseMassUnit(" PPM ")
	require.NoError(t, err)
	assert.Equal(t, PPM, u)
	u, err = ParseMassUnit("Da")
	require.NoError(t, err)
	assert.Equal(t, Absolute, u)
	_, err = ParseMassUnit("furlong")
	assert.True(t, errors.Is(err, ErrUnknownMassUnit))
}
