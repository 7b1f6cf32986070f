package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/notify"
	"github.com/524D/slicmatch/internal/tolerance"
)

func TestDefaultThresholds(t *testing.T) {
	c := Default()
	th := c.Thresholds()
	assert.Equal(t, tolerance.New().Settings(), th.Settings())
	assert.Equal(t, match.DefaultOptions(), c.EngineOptions())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slicmatch.yaml")
	doc := `thresholds:
  mass_tolerance: 0.01
  mass_unit: Da
  net_tolerance: 0.04
matching:
  max_results_per_feature: 5
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Matching.MaxResultsPerFeature)
	assert.Equal(t, 4, c.Matching.Workers)
	// not in the file
	assert.True(t, c.Matching.UseBroadDistanceAndScoring)

	th := c.Thresholds()
	assert.Equal(t, tolerance.Absolute, th.MassUnit())
	assert.InDelta(t, 0.01, th.Compute(2000).MassFinal, 1e-12)
	// derived: 10 ppm / 2, 0.04 / 2
	assert.InDelta(t, 5.0, th.SLiC().MassPPMStDev, 1e-9)
	assert.InDelta(t, 0.02, th.SLiC().NETStDev, 1e-12)
}

func TestExplicitSLiC(t *testing.T) {
	c := Default()
	err := c.Decode(strings.NewReader(`thresholds:
  auto_define_slic: false
  mass_ppm_stdev: 1.5
  net_stdev: 0.01
  max_search_distance_multiplier: 3
`))
	require.NoError(t, err)
	slic := c.Thresholds().SLiC()
	assert.Equal(t, tolerance.SLiCOptions{MassPPMStDev: 1.5, NETStDev: 0.01, MaxSearchDistanceMultiplier: 3}, slic)
}

func TestUnknownKey(t *testing.T) {
	c := Default()
	err := c.Decode(strings.NewReader("matching:\n  max_hits: 2\n"))
	assert.Error(t, err)
}

func TestEmptyDocument(t *testing.T) {
	c := Default()
	require.NoError(t, c.Decode(strings.NewReader("")))
	assert.Equal(t, Default(), c)
}

func TestUnknownUnitReportedByThresholds(t *testing.T) {
	c := Default()
	c.Search.MassUnit = "furlong"
	th := c.Thresholds()
	var msgs []string
	ok := th.Check(notify.Funcs{LogFunc: func(m string, _ notify.Severity) { msgs = append(msgs, m) }})
	assert.False(t, ok)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "unknown mass tolerance unit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteRoundTrip(t *testing.T) {
	c := Default()
	c.Matching.Workers = 2
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	assert.Contains(t, buf.String(), "max_results_per_feature: 3")

	var back Config
	require.NoError(t, back.Decode(&buf))
	assert.Equal(t, c, back)
}
