// Package report writes the outcome of a matching run
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/524D/slicmatch/internal/feature"
	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/tolerance"
)

// Version of the report layout
const FormatVersion = "1.0"

// Format is an output format
type Format int

const (
	JSON Format = iota
	TSV
	Msgpack
)

var formatNames = []string{"json", "tsv", "msgpack"}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Format(i), nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// FeatureMatches are the results for one feature, best first
type FeatureMatches struct {
	FeatureID int            `json:"featureID" msgpack:"featureID"`
	Name      string         `json:"name" msgpack:"name"`
	Mass      float64        `json:"mass" msgpack:"mass"`
	NET       float32        `json:"net" msgpack:"net"`
	Results   []match.Result `json:"results" msgpack:"results"`
}

// Report is the complete outcome of a run
type Report struct {
	FormatVersion string             `json:"formatVersion" msgpack:"formatVersion"`
	RunID         string             `json:"runID" msgpack:"runID"`
	Created       time.Time          `json:"created" msgpack:"created"`
	Program       string             `json:"program" msgpack:"program"`
	Thresholds    tolerance.Settings `json:"thresholds" msgpack:"thresholds"`
	Options       match.Options      `json:"options" msgpack:"options"`
	Completed     bool               `json:"completed" msgpack:"completed"`
	ElapsedSec    float64            `json:"elapsedSec" msgpack:"elapsedSec"`
	Summary       Summary            `json:"summary" msgpack:"summary"`
	Matches       []FeatureMatches   `json:"matches" msgpack:"matches"`
}

// New builds the report of a run. Matches are listed in ascending feature
// id order.
func New(program string, results *match.ResultStore, toIdentify *feature.Store,
	th *tolerance.Thresholds, opts match.Options, binWidth float64) *Report {

	stats := results.Stats()
	r := &Report{
		FormatVersion: FormatVersion,
		RunID:         uuid.NewString(),
		Created:       time.Now().UTC(),
		Program:       program,
		Options:       opts,
		Completed:     stats.Completed,
		ElapsedSec:    stats.Elapsed.Seconds(),
		Summary:       Summarize(results, toIdentify, binWidth),
	}
	if th != nil {
		r.Thresholds = th.Settings()
	}
	for _, id := range results.FeatureIDs() {
		fm := FeatureMatches{FeatureID: id, Results: results.Matches(id)}
		if toIdentify != nil {
			if f, ok := toIdentify.ByID(id); ok {
				fm.Name, fm.Mass, fm.NET = f.Name, f.Mass, f.NET
			}
		}
		r.Matches = append(r.Matches, fm)
	}
	return r
}

// Write writes the report in format f
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case JSON:
		return r.WriteJSON(w)
	case TSV:
		return r.WriteTSV(w)
	case Msgpack:
		return r.WriteMsgpack(w)
	}
	return fmt.Errorf("%w %v", ErrUnknownFormat, f)
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	return e.Encode(r)
}

// WriteMsgpack writes the report as MessagePack
func (r *Report) WriteMsgpack(w io.Writer) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadMsgpack reads a report written by WriteMsgpack
func ReadMsgpack(rd io.Reader) (*Report, error) {
	var r Report
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

var tsvHeader = []string{"feature_id", "name", "mass", "net", "rank",
	"matching_id", "slic", "del_slic", "mass_err", "net_err", "multi_hit_count"}

// WriteTSV writes one line per result, preceded by a header line. Run
// information is written as # comment lines.
func (r *Report) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# run %s, %s\n", r.RunID, r.Created.Format(time.RFC3339))
	fmt.Fprintf(bw, "# %d of %d features matched, completed %v\n",
		r.Summary.Matched, r.Summary.Features, r.Completed)
	bw.WriteString(strings.Join(tsvHeader, "\t") + "\n")
	f64 := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, fm := range r.Matches {
		for i, res := range fm.Results {
			fields := []string{
				strconv.Itoa(fm.FeatureID),
				fm.Name,
				f64(fm.Mass),
				strconv.FormatFloat(float64(fm.NET), 'g', -1, 32),
				strconv.Itoa(i + 1),
				strconv.Itoa(res.MatchingID),
				f64(res.SLiCScore),
				f64(res.DelSLiC),
				f64(res.MassErr),
				f64(res.NETErr),
				strconv.Itoa(res.MultiHitCount),
			}
			bw.WriteString(strings.Join(fields, "\t") + "\n")
		}
	}
	return bw.Flush()
}
