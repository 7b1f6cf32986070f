// Package featureio reads features from tab-delimited text.
//
// Each line holds one feature: id, name, mass and NET, optionally followed
// by the NET standard deviation and discriminant score of a comparison
// feature. An optional first line names the columns, in any order.
// Lines starting with # are comments.
package featureio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/524D/slicmatch/internal/feature"
)

const (
	colID = iota
	colName
	colMass
	colNET
	colNETStdDev
	colDiscriminant
	numCols
)

var colNames = map[string]int{
	"id":                 colID,
	"name":               colName,
	"mass":               colMass,
	"net":                colNET,
	"net_stdev":          colNETStdDev,
	"discriminant":       colDiscriminant,
	"discriminant_score": colDiscriminant,
}

var (
	ErrMissingColumn = errors.New("featureio: missing column")
	ErrInvalidField  = errors.New("featureio: invalid field")
)

// Filter selects the features to load. A nil Filter loads everything.
type Filter func(f feature.Feature) bool

// MassRange returns a Filter accepting masses in [lo, hi]
func MassRange(lo, hi float64) Filter {
	return func(f feature.Feature) bool {
		return f.Mass >= lo && f.Mass <= hi
	}
}

// Stats counts what happened to the lines that were read
type Stats struct {
	Read       int // feature lines
	Added      int
	Duplicates int // rejected because the id was already present
	Filtered   int
}

type record struct {
	f   feature.Feature
	ext feature.ExtAttr
}

// ReadFeatures adds the features in r to s
func ReadFeatures(r io.Reader, s *feature.Store, filter Filter) (Stats, error) {
	return read(r, filter, func(rec record) bool {
		return s.Add(rec.f.ID, rec.f.Name, rec.f.Mass, rec.f.NET)
	})
}

// ReadCompareFeatures adds the comparison features in r to c. Missing
// extended attributes are 0.
func ReadCompareFeatures(r io.Reader, c *feature.CompareStore, filter Filter) (Stats, error) {
	return read(r, filter, func(rec record) bool {
		return c.Add(rec.f.ID, rec.f.Name, rec.f.Mass, rec.f.NET,
			rec.ext.NETStdDev, rec.ext.DiscriminantScore)
	})
}

// AddFeatures adds features obtained elsewhere to s, applying filter
func AddFeatures(fs []feature.Feature, s *feature.Store, filter Filter) Stats {
	var st Stats
	for _, f := range fs {
		st.Read++
		if filter != nil && !filter(f) {
			st.Filtered++
			continue
		}
		if s.Add(f.ID, f.Name, f.Mass, f.NET) {
			st.Added++
		} else {
			st.Duplicates++
		}
	}
	return st
}

func read(r io.Reader, filter Filter, add func(record) bool) (Stats, error) {
	var st Stats
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	cols := []int{colID, colName, colMass, colNET, colNETStdDev, colDiscriminant}
	first := true
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return st, nil
		}
		if err != nil {
			return st, fmt.Errorf("featureio: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if _, err := strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
				if cols, err = header(fields); err != nil {
					return st, err
				}
				continue
			}
		}
		rec, err := parse(fields, cols, line)
		if err != nil {
			return st, err
		}
		st.Read++
		if filter != nil && !filter(rec.f) {
			st.Filtered++
			continue
		}
		if add(rec) {
			st.Added++
		} else {
			st.Duplicates++
		}
	}
}

// header maps field positions to columns
func header(fields []string) ([]int, error) {
	cols := make([]int, len(fields))
	seen := make(map[int]bool)
	for i, name := range fields {
		c, ok := colNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			c = -1
		}
		cols[i] = c
		seen[c] = true
	}
	for _, c := range []int{colID, colMass, colNET} {
		if !seen[c] {
			return nil, fmt.Errorf("%w in header %q", ErrMissingColumn, strings.Join(fields, "\t"))
		}
	}
	return cols, nil
}

func parse(fields []string, cols []int, line int) (record, error) {
	var rec record
	var have [numCols]bool
	for i, v := range fields {
		if i >= len(cols) || cols[i] < 0 {
			continue
		}
		v = strings.TrimSpace(v)
		c := cols[i]
		have[c] = true
		var err error
		switch c {
		case colID:
			rec.f.ID, err = strconv.Atoi(v)
		case colName:
			rec.f.Name = v
		case colMass:
			rec.f.Mass, err = parseFloat(v, 64)
		case colNET:
			rec.f.NET, err = parseFloat32(v)
		case colNETStdDev:
			rec.ext.NETStdDev, err = parseFloat32(v)
		case colDiscriminant:
			rec.ext.DiscriminantScore, err = parseFloat32(v)
		}
		if err != nil {
			return rec, fmt.Errorf("%w on line %d: %q", ErrInvalidField, line, v)
		}
	}
	if !have[colID] || !have[colMass] || !have[colNET] {
		return rec, fmt.Errorf("%w on line %d", ErrMissingColumn, line)
	}
	return rec, nil
}

var errNotFinite = errors.New("not a finite number")

// parseFloat is strconv.ParseFloat, rejecting NaN and infinities
func parseFloat(s string, bitSize int) (float64, error) {
	v, err := strconv.ParseFloat(s, bitSize)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = errNotFinite
	}
	return v, err
}

func parseFloat32(s string) (float32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := parseFloat(s, 32)
	return float32(v), err
}
