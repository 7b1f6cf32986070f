package mzidentml

import (
	"errors"
	"fmt"

	"github.com/524D/slicmatch/internal/feature"
)

const massH2O = float64(18.0105647)

// Masses of amino acids (minus H2O)
var aaMass = map[rune]float64{
	'A': 71.0371138,
	'C': 103.0091848,
	'D': 115.0269430,
	'E': 129.0425931,
	'F': 147.0684139,
	'G': 57.0214637,
	'H': 137.0589119,
	'I': 113.0840640,
	'K': 128.0949630,
	'L': 113.0840640,
	'M': 131.0404849,
	'N': 114.0429274,
	'P': 97.0527638,
	'O': 237.1477269, // Pyrrolysine
	'Q': 128.0585775,
	'R': 156.1011110,
	'S': 87.0320284,
	'T': 101.0476785,
	'U': 144.9595902, // Selenocysteine
	'V': 99.0684139,
	'W': 186.0793129,
	'Y': 163.0633285,
}

// PepMass computes the monoisotopic mass of an unmodified peptide
func PepMass(pepSeq string) (float64, error) {
	m := massH2O
	for _, aa := range pepSeq {
		aam, ok := aaMass[aa]
		if !ok {
			return 0, fmt.Errorf("%w %q in %s", ErrInvalidAminoAcid, aa, pepSeq)
		}
		m += aam
	}
	return m, nil
}

// Features converts the identifications into features to identify. Feature
// ids are the identification index plus one, names are the peptide
// sequences. The NET is the retention time divided by the largest retention
// time in the file.
//
// Identifications without a retention time, or with a sequence whose mass
// cannot be computed, are skipped; their number is returned. A file
// without any retention time is an error.
func Features(m *MzIdentML) ([]feature.Feature, int, error) {
	fs := make([]feature.Feature, 0, m.NumIdents())
	rts := make([]float64, 0, m.NumIdents())
	skipped, noRT := 0, 0
	maxRT := 0.0
	for i := 0; i < m.NumIdents(); i++ {
		ident, err := m.Ident(i)
		if err != nil {
			return nil, 0, err
		}
		if ident.RetentionTime < 0 {
			noRT++
			skipped++
			continue
		}
		mass, err := PepMass(ident.PepSeq)
		if errors.Is(err, ErrInvalidAminoAcid) {
			skipped++
			continue
		}
		fs = append(fs, feature.Feature{
			ID:   i + 1,
			Name: ident.PepSeq,
			Mass: mass + ident.ModMass,
		})
		rts = append(rts, ident.RetentionTime)
		maxRT = max(maxRT, ident.RetentionTime)
	}
	if noRT > 0 && noRT == m.NumIdents() {
		return nil, 0, ErrNoRetentionTime
	}
	for i := range fs {
		if maxRT > 0 {
			fs[i].NET = float32(rts[i] / maxRT)
		}
	}
	return fs, skipped, nil
}
