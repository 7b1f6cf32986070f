package mzidentml

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/net/html/charset"
)

// Retention time CV terms, in order of decreasing preference
var rtTerms = map[string]int{
	"MS:1000016": 1, // scan start time
	"MS:1000894": 2, // retention time
	"MS:1000826": 3, // elution time
	"MS:1001114": 4, // retention time (deprecated)
}

// Read reads mzIdentML content from reader
func Read(reader io.Reader) (*MzIdentML, error) {
	m := &MzIdentML{}
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	if err := d.Decode(&m.content); err != nil {
		return nil, fmt.Errorf("mzIdentML: %w", err)
	}
	m.pepIdx = make(map[string]int, len(m.content.Peptide))
	for i, p := range m.content.Peptide {
		m.pepIdx[p.ID] = i
	}
	for i, res := range m.content.SpectrumIdentificationResult {
		for j := range res.SpectrumIdentificationItem {
			m.identList = append(m.identList, identRef{resultIdx: i, itemIdx: j})
		}
	}
	return m, nil
}

// NumIdents returns the total number of identifications. A spectrum can
// have more than one. Identifications are numbered 0 to NumIdents()-1.
func (m *MzIdentML) NumIdents() int {
	return len(m.identList)
}

// Ident returns identification i
func (m *MzIdentML) Ident(i int) (Identification, error) {
	var ident Identification
	if i < 0 || i >= len(m.identList) {
		return ident, ErrInvalidIdentIndex
	}
	res := &m.content.SpectrumIdentificationResult[m.identList[i].resultIdx]
	item := &res.SpectrumIdentificationItem[m.identList[i].itemIdx]

	pepIdx, ok := m.pepIdx[item.PeptideRef]
	if !ok {
		return ident, fmt.Errorf("%w %q", ErrUnknownPeptide, item.PeptideRef)
	}
	pep := &m.content.Peptide[pepIdx]
	ident.PepSeq = pep.PeptideSequence
	ident.PepID = pep.ID
	ident.Charge = item.ChargeState
	for _, mod := range pep.Modification {
		ident.ModMass += mod.MonoisotopicMassDelta
	}
	ident.SpecID = res.SpectrumID

	rt, err := retentionTime(res.CvPar)
	if err != nil {
		return ident, err
	}
	ident.RetentionTime = rt
	ident.Cv = append(ident.Cv, item.CvPar...)
	return ident, nil
}

// retentionTime returns the retention time in seconds from the preferred
// CV term, or -1 if there is none
func retentionTime(cvs []CVParam) (float64, error) {
	rt := float64(-1)
	prio := math.MaxInt32
	for _, cv := range cvs {
		p, ok := rtTerms[cv.Accession]
		if !ok || p >= prio {
			continue
		}
		t, err := strconv.ParseFloat(cv.Value, 64)
		if err != nil {
			return -1, fmt.Errorf("mzIdentML: retention time %q: %w", cv.Value, err)
		}
		// minutes, otherwise seconds are assumed
		if cv.UnitAccession == "UO:0000031" || cv.UnitAccession == "MS:1000038" {
			t *= 60
		}
		rt = t
		prio = p
	}
	return rt, nil
}
