package mzidentml

import (
	"encoding/xml"
	"errors"
)

// Types for parsing mzIdentML

// MzIdentML holds the identifications of an mzIdentML file, the only part
// that is needed to obtain features to identify
type MzIdentML struct {
	pepIdx    map[string]int
	identList []identRef
	content   mzIdentMLContent
}

type identRef struct {
	resultIdx int // Index into SpectrumIdentificationResult
	itemIdx   int // Index into SpectrumIdentificationItem
}

// Identification is a single peptide spectrum match
type Identification struct {
	PepSeq        string
	PepID         string
	Charge        int
	ModMass       float64 // sum of the modification mass deltas
	SpecID        string
	RetentionTime float64 // seconds, -1 if absent
	Cv            []CVParam
}

type mzIdentMLContent struct {
	XMLName                      xml.Name                       `xml:"MzIdentML"`
	Peptide                      []peptide                      `xml:"SequenceCollection>Peptide"`
	SpectrumIdentificationResult []spectrumIdentificationResult `xml:"DataCollection>AnalysisData>SpectrumIdentificationList>SpectrumIdentificationResult"`
}

type peptide struct {
	ID              string `xml:"id,attr"`
	PeptideSequence string
	Modification    []modification
}

type modification struct {
	// monoisotopicMassDelta is optional in the schema, but no other
	// attribute or cvParam carries the mass shift
	MonoisotopicMassDelta float64 `xml:"monoisotopicMassDelta,attr"`
}

type spectrumIdentificationResult struct {
	SpectrumID                 string `xml:"spectrumID,attr"`
	SpectrumIdentificationItem []spectrumIdentificationItem
	CvPar                      []CVParam `xml:"cvParam"`
}

type spectrumIdentificationItem struct {
	ChargeState int       `xml:"chargeState,attr"`
	PeptideRef  string    `xml:"peptide_ref,attr"`
	CvPar       []CVParam `xml:"cvParam"`
}

// CVParam is a controlled vocabulary term with its value
type CVParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

var (
	ErrInvalidIdentIndex = errors.New("mzIdentML: invalid identification index")
	ErrUnknownPeptide    = errors.New("mzIdentML: unknown peptide reference")
	ErrInvalidAminoAcid  = errors.New("mzIdentML: invalid amino acid")
	ErrNoRetentionTime   = errors.New("mzIdentML: no valid retention time")
)
