package mzidentml

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/524D/slicmatch/internal/feature"
)

const testDoc = `<?xml version="1.0" encoding="ISO-8859-1"?>
<MzIdentML id="test" version="1.1.0">
  <SequenceCollection>
    <Peptide id="pep_GK">
      <PeptideSequence>GK</PeptideSequence>
    </Peptide>
    <Peptide id="pep_MK_ox">
      <PeptideSequence>MK</PeptideSequence>
      <Modification location="1" monoisotopicMassDelta="15.994915"/>
    </Peptide>
    <Peptide id="pep_bad">
      <PeptideSequence>GXK</PeptideSequence>
    </Peptide>
  </SequenceCollection>
  <DataCollection>
    <AnalysisData>
      <SpectrumIdentificationList id="SIL_1">
        <SpectrumIdentificationResult id="SIR_1" spectrumID="index=1">
          <SpectrumIdentificationItem id="SII_1_1" chargeState="2" peptide_ref="pep_GK">
            <cvParam accession="MS:1002257" name="Comet:expectation value" value="0.001"/>
          </SpectrumIdentificationItem>
          <SpectrumIdentificationItem id="SII_1_2" chargeState="2" peptide_ref="pep_MK_ox"/>
          <cvParam accession="MS:1000894" name="retention time" value="100" unitAccession="UO:0000010"/>
          <cvParam accession="MS:1000016" name="scan start time" value="1.5" unitAccession="UO:0000031"/>
        </SpectrumIdentificationResult>
        <SpectrumIdentificationResult id="SIR_2" spectrumID="index=2">
          <SpectrumIdentificationItem id="SII_2_1" chargeState="3" peptide_ref="pep_bad"/>
          <cvParam accession="MS:1001114" name="retention time" value="180"/>
        </SpectrumIdentificationResult>
        <SpectrumIdentificationResult id="SIR_3" spectrumID="index=3">
          <SpectrumIdentificationItem id="SII_3_1" chargeState="1" peptide_ref="pep_GK"/>
          <cvParam accession="MS:1000826" name="elution time" value="180"/>
        </SpectrumIdentificationResult>
      </SpectrumIdentificationList>
    </AnalysisData>
  </DataCollection>
</MzIdentML>
`

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader(testDoc))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n := m.NumIdents(); n != 4 {
		t.Errorf("NumIdents is %d, expected 4", n)
	}

	ident, err := m.Ident(0)
	if err != nil {
		t.Fatalf("Ident(0): %v", err)
	}
	want := Identification{
		PepSeq:        "GK",
		PepID:         "pep_GK",
		Charge:        2,
		SpecID:        "index=1",
		RetentionTime: 90, // scan start time wins, minutes
		Cv: []CVParam{
			{Accession: "MS:1002257", Name: "Comet:expectation value", Value: "0.001"},
		},
	}
	if diff := cmp.Diff(want, ident); diff != "" {
		t.Errorf("Ident(0) mismatch (-want +got):\n%s", diff)
	}

	ident, err = m.Ident(1)
	if err != nil {
		t.Fatalf("Ident(1): %v", err)
	}
	if ident.ModMass != 15.994915 {
		t.Errorf("ModMass is %f, expected 15.994915", ident.ModMass)
	}

	if _, err = m.Ident(4); !errors.Is(err, ErrInvalidIdentIndex) {
		t.Errorf("Ident(4) error is %v, expected %v", err, ErrInvalidIdentIndex)
	}
}

func TestPepMass(t *testing.T) {
	m, err := PepMass("GK")
	if err != nil {
		t.Fatal(err)
	}
	want := massH2O + aaMass['G'] + aaMass['K']
	if math.Abs(m-want) > 1e-9 {
		t.Errorf("PepMass(GK) is %f, expected %f", m, want)
	}
	if _, err = PepMass("PEPTIDEZ"); !errors.Is(err, ErrInvalidAminoAcid) {
		t.Errorf("expected %v, got %v", ErrInvalidAminoAcid, err)
	}
}

func TestFeatures(t *testing.T) {
	m, err := Read(strings.NewReader(testDoc))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	fs, skipped, err := Features(m)
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped %d, expected 1", skipped)
	}
	gk := massH2O + aaMass['G'] + aaMass['K']
	mk := massH2O + aaMass['M'] + aaMass['K'] + 15.994915
	want := []feature.Feature{
		{ID: 1, Name: "GK", Mass: gk, NET: 0.5},
		{ID: 2, Name: "MK", Mass: mk, NET: 0.5},
		{ID: 4, Name: "GK", Mass: gk, NET: 1},
	}
	if diff := cmp.Diff(want, fs, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Features mismatch (-want +got):\n%s", diff)
	}
}

func TestFeaturesWithoutRetentionTime(t *testing.T) {
	doc := strings.Replace(testDoc,
		`<cvParam accession="MS:1000826" name="elution time" value="180"/>`, "", 1)
	m, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	fs, skipped, err := Features(m)
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	// GXK has an unknown residue, the last GK no retention time
	if skipped != 2 {
		t.Errorf("skipped %d, expected 2", skipped)
	}
	if len(fs) != 2 || fs[0].NET != 1 || fs[1].NET != 1 {
		t.Errorf("unexpected features %+v", fs)
	}

	for _, cv := range []string{
		`<cvParam accession="MS:1000894" name="retention time" value="100" unitAccession="UO:0000010"/>`,
		`<cvParam accession="MS:1000016" name="scan start time" value="1.5" unitAccession="UO:0000031"/>`,
		`<cvParam accession="MS:1001114" name="retention time" value="180"/>`,
	} {
		doc = strings.Replace(doc, cv, "", 1)
	}
	if m, err = Read(strings.NewReader(doc)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, _, err = Features(m); !errors.Is(err, ErrNoRetentionTime) {
		t.Errorf("expected %v, got %v", ErrNoRetentionTime, err)
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Read(strings.NewReader("<MzIdentML><unclosed>")); err == nil {
		t.Error("expected an error for truncated XML")
	}
}
