package onboarding

import (
	"reflect"
	"testing"
)

func TestDocumentsComplete(t *testing.T) {
	cases := []struct {
		name     string
		uploaded []string
		want     bool
	}{
		{"nothing uploaded", nil, false},
		{"full set", []string{"resume", "id_proof", "address_proof", "education_certificate", "photo"}, true},
		{"full set out of order with duplicates", []string{"photo", "resume", "resume", "education_certificate", "address_proof", "id_proof"}, true},
		{"one missing", []string{"resume", "id_proof", "address_proof", "education_certificate"}, false},
		{"duplicates do not substitute", []string{"resume", "resume", "resume", "resume", "resume"}, false},
		{"unknown types do not count", []string{"passport", "visa", "resume", "id_proof", "address_proof"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DocumentsComplete(tc.uploaded); got != tc.want {
				t.Errorf("DocumentsComplete(%v) = %v, want %v", tc.uploaded, got, tc.want)
			}
		})
	}
}

func TestMissingDocumentTypes(t *testing.T) {
	missing := MissingDocumentTypes([]string{"resume", "photo"})
	want := []string{"id_proof", "address_proof", "education_certificate"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("missing = %v, want %v", missing, want)
	}

	if missing := MissingDocumentTypes(RequiredDocumentTypes); missing != nil {
		t.Errorf("missing for full set = %v, want nil", missing)
	}
}

func TestKnownDocumentType(t *testing.T) {
	for _, docType := range RequiredDocumentTypes {
		if !KnownDocumentType(docType) {
			t.Errorf("KnownDocumentType(%q) = false", docType)
		}
	}
	for _, docType := range []string{"passport", "", "Resume"} {
		if KnownDocumentType(docType) {
			t.Errorf("KnownDocumentType(%q) = true", docType)
		}
	}
}
