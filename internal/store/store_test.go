// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() types.CaseReport {
	return types.CaseReport{
		PMCID:      "PMC1234567",
		PMID:       "38000001",
		Title:      "A rare case of X",
		Journal:    "BMJ Case Reports",
		PubDate:    "2024 Dec 5",
		Year:       2024,
		Abstract:   "We report a rare case.",
		ArticleURL: "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC1234567/",
		PubMedURL:  "https://pubmed.ncbi.nlm.nih.gov/38000001/",
	}
}

func TestPutAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := sampleReport()

	require.NoError(t, s.Put(want))

	got, ok := s.Get(want.PMCID)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t)

	_, ok := s.Get("PMC999")
	assert.False(t, ok)
}

func TestPutReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	r := sampleReport()
	require.NoError(t, s.Put(r))

	r.Title = "Updated title"
	require.NoError(t, s.Put(r))

	got, ok := s.Get(r.PMCID)
	require.True(t, ok)
	assert.Equal(t, "Updated title", got.Title)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutRejectsEmptyPMCID(t *testing.T) {
	s := openTestStore(t)
	err := s.Put(types.CaseReport{Title: "no id"})
	assert.Error(t, err)
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(sampleReport()))
}
