package players

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Name,Position,Team,ID,NFTID,Attacking,Midfielding,Defending
Kai Moreno,FW,Lisbon FC,1,0,82,61,35
Jonas Albrecht,MF,Berlin United,2,0,64,88,70
Rico Valente,DF,Lisbon FC,3,7,45,58,90
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return NewStore(path)
}

func TestAll(t *testing.T) {
	s := newTestStore(t)

	records, err := s.All()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Kai Moreno", records[0].Name)
	assert.Equal(t, 82, records[0].Attacking)
	assert.False(t, records[0].Assigned())
	assert.True(t, records[2].Assigned())
}

func TestByNFTIDs(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ByNFTIDs([]string{"7", "99"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Rico Valente", records[0].Name)
}

func TestByNFTIDs_NoMatches(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ByNFTIDs([]string{"12345"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAssignNFT(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.AssignNFT("42", 3)
	require.NoError(t, err)

	assert.Equal(t, "42", rec.NFTID)
	assert.Contains(t, []string{"Kai Moreno", "Jonas Albrecht"}, rec.Name,
		"an already-assigned record must never be picked")

	// Addition applied to all three stats, and the rewrite persisted.
	reloaded, err := s.ByNFTIDs([]string{"42"})
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, rec.Attacking, reloaded[0].Attacking)

	if rec.Name == "Kai Moreno" {
		assert.Equal(t, 85, rec.Attacking)
		assert.Equal(t, 64, rec.Midfielding)
		assert.Equal(t, 38, rec.Defending)
	}
}

func TestAssignNFT_Exhausted(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AssignNFT("1", 0)
	require.NoError(t, err)
	_, err = s.AssignNFT("2", 0)
	require.NoError(t, err)

	_, err = s.AssignNFT("3", 0)
	assert.ErrorIs(t, err, ErrNoAvailablePlayers)
}

func TestAssignNFT_PreservesOthers(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AssignNFT("42", 5)
	require.NoError(t, err)

	records, err := s.All()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Rico's record was already assigned and must be untouched.
	rico, err := s.ByNFTIDs([]string{"7"})
	require.NoError(t, err)
	require.Len(t, rico, 1)
	assert.Equal(t, 45, rico[0].Attacking)
}

func TestRead_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := s.All()
	assert.Error(t, err)
}
