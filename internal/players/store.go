// Package players is the CSV-backed player-record store. Records are keyed
// by an external card (NFT) identifier; NFTID "0" means unassigned.
package players

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

var ErrNoAvailablePlayers = errors.New("no available players found")

var header = []string{"Name", "Position", "Team", "ID", "NFTID", "Attacking", "Midfielding", "Defending"}

type Record struct {
	Name        string `json:"Name"`
	Position    string `json:"Position"`
	Team        string `json:"Team"`
	ID          string `json:"ID"`
	NFTID       string `json:"NFTID"`
	Attacking   int    `json:"Attacking"`
	Midfielding int    `json:"Midfielding"`
	Defending   int    `json:"Defending"`
}

func (r Record) Assigned() bool { return r.NFTID != "" && r.NFTID != "0" }

// Store serializes all reads and rewrites of one CSV file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// ByNFTIDs returns the records assigned to any of the given card ids, in
// file order.
func (s *Store) ByNFTIDs(ids []string) ([]Record, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}

	matched := []Record{}
	for _, r := range records {
		if slices.Contains(ids, r.NFTID) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// AssignNFT picks a random unassigned record, binds it to the card id, and
// adds the card's addition value to all three stats. The whole file is
// rewritten under the lock so concurrent assignments cannot clobber each
// other.
func (s *Store) AssignNFT(nftID string, addition int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return Record{}, err
	}

	available := []int{}
	for i, r := range records {
		if !r.Assigned() {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		return Record{}, ErrNoAvailablePlayers
	}

	idx := available[rand.Intn(len(available))]
	records[idx].NFTID = nftID
	records[idx].Attacking += addition
	records[idx].Midfielding += addition
	records[idx].Defending += addition

	if err := s.write(records); err != nil {
		return Record{}, err
	}
	return records[idx], nil
}

func (s *Store) read() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open players csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse players csv: %w", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		if len(row) < len(header) {
			return nil, fmt.Errorf("players csv: malformed row %q", row)
		}
		rec := Record{
			Name:     row[0],
			Position: row[1],
			Team:     row[2],
			ID:       row[3],
			NFTID:    row[4],
		}
		if rec.Attacking, err = strconv.Atoi(row[5]); err != nil {
			return nil, fmt.Errorf("players csv: bad Attacking for %s: %w", rec.Name, err)
		}
		if rec.Midfielding, err = strconv.Atoi(row[6]); err != nil {
			return nil, fmt.Errorf("players csv: bad Midfielding for %s: %w", rec.Name, err)
		}
		if rec.Defending, err = strconv.Atoi(row[7]); err != nil {
			return nil, fmt.Errorf("players csv: bad Defending for %s: %w", rec.Name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Store) write(records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "players-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range records {
		row := []string{
			r.Name, r.Position, r.Team, r.ID, r.NFTID,
			strconv.Itoa(r.Attacking), strconv.Itoa(r.Midfielding), strconv.Itoa(r.Defending),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
