package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/metadata"
	"github.com/sphera-labs/sphera-backend/internal/players"
)

type fakePlayers struct {
	records []players.Record
	err     error
}

func (f fakePlayers) All() ([]players.Record, error) { return f.records, f.err }

type fakeMeta struct {
	docs    map[string]metadata.Metadata
	fetched []string
}

func (f *fakeMeta) Fetch(_ context.Context, nftID string) (metadata.Metadata, error) {
	f.fetched = append(f.fetched, nftID)
	doc, ok := f.docs[nftID]
	if !ok {
		return metadata.Metadata{}, errors.New("not found")
	}
	return doc, nil
}

func TestRun_ChecksOnlyAssignedRecords(t *testing.T) {
	ps := fakePlayers{records: []players.Record{
		{Name: "Kai", NFTID: "0"},
		{Name: "Rico", NFTID: "7"},
		{Name: "Jonas", NFTID: ""},
	}}
	meta := &fakeMeta{docs: map[string]metadata.Metadata{
		"7": {Addition: 1, Attributes: []metadata.Attribute{{Value: "Rare"}}},
	}}

	r := NewRefresher(ps, meta, zap.NewNop())
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"7"}, meta.fetched)
}

func TestRun_SurvivesMissingMetadata(t *testing.T) {
	ps := fakePlayers{records: []players.Record{
		{Name: "Rico", NFTID: "7"},
		{Name: "Kai", NFTID: "9"},
	}}
	meta := &fakeMeta{docs: map[string]metadata.Metadata{
		"9": {Addition: 0},
	}}

	r := NewRefresher(ps, meta, zap.NewNop())
	require.NoError(t, r.Run(context.Background()))
	assert.Len(t, meta.fetched, 2)
}

func TestRun_StoreErrorPropagates(t *testing.T) {
	r := NewRefresher(fakePlayers{err: errors.New("boom")}, &fakeMeta{}, zap.NewNop())
	assert.Error(t, r.Run(context.Background()))
}

func TestSchedule_RejectsBadSpec(t *testing.T) {
	r := NewRefresher(fakePlayers{}, &fakeMeta{}, zap.NewNop())
	_, err := r.Schedule(context.Background(), "not a cron spec")
	assert.Error(t, err)
}

func TestSchedule_ValidSpecStops(t *testing.T) {
	r := NewRefresher(fakePlayers{}, &fakeMeta{}, zap.NewNop())
	stop, err := r.Schedule(context.Background(), "0 2 * * *")
	require.NoError(t, err)
	stop()
}
