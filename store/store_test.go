package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "quoter.db"))
	require.NoError(t, err)
	return s
}

func TestSaveAndQueryFills(t *testing.T) {
	s := openTemp(t)
	ts := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveFill(Fill{
			OrderID:  "ord-1",
			Symbol:   "AAPL",
			Side:     "BUY",
			Price:    100 + float64(i),
			Quantity: 10,
			Ts:       ts,
		}))
	}
	require.NoError(t, s.SaveFill(Fill{OrderID: "ord-2", Symbol: "MSFT", Side: "SELL", Price: 300, Quantity: 5, Ts: ts}))

	fills, err := s.RecentFills("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	// Newest first.
	require.Equal(t, 102.0, fills[0].Price)
	require.Equal(t, "AAPL", fills[0].Symbol)
}

func TestSnapshots(t *testing.T) {
	s := openTemp(t)

	snap, err := s.LastSnapshot()
	require.NoError(t, err)
	require.Nil(t, snap)

	require.NoError(t, s.SaveSnapshot(PerfSnapshot{SpreadCapture: "1.2500", QuoteCount: 10, FillCount: 4, RoundTrips: 2, Ts: time.Now().UTC()}))
	require.NoError(t, s.SaveSnapshot(PerfSnapshot{SpreadCapture: "2.5000", QuoteCount: 20, FillCount: 8, RoundTrips: 4, Ts: time.Now().UTC()}))

	snap, err = s.LastSnapshot()
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, "2.5000", snap.SpreadCapture)
	require.EqualValues(t, 20, snap.QuoteCount)
}

func TestOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveFill(Fill{OrderID: "x", Symbol: "AAPL", Side: "BUY", Price: 1, Quantity: 1, Ts: time.Now()}))
}
