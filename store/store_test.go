package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/vesting"
)

const t0 uint64 = 1_700_000_000_000

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tempBoltStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", DBFileName)
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	return s, path
}

// populated builds a state with two airdrops, three accounts, one pending
// and one resolved settlement.
func populated(t *testing.T) (*State, settlement.Handle) {
	t.Helper()
	st := NewState("owner.near", "operator.near")
	sched := vesting.Schedule{StartMs: t0, EndMs: t0 + 600_000}

	for _, tok := range []string{"a.near", "b.near"} {
		_, err := st.Registry.Register("drop "+tok, tok, "SYM", 6, sched)
		require.NoError(t, err)
	}
	assign := []struct {
		acc string
		id  uint16
		tok string
		v   uint64
	}{
		{"alice", 0, "a.near", 1000},
		{"bob", 0, "a.near", 400},
		{"alice", 1, "b.near", 70},
		{"carol", 1, "b.near", 30},
	}
	for _, a := range assign {
		v := uint256.NewInt(a.v)
		require.NoError(t, st.Ledger.Create(a.acc, a.id, v))
		require.NoError(t, st.Registry.RecordDistribution(a.id, v))
		require.NoError(t, st.Accounting.OnDistribute(a.tok, v))
	}
	require.NoError(t, st.Registry.ChangeStatus(0, registry.StatusEnabled))

	c := st.Coordinator()
	done, err := c.Begin("bob", 0, t0+600_000, now)
	require.NoError(t, err)
	_, _, err = c.Resolve(done.ID, settlement.OutcomeSuccess, "", now.Add(time.Second))
	require.NoError(t, err)

	open, err := c.Begin("alice", 0, t0+300_000, now.Add(time.Minute))
	require.NoError(t, err)
	return st, open
}

func assertSameState(t *testing.T, want, got *State) {
	t.Helper()
	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.Operator, got.Operator)
	assert.Equal(t, want.Registry.All(), got.Registry.All())
	assert.Equal(t, want.Ledger.Accounts(), got.Ledger.Accounts())
	for _, acc := range want.Ledger.Accounts() {
		assert.Equal(t, want.Ledger.Get(acc), got.Ledger.Get(acc), acc)
	}
	assert.Equal(t, want.Accounting.Tokens(), got.Accounting.Tokens())
	for _, tok := range want.Accounting.Tokens() {
		assert.Equal(t, want.Accounting.InClaims(tok).Dec(), got.Accounting.InClaims(tok).Dec(), tok)
	}
	assert.Equal(t, want.Book.Seq(), got.Book.Seq())

	wp, gp := want.Book.Pending(), got.Book.Pending()
	require.Len(t, gp, len(wp))
	for i := range wp {
		assert.Equal(t, wp[i].ID, gp[i].ID)
		assert.Equal(t, wp[i].Amount.Dec(), gp[i].Amount.Dec())
		assert.True(t, wp[i].CreatedAt.Equal(gp[i].CreatedAt))
	}
	wr, gr := want.Book.Resolved(), got.Book.Resolved()
	require.Len(t, gr, len(wr))
	for i := range wr {
		assert.Equal(t, wr[i].ID, gr[i].ID)
		assert.Equal(t, wr[i].Phase, gr[i].Phase)
		assert.Equal(t, wr[i].EventID, gr[i].EventID)
	}
}

func TestBoltStore_RoundTrip(t *testing.T) {
	s, path := tempBoltStore(t)
	st, open := populated(t)
	require.NoError(t, s.Save(st))
	require.NoError(t, s.Close())

	_, err := os.Stat(path)
	require.NoError(t, err)

	s2, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load()
	require.NoError(t, err)
	assertSameState(t, st, got)

	// The restored book still resolves the pending handle.
	ev, dup, err := got.Coordinator().Resolve(open.ID, settlement.OutcomeFailure, "timeout", now)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, settlement.PhaseRolledBack, ev.Phase)
	assert.Equal(t, "1000", got.Accounting.InClaims("a.near").Dec())
}

func TestBoltStore_SaveReplaces(t *testing.T) {
	s, _ := tempBoltStore(t)
	defer s.Close()

	st, _ := populated(t)
	require.NoError(t, s.Save(st))

	smaller := NewState("new-owner", "operator.near")
	require.NoError(t, s.Save(smaller))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-owner", got.Owner)
	assert.Zero(t, got.Registry.Len())
	assert.Zero(t, got.Ledger.Len())
	assert.Empty(t, got.Accounting.Tokens())
	assert.Empty(t, got.Book.Pending())
	assert.Empty(t, got.Book.Resolved())
}

func TestBoltStore_AppendsSettlements(t *testing.T) {
	s, _ := tempBoltStore(t)
	defer s.Close()

	st, open := populated(t)
	require.NoError(t, s.Save(st))
	first := st.Book.Resolved()[0].ID

	// Stored records are not rewritten by later saves.
	marker := []byte("kept")
	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettled).Put([]byte(first), marker)
	}))

	_, _, err := st.Coordinator().Resolve(open.ID, settlement.OutcomeSuccess, "", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Save(st))

	var raw []byte
	var keys int
	require.NoError(t, s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettled)
		raw = append(raw, b.Get([]byte(first))...)
		keys = b.Stats().KeyN
		return nil
	}))
	assert.Equal(t, marker, raw)
	assert.Equal(t, 2, keys)
}

func TestBoltStore_NotInitialized(t *testing.T) {
	s, _ := tempBoltStore(t)
	defer s.Close()

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.Save(nil), ErrNilState)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.Load()
	assert.ErrorIs(t, err, ErrNotInitialized)

	st, _ := populated(t)
	require.NoError(t, m.Save(st))

	got, err := m.Load()
	require.NoError(t, err)
	assertSameState(t, st, got)

	// Loaded copies are independent of the stored snapshot.
	got.Owner = "mallory"
	again, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "owner.near", again.Owner)
	assert.NoError(t, m.Close())
}

func TestStateClone_Independent(t *testing.T) {
	st, open := populated(t)
	c := st.Clone()

	_, _, err := c.Coordinator().Resolve(open.ID, settlement.OutcomeFailure, "", now)
	require.NoError(t, err)

	assert.Equal(t, "500", st.Accounting.InClaims("a.near").Dec())
	assert.Equal(t, "1000", c.Accounting.InClaims("a.near").Dec())
	assert.Len(t, st.Book.Pending(), 1)
	assert.Empty(t, c.Book.Pending())
}

func TestBoltStore_Locked(t *testing.T) {
	s, path := tempBoltStore(t)
	defer func() { _ = s.Close() }()

	_, err := OpenBoltStore(path)
	assert.Error(t, err)
}

func TestSettlementRecord_OnlyFinalPhases(t *testing.T) {
	_, h := populated(t)
	for _, phase := range []string{"requested", "reserved", "transfer_pending", ""} {
		rec := settlementRecord{Handle: toHandleRecord(&h), Phase: phase}
		_, err := rec.settlement()
		assert.ErrorIs(t, err, ErrCorrupt, phase)
	}
}
