package settlement

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libclaim-go/accounting"
	"github.com/bitfsorg/libclaim-go/ledger"
	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/vesting"
)

const t0 uint64 = 1_700_000_000_000

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// fixture: one enabled airdrop over ten minutes, alice assigned 1000 and
// bob assigned 400.
func fixture(t *testing.T) *Coordinator {
	t.Helper()
	c := &Coordinator{
		Ledger:     ledger.New(),
		Registry:   registry.New(),
		Accounting: accounting.New(),
		Book:       NewBook(),
	}
	id, err := c.Registry.Register("launch", "tok.near", "TOK", 6,
		vesting.Schedule{StartMs: t0, EndMs: t0 + 600_000})
	require.NoError(t, err)
	for acc, v := range map[string]uint64{"alice": 1000, "bob": 400} {
		require.NoError(t, c.Ledger.Create(acc, id, u(v)))
		require.NoError(t, c.Registry.RecordDistribution(id, u(v)))
		require.NoError(t, c.Accounting.OnDistribute("tok.near", u(v)))
	}
	require.NoError(t, c.Registry.ChangeStatus(id, registry.StatusEnabled))
	return c
}

// conserved checks sum(assigned - claimed) == in_claims for the token.
func conserved(t *testing.T, c *Coordinator) {
	t.Helper()
	total := new(uint256.Int)
	c.Ledger.Range(func(_ string, entries []vesting.Entry) bool {
		for i := range entries {
			total.Add(total, entries[i].Remaining())
		}
		return true
	})
	assert.Equal(t, total.Dec(), c.Accounting.InClaims("tok.near").Dec())
}

func TestBegin_ReservesBeforeTransfer(t *testing.T) {
	c := fixture(t)

	h, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), h.Amount.Uint64())
	assert.Equal(t, "tok.near", h.TokenID)
	assert.Len(t, h.ID, 64)

	e, err := c.Ledger.Entry("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), e.Claimed.Uint64())

	a, _ := c.Registry.Get(0)
	assert.Equal(t, uint64(500), a.TotalClaimed.Uint64())
	assert.Equal(t, uint64(900), c.Accounting.InClaims("tok.near").Uint64())
	assert.True(t, c.IsPending("alice", 0))
	assert.False(t, c.IsPending("bob", 0))
	conserved(t, c)

	// A second claim in the same minute sees the reservation.
	_, err = c.Begin("alice", 0, t0+300_000, now)
	assert.ErrorIs(t, err, ledger.ErrNothingAvailable)
}

func TestBegin_NotEnabled(t *testing.T) {
	c := fixture(t)
	require.NoError(t, c.Registry.ChangeStatus(0, registry.StatusDisabled))

	_, err := c.Begin("alice", 0, t0+300_000, now)
	assert.ErrorIs(t, err, ErrAirdropNotEnabled)
	assert.ErrorIs(t, err, registry.ErrWrongStatus)
	assert.Empty(t, c.Book.Pending())
}

func TestBegin_Errors(t *testing.T) {
	c := fixture(t)

	_, err := c.Begin("carol", 0, t0+300_000, now)
	assert.ErrorIs(t, err, ledger.ErrNoClaims)

	_, err = c.Begin("alice", 7, t0+300_000, now)
	assert.ErrorIs(t, err, registry.ErrAirdropNotFound)

	_, err = c.Begin("alice", 0, t0-1, now)
	assert.ErrorIs(t, err, ledger.ErrNothingAvailable)
	conserved(t, c)
}

func TestBegin_InconsistentComponentsUnchanged(t *testing.T) {
	t.Run("in_claims_short", func(t *testing.T) {
		c := fixture(t)
		c.Accounting.Set("tok.near", u(100))

		_, err := c.Begin("alice", 0, t0+300_000, now)
		assert.ErrorIs(t, err, accounting.ErrSettleUnderflow)

		e, _ := c.Ledger.Entry("alice", 0)
		assert.True(t, e.Claimed.IsZero())
		a, _ := c.Registry.Get(0)
		assert.True(t, a.TotalClaimed.IsZero())
		assert.Equal(t, uint64(100), c.Accounting.InClaims("tok.near").Uint64())
		assert.Empty(t, c.Book.Pending())
	})

	t.Run("exceeds_distribution", func(t *testing.T) {
		c := fixture(t)
		require.NoError(t, c.Ledger.Create("carol", 0, u(5000)))
		require.NoError(t, c.Accounting.OnDistribute("tok.near", u(5000)))

		_, err := c.Begin("carol", 0, t0+600_000, now)
		assert.ErrorIs(t, err, registry.ErrClaimExceedsDistribution)

		e, _ := c.Ledger.Entry("carol", 0)
		assert.True(t, e.Claimed.IsZero())
		a, _ := c.Registry.Get(0)
		assert.True(t, a.TotalClaimed.IsZero())
		assert.Equal(t, uint64(6400), c.Accounting.InClaims("tok.near").Uint64())
		assert.Zero(t, c.Book.Seq())
	})
}

func TestResolve_Success(t *testing.T) {
	c := fixture(t)
	h, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)

	ev, dup, err := c.Resolve(h.ID, OutcomeSuccess, "", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, EventClaimCommitted, ev.Kind)
	assert.Equal(t, PhaseCommitted, ev.Phase)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, c.IsPending("alice", 0))

	e, _ := c.Ledger.Entry("alice", 0)
	assert.Equal(t, uint64(500), e.Claimed.Uint64())
	conserved(t, c)
}

func TestResolve_FailureRollsBack(t *testing.T) {
	c := fixture(t)
	h, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)

	ev, dup, err := c.Resolve(h.ID, OutcomeFailure, "receiver not registered", now)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, EventClaimRolledBack, ev.Kind)
	assert.Equal(t, "receiver not registered", ev.Reason)

	e, _ := c.Ledger.Entry("alice", 0)
	assert.True(t, e.Claimed.IsZero())
	a, _ := c.Registry.Get(0)
	assert.True(t, a.TotalClaimed.IsZero())
	assert.Equal(t, uint64(1400), c.Accounting.InClaims("tok.near").Uint64())
	conserved(t, c)

	// The amount can be claimed again.
	h2, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), h2.Amount.Uint64())
	assert.NotEqual(t, h.ID, h2.ID)
}

func TestResolve_OnlyOnce(t *testing.T) {
	c := fixture(t)
	h, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)

	first, _, err := c.Resolve(h.ID, OutcomeFailure, "rejected", now)
	require.NoError(t, err)

	// Neither outcome is applied twice.
	for _, o := range []Outcome{OutcomeFailure, OutcomeSuccess} {
		ev, dup, err := c.Resolve(h.ID, o, "again", now.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, dup)
		assert.Equal(t, first.ID, ev.ID)
		assert.Equal(t, PhaseRolledBack, ev.Phase)
	}
	assert.Equal(t, uint64(1400), c.Accounting.InClaims("tok.near").Uint64())
	conserved(t, c)
}

func TestResolve_Unknown(t *testing.T) {
	c := fixture(t)
	_, _, err := c.Resolve("deadbeef", OutcomeSuccess, "", now)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestResolve_InvalidOutcome(t *testing.T) {
	c := fixture(t)
	h, err := c.Begin("alice", 0, t0+300_000, now)
	require.NoError(t, err)

	_, _, err = c.Resolve(h.ID, Outcome(9), "", now)
	assert.ErrorIs(t, err, ErrInvalidOutcome)
	assert.True(t, c.IsPending("alice", 0))
}

func TestResolve_InterleavedHandles(t *testing.T) {
	c := fixture(t)
	h1, err := c.Begin("alice", 0, t0+120_000, now)
	require.NoError(t, err)
	h2, err := c.Begin("alice", 0, t0+300_000, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), h1.Amount.Uint64())
	assert.Equal(t, uint64(300), h2.Amount.Uint64())

	_, _, err = c.Resolve(h1.ID, OutcomeFailure, "", now)
	require.NoError(t, err)
	_, _, err = c.Resolve(h2.ID, OutcomeSuccess, "", now)
	require.NoError(t, err)

	e, _ := c.Ledger.Entry("alice", 0)
	assert.Equal(t, uint64(300), e.Claimed.Uint64())
	conserved(t, c)
}

func TestBook_LookupAndClone(t *testing.T) {
	c := fixture(t)
	h, err := c.Begin("bob", 0, t0+600_000, now)
	require.NoError(t, err)

	s, ok := c.Book.Lookup(h.ID)
	require.True(t, ok)
	assert.Equal(t, PhaseTransferPending, s.Phase)

	snap := c.Book.Clone()
	_, _, err = c.Resolve(h.ID, OutcomeSuccess, "", now)
	require.NoError(t, err)

	s, _ = c.Book.Lookup(h.ID)
	assert.Equal(t, PhaseCommitted, s.Phase)
	s, _ = snap.Lookup(h.ID)
	assert.Equal(t, PhaseTransferPending, s.Phase)
	assert.Len(t, c.Book.Resolved(), 1)
	assert.Equal(t, uint64(1), c.Book.Seq())

	_, ok = c.Book.Lookup("nope")
	assert.False(t, ok)
}

func TestHandleID_Distinct(t *testing.T) {
	a := HandleID("alice", 0, u(5), 1)
	assert.Equal(t, a, HandleID("alice", 0, u(5), 1))
	assert.NotEqual(t, a, HandleID("alice", 0, u(5), 2))
	assert.NotEqual(t, a, HandleID("alice", 1, u(5), 1))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "outcome(0)", Outcome(0).String())
}

func TestParseOutcome(t *testing.T) {
	o, err := ParseOutcome("failure")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, o)

	_, err = ParseOutcome("maybe")
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}
