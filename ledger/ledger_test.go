package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libclaim-go/vesting"
)

const t0 uint64 = 1_700_000_000_000

var tenMinutes = vesting.Schedule{StartMs: t0, EndMs: t0 + 600_000}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestCreate_Duplicate(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))
	require.NoError(t, l.Create("alice", 1, u(50)))

	err := l.Create("alice", 0, u(1))
	assert.ErrorIs(t, err, ErrDuplicateClaim)

	entries := l.Get("alice")
	require.Len(t, entries, 2)
	assert.Equal(t, uint16(0), entries[0].AirdropID)
	assert.Equal(t, uint16(1), entries[1].AirdropID)
	assert.Equal(t, uint64(1000), entries[0].Assigned.Uint64())
	assert.True(t, entries[0].Claimed.IsZero())
}

func TestCreate_EmptyAccount(t *testing.T) {
	assert.ErrorIs(t, New().Create("", 0, u(1)), ErrEmptyAccount)
}

func TestGet_Absent(t *testing.T) {
	l := New()
	assert.Nil(t, l.Get("bob"))

	_, err := l.GetOrFail("bob")
	assert.ErrorIs(t, err, ErrNoClaims)
}

func TestGet_ReturnsCopy(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(10)))

	entries := l.Get("alice")
	entries[0].Claimed.SetUint64(10)

	assert.True(t, l.Get("alice")[0].Claimed.IsZero())
}

func TestReserve(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	got, err := l.Reserve("alice", 0, tenMinutes, t0+300_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.Uint64())
	assert.Equal(t, uint64(500), l.Get("alice")[0].Claimed.Uint64())

	// A second reservation before settlement sees the incremented claim.
	_, err = l.Reserve("alice", 0, tenMinutes, t0+300_000)
	assert.ErrorIs(t, err, ErrNothingAvailable)

	got, err = l.Reserve("alice", 0, tenMinutes, t0+360_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Uint64())
}

func TestAvailable(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	got, err := l.Available("alice", 0, tenMinutes, t0+300_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.Uint64())
	assert.True(t, l.Get("alice")[0].Claimed.IsZero())

	_, err = l.Available("alice", 0, tenMinutes, t0-1)
	assert.ErrorIs(t, err, ErrNothingAvailable)
	_, err = l.Available("bob", 0, tenMinutes, t0)
	assert.ErrorIs(t, err, ErrNoClaims)
}

func TestReserve_Errors(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	_, err := l.Reserve("bob", 0, tenMinutes, t0)
	assert.ErrorIs(t, err, ErrNoClaims)

	_, err = l.Reserve("alice", 7, tenMinutes, t0)
	assert.ErrorIs(t, err, ErrNoClaimForAirdrop)

	_, err = l.Reserve("alice", 0, tenMinutes, t0-1)
	assert.ErrorIs(t, err, ErrNothingAvailable)

	_, err = l.Reserve("alice", 0, vesting.Schedule{StartMs: t0, EndMs: t0 + 1}, t0)
	assert.ErrorIs(t, err, vesting.ErrZeroPeriod)
	assert.True(t, l.Get("alice")[0].Claimed.IsZero(), "failed reservation must not mutate")
}

func TestReserveRollback_Inverse(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	got, err := l.Reserve("alice", 0, tenMinutes, t0+300_000)
	require.NoError(t, err)
	require.NoError(t, l.Rollback("alice", 0, got))
	assert.True(t, l.Get("alice")[0].Claimed.IsZero())

	again, err := l.Reserve("alice", 0, tenMinutes, t0+300_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), again.Uint64())
}

func TestRollback_Underflow(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	err := l.Rollback("alice", 0, u(1))
	assert.ErrorIs(t, err, ErrRollbackUnderflow)
	assert.True(t, l.Get("alice")[0].Claimed.IsZero())
}

func TestPrune(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(100)))
	require.NoError(t, l.Create("alice", 1, u(100)))
	require.NoError(t, l.Create("bob", 0, u(100)))
	require.NoError(t, l.Create("carol", 0, u(100)))

	_, err := l.Reserve("alice", 0, tenMinutes, t0+700_000)
	require.NoError(t, err)
	_, err = l.Reserve("bob", 0, tenMinutes, t0+700_000)
	require.NoError(t, err)
	_, err = l.Reserve("carol", 0, tenMinutes, t0+700_000)
	require.NoError(t, err)

	keepCarol := func(account string, _ uint16) bool { return account == "carol" }
	removed := l.Prune([]string{"alice", "bob", "carol", "nobody"}, keepCarol)
	assert.Equal(t, 2, removed)

	entries := l.Get("alice")
	require.Len(t, entries, 1)
	assert.Equal(t, uint16(1), entries[0].AirdropID)

	assert.Nil(t, l.Get("bob"), "account with no entries is removed")
	assert.Len(t, l.Get("carol"), 1)
	assert.Equal(t, 2, l.Len())
}

func TestPageAndRange(t *testing.T) {
	l := New()
	for _, acc := range []string{"dave", "alice", "carol", "bob"} {
		require.NoError(t, l.Create(acc, 0, u(1)))
	}

	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, l.Accounts())
	assert.Equal(t, []string{"bob", "carol"}, l.Page(1, 2))
	assert.Equal(t, []string{"dave"}, l.Page(3, 10))
	assert.Nil(t, l.Page(4, 10))
	assert.Nil(t, l.Page(0, 0))

	var seen []string
	l.Range(func(account string, _ []vesting.Entry) bool {
		seen = append(seen, account)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"alice", "bob"}, seen)
}

func TestClone_Independent(t *testing.T) {
	l := New()
	require.NoError(t, l.Create("alice", 0, u(1000)))

	c := l.Clone()
	_, err := c.Reserve("alice", 0, tenMinutes, t0+700_000)
	require.NoError(t, err)
	require.NoError(t, c.Create("bob", 0, u(5)))

	assert.True(t, l.Get("alice")[0].Claimed.IsZero())
	assert.Nil(t, l.Get("bob"))
}

func TestPut(t *testing.T) {
	l := New()
	l.Put("alice", []vesting.Entry{vesting.NewEntry(2, u(9))})
	assert.Len(t, l.Get("alice"), 1)

	l.Put("alice", nil)
	assert.Equal(t, 0, l.Len())
}
