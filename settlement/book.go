package settlement

import (
	"sort"
	"time"

	"github.com/holiman/uint256"
)

// Book tracks issued handles: pending until resolved, then kept as a
// settlement record so a repeated resolve is a no-op.
type Book struct {
	seq      uint64
	pending  map[string]Handle
	resolved map[string]Settlement
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		pending:  make(map[string]Handle),
		resolved: make(map[string]Settlement),
	}
}

// Clone returns a deep copy.
func (b *Book) Clone() *Book {
	c := &Book{
		seq:      b.seq,
		pending:  make(map[string]Handle, len(b.pending)),
		resolved: make(map[string]Settlement, len(b.resolved)),
	}
	for id, h := range b.pending {
		c.pending[id] = h
	}
	for id, s := range b.resolved {
		c.resolved[id] = s
	}
	return c
}

// Seq returns the last issued sequence number.
func (b *Book) Seq() uint64 { return b.seq }

// Pending returns outstanding handles, oldest first.
func (b *Book) Pending() []Handle {
	out := make([]Handle, 0, len(b.pending))
	for _, h := range b.pending {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Resolved returns every settlement record, oldest resolution first.
func (b *Book) Resolved() []Settlement {
	out := make([]Settlement, 0, len(b.resolved))
	for _, s := range b.resolved {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ResolvedAt.Equal(out[j].ResolvedAt) {
			return out[i].ResolvedAt.Before(out[j].ResolvedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ResolvedLen returns the number of settlement records.
func (b *Book) ResolvedLen() int { return len(b.resolved) }

// RangeResolved calls fn for every settlement record in no particular
// order until fn returns false.
func (b *Book) RangeResolved(fn func(s Settlement) bool) {
	for _, s := range b.resolved {
		if !fn(s) {
			return
		}
	}
}

// Lookup returns the state of a handle. Pending handles report
// PhaseTransferPending.
func (b *Book) Lookup(id string) (Settlement, bool) {
	if s, ok := b.resolved[id]; ok {
		return s, true
	}
	if h, ok := b.pending[id]; ok {
		return Settlement{Handle: h, Phase: PhaseTransferPending}, true
	}
	return Settlement{}, false
}

// HasPending reports whether a transfer is outstanding for the entry.
func (b *Book) HasPending(account string, airdropID uint16) bool {
	for _, h := range b.pending {
		if h.Account == account && h.AirdropID == airdropID {
			return true
		}
	}
	return false
}

// Restore loads persisted book contents.
func (b *Book) Restore(seq uint64, pending []Handle, resolved []Settlement) {
	b.seq = seq
	for _, h := range pending {
		b.pending[h.ID] = h
	}
	for _, s := range resolved {
		b.resolved[s.ID] = s
	}
}

func (b *Book) open(account string, airdropID uint16, tokenID string, amt *uint256.Int, at time.Time) Handle {
	b.seq++
	h := Handle{
		ID:        HandleID(account, airdropID, amt, b.seq),
		Account:   account,
		AirdropID: airdropID,
		TokenID:   tokenID,
		Amount:    *amt,
		CreatedAt: at.UTC(),
	}
	b.pending[h.ID] = h
	return h
}

func (b *Book) close(s Settlement) {
	delete(b.pending, s.ID)
	b.resolved[s.ID] = s
}
