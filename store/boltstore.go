package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/vesting"
)

var (
	bucketMeta     = []byte("meta")
	bucketAirdrops = []byte("airdrops")
	bucketClaims   = []byte("claims")
	bucketInClaims = []byte("in_claims")
	bucketPending  = []byte("pending")
	bucketSettled  = []byte("settled")

	allBuckets = [][]byte{bucketMeta, bucketAirdrops, bucketClaims, bucketInClaims, bucketPending, bucketSettled}

	// Settlement records never change once written, so the settled bucket
	// is appended to instead of rewritten.
	rewrittenBuckets = [][]byte{bucketMeta, bucketAirdrops, bucketClaims, bucketInClaims, bucketPending}

	keyOwner    = []byte("owner")
	keyOperator = []byte("operator")
	keySeq      = []byte("seq")
	keySettledN = []byte("settled_n")
)

// DBFileName is the database file inside the data directory.
const DBFileName = "claims.db"

// LockTimeout bounds the wait for the database file lock.
const LockTimeout = 2 * time.Second

// BoltStore persists the state in a bbolt database. Save rewrites the
// live buckets and appends new settlement records inside a single update
// transaction.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist. Opening fails
// after LockTimeout when another process holds the database.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: LockTimeout})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Save replaces the persisted state.
func (s *BoltStore) Save(st *State) error {
	if st == nil {
		return ErrNilState
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		var settledN uint64
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if raw := meta.Get(keySettledN); len(raw) == 8 {
				settledN = binary.BigEndian.Uint64(raw)
			}
		}

		for _, name := range rewrittenBuckets {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("store: reset bucket %q: %w", name, err)
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyOwner, []byte(st.Owner)); err != nil {
			return fmt.Errorf("store: put owner: %w", err)
		}
		if err := meta.Put(keyOperator, []byte(st.Operator)); err != nil {
			return fmt.Errorf("store: put operator: %w", err)
		}
		if err := meta.Put(keySeq, u64Key(st.Book.Seq())); err != nil {
			return fmt.Errorf("store: put seq: %w", err)
		}

		ab := tx.Bucket(bucketAirdrops)
		for id, a := range st.Registry.All() {
			if err := putGob(ab, u16Key(uint16(id)), toAirdropRecord(&a)); err != nil {
				return fmt.Errorf("store: put airdrop %d: %w", id, err)
			}
		}

		cb := tx.Bucket(bucketClaims)
		var putErr error
		st.Ledger.Range(func(account string, entries []vesting.Entry) bool {
			putErr = putGob(cb, []byte(account), toEntryRecords(entries))
			if putErr != nil {
				putErr = fmt.Errorf("store: put claims for %s: %w", account, putErr)
			}
			return putErr == nil
		})
		if putErr != nil {
			return putErr
		}

		ib := tx.Bucket(bucketInClaims)
		for _, token := range st.Accounting.Tokens() {
			if err := ib.Put([]byte(token), []byte(st.Accounting.InClaims(token).Dec())); err != nil {
				return fmt.Errorf("store: put in_claims for %s: %w", token, err)
			}
		}

		pb := tx.Bucket(bucketPending)
		for _, h := range st.Book.Pending() {
			if err := putGob(pb, []byte(h.ID), toHandleRecord(&h)); err != nil {
				return fmt.Errorf("store: put pending %s: %w", h.ID, err)
			}
		}

		n, err := saveSettled(tx, st.Book, settledN)
		if err != nil {
			return err
		}
		if err := meta.Put(keySettledN, u64Key(n)); err != nil {
			return fmt.Errorf("store: put settled count: %w", err)
		}
		return nil
	})
}

// saveSettled writes the records of book missing from the settled bucket,
// which held stored records before. When the bucket then holds records
// the book does not know, it is rebuilt from the book. Returns the number
// of records in the bucket.
func saveSettled(tx *bbolt.Tx, book *settlement.Book, stored uint64) (uint64, error) {
	sb, err := tx.CreateBucketIfNotExists(bucketSettled)
	if err != nil {
		return 0, fmt.Errorf("store: create bucket %q: %w", bucketSettled, err)
	}
	n := stored
	var putErr error
	book.RangeResolved(func(r settlement.Settlement) bool {
		if sb.Get([]byte(r.ID)) != nil {
			return true
		}
		if putErr = putGob(sb, []byte(r.ID), toSettlementRecord(&r)); putErr != nil {
			putErr = fmt.Errorf("store: put settlement %s: %w", r.ID, putErr)
			return false
		}
		n++
		return true
	})
	if putErr != nil {
		return 0, putErr
	}
	if n == uint64(book.ResolvedLen()) {
		return n, nil
	}

	if err := tx.DeleteBucket(bucketSettled); err != nil {
		return 0, fmt.Errorf("store: reset bucket %q: %w", bucketSettled, err)
	}
	if sb, err = tx.CreateBucket(bucketSettled); err != nil {
		return 0, fmt.Errorf("store: create bucket %q: %w", bucketSettled, err)
	}
	book.RangeResolved(func(r settlement.Settlement) bool {
		if putErr = putGob(sb, []byte(r.ID), toSettlementRecord(&r)); putErr != nil {
			putErr = fmt.Errorf("store: put settlement %s: %w", r.ID, putErr)
		}
		return putErr == nil
	})
	if putErr != nil {
		return 0, putErr
	}
	return uint64(book.ResolvedLen()), nil
}

// Load reads the persisted state.
func (s *BoltStore) Load() (*State, error) {
	var st *State
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		owner := meta.Get(keyOwner)
		if owner == nil {
			return ErrNotInitialized
		}
		st = NewState(string(owner), string(meta.Get(keyOperator)))

		var seq uint64
		if raw := meta.Get(keySeq); raw != nil {
			if len(raw) != 8 {
				return fmt.Errorf("%w: seq length %d", ErrCorrupt, len(raw))
			}
			seq = binary.BigEndian.Uint64(raw)
		}

		next := 0
		err := tx.Bucket(bucketAirdrops).ForEach(func(k, v []byte) error {
			if len(k) != 2 || int(binary.BigEndian.Uint16(k)) != next {
				return fmt.Errorf("%w: airdrop key %x out of sequence", ErrCorrupt, k)
			}
			var rec airdropRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("%w: airdrop %d: %w", ErrCorrupt, next, err)
			}
			a, err := rec.airdrop()
			if err != nil {
				return err
			}
			st.Registry.Restore(a)
			next++
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketClaims).ForEach(func(k, v []byte) error {
			var recs []entryRecord
			if err := decodeGob(v, &recs); err != nil {
				return fmt.Errorf("%w: claims for %s: %w", ErrCorrupt, k, err)
			}
			entries, err := entriesOf(recs)
			if err != nil {
				return err
			}
			st.Ledger.Put(string(k), entries)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketInClaims).ForEach(func(k, v []byte) error {
			var n uint256.Int
			if err := decodeAmount(string(v), &n); err != nil {
				return err
			}
			st.Accounting.Set(string(k), &n)
			return nil
		})
		if err != nil {
			return err
		}

		var pending []settlement.Handle
		err = tx.Bucket(bucketPending).ForEach(func(_, v []byte) error {
			var rec handleRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("%w: pending handle: %w", ErrCorrupt, err)
			}
			h, err := rec.handle()
			if err != nil {
				return err
			}
			pending = append(pending, h)
			return nil
		})
		if err != nil {
			return err
		}

		var resolved []settlement.Settlement
		err = tx.Bucket(bucketSettled).ForEach(func(_, v []byte) error {
			var rec settlementRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("%w: settlement: %w", ErrCorrupt, err)
			}
			r, err := rec.settlement()
			if err != nil {
				return err
			}
			resolved = append(resolved, r)
			return nil
		})
		if err != nil {
			return err
		}

		st.Book.Restore(seq, pending, resolved)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func u16Key(v uint16) []byte {
	k := make([]byte, 2)
	binary.BigEndian.PutUint16(k, v)
	return k
}

func u64Key(v uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, v)
	return k
}

func putGob(b *bbolt.Bucket, key []byte, v interface{}) error {
	data, err := encodeGob(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
