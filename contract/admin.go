package contract

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libclaim-go/accounting"
	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/store"
	"github.com/bitfsorg/libclaim-go/vesting"
)

// ClaimInput assigns a human-readable amount to an account.
type ClaimInput struct {
	Account string `json:"account_id"`
	Amount  string `json:"amount"`
}

// SetOwner transfers ownership. Owner only.
func (c *Contract) SetOwner(caller, owner string) error {
	if owner == "" {
		return fmt.Errorf("%w: owner", ErrInvalidAccount)
	}
	err := c.update(func(st *store.State) error {
		if err := requireOwner(st, caller); err != nil {
			return err
		}
		st.Owner = owner
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("owner changed", zap.String("caller", caller), zap.String("owner", owner))
	return nil
}

// SetOperator replaces the operator. Owner only.
func (c *Contract) SetOperator(caller, operator string) error {
	if operator == "" {
		return fmt.Errorf("%w: operator", ErrInvalidAccount)
	}
	err := c.update(func(st *store.State) error {
		if err := requireOwner(st, caller); err != nil {
			return err
		}
		st.Operator = operator
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("operator changed", zap.String("caller", caller), zap.String("operator", operator))
	return nil
}

// RegisterAirdrop looks up the token's metadata and appends a disabled
// airdrop. Operator only.
func (c *Contract) RegisterAirdrop(ctx context.Context, caller, title, tokenID string, startMs, endMs uint64) (uint16, error) {
	if tokenID == "" {
		return 0, ErrInvalidToken
	}
	sched, err := vesting.NewSchedule(startMs, endMs)
	if err != nil {
		return 0, err
	}
	var authErr error
	c.read(func(st *store.State) { authErr = requireOperator(st, caller) })
	if authErr != nil {
		return 0, authErr
	}

	md, err := c.tokens.Metadata(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("contract: token metadata for %s: %w", tokenID, err)
	}

	var id uint16
	err = c.update(func(st *store.State) error {
		if err := requireOperator(st, caller); err != nil {
			return err
		}
		var rerr error
		id, rerr = st.Registry.Register(title, tokenID, md.Symbol, md.Decimals, sched)
		return rerr
	})
	if err != nil {
		return 0, err
	}
	c.log.Info("airdrop registered",
		zap.Uint16("airdrop_id", id),
		zap.String("title", title),
		zap.String("token", tokenID),
		zap.String("symbol", md.Symbol),
		zap.Uint8("decimals", md.Decimals))
	return id, nil
}

// AddClaims creates one entry per input on a disabled airdrop. Amounts are
// parsed with the token's decimals and must sum exactly to total (base
// units). Operator only.
func (c *Contract) AddClaims(caller string, airdropID uint16, total *uint256.Int, claims []ClaimInput) error {
	if total == nil {
		return fmt.Errorf("%w: missing total amount", ErrAmountMismatch)
	}
	var token string
	err := c.update(func(st *store.State) error {
		if err := requireOperator(st, caller); err != nil {
			return err
		}
		a, err := st.Registry.Get(airdropID)
		if err != nil {
			return err
		}
		if a.Status != registry.StatusDisabled {
			return fmt.Errorf("%w: airdrop %d is %s, cannot add claims", registry.ErrWrongStatus, airdropID, a.Status)
		}
		token = a.TokenID

		sum := amount.Zero()
		for _, in := range claims {
			if in.Account == "" {
				return fmt.Errorf("%w: empty account in claims", ErrInvalidAccount)
			}
			v, err := amount.Parse(in.Amount, a.TokenDecimals)
			if err != nil {
				return fmt.Errorf("claim for %s: %w", in.Account, err)
			}
			if err := st.Ledger.Create(in.Account, airdropID, v); err != nil {
				return err
			}
			if sum, err = amount.Add(sum, v); err != nil {
				return err
			}
		}
		if !sum.Eq(total) {
			return fmt.Errorf("%w: total distributed %s != total amount informed %s",
				ErrAmountMismatch, sum.Dec(), total.Dec())
		}
		if err := st.Registry.RecordDistribution(airdropID, sum); err != nil {
			return err
		}
		return st.Accounting.OnDistribute(a.TokenID, sum)
	})
	if err != nil {
		return err
	}
	c.log.Info("claims added",
		zap.Uint16("airdrop_id", airdropID),
		zap.String("token", token),
		zap.Int("accounts", len(claims)),
		zap.String("amount", total.Dec()))
	return nil
}

// EnableAirdrop checks that this contract's token balance backs everything
// in claims for the airdrop's token, then enables it. Operator only.
func (c *Contract) EnableAirdrop(ctx context.Context, caller string, airdropID uint16) error {
	var (
		tokenID string
		preErr  error
	)
	c.read(func(st *store.State) {
		if preErr = requireOperator(st, caller); preErr != nil {
			return
		}
		a, err := st.Registry.Get(airdropID)
		if err != nil {
			preErr = err
			return
		}
		tokenID = a.TokenID
	})
	if preErr != nil {
		return preErr
	}

	balance, err := c.tokens.BalanceOf(ctx, tokenID, c.self)
	if err != nil {
		return fmt.Errorf("contract: balance of %s in %s: %w", c.self, tokenID, err)
	}

	var inClaims *uint256.Int
	err = c.update(func(st *store.State) error {
		if err := requireOperator(st, caller); err != nil {
			return err
		}
		if balance.IsZero() {
			return fmt.Errorf("%w: this contract %s balance is 0 for token %s", accounting.ErrNotFunded, c.self, tokenID)
		}
		if err := st.Registry.ChangeStatus(airdropID, registry.StatusEnabled); err != nil {
			return err
		}
		if err := st.Accounting.CheckFunding(tokenID, balance); err != nil {
			return err
		}
		inClaims = st.Accounting.InClaims(tokenID)
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("airdrop enabled",
		zap.Uint16("airdrop_id", airdropID),
		zap.String("token", tokenID),
		zap.String("balance", balance.Dec()),
		zap.String("total_in_claims", inClaims.Dec()))
	return nil
}

// DisableAirdrop stops claims; the airdrop can be enabled again. Operator only.
func (c *Contract) DisableAirdrop(caller string, airdropID uint16) error {
	return c.changeStatus(caller, airdropID, registry.StatusDisabled)
}

// ArchiveAirdrop hides the airdrop from default listings. Operator only.
func (c *Contract) ArchiveAirdrop(caller string, airdropID uint16) error {
	return c.changeStatus(caller, airdropID, registry.StatusArchived)
}

func (c *Contract) changeStatus(caller string, airdropID uint16, status registry.Status) error {
	err := c.update(func(st *store.State) error {
		if err := requireOperator(st, caller); err != nil {
			return err
		}
		return st.Registry.ChangeStatus(airdropID, status)
	})
	if err != nil {
		return err
	}
	c.log.Info("airdrop status changed", zap.Uint16("airdrop_id", airdropID), zap.Stringer("status", status))
	return nil
}

// ChangeSchedule rewrites the release window in any status. Operator only.
func (c *Contract) ChangeSchedule(caller string, airdropID uint16, startMs, endMs uint64) error {
	sched, err := vesting.NewSchedule(startMs, endMs)
	if err != nil {
		return err
	}
	err = c.update(func(st *store.State) error {
		if err := requireOperator(st, caller); err != nil {
			return err
		}
		return st.Registry.ChangeSchedule(airdropID, sched)
	})
	if err != nil {
		return err
	}
	c.log.Info("airdrop schedule changed",
		zap.Uint16("airdrop_id", airdropID),
		zap.Uint64("start_ms", startMs),
		zap.Uint64("end_ms", endMs))
	return nil
}
