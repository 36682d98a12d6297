package state

import (
	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// BalancesPerLockup is one lockup script's accumulated ALF and token
// amounts within a Balances set. Subtraction fails rather than
// underflowing.
type BalancesPerLockup struct {
	AlfAmount uint256.Int
	Tokens    map[TokenID]*uint256.Int
}

func newBalancesPerLockup() *BalancesPerLockup {
	return &BalancesPerLockup{Tokens: map[TokenID]*uint256.Int{}}
}

func (b *BalancesPerLockup) addAlf(amount *uint256.Int) error {
	var sum uint256.Int
	if _, overflow := sum.AddOverflow(&b.AlfAmount, amount); overflow {
		return vm.ErrInvalidBalances
	}
	b.AlfAmount = sum
	return nil
}

func (b *BalancesPerLockup) subAlf(amount *uint256.Int) error {
	if b.AlfAmount.Lt(amount) {
		return vm.ErrInvalidBalances
	}
	var diff uint256.Int
	diff.Sub(&b.AlfAmount, amount)
	b.AlfAmount = diff
	return nil
}

func (b *BalancesPerLockup) addToken(id TokenID, amount *uint256.Int) error {
	cur, ok := b.Tokens[id]
	if !ok {
		cur = new(uint256.Int)
	}
	var sum uint256.Int
	if _, overflow := sum.AddOverflow(cur, amount); overflow {
		return vm.ErrInvalidBalances
	}
	b.Tokens[id] = &sum
	return nil
}

func (b *BalancesPerLockup) subToken(id TokenID, amount *uint256.Int) error {
	cur, ok := b.Tokens[id]
	if !ok || cur.Lt(amount) {
		return vm.ErrInvalidBalances
	}
	var diff uint256.Int
	diff.Sub(cur, amount)
	b.Tokens[id] = &diff
	return nil
}

// Balances maps LockupScript addresses to their accumulated per-lockup
// amounts. It backs both the payable entry method's initial balances
// and the outputBalances a stateful context accumulates as it approves and
// transfers assets.
type Balances struct {
	perLockup map[vmval.Addr]*BalancesPerLockup
}

func NewBalances() *Balances {
	return &Balances{perLockup: map[vmval.Addr]*BalancesPerLockup{}}
}

func (bs *Balances) entry(addr vmval.Addr) *BalancesPerLockup {
	e, ok := bs.perLockup[addr]
	if !ok {
		e = newBalancesPerLockup()
		bs.perLockup[addr] = e
	}
	return e
}

// AddAlf credits addr with amount ALF, failing with ErrInvalidBalances on
// overflow (never underflows, since crediting can't reduce a balance).
func (bs *Balances) AddAlf(addr vmval.Addr, amount vmval.Value) error {
	return bs.entry(addr).addAlf(amount.U256())
}

// SubAlf debits addr by amount ALF, failing with ErrInvalidBalances if the
// balance would go negative — subtraction never underflows silently.
func (bs *Balances) SubAlf(addr vmval.Addr, amount vmval.Value) error {
	e, ok := bs.perLockup[addr]
	if !ok {
		return vm.ErrInvalidBalances
	}
	return e.subAlf(amount.U256())
}

func (bs *Balances) AddToken(addr vmval.Addr, id TokenID, amount vmval.Value) error {
	return bs.entry(addr).addToken(id, amount.U256())
}

func (bs *Balances) SubToken(addr vmval.Addr, id TokenID, amount vmval.Value) error {
	e, ok := bs.perLockup[addr]
	if !ok {
		return vm.ErrInvalidBalances
	}
	return e.subToken(id, amount.U256())
}

// AlfOf returns addr's current ALF balance (zero if untracked).
func (bs *Balances) AlfOf(addr vmval.Addr) vmval.Value {
	e, ok := bs.perLockup[addr]
	if !ok {
		return vmval.NewU256Zero()
	}
	return vmval.NewU256(&e.AlfAmount)
}

// FromPreOutputs builds an initial Balances set by crediting each output's
// lockup script with its ALF and token amounts, then debiting gasFee from
// payer. Fails ErrUnableToPayGasFee if payer's
// credited balance can't cover it.
func FromPreOutputs(outputs []AssetOutput, payer vmval.Addr, gasFee vmval.Value) (*Balances, error) {
	bs := NewBalances()
	for _, out := range outputs {
		if err := bs.AddAlf(out.LockupScript, out.AlfAmount); err != nil {
			return nil, vm.ErrInvalidBalances
		}
		for id, amt := range out.Tokens {
			if err := bs.AddToken(out.LockupScript, id, amt); err != nil {
				return nil, vm.ErrInvalidBalances
			}
		}
	}
	if err := bs.SubAlf(payer, gasFee); err != nil {
		return nil, vm.ErrUnableToPayGasFee
	}
	return bs, nil
}
