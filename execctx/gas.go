package execctx

import "github.com/alephium/alphvm/vm"

// gasMeter tracks remaining gas, shared by both context flavors. Charging
// past zero fails with vm.ErrOutOfGas rather than going negative.
type gasMeter struct {
	remaining vm.Gas
}

func (m *gasMeter) charge(g vm.Gas) error {
	if g > m.remaining {
		m.remaining = 0
		return vm.ErrOutOfGas
	}
	m.remaining -= g
	return nil
}

func (m *gasMeter) left() vm.Gas { return m.remaining }
