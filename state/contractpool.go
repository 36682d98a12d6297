package state

import (
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// ContractAssetState is the per-contract asset-use state machine.
type ContractAssetState int

const (
	NotUsed ContractAssetState = iota
	InUse
	Flushed
)

func (s ContractAssetState) String() string {
	switch s {
	case NotUsed:
		return "NotUsed"
	case InUse:
		return "InUse"
	case Flushed:
		return "Flushed"
	default:
		return "ContractAssetState(?)"
	}
}

// ContractPool is the per-execution cache of contracts loaded from world
// state, tracking each contract's asset-use state across the
// lifetime of one transaction execution.
type ContractPool struct {
	ws       *StagingWorldState
	loaded   map[vmval.Addr]*ContractState
	assetFor map[vmval.Addr]ContractAssetState
	destroyed map[vmval.Addr]bool
}

func NewContractPool(ws *StagingWorldState) *ContractPool {
	return &ContractPool{
		ws:        ws,
		loaded:    map[vmval.Addr]*ContractState{},
		assetFor:  map[vmval.Addr]ContractAssetState{},
		destroyed: map[vmval.Addr]bool{},
	}
}

// Get loads (and caches) the contract at addr.
func (p *ContractPool) Get(addr vmval.Addr) (*ContractState, error) {
	if p.destroyed[addr] {
		return nil, nil
	}
	if c, ok := p.loaded[addr]; ok {
		return c, nil
	}
	c, err := p.ws.GetContract(addr)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	p.loaded[addr] = c
	if _, ok := p.assetFor[addr]; !ok {
		p.assetFor[addr] = NotUsed
	}
	return c, nil
}

// UseContractAsset transitions addr's asset state NotUsed -> InUse and
// returns its current output ref/output for the caller to spend from.
// Re-entering while already InUse fails ErrContractAssetAlreadyInUsing.
func (p *ContractPool) UseContractAsset(addr vmval.Addr) (OutputRef, AssetOutput, error) {
	c, err := p.Get(addr)
	if err != nil {
		return OutputRef{}, AssetOutput{}, err
	}
	if c == nil {
		return OutputRef{}, AssetOutput{}, vm.IOError{Kind: vm.IOErrorLoadContract}
	}
	switch p.assetFor[addr] {
	case InUse:
		return OutputRef{}, AssetOutput{}, vm.ErrContractAssetAlreadyInUsing
	default:
		p.assetFor[addr] = InUse
		return c.OutputRef, c.Output, nil
	}
}

// UpdateContractAsset transitions addr's asset state InUse -> Flushed once a
// fresh output has been generated for it.
func (p *ContractPool) UpdateContractAsset(addr vmval.Addr, outputRef OutputRef, output AssetOutput) error {
	if err := p.ws.UpdateContract(addr, outputRef, output); err != nil {
		return err
	}
	if c, ok := p.loaded[addr]; ok {
		c.OutputRef = outputRef
		c.Output = output
	}
	p.assetFor[addr] = Flushed
	return nil
}

// Remove destroys addr's contract, transitioning it out of Flushed/InUse.
func (p *ContractPool) Remove(addr vmval.Addr) error {
	if err := p.ws.RemoveContract(addr); err != nil {
		return err
	}
	delete(p.loaded, addr)
	delete(p.assetFor, addr)
	p.destroyed[addr] = true
	return nil
}

// FinalCheck enforces the terminal invariant: no contract may end an
// execution in InUse.
func (p *ContractPool) FinalCheck() error {
	for _, s := range p.assetFor {
		if s == InUse {
			return vm.ErrContractAssetUnflushed
		}
	}
	return nil
}
