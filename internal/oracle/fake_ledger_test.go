package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"bountyOracle/internal/escrow"
)

var testOwner = common.HexToAddress("0x00000000000000000000000000000000000000aa")

type submission struct {
	From     common.Address
	Method   string
	BountyID uint64
}

// fakeLedger mimics the escrow contract: every submission is mined at block unless
// the bounty is configured to fail, revert or never be mined.
type fakeLedger struct {
	mu sync.Mutex

	owner     common.Address
	ownerErr  error
	ownerCall int

	block      uint64
	submitErr  map[uint64]error
	reverted   map[uint64]bool
	neverMined map[uint64]bool
	// revertRepeats makes a second approval of the same bounty revert, like the contract.
	revertRepeats bool

	submissions []submission
	txs         map[common.Hash]uint64
	approved    map[uint64]int
	onSubmit    func(bountyID uint64)
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		owner:      testOwner,
		block:      42,
		submitErr:  make(map[uint64]error),
		reverted:   make(map[uint64]bool),
		neverMined: make(map[uint64]bool),
		txs:        make(map[common.Hash]uint64),
		approved:   make(map[uint64]int),
	}
}

func (f *fakeLedger) Call(_ context.Context, method string, _ ...interface{}) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method != escrow.MethodOwner {
		return nil, fmt.Errorf("unexpected view call %s", method)
	}
	f.ownerCall++
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	return []interface{}{f.owner}, nil
}

func (f *fakeLedger) Submit(_ context.Context, from common.Address, method string, args ...interface{}) (common.Hash, error) {
	if len(args) != 1 {
		return common.Hash{}, fmt.Errorf("approveBounty takes one argument, got %d", len(args))
	}
	id, ok := args[0].(*big.Int)
	if !ok {
		return common.Hash{}, fmt.Errorf("bounty id has type %T", args[0])
	}
	bountyID := id.Uint64()

	f.mu.Lock()
	f.submissions = append(f.submissions, submission{From: from, Method: method, BountyID: bountyID})
	err := f.submitErr[bountyID]
	hash := common.BigToHash(big.NewInt(int64(len(f.submissions))))
	if err == nil {
		f.txs[hash] = bountyID
		f.approved[bountyID]++
	}
	hook := f.onSubmit
	f.mu.Unlock()

	if hook != nil {
		hook(bountyID)
	}
	if err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (f *fakeLedger) Receipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bountyID, ok := f.txs[txHash]
	if !ok {
		return nil, fmt.Errorf("unknown tx %s", txHash.Hex())
	}
	if f.neverMined[bountyID] {
		return nil, nil
	}
	status := types.ReceiptStatusSuccessful
	if f.reverted[bountyID] || (f.revertRepeats && f.approved[bountyID] > 1) {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{
		Status:      status,
		TxHash:      txHash,
		BlockNumber: new(big.Int).SetUint64(f.block),
	}, nil
}

func (f *fakeLedger) Submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]submission, len(f.submissions))
	copy(out, f.submissions)
	return out
}
