package escrow

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"bountyOracle/internal/chain"
)

const testChainID = 1337

// fakeNode serves the eth_ methods the escrow ledger uses.
type fakeNode struct {
	mu           sync.Mutex
	pendingNonce uint64
	nonceLookups int
	rawNonces    []uint64
	rawTxs       []*types.Transaction
	failRaw      bool
	unsigned     []map[string]interface{}
}

func (n *fakeNode) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(testChainID))
}

func (n *fakeNode) GetTransactionCount(_ common.Address, _ string) hexutil.Uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonceLookups++
	return hexutil.Uint64(n.pendingNonce)
}

func (n *fakeNode) SendRawTransaction(input hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(input); err != nil {
		return common.Hash{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.rawNonces = append(n.rawNonces, tx.Nonce())
	if n.failRaw {
		n.failRaw = false
		return common.Hash{}, errors.New("nonce too low")
	}
	n.rawTxs = append(n.rawTxs, tx)
	return tx.Hash(), nil
}

func (n *fakeNode) SendTransaction(args map[string]interface{}) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsigned = append(n.unsigned, args)
	return common.HexToHash("0xbeef"), nil
}

func (n *fakeNode) GetTransactionReceipt(_ common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func (n *fakeNode) snapshot() (lookups int, nonces []uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonceLookups, append([]uint64(nil), n.rawNonces...)
}

func newFakeNodeClient(t *testing.T, node *fakeNode) *chain.Client {
	t.Helper()
	server := rpc.NewServer()
	if err := server.RegisterName("eth", node); err != nil {
		t.Fatalf("register fake node: %v", err)
	}
	client := chain.NewClientFromRPC(rpc.DialInProc(server))
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}
