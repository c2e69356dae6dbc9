package escrow

import (
	"bytes"
	"context"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var testEscrow = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hexKey := "0x" + common.Bytes2Hex(crypto.FromECDSA(key))

	parsed, err := parsePrivateKey(hexKey)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	if crypto.PubkeyToAddress(parsed.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("parsed key does not match")
	}

	if _, err := parsePrivateKey("not-a-key"); err == nil {
		t.Fatalf("expected error for invalid key")
	}
}

func TestNewEthLedgerValidation(t *testing.T) {
	if _, err := NewEthLedger(context.Background(), nil, EthLedgerConfig{}, nil); err == nil {
		t.Fatalf("expected error for nil chain client")
	}
}

func newKeyedLedger(t *testing.T, node *fakeNode) (*EthLedger, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	parsed, err := BonusEscrowABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}

	ledger, err := NewEthLedger(context.Background(), newFakeNodeClient(t, node), EthLedgerConfig{
		Address:       testEscrow,
		ABI:           parsed,
		PrivateKeyHex: common.Bytes2Hex(crypto.FromECDSA(key)),
	}, nil)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	// Fixed gas keeps the transactor from estimating against the node.
	ledger.signer.GasLimit = 100000
	ledger.signer.GasPrice = big.NewInt(1)

	signer, ok := ledger.SignerAddress()
	if !ok || signer != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("unexpected signer %s %v", signer.Hex(), ok)
	}
	return ledger, signer
}

func TestSubmitKeyedNonceSequence(t *testing.T) {
	node := &fakeNode{pendingNonce: 5}
	ledger, signer := newKeyedLedger(t, node)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if _, err := ledger.Submit(ctx, signer, MethodApproveBounty, big.NewInt(id)); err != nil {
			t.Fatalf("submit %d: %v", id, err)
		}
	}
	lookups, nonces := node.snapshot()
	if lookups != 1 {
		t.Fatalf("pending nonce should be fetched once, got %d", lookups)
	}
	if !reflect.DeepEqual(nonces, []uint64{5, 6}) {
		t.Fatalf("unexpected nonces %v", nonces)
	}

	node.mu.Lock()
	tx := node.rawTxs[0]
	node.mu.Unlock()
	if tx.To() == nil || *tx.To() != testEscrow {
		t.Fatalf("tx sent to %v", tx.To())
	}
	if tx.ChainId().Int64() != testChainID {
		t.Fatalf("unexpected chain id %s", tx.ChainId())
	}
	want, _ := ledger.abi.Pack(MethodApproveBounty, big.NewInt(1))
	if !bytes.Equal(tx.Data(), want) {
		t.Fatalf("calldata mismatch")
	}
}

func TestSubmitKeyedResyncsNonceAfterFailure(t *testing.T) {
	node := &fakeNode{pendingNonce: 7}
	ledger, signer := newKeyedLedger(t, node)
	ctx := context.Background()

	node.failRaw = true
	if _, err := ledger.Submit(ctx, signer, MethodApproveBounty, big.NewInt(1)); err == nil {
		t.Fatalf("expected send failure")
	}

	node.mu.Lock()
	node.pendingNonce = 9
	node.mu.Unlock()

	if _, err := ledger.Submit(ctx, signer, MethodApproveBounty, big.NewInt(2)); err != nil {
		t.Fatalf("submit after failure: %v", err)
	}
	lookups, nonces := node.snapshot()
	if lookups != 2 {
		t.Fatalf("nonce should be refetched after a failed send, got %d lookups", lookups)
	}
	if !reflect.DeepEqual(nonces, []uint64{7, 9}) {
		t.Fatalf("unexpected nonces %v", nonces)
	}
}

func TestSubmitKeyedRejectsOtherSender(t *testing.T) {
	node := &fakeNode{}
	ledger, _ := newKeyedLedger(t, node)

	other := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	if _, err := ledger.Submit(context.Background(), other, MethodApproveBounty, big.NewInt(1)); err == nil {
		t.Fatalf("expected sender mismatch error")
	}
	if lookups, nonces := node.snapshot(); lookups != 0 || len(nonces) != 0 {
		t.Fatalf("nothing should reach the node: lookups=%d nonces=%v", lookups, nonces)
	}
}

func TestSubmitUnlockedAccount(t *testing.T) {
	node := &fakeNode{}
	parsed, err := BonusEscrowABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	ledger, err := NewEthLedger(context.Background(), newFakeNodeClient(t, node), EthLedgerConfig{
		Address: testEscrow,
		ABI:     parsed,
	}, nil)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	if _, ok := ledger.SignerAddress(); ok {
		t.Fatalf("unlocked ledger should have no local signer")
	}

	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	hash, err := ledger.Submit(context.Background(), owner, MethodApproveBounty, big.NewInt(3))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if hash != common.HexToHash("0xbeef") {
		t.Fatalf("unexpected hash %s", hash.Hex())
	}

	node.mu.Lock()
	defer node.mu.Unlock()
	if len(node.unsigned) != 1 || len(node.rawNonces) != 0 {
		t.Fatalf("expected one eth_sendTransaction, got %d unsigned %d raw", len(node.unsigned), len(node.rawNonces))
	}
	args := node.unsigned[0]
	if common.HexToAddress(args["from"].(string)) != owner || common.HexToAddress(args["to"].(string)) != testEscrow {
		t.Fatalf("unexpected from/to: %v", args)
	}
	data, err := hexutil.Decode(args["data"].(string))
	if err != nil {
		t.Fatalf("decode data: %v", err)
	}
	want, _ := parsed.Pack(MethodApproveBounty, big.NewInt(3))
	if !bytes.Equal(data, want) {
		t.Fatalf("calldata mismatch")
	}
}

func TestReceiptPending(t *testing.T) {
	node := &fakeNode{}
	ledger, _ := newKeyedLedger(t, node)

	receipt, err := ledger.Receipt(context.Background(), common.HexToHash("0x01"))
	if err != nil || receipt != nil {
		t.Fatalf("pending receipt should be nil, got %v %v", receipt, err)
	}
}
