package escrow

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"bountyOracle/internal/chain"
)

// EthLedgerConfig configures the escrow ledger client.
type EthLedgerConfig struct {
	Address common.Address
	ABI     abi.ABI
	// PrivateKeyHex signs transactions locally. When empty, transactions are sent
	// through eth_sendTransaction and the node signs with an unlocked account.
	PrivateKeyHex string
}

// EthLedger talks to the deployed escrow contract over JSON-RPC.
type EthLedger struct {
	client   *chain.Client
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	signer   *bind.TransactOpts
	logger   *zap.Logger

	nonceMu   sync.Mutex
	nextNonce *uint64
}

func NewEthLedger(ctx context.Context, client *chain.Client, cfg EthLedgerConfig, logger *zap.Logger) (*EthLedger, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("escrow address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backend := client.Backend()
	ledger := &EthLedger{
		client:   client,
		address:  cfg.Address,
		abi:      cfg.ABI,
		contract: bind.NewBoundContract(cfg.Address, cfg.ABI, backend, backend, backend),
		logger:   logger,
	}

	if cfg.PrivateKeyHex == "" {
		return ledger, nil
	}

	pk, err := parsePrivateKey(cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(pk, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.GasLimit = 0 // let node estimate
	ledger.signer = opts
	return ledger, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Address returns the escrow contract address.
func (l *EthLedger) Address() common.Address {
	return l.address
}

// SignerAddress returns the local signing account, if one is configured.
func (l *EthLedger) SignerAddress() (common.Address, bool) {
	if l.signer == nil {
		return common.Address{}, false
	}
	return l.signer.From, true
}

// Call invokes a view method and returns its decoded outputs.
func (l *EthLedger) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

// Submit sends a state-changing call from the given account and returns the tx hash.
func (l *EthLedger) Submit(ctx context.Context, from common.Address, method string, args ...interface{}) (common.Hash, error) {
	if l.signer == nil {
		data, err := l.abi.Pack(method, args...)
		if err != nil {
			return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
		}
		hash, err := l.client.SendUnsignedTransaction(ctx, from, l.address, data)
		if err != nil {
			return common.Hash{}, fmt.Errorf("send %s: %w", method, err)
		}
		return hash, nil
	}

	if from != l.signer.From {
		return common.Hash{}, fmt.Errorf("sender %s does not match signing key %s", from.Hex(), l.signer.From.Hex())
	}

	l.nonceMu.Lock()
	defer l.nonceMu.Unlock()

	if l.nextNonce == nil {
		nonce, err := l.client.PendingNonceAt(ctx, from)
		if err != nil {
			return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
		}
		l.nextNonce = &nonce
	}

	opts := *l.signer
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(*l.nextNonce)

	tx, err := l.contract.Transact(&opts, method, args...)
	if err != nil {
		// The node may have seen a different nonce; resync on the next submission.
		l.nextNonce = nil
		return common.Hash{}, fmt.Errorf("%s tx: %w", method, err)
	}

	next := *l.nextNonce + 1
	l.nextNonce = &next
	l.logger.Debug("transaction sent",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("nonce", tx.Nonce()),
	)
	return tx.Hash(), nil
}

// Receipt returns the receipt for txHash, or nil while it is still pending.
func (l *EthLedger) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return l.client.TransactionReceipt(ctx, txHash)
}
