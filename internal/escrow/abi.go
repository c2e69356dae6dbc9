package escrow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract method names used by the oracle.
const (
	MethodOwner         = "owner"
	MethodApproveBounty = "approveBounty"
	MethodNextBountyID  = "nextBountyId"
)

const bonusEscrowABIJSON = `[
  {
    "inputs": [],
    "name": "owner",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "nextBountyId",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "_bountyId", "type": "uint256"}],
    "name": "approveBounty",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	bonusEscrowABI     abi.ABI
	bonusEscrowABIOnce sync.Once
	bonusEscrowABIErr  error
)

// BonusEscrowABI returns the parsed built-in escrow ABI.
func BonusEscrowABI() (abi.ABI, error) {
	bonusEscrowABIOnce.Do(func() {
		bonusEscrowABI, bonusEscrowABIErr = abi.JSON(strings.NewReader(bonusEscrowABIJSON))
	})
	return bonusEscrowABI, bonusEscrowABIErr
}

// LoadABI reads a Hardhat artifact ({"abi": [...]}) or a bare ABI array.
// An empty path returns the built-in ABI.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return BonusEscrowABI()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi: %w", err)
	}

	parsed, err := parseABI(data)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi %s: %w", path, err)
	}
	if err := requireMethods(parsed, MethodOwner, MethodApproveBounty); err != nil {
		return abi.ABI{}, err
	}
	return parsed, nil
}

func parseABI(data []byte) (abi.ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, err
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("artifact has no abi field")
		}
		data = artifact.ABI
	}
	return abi.JSON(bytes.NewReader(data))
}

func requireMethods(parsed abi.ABI, names ...string) error {
	for _, name := range names {
		if _, ok := parsed.Methods[name]; !ok {
			return fmt.Errorf("abi is missing method %s", name)
		}
	}
	return nil
}
