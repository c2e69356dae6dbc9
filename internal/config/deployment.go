package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// ErrDeploymentUnavailable means the deployed-address file is missing or unusable.
var ErrDeploymentUnavailable = errors.New("deployment unavailable")

// Deployment mirrors deployed_contract_address.json.
type Deployment struct {
	ContractAddress string `json:"contractAddress"`
}

// LoadDeployment reads the escrow address written by the deploy script.
func LoadDeployment(path string) (common.Address, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrDeploymentUnavailable, err)
	}

	var dep Deployment
	if err := json.Unmarshal(raw, &dep); err != nil {
		return common.Address{}, fmt.Errorf("%w: parse %s: %v", ErrDeploymentUnavailable, path, err)
	}
	if dep.ContractAddress == "" {
		return common.Address{}, fmt.Errorf("%w: contractAddress not found in %s", ErrDeploymentUnavailable, path)
	}

	addr, err := ParseAddress(dep.ContractAddress)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrDeploymentUnavailable, err)
	}
	return addr, nil
}
