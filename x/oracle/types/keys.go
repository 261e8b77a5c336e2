package types

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

const ModuleName = "oracle"

var (
	deploymentKeyPrefix = []byte("app:")
	oracleKeyPrefix     = []byte("oracle:")
)

// DeploymentPrefix scopes stored registrations to one app contract, so a
// redeployed contract starts from an empty registry.
func DeploymentPrefix(app common.Address) []byte {
	bz := append(append([]byte{}, deploymentKeyPrefix...), app.Bytes()...)
	return append(bz, '/')
}

// GetOracleKey returns the store key of the registration with the given sequence.
// Big-endian sequences keep iteration in registration order.
func GetOracleKey(sequence int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(sequence))
	return append(append([]byte{}, oracleKeyPrefix...), bz...)
}

func OracleKeyPrefix() []byte {
	return oracleKeyPrefix
}
