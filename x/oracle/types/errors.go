package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateRegistration is returned when an identity registers twice.
	ErrDuplicateRegistration = errors.New("oracle already registered")

	// ErrRegistrySealed is returned when registering after bootstrap finished.
	ErrRegistrySealed = errors.New("oracle registry is sealed")

	ErrUnknownOracle = errors.New("oracle not registered")

	ErrInvalidIndexes    = errors.New("invalid oracle indexes")
	ErrInvalidStatusCode = errors.New("invalid status code")
	ErrMalformedEvent    = errors.New("malformed oracle request event")
	ErrSubmission        = errors.New("oracle response submission failed")
)

// DuplicateRegistrationError reports the identity that was already present.
type DuplicateRegistrationError struct {
	Identity common.Address
}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateRegistration, e.Identity.Hex())
}

// Cause lets errors.Cause unwrap to ErrDuplicateRegistration.
func (e DuplicateRegistrationError) Cause() error { return ErrDuplicateRegistration }

// MalformedEventError is reported when a contract log cannot be decoded.
type MalformedEventError struct {
	TxHash   common.Hash
	LogIndex uint
	Err      error
}

func (e MalformedEventError) Error() string {
	return fmt.Sprintf("%s (tx=%s log=%d): %v", ErrMalformedEvent, e.TxHash.Hex(), e.LogIndex, e.Err)
}

func (e MalformedEventError) Cause() error { return ErrMalformedEvent }

// SubmissionError is returned when the contract rejects, or the node fails to
// mine, an oracle response.
type SubmissionError struct {
	Oracle common.Address
	Index  uint8
	Flight string
	TxHash common.Hash
	Err    error
}

func (e SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: oracle=%s index=%d flight=%s tx=%s reverted",
			ErrSubmission, e.Oracle.Hex(), e.Index, e.Flight, e.TxHash.Hex())
	}
	return fmt.Sprintf("%s: oracle=%s index=%d flight=%s: %v",
		ErrSubmission, e.Oracle.Hex(), e.Index, e.Flight, e.Err)
}

func (e SubmissionError) Cause() error { return ErrSubmission }
