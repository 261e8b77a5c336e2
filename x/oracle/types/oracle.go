package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	// IndexCount is the number of indexes the contract assigns to each oracle.
	IndexCount = 3
	// MaxIndex is the largest index the contract hands out.
	MaxIndex = 9
)

// Indexes is the index set assigned to an oracle at registration.
type Indexes [IndexCount]uint8

func (idx Indexes) Contains(index uint8) bool {
	for _, i := range idx {
		if i == index {
			return true
		}
	}
	return false
}

// ValidateBasic checks that all indexes are in 0..MaxIndex and pairwise distinct.
func (idx Indexes) ValidateBasic() error {
	for i, a := range idx {
		if a > MaxIndex {
			return errors.Wrapf(ErrInvalidIndexes, "index %d out of range 0..%d", a, MaxIndex)
		}
		for _, b := range idx[i+1:] {
			if a == b {
				return errors.Wrapf(ErrInvalidIndexes, "index %d assigned twice", a)
			}
		}
	}
	return nil
}

func (idx Indexes) String() string {
	return fmt.Sprintf("[%d %d %d]", idx[0], idx[1], idx[2])
}

// Oracle is a registered oracle account and the indexes the contract assigned to it.
type Oracle struct {
	Identity common.Address `json:"identity"`
	Indexes  Indexes        `json:"indexes"`
}

func NewOracle(identity common.Address, indexes Indexes) Oracle {
	return Oracle{
		Identity: identity,
		Indexes:  indexes,
	}
}

func (o Oracle) ValidateBasic() error {
	if o.Identity == (common.Address{}) {
		return errors.New("oracle identity is empty")
	}
	return o.Indexes.ValidateBasic()
}

func (o Oracle) String() string {
	return fmt.Sprintf("Oracle{%s#%s}", o.Identity.Hex(), o.Indexes)
}

// DBOracle is the persisted form of a registration. Sequence keeps registration order.
type DBOracle struct {
	Sequence int64  `json:"sequence"`
	Identity []byte `json:"identity"`
	Indexes  []byte `json:"indexes"`
}

// SerializeForDB serializes an oracle into a DBOracle
func (o Oracle) SerializeForDB(sequence int64) DBOracle {
	return DBOracle{
		Sequence: sequence,
		Identity: o.Identity.Bytes(),
		Indexes:  o.Indexes[:],
	}
}

// DeserializeFromDB deserializes a DBOracle into an oracle
func (dbOracle DBOracle) DeserializeFromDB() (Oracle, error) {
	if len(dbOracle.Identity) != common.AddressLength {
		return Oracle{}, errors.Errorf("stored identity has %d bytes", len(dbOracle.Identity))
	}
	if len(dbOracle.Indexes) != IndexCount {
		return Oracle{}, errors.Errorf("stored oracle has %d indexes", len(dbOracle.Indexes))
	}

	var indexes Indexes
	copy(indexes[:], dbOracle.Indexes)
	oracle := NewOracle(common.BytesToAddress(dbOracle.Identity), indexes)
	return oracle, oracle.ValidateBasic()
}
