package types

import (
	"github.com/tendermint/go-amino"
)

// ModuleCdc encodes persisted registrations.
var ModuleCdc = amino.NewCodec()

func init() {
	RegisterCodec(ModuleCdc)
}

// RegisterCodec registers the concrete types of the module on the codec.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(DBOracle{}, "relay/DBOracle", nil)
}
