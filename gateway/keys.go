package gateway

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const hardened uint32 = 0x80000000

// ethereumPath is m/44'/60'/0'/0, the parent of every derived account.
var ethereumPath = []uint32{44 | hardened, 60 | hardened, 0 | hardened, 0}

// Keyring derives ethereum accounts from a BIP-39 mnemonic the way HD wallets
// (ganache, truffle-hdwallet-provider) do: m/44'/60'/0'/0/i.
type Keyring struct {
	mtx sync.RWMutex

	parentKey   []byte
	parentChain []byte

	byIndex   map[uint32]common.Address
	byAddress map[common.Address]*ecdsa.PrivateKey
}

func NewKeyring(mnemonic string) (*Keyring, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	key, chain := masterKey(seed)
	for _, i := range ethereumPath {
		if key, chain, err = deriveChild(key, chain, i); err != nil {
			return nil, err
		}
	}
	return &Keyring{
		parentKey:   key,
		parentChain: chain,
		byIndex:     make(map[uint32]common.Address),
		byAddress:   make(map[common.Address]*ecdsa.PrivateKey),
	}, nil
}

// Account derives, and remembers, the account at index i.
func (kr *Keyring) Account(i uint32) (common.Address, error) {
	kr.mtx.RLock()
	addr, ok := kr.byIndex[i]
	kr.mtx.RUnlock()
	if ok {
		return addr, nil
	}

	if i >= hardened {
		return common.Address{}, errors.Errorf("account index %d out of range", i)
	}
	raw, _, err := deriveChild(kr.parentKey, kr.parentChain, i)
	if err != nil {
		return common.Address{}, err
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return common.Address{}, err
	}
	addr = crypto.PubkeyToAddress(key.PublicKey)

	kr.mtx.Lock()
	kr.byIndex[i] = addr
	kr.byAddress[addr] = key
	kr.mtx.Unlock()
	return addr, nil
}

// Accounts derives count accounts starting at offset.
func (kr *Keyring) Accounts(offset, count uint32) ([]common.Address, error) {
	addrs := make([]common.Address, 0, count)
	for i := offset; i < offset+count; i++ {
		addr, err := kr.Account(i)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Key returns the private key of an account previously derived by Account.
func (kr *Keyring) Key(addr common.Address) (*ecdsa.PrivateKey, bool) {
	kr.mtx.RLock()
	defer kr.mtx.RUnlock()
	key, ok := kr.byAddress[addr]
	return key, ok
}

func masterKey(seed []byte) (key, chain []byte) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// deriveChild is BIP-32 private parent key to private child key.
func deriveChild(key, chain []byte, i uint32) ([]byte, []byte, error) {
	var data []byte
	if i >= hardened {
		data = append([]byte{0}, key...)
	} else {
		priv, err := crypto.ToECDSA(key)
		if err != nil {
			return nil, nil, err
		}
		data = crypto.CompressPubkey(&priv.PublicKey)
	}
	var ser [4]byte
	binary.BigEndian.PutUint32(ser[:], i)
	data = append(data, ser[:]...)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)

	n := crypto.S256().Params().N
	il := new(big.Int).SetBytes(sum[:32])
	if il.Cmp(n) >= 0 {
		return nil, nil, errors.Errorf("invalid child key at index %d", i)
	}
	child := il.Add(il, new(big.Int).SetBytes(key))
	child.Mod(child, n)
	if child.Sign() == 0 {
		return nil, nil, errors.Errorf("invalid child key at index %d", i)
	}
	return math.PaddedBigBytes(child, 32), sum[32:], nil
}
