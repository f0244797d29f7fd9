package keys

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigner_Address(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))

	withPrefix, err := NewSigner(hexKey, big.NewInt(31))
	require.NoError(t, err)
	withoutPrefix, err := NewSigner(hexKey[2:], big.NewInt(31))
	require.NoError(t, err)

	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), withPrefix.Address())
	assert.Equal(t, withPrefix.Address(), withoutPrefix.Address())
}

func TestNewSigner_Invalid(t *testing.T) {
	_, err := NewSigner("not-a-key", big.NewInt(31))
	require.Error(t, err)

	_, err = NewSigner("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", nil)
	require.Error(t, err)
}

func TestSignTransfer(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(31)

	signer, err := NewSigner(hexutil.Encode(crypto.FromECDSA(key)), chainID)
	require.NoError(t, err)

	to := common.HexToAddress("0x5fc4d8b1f96a916683954272721cfe96ed5a3953")
	value := big.NewInt(10_000_000_000_000_000)
	gasPrice := big.NewInt(60_000_000)

	tx, err := signer.SignTransfer(to, value, 7, gasPrice, 21000)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, to, *tx.To())
	assert.Equal(t, 0, value.Cmp(tx.Value()))
	assert.Equal(t, 0, gasPrice.Cmp(tx.GasPrice()))
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, 0, chainID.Cmp(tx.ChainId()))

	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from)
}
