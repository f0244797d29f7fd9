package ethereum

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserDataAddress(t *testing.T) {
	data := common.LeftPadBytes(common.HexToAddress("0x5fc4d8b1f96a916683954272721cfe96ed5a3953").Bytes(), 32)

	addr, err := DecodeUserDataAddress(data)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5fc4d8b1f96a916683954272721cfe96ed5a3953"), addr)
}

func TestDecodeUserDataAddress_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "raw 20 byte address",
			data: common.FromHex("0x5fc4d8b1f96a916683954272721cfe96ed5a3953"),
		},
		{
			name: "dirty padding",
			data: common.FromHex("0x0000000000000000000000015fc4d8b1f96a916683954272721cfe96ed5a3953"),
		},
		{
			name: "short",
			data: []byte{0x01, 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUserDataAddress(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUserDataNotAddress)

			var udErr *UserDataError
			require.True(t, errors.As(err, &udErr))
			assert.Equal(t, tt.data, udErr.Data)
		})
	}
}
