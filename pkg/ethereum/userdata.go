package ethereum

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUserDataNotAddress is matched by every UserDataError
var ErrUserDataNotAddress = errors.New("user data is not an abi encoded address")

// UserDataError reports a bridge userData payload that could not be decoded as a recipient address
type UserDataError struct {
	Data []byte
	Err  error
}

func (e *UserDataError) Error() string {
	return fmt.Sprintf("%s (0x%x): %v", ErrUserDataNotAddress, e.Data, e.Err)
}

func (e *UserDataError) Unwrap() []error {
	return []error{ErrUserDataNotAddress, e.Err}
}

var addressArguments = func() abi.Arguments {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: addressType}}
}()

// DecodeUserDataAddress decodes a bridge userData payload holding a single abi encoded address.
// The 12 padding bytes in front of the address must be zero.
func DecodeUserDataAddress(data []byte) (common.Address, error) {
	values, err := addressArguments.Unpack(data)
	if err != nil {
		return common.Address{}, &UserDataError{Data: data, Err: err}
	}
	for _, b := range data[:common.HashLength-common.AddressLength] {
		if b != 0 {
			return common.Address{}, &UserDataError{Data: data, Err: errors.New("non-zero address padding")}
		}
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, &UserDataError{Data: data, Err: fmt.Errorf("unexpected type %T", values[0])}
	}
	return addr, nil
}
