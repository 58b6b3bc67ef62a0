package consensus

import (
	"errors"
	"fmt"

	"dagbft_demo/types"
)

// ErrDuplicateValidator is returned when a validator address is registered
// in the committee more than once. The caller must fix its input; the
// committee is left untouched.
type ErrDuplicateValidator struct {
	Address types.Address
}

func (e ErrDuplicateValidator) Error() string {
	return fmt.Sprintf("validator %v already in committee", e.Address)
}

// IsErrDuplicateValidator returns true if err is ErrDuplicateValidator.
func IsErrDuplicateValidator(err error) bool {
	return errors.As(err, &ErrDuplicateValidator{})
}

// ErrStakeOverflow is returned when the committee's total stake exceeds the
// 64-bit unsigned range. It signals a configuration problem and is not
// recoverable by retrying with the same committee.
type ErrStakeOverflow struct {
	Partial uint64
	Stake   uint64
}

func (e ErrStakeOverflow) Error() string {
	return fmt.Sprintf("failed to calculate total stake - overflow detected (partial sum %d + stake %d)", e.Partial, e.Stake)
}

// IsErrStakeOverflow returns true if err is ErrStakeOverflow.
func IsErrStakeOverflow(err error) bool {
	return errors.As(err, &ErrStakeOverflow{})
}
