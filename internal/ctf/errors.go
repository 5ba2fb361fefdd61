package ctf

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted marks a transaction that was mined with a failed status.
var ErrReverted = errors.New("transaction reverted")

// SubmissionError is returned when a call never made it on chain: the signer
// could not be built, gas estimation reverted or the RPC rejected the tx.
type SubmissionError struct {
	Op     Op
	Target string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s via %s: submit: %v", e.Op, e.Target, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationError is returned for a submitted transaction that did not
// confirm successfully.
type ConfirmationError struct {
	Op     Op
	Target string
	TxHash common.Hash
	// Status is the receipt status when one was obtained.
	Status uint64
	Err    error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s via %s: tx %s: %v", e.Op, e.Target, e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }
