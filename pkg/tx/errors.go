package tx

import "errors"

var (
	// ErrWitnessCountMismatch is returned when a transaction carries witness
	// data but the number of witness stacks differs from the input count.
	ErrWitnessCountMismatch = errors.New("witness count does not match input count")

	// ErrUnexpectedWitness is returned when witness data is supplied for a
	// transaction explicitly built as legacy.
	ErrUnexpectedWitness = errors.New("witness data on legacy transaction")

	// ErrInvalidWitnessFlag is returned when the segwit marker is followed by
	// a flag other than 0x01.
	ErrInvalidWitnessFlag = errors.New("invalid witness flag")

	// ErrInputIndex is returned by Build when an earlier call addressed an
	// input that does not exist.
	ErrInputIndex = errors.New("input index out of range")
)
