// Package sighash computes the digests signed by transaction inputs: the
// original (legacy) algorithm and the BIP143 algorithm used for version 0
// witness programs.
//
// Both algorithms are pure functions of their arguments.
package sighash

import (
	"errors"
	"fmt"
	"strings"
)

// Flag selects which parts of a transaction a signature commits to.
// Bits 0-1 select the base mode; bit 0x80 is ANYONECANPAY.
type Flag uint8

const (
	All          Flag = 0x01
	None         Flag = 0x02
	Single       Flag = 0x03
	AnyoneCanPay Flag = 0x80

	baseMask = 0x1f
)

var (
	// ErrUnknownFlag is returned for flag bytes outside
	// {ALL, NONE, SINGLE} optionally combined with ANYONECANPAY.
	ErrUnknownFlag = errors.New("unknown sighash flag")

	// ErrNotWitnessProgram is returned when a script code is requested for
	// a script that is not a version 0 witness program.
	ErrNotWitnessProgram = errors.New("not a version 0 witness program")

	// ErrWitnessScriptMismatch is returned when a witness script does not
	// hash to the WSH program it is meant to satisfy.
	ErrWitnessScriptMismatch = errors.New("witness script does not match program")
)

// IndexError reports an input index outside the transaction.
type IndexError struct {
	Index  int
	Inputs int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("input index %d out of range (%d inputs)", e.Index, e.Inputs)
}

// Base returns the mode without the ANYONECANPAY bit.
func (f Flag) Base() Flag {
	return f & baseMask
}

// HasAnyoneCanPay reports whether the ANYONECANPAY bit is set.
func (f Flag) HasAnyoneCanPay() bool {
	return f&AnyoneCanPay != 0
}

// Validate rejects flags other than 0x01-0x03 and 0x81-0x83.
func (f Flag) Validate() error {
	switch f &^ AnyoneCanPay {
	case All, None, Single:
		return nil
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownFlag, uint8(f))
	}
}

func (f Flag) String() string {
	var name string
	switch f.Base() {
	case All:
		name = "ALL"
	case None:
		name = "NONE"
	case Single:
		name = "SINGLE"
	default:
		return fmt.Sprintf("0x%02x", uint8(f))
	}
	if f.HasAnyoneCanPay() {
		name += "|ANYONECANPAY"
	}
	return name
}

// FromUint32 converts the 4-byte form stored in partially signed
// transactions, validating it.
func FromUint32(v uint32) (Flag, error) {
	if v > 0xff {
		return 0, fmt.Errorf("%w: 0x%08x", ErrUnknownFlag, v)
	}
	f := Flag(v)
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f, nil
}

// ParseFlag parses names such as "ALL" or "SINGLE|ANYONECANPAY".
func ParseFlag(s string) (Flag, error) {
	var f Flag
	for _, part := range strings.Split(strings.ToUpper(strings.TrimSpace(s)), "|") {
		switch strings.TrimSpace(part) {
		case "ALL":
			f |= All
		case "NONE":
			f |= None
		case "SINGLE":
			f |= Single
		case "ANYONECANPAY":
			f |= AnyoneCanPay
		default:
			return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, s)
		}
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f, nil
}
