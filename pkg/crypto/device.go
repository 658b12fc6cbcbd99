package crypto

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// ErrDeviceTransport marks failures of the link to a hardware signer.
// Operations failing with it may be retried once the device recovers.
var ErrDeviceTransport = errors.New("device transport failure")

type (
	// Device is a hardware signer. A device serves one request at a time
	// and may need Recover after an interrupted exchange.
	Device interface {
		Fingerprint(ctx context.Context) ([4]byte, error)
		PublicKey(ctx context.Context, path []uint32) ([]byte, error)
		SignDigest(ctx context.Context, path []uint32, digest [32]byte) ([]byte, error)
		Recover(ctx context.Context) error
	}
)

// IsRetryable reports whether err came from a device transport fault.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDeviceTransport)
}

// DeviceKeyProvider serializes access to a Device and verifies what it
// returns.
type DeviceKeyProvider struct {
	mu          sync.Mutex
	dev         Device
	fingerprint [4]byte
	dirty       bool
	logger      *zap.Logger
}

// NewDeviceKeyProvider reads the root fingerprint from dev.
func NewDeviceKeyProvider(ctx context.Context, dev Device, logger *zap.Logger) (*DeviceKeyProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DeviceKeyProvider{dev: dev, logger: logger}
	err := d.exchange(ctx, func() error {
		fp, err := dev.Fingerprint(ctx)
		d.fingerprint = fp
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read device fingerprint: %w", err)
	}
	return d, nil
}

// exchange runs fn with exclusive access to the device. A failed exchange
// leaves the device in an unknown state; the next exchange recovers it
// first.
func (d *DeviceKeyProvider) exchange(ctx context.Context, fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dirty {
		d.logger.Debug("recovering device")
		if err := d.dev.Recover(ctx); err != nil {
			return fmt.Errorf("%w: recover: %v", ErrDeviceTransport, err)
		}
		d.dirty = false
	}
	if err := fn(); err != nil {
		d.dirty = true
		d.logger.Warn("device exchange failed", zap.Error(err))
		return err
	}
	return nil
}

// Fingerprint implements KeyProvider.
func (d *DeviceKeyProvider) Fingerprint() [4]byte {
	return d.fingerprint
}

// PublicKey implements KeyProvider.
func (d *DeviceKeyProvider) PublicKey(ctx context.Context, path []uint32) ([]byte, error) {
	var pub []byte
	err := d.exchange(ctx, func() error {
		var err error
		pub, err = d.dev.PublicKey(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	if _, err := ParsePublicKey(pub); err != nil {
		return nil, fmt.Errorf("device returned bad public key for %s: %w", FormatPath(path), err)
	}
	return pub, nil
}

// SignDigest implements KeyProvider. The signature is checked against the
// device's public key for path before it is returned.
func (d *DeviceKeyProvider) SignDigest(ctx context.Context, path []uint32, digest [32]byte) ([]byte, error) {
	var pub, sig []byte
	err := d.exchange(ctx, func() error {
		var err error
		if pub, err = d.dev.PublicKey(ctx, path); err != nil {
			return err
		}
		sig, err = d.dev.SignDigest(ctx, path, digest)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := verifyEncoded(pub, digest, sig); err != nil {
		return nil, fmt.Errorf("device signature for %s: %w", FormatPath(path), err)
	}
	return sig, nil
}
