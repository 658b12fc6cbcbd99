package prevtx

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

var bucketTxs = []byte("txs_by_id")

// BoltStore keeps transactions in a bbolt file keyed by TXID.
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger
}

// OpenBoltStore opens or creates the store at path.
func OpenBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := db.Update(func(btx *bolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists(bucketTxs); err != nil {
			return fmt.Errorf("create bucket %s: %w", string(bucketTxs), err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, logger: logger}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put records t under its TXID.
func (s *BoltStore) Put(ctx context.Context, t *tx.Tx) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txid := t.TxID()
	err := s.db.Update(func(btx *bolt.Tx) error {
		return btx.Bucket(bucketTxs).Put(txid[:], t.Bytes())
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", txid, err)
	}
	s.logger.Debug("stored transaction", zap.Stringer("txid", txid))
	return nil
}

// PrevTx implements Source.
func (s *BoltStore) PrevTx(ctx context.Context, txid tx.TXID) (*tx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	if err := s.db.View(func(btx *bolt.Tx) error {
		// Values are only valid for the life of the transaction.
		if v := btx.Bucket(bucketTxs).Get(txid[:]); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, txid)
	}

	t, err := tx.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("decode stored %s: %w", txid, err)
	}
	if err := checkID(t, txid); err != nil {
		return nil, err
	}
	return t, nil
}
