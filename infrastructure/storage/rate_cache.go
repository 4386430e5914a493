package storage

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const RateKeyPrefix = "rates:"

var _ contract.RateCache = (*RateCache)(nil)

// RateCache keeps raw archive documents in BadgerDB, one key per date.
type RateCache struct {
	db  *badger.DB
	log *slog.Logger
	ttl time.Duration
}

// NewRateCache wraps an open database. A zero ttl keeps entries forever.
func NewRateCache(db *badger.DB, log *slog.Logger, ttl time.Duration) *RateCache {
	return &RateCache{db: db, log: log, ttl: ttl}
}

// RateKey is formatted as "rates:{yyyy-mm-dd}" so that a prefix scan returns dates in order.
func RateKey(date time.Time) []byte {
	return []byte(RateKeyPrefix + date.Format(time.DateOnly))
}

func (c *RateCache) Get(date time.Time) ([]byte, bool, error) {
	var body []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(RateKey(date))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read rates for %s: %w", domain.FormatDate(date), err)
	}
	return body, true, nil
}

func (c *RateCache) Put(date time.Time, body []byte) error {
	entry := badger.NewEntry(RateKey(date), body)
	if c.ttl > 0 {
		entry = entry.WithTTL(c.ttl)
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("store rates for %s: %w", domain.FormatDate(date), err)
	}
	c.log.Debug("Rates cached", "date", domain.FormatDate(date), "bytes", len(body))
	return nil
}

// RunGC reclaims value log space until badger has nothing left to rewrite.
// It is a no-op for in-memory databases.
func (c *RateCache) RunGC(discardRatio float64) error {
	for {
		err := c.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) ||
			errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
