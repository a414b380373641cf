// Package badgerstore persists cart snapshots in an embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/storefront/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultNamespace prefixes every cart key
const DefaultNamespace = "cart-storage"

// CartStore implements domain.CartRepository on Badger.
// Each cart lives under the key "{namespace}:{cartID}" as JSON.
type CartStore struct {
	db        *badger.DB
	namespace string
	logger    *zap.Logger
}

// Open opens the database at path. An empty path opens an in-memory database.
func Open(path, namespace string, logger *zap.Logger) (*CartStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger = logger.Named("cartdb")
	logger.Info("Badger database opened", zap.String("path", path), zap.Bool("in_memory", path == ""))

	return &CartStore{db: db, namespace: namespace, logger: logger}, nil
}

// Close closes the database
func (s *CartStore) Close() error {
	s.logger.Info("Closing cart database")
	return s.db.Close()
}

// Key returns the storage key of a cart
func (s *CartStore) Key(cartID string) []byte {
	return []byte(s.namespace + ":" + cartID)
}

// Load reads a cart snapshot; ErrCartNotFound when nothing is stored
func (s *CartStore) Load(ctx context.Context, cartID string) (*domain.CartSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshot domain.CartSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.Key(cartID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", cartID, err)
	}
	return &snapshot, nil
}

// Save writes a cart snapshot, replacing any previous one
func (s *CartStore) Save(ctx context.Context, cartID string, snapshot domain.CartSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot.Items == nil {
		snapshot.Items = []domain.CartItem{}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.Key(cartID), data)
	})
}

// Delete removes a cart; deleting an absent cart is not an error
func (s *CartStore) Delete(ctx context.Context, cartID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.Key(cartID))
	})
}

// CartIDs lists the ids of every stored cart
func (s *CartStore) CartIDs(ctx context.Context) ([]string, error) {
	prefix := []byte(s.namespace + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	return ids, nil
}
