package bboltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hypergopher/markblog"
)

const bucketSubscribers = "subscribers"

var errBucketNotFound = errors.New("bucket not found")

// BBoltStore keeps newsletter subscribers in a bbolt file, one JSON value per email.
type BBoltStore struct {
	db     *bbolt.DB
	path   string
	logger *slog.Logger
}

// New creates a new BBoltStore for the database file at path. Call Init before use.
func New(path string, logger *slog.Logger) *BBoltStore {
	if logger == nil {
		logger = defaultLogger()
	}

	return &BBoltStore{
		path:   path,
		logger: logger,
	}
}

// Init opens the database file and creates the subscribers bucket.
func (bbs *BBoltStore) Init() error {
	if err := os.MkdirAll(filepath.Dir(bbs.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(bbs.path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bbolt: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSubscribers)); err != nil {
			return fmt.Errorf("failed to create subscribers bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return err
	}

	bbs.db = db
	return nil
}

func (bbs *BBoltStore) Close() error {
	if bbs.db == nil {
		return nil
	}
	err := bbs.db.Close()
	bbs.db = nil
	return err
}

func (bbs *BBoltStore) Add(ctx context.Context, sub *markblog.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to serialize subscriber: %w", err)
	}

	err = bbs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSubscribers))
		if b == nil {
			return errBucketNotFound
		}

		key := []byte(markblog.NormalizeEmail(sub.Email))
		if b.Get(key) != nil {
			return markblog.ErrSubscriberExists
		}

		return b.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to add subscriber %s: %w", sub.Email, err)
	}

	bbs.logger.Info("subscriber added", slog.String("email", sub.Email))
	return nil
}

func (bbs *BBoltStore) Get(ctx context.Context, email string) (*markblog.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sub *markblog.Subscriber
	err := bbs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSubscribers))
		if b == nil {
			return errBucketNotFound
		}

		data := b.Get([]byte(markblog.NormalizeEmail(email)))
		if data == nil {
			return markblog.ErrSubscriberNotFound
		}

		var err error
		sub, err = deserialize(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error getting subscriber %s: %w", email, err)
	}

	return sub, nil
}

// List returns all subscribers, oldest first.
func (bbs *BBoltStore) List(ctx context.Context) ([]*markblog.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subs := make([]*markblog.Subscriber, 0)
	err := bbs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSubscribers))
		if b == nil {
			return errBucketNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			sub, err := deserialize(v)
			if err != nil {
				bbs.logger.Error("skipping unreadable subscriber",
					slog.String("email", string(k)),
					slog.String("error", err.Error()))
				return nil
			}
			subs = append(subs, sub)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	slices.SortStableFunc(subs, func(a, b *markblog.Subscriber) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return subs, nil
}

func (bbs *BBoltStore) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := bbs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSubscribers))
		if b == nil {
			return errBucketNotFound
		}

		key := []byte(markblog.NormalizeEmail(email))
		if b.Get(key) == nil {
			return markblog.ErrSubscriberNotFound
		}

		return b.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %s: %w", email, err)
	}

	return nil
}

func deserialize(data []byte) (*markblog.Subscriber, error) {
	var sub markblog.Subscriber
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("error deserializing subscriber: %w", err)
	}
	return &sub, nil
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelDebug,
		}))
}
