package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Store is the narrow read-mostly view of the external document store that
// the realtime core is allowed to consult: a user's display identity and a
// conversation's participant list. The relay path never writes through it;
// the write methods exist so the surrounding application (and tests) can
// keep it in sync with the system of record.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Profile is a user's display identity, resolved before call events are
// enriched client-side.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

const (
	userPrefix = "user/"
	convPrefix = "conv/"
)

func Open(logger *slog.Logger, path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(nil)
	if inMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open directory store: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "directory")),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveUser(p Profile) error {
	if p.UserID == "" {
		return errors.New("profile missing user id")
	}
	value, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userPrefix+p.UserID), value)
	})
}

// User resolves a display identity. A missing user is not an error.
func (s *Store) User(userID string) (*Profile, bool, error) {
	var p Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *Store) SaveConversation(conversationID string, participantIDs []string) error {
	if conversationID == "" {
		return errors.New("conversation missing id")
	}
	value, err := json.Marshal(participantIDs)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(convPrefix+conversationID), value)
	})
}

// Participants returns the user ids allowed into a conversation room. An
// unknown conversation yields an empty list, which under membership
// enforcement refuses everyone.
func (s *Store) Participants(conversationID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(convPrefix + conversationID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ids)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
