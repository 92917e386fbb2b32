package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/iudanet/gamesync/internal/client/storage"
)

var (
	sessionKey = []byte("current")
	deviceKey  = []byte("id")
)

var _ storage.SessionStorage = (*Storage)(nil)

// SaveSession stores the session as JSON under a single key
func (s *Storage) SaveSession(ctx context.Context, session *storage.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSession).Put(sessionKey, data); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// GetSession returns ErrSessionNotFound when nobody is logged in
func (s *Storage) GetSession(ctx context.Context) (*storage.Session, error) {
	var session *storage.Session

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(sessionKey)
		if data == nil {
			return storage.ErrSessionNotFound
		}

		session = &storage.Session{}
		if err := json.Unmarshal(data, session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// DeleteSession removes the stored session
func (s *Storage) DeleteSession(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSession).Delete(sessionKey); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// DeviceID returns the installation id, generating it on first call
func (s *Storage) DeviceID(ctx context.Context) (string, error) {
	var id string

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDevice)
		if data := bucket.Get(deviceKey); data != nil {
			id = string(data)
			return nil
		}

		id = uuid.New().String()
		if err := bucket.Put(deviceKey, []byte(id)); err != nil {
			return fmt.Errorf("failed to save device id: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// ResetDeviceID removes the installation id; the next DeviceID call creates a new one
func (s *Storage) ResetDeviceID(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDevice).Delete(deviceKey); err != nil {
			return fmt.Errorf("failed to reset device id: %w", err)
		}
		return nil
	})
}
