package store

import (
	"fmt"

	"github.com/aetherdb/aetherdb/op"
)

// Store persists and restores the table catalog. The engine depends on
// this interface only.
type Store interface {
	Save(path string, tables map[string]*op.Table) error
	Load(path string) (map[string]*op.Table, error)
}

// EncryptedStore seals snapshots with a password before writing them to
// a local path, file://, or s3:// URL. Loading also accepts http(s)://.
// The S3 fields are optional; left empty, the default AWS credential
// chain applies.
type EncryptedStore struct {
	Password string

	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Endpoint  string // optional S3-compatible endpoint
}

func NewEncryptedStore(password string) *EncryptedStore {
	return &EncryptedStore{Password: password}
}

func (s *EncryptedStore) Save(path string, tables map[string]*op.Table) error {
	data, err := Serialize(tables)
	if err != nil {
		return err
	}
	blob, err := Seal(s.Password, data)
	if err != nil {
		return err
	}
	if err := s.put(path, blob); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *EncryptedStore) Load(path string) (map[string]*op.Table, error) {
	blob, err := s.get(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	data, err := Unseal(s.Password, blob)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}
