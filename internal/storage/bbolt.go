package storage

import (
	"bytes"
	"crypto/rand"
	"encoding"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/timelock/internal/identity"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	MetaBucket     = []byte("meta")     // schema version, timestamps, store ID
	ConfigBucket   = []byte("config")   // admin settings singleton
	AssetsBucket   = []byte("assets")   // supported assets by asset ID
	VaultsBucket   = []byte("vaults")   // vaults by owner || asset
	AccountsBucket = []byte("accounts") // ledger accounts by address
)

// Meta and config keys
var (
	MetaVersion      = []byte("version")
	MetaCreated      = []byte("created")
	MetaModified     = []byte("modified")
	MetaStoreID      = []byte("store_id")
	AdminSettingsKey = []byte("admin_settings")
)

const schemaVersion = "1"

var (
	ErrExists        = errors.New("record already exists")
	ErrBucketMissing = errors.New("bucket not found")
)

// Storage provides BBolt-based storage for timelock
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a timelock database and makes sure the bucket
// structure exists.
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	initialized, err := s.IsInitialized()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !initialized {
		if err := s.Initialize(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{MetaBucket, ConfigBucket, AssetsBucket, VaultsBucket, AccountsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(MetaBucket)
		if err := meta.Put(MetaVersion, []byte(schemaVersion)); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := meta.Put(MetaCreated, created); err != nil {
			return err
		}
		return meta.Put(MetaModified, created)
	})
}

// IsInitialized checks if the bucket structure has been created
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta != nil && meta.Get(MetaVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Update runs fn inside one read-write transaction. If fn returns an error
// every write it made is discarded.
func (s *Storage) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		tx := &Tx{tx: btx}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.touch()
	})
}

// View runs fn inside a read-only transaction
func (s *Storage) View(fn func(tx *Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return fmt.Errorf("%w: %s", ErrBucketMissing, MetaBucket)
		}
		data := meta.Get(MetaModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// GetStoreID retrieves the store ID from the meta bucket
func (s *Storage) GetStoreID() (string, error) {
	var storeID string
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return fmt.Errorf("%w: %s", ErrBucketMissing, MetaBucket)
		}
		data := meta.Get(MetaStoreID)
		if data == nil {
			return fmt.Errorf("store_id not found")
		}
		storeID = string(data)
		return nil
	})
	return storeID, err
}

// GetOrCreateStoreID retrieves the existing store ID or generates a new one
func (s *Storage) GetOrCreateStoreID() (string, error) {
	storeID, err := s.GetStoreID()
	if err == nil {
		return storeID, nil
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate store ID: %w", err)
	}
	storeID = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(MetaBucket).Put(MetaStoreID, []byte(storeID))
	})
	if err != nil {
		return "", err
	}
	return storeID, nil
}

// Compact creates a compacted copy of the database, removing unused space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	return nil
}

// Tx is a storage transaction. Records returned from a Tx are copies and
// remain valid after the transaction ends.
type Tx struct {
	tx *bolt.Tx
}

func (t *Tx) bucket(name []byte) (*bolt.Bucket, error) {
	b := t.tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrBucketMissing, name)
	}
	return b, nil
}

// get decodes the record under key into rec. It reports false when the key is absent.
func (t *Tx) get(bucket, key []byte, rec encoding.BinaryUnmarshaler) (bool, error) {
	b, err := t.bucket(bucket)
	if err != nil {
		return false, err
	}
	data := b.Get(key)
	if data == nil {
		return false, nil
	}
	if err := rec.UnmarshalBinary(data); err != nil {
		return false, fmt.Errorf("failed to decode %s/%x: %w", bucket, key, err)
	}
	return true, nil
}

func (t *Tx) put(bucket, key []byte, rec encoding.BinaryMarshaler) error {
	b, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// create stores rec only when key is absent
func (t *Tx) create(bucket, key []byte, rec encoding.BinaryMarshaler) error {
	b, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	if b.Get(key) != nil {
		return fmt.Errorf("%w: %s/%x", ErrExists, bucket, key)
	}
	return t.put(bucket, key, rec)
}

func (t *Tx) touch() error {
	if !t.tx.Writable() {
		return nil
	}
	meta, err := t.bucket(MetaBucket)
	if err != nil {
		return err
	}
	modified, _ := time.Now().MarshalBinary()
	return meta.Put(MetaModified, modified)
}

// AdminSettings returns the settings singleton, or nil if it was never created
func (t *Tx) AdminSettings() (*AdminSettings, error) {
	var s AdminSettings
	ok, err := t.get(ConfigBucket, AdminSettingsKey, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// CreateAdminSettings stores the singleton, failing with ErrExists if present
func (t *Tx) CreateAdminSettings(s *AdminSettings) error {
	return t.create(ConfigBucket, AdminSettingsKey, s)
}

// PutAdminSettings overwrites the singleton
func (t *Tx) PutAdminSettings(s *AdminSettings) error {
	return t.put(ConfigBucket, AdminSettingsKey, s)
}

// SupportedAsset returns the registry entry for asset, or nil
func (t *Tx) SupportedAsset(asset identity.Identity) (*SupportedAsset, error) {
	var a SupportedAsset
	ok, err := t.get(AssetsBucket, asset[:], &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

// CreateSupportedAsset adds a registry entry, failing with ErrExists on duplicates
func (t *Tx) CreateSupportedAsset(a *SupportedAsset) error {
	return t.create(AssetsBucket, a.AssetID[:], a)
}

// SupportedAssets lists the registry ordered by asset ID bytes
func (t *Tx) SupportedAssets() ([]SupportedAsset, error) {
	b, err := t.bucket(AssetsBucket)
	if err != nil {
		return nil, err
	}
	var assets []SupportedAsset
	err = b.ForEach(func(k, v []byte) error {
		var a SupportedAsset
		if err := a.UnmarshalBinary(v); err != nil {
			return fmt.Errorf("failed to decode asset %x: %w", k, err)
		}
		assets = append(assets, a)
		return nil
	})
	return assets, err
}

// Vault returns the vault for owner and asset, or nil if none was ever created
func (t *Tx) Vault(owner, asset identity.Identity) (*Vault, error) {
	var v Vault
	ok, err := t.get(VaultsBucket, VaultKey(owner, asset), &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// PutVault stores v under its owner and asset
func (t *Tx) PutVault(v *Vault) error {
	return t.put(VaultsBucket, VaultKey(v.Owner, v.AssetID), v)
}

// Vaults lists vaults of owner, or of everyone when owner is the zero identity
func (t *Tx) Vaults(owner identity.Identity) ([]Vault, error) {
	b, err := t.bucket(VaultsBucket)
	if err != nil {
		return nil, err
	}

	var prefix []byte
	if !owner.IsZero() {
		prefix = owner[:]
	}

	var vaults []Vault
	c := b.Cursor()
	k, v := c.First()
	if prefix != nil {
		k, v = c.Seek(prefix)
	}
	for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var vault Vault
		if err := vault.UnmarshalBinary(v); err != nil {
			return nil, fmt.Errorf("failed to decode vault %x: %w", k, err)
		}
		vaults = append(vaults, vault)
	}
	return vaults, nil
}

// Account returns the ledger account at addr, or nil
func (t *Tx) Account(addr identity.Identity) (*Account, error) {
	var a Account
	ok, err := t.get(AccountsBucket, addr[:], &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

// CreateAccount stores a new ledger account, failing with ErrExists if present
func (t *Tx) CreateAccount(a *Account) error {
	return t.create(AccountsBucket, a.Address[:], a)
}

// PutAccount overwrites a ledger account
func (t *Tx) PutAccount(a *Account) error {
	return t.put(AccountsBucket, a.Address[:], a)
}
