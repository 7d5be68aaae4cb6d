// Package keystore keeps ed25519 signing keys on disk, sealed with a
// password. Each key lives in <name>.json inside the keystore directory.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/illarion/timelock/internal/crypto"
	"github.com/illarion/timelock/internal/identity"
	"github.com/illarion/timelock/internal/security"
)

const (
	fileVersion = 1
	fileSuffix  = ".json"
)

var (
	ErrInvalidName   = errors.New("invalid key name")
	ErrKeyExists     = errors.New("key already exists")
	ErrKeyNotFound   = errors.New("key not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrCorruptKey    = errors.New("corrupt key file")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// keyFile is the on-disk JSON form
type keyFile struct {
	Version int               `json:"version"`
	Name    string            `json:"name"`
	Address identity.Identity `json:"address"`
	Created time.Time         `json:"created"`
	Seed    *crypto.Sealed    `json:"seed"`
}

// Entry describes a stored key without unsealing it
type Entry struct {
	Name    string
	Address identity.Identity
	Created time.Time
}

// Store is a directory of sealed keys
type Store struct {
	pv *security.PathValidator
}

// Open opens (and creates if needed) the keystore directory
func Open(dir string) (*Store, error) {
	pv, err := security.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}
	return &Store{pv: pv}, nil
}

func (s *Store) Close() error {
	return s.pv.Close()
}

func (s *Store) Dir() string {
	return s.pv.Dir()
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q (letters, digits, - and _ only)", ErrInvalidName, name)
	}
	return nil
}

// Create generates a new keypair and stores it sealed under password
func (s *Store) Create(name string, password []byte) (*identity.Keypair, error) {
	kp, err := identity.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.Import(name, kp, password); err != nil {
		kp.Destroy()
		return nil, err
	}
	return kp, nil
}

// Import stores an existing keypair under name
func (s *Store) Import(name string, kp *identity.Keypair, password []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	addr := kp.Address()
	seed := kp.Seed()
	defer crypto.ClearBytes(seed)

	sealed, err := crypto.Seal(password, seed, associatedData(name, addr))
	if err != nil {
		return fmt.Errorf("failed to seal key: %w", err)
	}
	data, err := json.MarshalIndent(keyFile{
		Version: fileVersion,
		Name:    name,
		Address: addr,
		Created: time.Now().UTC(),
		Seed:    sealed,
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := s.pv.WriteFile(name+fileSuffix, data, 0600, false); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, name)
		}
		return fmt.Errorf("failed to write key %s: %w", name, err)
	}
	return nil
}

func (s *Store) read(name string) (*keyFile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := s.pv.ReadFile(name + fileSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, fmt.Errorf("failed to read key %s: %w", name, err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptKey, name, err)
	}
	if kf.Version != fileVersion || kf.Seed == nil || kf.Name != name {
		return nil, fmt.Errorf("%w: %s", ErrCorruptKey, name)
	}
	return &kf, nil
}

// Address returns the public address of name without a password
func (s *Store) Address(name string) (identity.Identity, error) {
	kf, err := s.read(name)
	if err != nil {
		return identity.Zero, err
	}
	return kf.Address, nil
}

// Load unseals the keypair stored under name
func (s *Store) Load(name string, password []byte) (*identity.Keypair, error) {
	kf, err := s.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := crypto.Open(password, kf.Seed, associatedData(name, kf.Address))
	if err != nil {
		if errors.Is(err, crypto.ErrAuthFailed) {
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptKey, name, err)
	}
	defer crypto.ClearBytes(seed)

	kp, err := identity.FromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptKey, name, err)
	}
	if kp.Address() != kf.Address {
		kp.Destroy()
		return nil, fmt.Errorf("%w: %s: address does not match seed", ErrCorruptKey, name)
	}
	return kp, nil
}

// List returns every readable key, sorted by name
func (s *Store) List() ([]Entry, error) {
	files, err := s.pv.List("*" + fileSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keystore: %w", err)
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, fileSuffix)
		kf, err := s.read(name)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: kf.Name, Address: kf.Address, Created: kf.Created})
	}
	return entries, nil
}

func associatedData(name string, addr identity.Identity) []byte {
	return append([]byte("timelock/key/"+name+"/"), addr[:]...)
}
