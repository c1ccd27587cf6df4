package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Davincible/polyrecover/pkg/record"
	"github.com/Davincible/polyrecover/pkg/secure"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 32
	NonceSize  = 12
	KeySize    = 32
	Iterations = 100000
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrPassphraseRequired = errors.New("record is sealed and needs a passphrase")

// RecordStore reads and writes a single record file. Files are plain JSON
// unless saved with a passphrase, in which case they are sealed with
// AES-256-GCM under a PBKDF2-SHA256 key.
type RecordStore struct {
	fs   afero.Fs
	path string
}

// EncryptedData is the on-disk form of a sealed record.
type EncryptedData struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func NewRecordStore(fs afero.Fs, path string) *RecordStore {
	return &RecordStore{
		fs:   fs,
		path: path,
	}
}

// NewOSRecordStore is a RecordStore on the local filesystem.
func NewOSRecordStore(path string) *RecordStore {
	return NewRecordStore(afero.NewOsFs(), path)
}

func (s *RecordStore) Path() string {
	return s.path
}

// Sealed reports whether the file on disk is an encrypted envelope.
func (s *RecordStore) Sealed() (bool, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	_, sealed := asEnvelope(data)
	return sealed, nil
}

func (s *RecordStore) Load(passphrase []byte) (*record.Record, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if encrypted, ok := asEnvelope(data); ok {
		if len(passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		plaintext, err := open(encrypted, passphrase)
		if err != nil {
			return nil, err
		}
		defer secure.Zero(plaintext)
		data = plaintext
	}

	return record.Parse(data)
}

// Save writes r, sealing it when passphrase is not empty.
func (s *RecordStore) Save(r *record.Record, passphrase []byte) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}

	if len(passphrase) > 0 {
		sealed, err := seal(data, passphrase)
		secure.Zero(data)
		if err != nil {
			return err
		}
		data = sealed
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *RecordStore) Exists() bool {
	ok, err := afero.Exists(s.fs, s.path)
	return err == nil && ok
}

// Delete overwrites the file before removing it.
func (s *RecordStore) Delete() error {
	if !s.Exists() {
		return nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("failed to read file for secure deletion: %w", err)
	}

	if err := secure.RandomOverwrite(data); err != nil {
		return err
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	return s.fs.Remove(s.path)
}

func asEnvelope(data []byte) (*EncryptedData, bool) {
	var encrypted EncryptedData
	if err := json.Unmarshal(data, &encrypted); err != nil {
		return nil, false
	}
	if len(encrypted.Ciphertext) == 0 || len(encrypted.Salt) == 0 || len(encrypted.Nonce) == 0 {
		return nil, false
	}
	return &encrypted, true
}

func seal(plaintext, passphrase []byte) ([]byte, error) {
	salt, err := secure.SecureRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce, err := secure.SecureRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(EncryptedData{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	return jsonData, nil
}

func open(encrypted *EncryptedData, passphrase []byte) ([]byte, error) {
	gcm, err := newGCM(passphrase, encrypted.Salt)
	if err != nil {
		return nil, err
	}
	if len(encrypted.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(encrypted.Nonce))
	}

	plaintext, err := gcm.Open(nil, encrypted.Nonce, encrypted.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(passphrase, salt, Iterations, KeySize, sha256.New)
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}
