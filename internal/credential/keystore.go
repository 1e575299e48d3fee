package credential

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	dErrors "globaltrust/pkg/domain-errors"
)

const keystoreInfo = "globaltrust keystore v1"

// Keystore persists the last delegation between runs.
type Keystore interface {
	Load(ctx context.Context) (token string, found bool, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Sealer encrypts keystore contents with XChaCha20-Poly1305 under a key
// derived from a configured secret.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "keystore secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keystoreInfo)), key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive keystore key")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "init keystore cipher")
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns nonce || ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, []byte(keystoreInfo)), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New("sealed value too short")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ciphertext, []byte(keystoreInfo))
}

// FileKeystore keeps the sealed delegation in a single file.
type FileKeystore struct {
	path   string
	sealer *Sealer
	mu     sync.Mutex
}

func NewFileKeystore(path string, sealer *Sealer) *FileKeystore {
	return &FileKeystore{path: path, sealer: sealer}
}

func (k *FileKeystore) Load(_ context.Context) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sealed, err := os.ReadFile(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "read keystore")
	}
	plain, err := k.sealer.Open(sealed)
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "keystore cannot be opened")
	}
	return string(plain), true, nil
}

// Save writes through a temporary file so a crash never leaves a torn keystore.
func (k *FileKeystore) Save(_ context.Context, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	sealed, err := k.sealer.Seal([]byte(token))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "seal delegation")
	}
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create keystore directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(k.path), ".keystore-*")
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create keystore")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return dErrors.Wrap(err, dErrors.CodeInternal, "write keystore")
	}
	if err := tmp.Close(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write keystore")
	}
	if err := os.Rename(tmp.Name(), k.path); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "replace keystore")
	}
	return nil
}

func (k *FileKeystore) Clear(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := os.Remove(k.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear keystore")
	}
	return nil
}

// MemoryKeystore holds the delegation for the life of the process.
type MemoryKeystore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{}
}

func (k *MemoryKeystore) Load(_ context.Context) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.token, k.token != "", nil
}

func (k *MemoryKeystore) Save(_ context.Context, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = token
	return nil
}

func (k *MemoryKeystore) Clear(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.token = ""
	return nil
}
