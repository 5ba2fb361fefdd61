package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keyfileVersion = 1
	saltLen        = 16
	aesKeyLen      = 32
)

// pbkdf2Iterations is a var so tests can lower it.
var pbkdf2Iterations = 480_000

// keyfileJSON is the on-disk format of an encrypted signer key. All byte
// fields are standard base64.
type keyfileJSON struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// EncryptKey seals key with a password using PBKDF2-HMAC-SHA256 and
// AES-256-GCM, returning the JSON to write to disk.
func EncryptKey(key *ecdsa.PrivateKey, password string) ([]byte, error) {
	if key == nil {
		return nil, errors.New("keyfile: key required")
	}
	if password == "" {
		return nil, errors.New("keyfile: password must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyfile: generating salt: %w", err)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keyfile: generating nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, crypto.FromECDSA(key), nil)

	return json.MarshalIndent(keyfileJSON{
		Version:    keyfileVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
}

// DecryptKey opens a blob produced by EncryptKey.
func DecryptKey(blob []byte, password string) (*ecdsa.PrivateKey, error) {
	if password == "" {
		return nil, errors.New("keyfile: password must not be empty")
	}
	var stored keyfileJSON
	if err := json.Unmarshal(blob, &stored); err != nil {
		return nil, fmt.Errorf("keyfile: parse: %w", err)
	}
	if stored.Version != keyfileVersion {
		return nil, fmt.Errorf("keyfile: unsupported version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, fmt.Errorf("keyfile: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keyfile: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keyfile: decoding ciphertext: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("keyfile: nonce length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keyfile: decryption failed (wrong password?): %w", err)
	}
	return crypto.ToECDSA(plaintext)
}

func LoadKeyFile(path, password string) (*ecdsa.PrivateKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: read: %w", err)
	}
	return DecryptKey(blob, password)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("keyfile: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keyfile: creating GCM: %w", err)
	}
	return gcm, nil
}
