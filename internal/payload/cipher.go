// Package payload implements the symmetric cipher for the telemetry
// channel between the tracking page and the server.
//
// The key is a static pre-shared secret known to both ends. This makes
// the channel confidentiality-equivalent only: anyone holding the page
// source holds the key, so decryptability is not authentication. That is
// an inherited boundary of the design, kept as-is.
package payload

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrDecrypt is the uniform error for every decryption failure: wrong
// wire format, bad IV, bad padding, or non-JSON plaintext. Callers never
// see partial or garbled payloads.
var ErrDecrypt = errors.New("invalid encrypted payload")

const keySize = 32 // AES-256

// Cipher encrypts and decrypts JSON payloads as AES-256-CBC with PKCS#7
// padding. The wire format is "<iv_hex>:<ciphertext_base64>" with a
// fresh random 16-byte IV per call, matching the CryptoJS code embedded
// in the tracking page.
type Cipher struct {
	key []byte
}

// NewCipher builds a cipher from the 64-character hex pre-shared secret.
func NewCipher(secret string) (*Cipher, error) {
	key, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("secret is not valid hex: %w", err)
	}

	if len(key) != keySize {
		return nil, fmt.Errorf("secret must decode to %d bytes, got %d", keySize, len(key))
	}

	return &Cipher{key: key}, nil
}

// Encrypt marshals v to JSON and encrypts it into the wire format.
func (c *Cipher) Encrypt(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	padded := pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt parses the wire format and unmarshals the decrypted JSON into
// out. Every failure mode is reported as ErrDecrypt.
func (c *Cipher) Decrypt(wire string, out any) error {
	parts := strings.Split(wire, ":")
	if len(parts) != 2 {
		return fmt.Errorf("%w: expected two colon-delimited parts", ErrDecrypt)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return fmt.Errorf("%w: bad iv", ErrDecrypt)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: bad ciphertext encoding", ErrDecrypt)
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: bad ciphertext length", ErrDecrypt)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: bad padding", ErrDecrypt)
	}

	if err := json.Unmarshal(unpadded, out); err != nil {
		return fmt.Errorf("%w: plaintext is not valid json", ErrDecrypt)
	}

	return nil
}

// KeyHex returns the key as hex, as served to the embedded client script
// (CryptoJS.enc.Hex.parse keeps both ends on the same 32 bytes).
func (c *Cipher) KeyHex() string {
	return hex.EncodeToString(c.key)
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize

	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding byte")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("inconsistent padding")
		}
	}

	return data[:len(data)-n], nil
}
