// Package cryptox holds the cryptographic primitives of TokenKeeper:
// argon2id password hashing, password-derived sealing of bearer codes with
// AES-256-GCM, and the unsalted SHA-256 mask used as a code's public identity.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	keySize   = 32
	nonceSize = 12
	tagSize   = 16

	algorithmID = "argon2id"
)

// Params are the argon2id cost parameters shared by password hashing and
// key derivation.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams are used when no configuration overrides them.
var DefaultParams = Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}

// Argon2 hashes passwords and derives sealing keys with fixed parameters.
// It is immutable and safe for concurrent use.
type Argon2 struct {
	params Params
}

// NewArgon2 returns an Argon2 using p. Zero fields fall back to DefaultParams.
func NewArgon2(p Params) *Argon2 {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultParams.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	return &Argon2{params: p}
}

// Params returns the parameters in use.
func (a *Argon2) Params() Params {
	return a.params
}

// HashPassword returns the PHC-encoded argon2id hash of password:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (a *Argon2) HashPassword(password string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	hash := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.MemoryKiB, a.params.Threads, keySize)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.params.MemoryKiB,
		a.params.Time,
		a.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash. The
// comparison is constant-time; a malformed hash never matches.
func (a *Argon2) VerifyPassword(password, encoded string) bool {
	p, salt, hash, err := parsePHC(encoded)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(computed, hash) == 1
}

func parsePHC(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, errors.New("invalid PHC format")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &threads); err != nil {
		return p, nil, nil, fmt.Errorf("invalid argon2 params: %w", err)
	}
	if p.MemoryKiB == 0 || p.Time == 0 || threads == 0 || threads > 255 {
		return p, nil, nil, errors.New("invalid argon2 params")
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errors.New("invalid salt encoding")
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, errors.New("invalid hash encoding")
	}
	return p, salt, hash, nil
}

// DeriveKey stretches passphrase into an AES-256 key bound to salt.
func (a *Argon2) DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, a.params.Time, a.params.MemoryKiB, a.params.Threads, keySize)
}

// Sealed is a bearer code encrypted under a password-derived key. All four
// parts are needed to unseal it.
type Sealed struct {
	Ciphertext []byte
	Salt       []byte
	Nonce      []byte
	Tag        []byte
}

// Seal encrypts code with AES-256-GCM under a key derived from passphrase and
// a fresh salt. A fresh nonce is generated for each call.
func (a *Argon2) Seal(code []byte, passphrase string) (*Sealed, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := a.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	out := aesgcm.Seal(nil, nonce, code, nil)
	split := len(out) - tagSize

	return &Sealed{
		Ciphertext: out[:split],
		Salt:       salt,
		Nonce:      nonce,
		Tag:        out[split:],
	}, nil
}

// Unseal reverses Seal. A wrong passphrase, a tampered part or a malformed
// payload all yield common.ErrIntegrity.
func (a *Argon2) Unseal(s *Sealed, passphrase string) ([]byte, error) {
	if s == nil || len(s.Salt) == 0 || len(s.Nonce) != nonceSize || len(s.Tag) != tagSize {
		return nil, common.ErrIntegrity
	}

	key := a.DeriveKey(passphrase, s.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(s.Ciphertext)+len(s.Tag))
	sealed = append(sealed, s.Ciphertext...)
	sealed = append(sealed, s.Tag...)

	code, err := aesgcm.Open(nil, s.Nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	return code, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// RandomCode returns a fresh unsealed bearer code.
func RandomCode() []byte {
	return common.GenerateRandByteArray(common.CodeSize)
}

// MaskCode returns the hex SHA-256 digest of code. It is deterministic and
// unsalted so that the same code always resolves to the same mask.
func MaskCode(code []byte) string {
	sum := sha256.Sum256(code)
	return hex.EncodeToString(sum[:])
}

// EncodeCode renders a code for callers.
func EncodeCode(code []byte) string {
	return base64.StdEncoding.EncodeToString(code)
}

// DecodeCode parses a caller-supplied code.
func DecodeCode(code string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed code", common.ErrInvalidInput)
	}
	return raw, nil
}

// MaskString decodes code and returns its mask.
func MaskString(code string) (string, error) {
	raw, err := DecodeCode(code)
	if err != nil {
		return "", err
	}
	return MaskCode(raw), nil
}
