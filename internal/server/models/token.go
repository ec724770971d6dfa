package models

// Token is the sealed bearer code of one user. Mask is the public, unique
// lookup key derived from the unsealed code.
type Token struct {
	OwnerID    string
	Ciphertext []byte
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Mask       string
}
