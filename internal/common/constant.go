package common

const (
	// MinNameLength is the shortest accepted user name.
	MinNameLength = 3

	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6

	// CodeSize is the length of an unsealed bearer code in bytes.
	CodeSize = 32
)
