package models

// Privilege is a named permission value bound to a token mask.
type Privilege struct {
	Mask  string
	Key   string
	Value string
}
