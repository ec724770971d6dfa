package models

// User is a registered principal. Name is the mutable human handle, ID the
// stable identifier every other entity refers to.
type User struct {
	ID           string
	Name         string
	PasswordHash string
}
