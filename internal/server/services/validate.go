package services

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

var nameRe = regexp.MustCompile(fmt.Sprintf(`^[a-zA-Z0-9_]{%d,}$`, common.MinNameLength))

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return common.ErrInvalidName
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return common.ErrWeakPassword
	}
	return nil
}

func validatePage(size, offset int) error {
	if size < 1 || offset < 0 {
		return common.ErrInvalidPage
	}
	return nil
}
