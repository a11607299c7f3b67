// Package validation provides input validation for forms and account fields.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	usernameMaxLen = 150
	passwordMinLen = 8
	passwordMaxLen = 128
	emailMaxLen    = 254
	slugMaxLen     = 50
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
)

// reservedUsernames collide with fixed routes under /profile/.
var reservedUsernames = map[string]struct{}{
	"admin":  {},
	"auth":   {},
	"follow": {},
	"create": {},
	"media":  {},
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 {
		return errors.New("Имя пользователя должно содержать не менее 3 символов.")
	}
	if n > usernameMaxLen {
		return fmt.Errorf("Имя пользователя должно содержать не более %d символов.", usernameMaxLen)
	}

	// Letters, digits and @/./+/-/_ only.
	if !usernameRegex.MatchString(username) {
		return errors.New("Имя пользователя может содержать только буквы, цифры и символы @/./+/-/_.")
	}

	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("Это имя пользователя зарезервировано.")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password, username string) error {
	n := utf8.RuneCountInString(password)
	if n < passwordMinLen {
		return fmt.Errorf("Пароль слишком короткий. Он должен содержать не менее %d символов.", passwordMinLen)
	}
	if n > passwordMaxLen {
		return fmt.Errorf("Пароль должен содержать не более %d символов.", passwordMaxLen)
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("Пароль не может состоять только из цифр.")
	}

	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return errors.New("Пароль слишком похож на имя пользователя.")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > emailMaxLen {
		return fmt.Errorf("Адрес электронной почты должен содержать не более %d символов.", emailMaxLen)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("Введите правильный адрес электронной почты.")
	}
	return nil
}

// ValidateSlug validates a group slug: lowercase latin letters and digits,
// optionally joined by single hyphens or underscores.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > slugMaxLen {
		return fmt.Errorf("slug must be 1-%d characters", slugMaxLen)
	}
	if !slugRegex.MatchString(slug) {
		return errors.New("slug may contain only lowercase letters, digits, hyphens and underscores, and cannot start or end with a separator")
	}
	return nil
}
