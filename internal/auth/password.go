package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

// hashCost is lowered by tests.
var hashCost = bcrypt.DefaultCost

// UserAttribute is a piece of user data a password must not resemble.
// Name is the human label used in the error message.
type UserAttribute struct {
	Name  string
	Value string
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword applies the strength policy and returns one message per
// failed rule. An empty result means the password is acceptable.
func ValidatePassword(password string, attrs ...UserAttribute) []string {
	var problems []string

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf(
			"This password is too long. It must contain at most %d bytes.", MaxPasswordBytes))
	}
	if attr, ok := similarAttribute(password, attrs); ok {
		problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attr))
	}
	if isCommonPassword(password) {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var nonWord = regexp.MustCompile(`\W+`)

// similarAttribute checks the whole attribute and each of its word parts
// (so "ada.lovelace@example.com" also yields "lovelace") for containment
// in either direction.
func similarAttribute(password string, attrs []UserAttribute) (string, bool) {
	pw := strings.ToLower(password)
	if len(pw) < 3 {
		return "", false
	}
	for _, attr := range attrs {
		value := strings.ToLower(strings.TrimSpace(attr.Value))
		if value == "" {
			continue
		}
		parts := append([]string{value}, nonWord.Split(value, -1)...)
		for _, part := range parts {
			if len(part) < 3 {
				continue
			}
			if strings.Contains(pw, part) || strings.Contains(part, pw) {
				return attr.Name, true
			}
		}
	}
	return "", false
}
