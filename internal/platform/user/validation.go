package user

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field names used in violations and in console "field;value" commands
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldAge   = "age"
)

const (
	NameMinLength  = 2
	NameMaxLength  = 50
	EmailMaxLength = 255
	AgeMin         = 0
	AgeMax         = 150
)

var (
	errBlank        = errors.New("must not be blank")
	errNameSize     = errors.New("size must be between 2 and 50")
	errEmailFormat  = errors.New("must be a well-formed email address")
	errEmailTooLong = errors.New("must be at most 255 characters")
	errAgeRequired  = errors.New("is required")
	errAgeRange     = errors.New("must be between 0 and 150")
	errAgeNotInt    = errors.New("must be an integer")
)

// Dot-atom local part and a dotted host name: no empty labels, no leading
// or trailing dot or hyphen, alphabetic TLD
var emailRegex = regexp.MustCompile(
	`^[a-zA-Z0-9!#$%&'*+/=?^_{|}~-]+(\.[a-zA-Z0-9!#$%&'*+/=?^_{|}~-]+)*` +
		`@([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`,
)

// ValidateCreate checks every field of a create request
func ValidateCreate(req CreateRequest) error {
	var v violations
	v.add(FieldName, validateName(req.Name))
	v.add(FieldEmail, validateEmail(req.Email))
	if req.Age == nil {
		v.add(FieldAge, errAgeRequired)
	} else {
		v.add(FieldAge, validateAge(*req.Age))
	}
	return v.err()
}

// ValidateUpdate checks only the fields present in the request
func ValidateUpdate(req UpdateRequest) error {
	var v violations
	if req.Name != nil {
		v.add(FieldName, validateName(*req.Name))
	}
	if req.Email != nil {
		v.add(FieldEmail, validateEmail(*req.Email))
	}
	return v.err()
}

// ParseAge parses a free-text age, reporting non-integers as a validation error
func ParseAge(s string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid(FieldAge, errAgeNotInt.Error())
	}
	if err := validateAge(age); err != nil {
		return 0, invalid(FieldAge, err.Error())
	}
	return age, nil
}

// IsValidEmail checks if the email format is valid
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errBlank
	}
	n := utf8.RuneCountInString(name)
	if n < NameMinLength || n > NameMaxLength {
		return errNameSize
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errBlank
	}
	if len(email) > EmailMaxLength {
		return errEmailTooLong
	}
	if !IsValidEmail(email) {
		return errEmailFormat
	}
	return nil
}

func validateAge(age int) error {
	if age < AgeMin || age > AgeMax {
		return errAgeRange
	}
	return nil
}
