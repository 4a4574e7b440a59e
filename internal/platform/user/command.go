package user

import (
	"strings"
)

// FieldUpdate is a single console edit written as "field;value", e.g. "age;33"
type FieldUpdate struct {
	Field string
	Value string
}

// ParseFieldUpdate parses a "field;value" command.
// The field name is case-insensitive; the value is kept as typed.
func ParseFieldUpdate(input string) (FieldUpdate, error) {
	parts := strings.Split(strings.TrimSpace(input), ";")
	if len(parts) != 2 {
		return FieldUpdate{}, invalid("input", "expected exactly one ';' separating field and value")
	}

	return FieldUpdate{
		Field: strings.ToLower(strings.TrimSpace(parts[0])),
		Value: parts[1],
	}, nil
}

// Known reports whether the field can be edited from the console
func (f FieldUpdate) Known() bool {
	switch f.Field {
	case FieldName, FieldEmail, FieldAge:
		return true
	}
	return false
}

// apply validates the value and writes it onto u
func (f FieldUpdate) apply(u *User) error {
	switch f.Field {
	case FieldName:
		if err := validateName(f.Value); err != nil {
			return invalid(FieldName, err.Error())
		}
		u.Name = f.Value
	case FieldEmail:
		if err := validateEmail(f.Value); err != nil {
			return invalid(FieldEmail, err.Error())
		}
		u.Email = f.Value
	case FieldAge:
		age, err := ParseAge(f.Value)
		if err != nil {
			return err
		}
		u.Age = age
	}
	return nil
}
