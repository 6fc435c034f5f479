package validation

import (
	"regexp"
	"unicode"
)

type State string

const (
	StateInactive State = "INACTIVE"
	StateValid    State = "VALID"
	StateInvalid  State = "INVALID"
)

// Type identifies one validation rule. Entries in the form state are keyed
// by Type, so two rules attached to the same input stay independent.
type Type string

const (
	TypeEmail           Type = "EMAIL_FORMAT_VALIDATION"
	TypePassword        Type = "PASSWORD_FORMAT_VALIDATION"
	TypeUsername        Type = "USERNAME_FORMAT_VALIDATION"
	TypeUsernameOrEmail Type = "USERNAME_OR_EMAIL_FORMAT_VALIDATION"
	TypeEmptyString     Type = "EMPTY_STRING_VALIDATION"
	TypePasswordsMatch  Type = "PASSWORDS_MATCH_VALIDATION"

	TypeInvalidCredentials    Type = "INVALID_CREDENTIALS"
	TypeUsernameTaken         Type = "USERNAME_TAKEN"
	TypeRegisteredEmail       Type = "REGISTERED_EMAIL"
	TypeEmailNotRegistered    Type = "EMAIL_NOT_REGISTERED"
	TypeUsernameNotRegistered Type = "USERNAME_NOT_REGISTERED"
)

// Entry is the outcome of checking one value against one rule.
// Message is empty when State is VALID.
type Entry struct {
	Type    Type   `json:"validationType"`
	State   State  `json:"validationState"`
	Message string `json:"message"`
}

const (
	MsgInvalidEmail           = "email format is not valid"
	MsgInvalidPassword        = "at least 8 characters, one uppercase letter, one lowercase letter and one number"
	MsgInvalidUsername        = "only letters with an optional dash or underscore between them"
	MsgInvalidUsernameOrEmail = "username or email is not valid"
	MsgEmptyString            = "empty string is not allowed"
	MsgPasswordsDoNotMatch    = "passwords do not match"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z]+([-_][a-zA-Z]+)*$`)
)

// ValidateEmailConstraint checks the value against the email format rule.
func ValidateEmailConstraint(value string) Entry {
	if emailRegex.MatchString(value) {
		return Entry{Type: TypeEmail, State: StateValid}
	}
	return Entry{Type: TypeEmail, State: StateInvalid, Message: MsgInvalidEmail}
}

// ValidatePasswordConstraint requires at least 8 characters with at least one
// uppercase letter, one lowercase letter and one digit.
func ValidatePasswordConstraint(value string) Entry {
	var upper, lower, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len(value) >= 8 && upper && lower && digit {
		return Entry{Type: TypePassword, State: StateValid}
	}
	return Entry{Type: TypePassword, State: StateInvalid, Message: MsgInvalidPassword}
}

// ValidateUserNameConstraint allows runs of letters joined by a single
// internal dash or underscore. No leading, trailing or doubled separators.
func ValidateUserNameConstraint(value string) Entry {
	if usernameRegex.MatchString(value) {
		return Entry{Type: TypeUsername, State: StateValid}
	}
	return Entry{Type: TypeUsername, State: StateInvalid, Message: MsgInvalidUsername}
}

// ValidateEmailOrUsername is the union of the email and username rules,
// used for the login identifier field.
func ValidateEmailOrUsername(value string) Entry {
	if emailRegex.MatchString(value) || usernameRegex.MatchString(value) {
		return Entry{Type: TypeUsernameOrEmail, State: StateValid}
	}
	return Entry{Type: TypeUsernameOrEmail, State: StateInvalid, Message: MsgInvalidUsernameOrEmail}
}

// ValidateEmptyString rejects the empty string only. Whitespace is not
// trimmed: " " is valid.
func ValidateEmptyString(value string) Entry {
	if value == "" {
		return Entry{Type: TypeEmptyString, State: StateInvalid, Message: MsgEmptyString}
	}
	return Entry{Type: TypeEmptyString, State: StateValid}
}

// ValidatePasswordsMatch compares the password and confirm fields of the
// authentication draft.
func ValidatePasswordsMatch(password, confirm string) Entry {
	if password == confirm {
		return Entry{Type: TypePasswordsMatch, State: StateValid}
	}
	return Entry{Type: TypePasswordsMatch, State: StateInvalid, Message: MsgPasswordsDoNotMatch}
}
