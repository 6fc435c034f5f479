package validation

// Server-reported validation outcomes. The auth endpoint answers HTTP 400
// with an errors array of status-code strings; each code maps to exactly one
// validation rule and its fixed message.

const (
	MsgInvalidCredentials    = "invalid credentials provided"
	MsgUsernameTaken         = "username is already taken"
	MsgRegisteredEmail       = "email is already registered"
	MsgEmailNotRegistered    = "email is not registered"
	MsgUsernameNotRegistered = "username is not registered"
)

// serverValidationMap stores the Entry corresponding to every status code the
// auth endpoint may report inside an HTTP 400 errors array.
var serverValidationMap = map[string]Entry{
	"401": {Type: TypeInvalidCredentials, State: StateInvalid, Message: MsgInvalidCredentials},
	"402": {Type: TypeUsernameTaken, State: StateInvalid, Message: MsgUsernameTaken},
	"403": {Type: TypeRegisteredEmail, State: StateInvalid, Message: MsgRegisteredEmail},
	"405": {Type: TypeEmailNotRegistered, State: StateInvalid, Message: MsgEmailNotRegistered},
	"406": {Type: TypeUsernameNotRegistered, State: StateInvalid, Message: MsgUsernameNotRegistered},
}

// ServerValidation maps a status code reported by the server to a validation
// entry. Unmapped codes return nil and must be ignored by callers.
func ServerValidation(code string) *Entry {
	entry, ok := serverValidationMap[code]
	if !ok {
		return nil
	}
	return &entry
}
