package domain

// AuthMode is the flavour of the verification flow the user is in.
type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
	ModeForgot   AuthMode = "forgot"
)

// Valid reports whether m names a known auth mode.
func (m AuthMode) Valid() bool {
	return m == ModeLogin || m == ModeRegister || m == ModeForgot
}

// AuthStep is the stage of the flow within a mode. Every mode walks the
// same two steps: credentials first, then the one-time code.
type AuthStep string

const (
	StepCredentials AuthStep = "credentials"
	StepCode        AuthStep = "code"
)

// CodeLength is the number of digits in a one-time verification code.
const CodeLength = 6

// ResendCooldownSeconds is the wait imposed between code dispatches.
const ResendCooldownSeconds = 30
