/**
 * @description
 * This file implements the authentication flow state machine. A flow walks
 * (mode, step) pairs across {login, register, forgot} x {credentials, code}:
 * credentials are submitted first, a one-time 6-digit code is dispatched by
 * the identity service, and verifying the code resolves the flow — a session
 * credential for login, an account mutation for register/forgot.
 *
 * Key properties:
 * - Invalid mode/step combinations are unrepresentable: there is a single
 *   transition path and every operation checks the current step.
 * - One in-flight network action per flow, enforced by a busy flag. A
 *   duplicate submission while one is pending returns ErrFlowBusy without
 *   dispatching anything.
 * - The 30-second resend cooldown is driven by a single ticker goroutine
 *   per flow, cancelled on GoBack, Destroy and terminal resolution so no
 *   timers leak.
 * - Failed network calls leave the state unchanged; the user retries.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bpay/dashboard-service/internal/domain"
)

// Flow lifecycle errors.
var (
	ErrFlowBusy          = errors.New("another action is already in progress")
	ErrFlowDestroyed     = errors.New("auth session no longer exists")
	ErrInvalidTransition = errors.New("action not permitted in current step")
	ErrCooldownActive    = errors.New("resend cooldown has not elapsed")
)

// IdentityAPI is the slice of the wallet service the auth flow talks to.
type IdentityAPI interface {
	SendLoginCode(ctx context.Context, email, password string) error
	VerifyLoginCode(ctx context.Context, email, code string) (string, error)
	Register(ctx context.Context, email, password, fullName string) error
	VerifyRegistration(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// Credentials is the user input for the credentials step. Which fields
// matter depends on the flow's mode.
type Credentials struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	ConfirmPassword    string `json:"confirm_password"`
	FullName           string `json:"full_name"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

// FlowState is a read-only snapshot of a flow for rendering.
type FlowState struct {
	ID             string                    `json:"id"`
	Mode           domain.AuthMode           `json:"mode"`
	Step           domain.AuthStep           `json:"step"`
	Email          string                    `json:"email"`
	CodeDigits     [domain.CodeLength]string `json:"code_digits"`
	CodeComplete   bool                      `json:"code_complete"`
	ResendCooldown int                       `json:"resend_cooldown_seconds"`
	Busy           bool                      `json:"busy"`
	Notice         string                    `json:"notice,omitempty"`
	SessionCreated bool                      `json:"session_created"`
}

// AuthFlow is one live authentication session. Initial state is
// (login, credentials).
type AuthFlow struct {
	id       string
	identity IdentityAPI
	sessions *SessionStore
	logger   *slog.Logger

	// tickInterval is one cooldown second. Tests shorten it.
	tickInterval time.Duration

	mu          sync.Mutex
	mode        domain.AuthMode
	step        domain.AuthStep
	email       string
	password    string
	fullName    string
	newPassword string
	codeDigits  [domain.CodeLength]string
	cooldown    int
	busy        bool
	destroyed   bool
	notice      string
	terminal    bool
	lastTouched time.Time

	tickerStop chan struct{}
}

// NewAuthFlow creates a flow in its initial state.
func NewAuthFlow(id string, identity IdentityAPI, sessions *SessionStore, logger *slog.Logger) *AuthFlow {
	return &AuthFlow{
		id:           id,
		identity:     identity,
		sessions:     sessions,
		logger:       logger,
		tickInterval: time.Second,
		mode:         domain.ModeLogin,
		step:         domain.StepCredentials,
		lastTouched:  time.Now(),
	}
}

// State returns a snapshot of the flow.
func (f *AuthFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FlowState{
		ID:             f.id,
		Mode:           f.mode,
		Step:           f.step,
		Email:          f.email,
		CodeDigits:     f.codeDigits,
		CodeComplete:   codeComplete(f.codeDigits),
		ResendCooldown: f.cooldown,
		Busy:           f.busy,
		Notice:         f.notice,
		SessionCreated: f.terminal,
	}
}

// SwitchMode moves between login, register and forgot. Only permitted from
// the credentials step. The email survives the switch; everything else is
// cleared.
func (f *AuthFlow) SwitchMode(mode domain.AuthMode) error {
	if !mode.Valid() {
		return domain.NewValidationError("mode", "unknown mode")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCredentials {
		return ErrInvalidTransition
	}
	if f.busy {
		return ErrFlowBusy
	}
	f.mode = mode
	f.password = ""
	f.fullName = ""
	f.newPassword = ""
	f.codeDigits = [domain.CodeLength]string{}
	f.notice = ""
	f.lastTouched = time.Now()
	return nil
}

// SubmitCredentials validates the local preconditions for the flow's mode
// and asks the identity service to dispatch a verification code. On success
// the flow advances to the code step and the resend cooldown starts.
func (f *AuthFlow) SubmitCredentials(ctx context.Context, creds Credentials) error {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCredentials {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if f.busy {
		f.mu.Unlock()
		return ErrFlowBusy
	}
	mode := f.mode
	if err := validateCredentials(mode, creds); err != nil {
		f.mu.Unlock()
		return err
	}
	f.busy = true
	f.lastTouched = time.Now()
	f.mu.Unlock()

	err := f.dispatchCode(ctx, mode, creds)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.destroyed {
		// The session was torn down while the request was in flight;
		// its resolution must not mutate anything.
		return ErrFlowDestroyed
	}
	if err != nil {
		return asAuthError(err)
	}

	f.email = strings.TrimSpace(creds.Email)
	f.password = creds.Password
	f.fullName = strings.TrimSpace(creds.FullName)
	f.newPassword = creds.NewPassword
	f.step = domain.StepCode
	f.codeDigits = [domain.CodeLength]string{}
	f.startCooldownLocked()
	f.logger.Info("verification code dispatched", "mode", mode)
	return nil
}

// SetDigit updates one slot of the code input. Only single digits 0-9 (or
// an empty string to clear the slot) are accepted.
func (f *AuthFlow) SetDigit(index int, value string) error {
	if index < 0 || index >= domain.CodeLength {
		return domain.NewValidationError("index", "digit index out of range")
	}
	if value != "" && !isDigit(value) {
		return domain.NewValidationError("digit", "must be a single digit 0-9")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCode {
		return ErrInvalidTransition
	}
	f.codeDigits[index] = value
	f.lastTouched = time.Now()
	return nil
}

// SubmitCode verifies the populated code against the identity service.
// login resolves into a stored session credential and destroys the flow;
// register and forgot return to (login, credentials) with a success notice.
// On failure the digits are kept so the user can correct and retry.
func (f *AuthFlow) SubmitCode(ctx context.Context) error {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCode {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if f.busy {
		f.mu.Unlock()
		return ErrFlowBusy
	}
	if !codeComplete(f.codeDigits) {
		f.mu.Unlock()
		return domain.NewValidationError("code", "all 6 digits are required")
	}
	mode := f.mode
	email := f.email
	code := strings.Join(f.codeDigits[:], "")
	newPassword := f.newPassword
	f.busy = true
	f.lastTouched = time.Now()
	f.mu.Unlock()

	var token string
	var err error
	switch mode {
	case domain.ModeLogin:
		token, err = f.identity.VerifyLoginCode(ctx, email, code)
	case domain.ModeRegister:
		err = f.identity.VerifyRegistration(ctx, email, code)
	case domain.ModeForgot:
		err = f.identity.ResetPassword(ctx, email, code, newPassword)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.destroyed {
		return ErrFlowDestroyed
	}
	if err != nil {
		// State unchanged; digits are deliberately not cleared.
		return asAuthError(err)
	}

	switch mode {
	case domain.ModeLogin:
		f.sessions.Set(ctx, token)
		f.terminal = true
		f.destroyLocked()
		f.logger.Info("login verified, session established")
	case domain.ModeRegister:
		f.resetToLoginLocked("Registration successful! You can now login.")
	case domain.ModeForgot:
		f.resetToLoginLocked("Password reset successful")
	}
	return nil
}

// ResendCode re-dispatches the verification code. Only callable once the
// cooldown reached zero; success restarts it.
func (f *AuthFlow) ResendCode(ctx context.Context) error {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCode {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if f.busy {
		f.mu.Unlock()
		return ErrFlowBusy
	}
	if f.cooldown > 0 {
		f.mu.Unlock()
		return ErrCooldownActive
	}
	mode := f.mode
	creds := Credentials{
		Email:    f.email,
		Password: f.password,
		FullName: f.fullName,
	}
	f.busy = true
	f.lastTouched = time.Now()
	f.mu.Unlock()

	err := f.dispatchCode(ctx, mode, creds)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.destroyed {
		return ErrFlowDestroyed
	}
	if err != nil {
		return asAuthError(err)
	}
	f.startCooldownLocked()
	f.logger.Info("verification code re-dispatched", "mode", mode)
	return nil
}

// GoBack returns from the code step to the credentials step, clearing the
// digits and cancelling the cooldown timer.
func (f *AuthFlow) GoBack() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return ErrFlowDestroyed
	}
	if f.step != domain.StepCode {
		return ErrInvalidTransition
	}
	if f.busy {
		return ErrFlowBusy
	}
	f.step = domain.StepCredentials
	f.codeDigits = [domain.CodeLength]string{}
	f.stopCooldownLocked()
	f.lastTouched = time.Now()
	return nil
}

// Destroy tears the flow down and cancels its timer. A request still in
// flight will find the flow destroyed when it resolves and leave all state
// alone.
func (f *AuthFlow) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyLocked()
}

func (f *AuthFlow) destroyLocked() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.stopCooldownLocked()
}

func (f *AuthFlow) resetToLoginLocked(notice string) {
	f.mode = domain.ModeLogin
	f.step = domain.StepCredentials
	f.password = ""
	f.fullName = ""
	f.newPassword = ""
	f.codeDigits = [domain.CodeLength]string{}
	f.notice = notice
	f.stopCooldownLocked()
}

func (f *AuthFlow) dispatchCode(ctx context.Context, mode domain.AuthMode, creds Credentials) error {
	email := strings.TrimSpace(creds.Email)
	switch mode {
	case domain.ModeRegister:
		return f.identity.Register(ctx, email, creds.Password, strings.TrimSpace(creds.FullName))
	case domain.ModeForgot:
		return f.identity.ForgotPassword(ctx, email)
	default:
		return f.identity.SendLoginCode(ctx, email, creds.Password)
	}
}

// startCooldownLocked resets the countdown to 30 and makes sure exactly one
// ticker goroutine is driving it.
func (f *AuthFlow) startCooldownLocked() {
	f.cooldown = domain.ResendCooldownSeconds
	if f.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	f.tickerStop = stop

	go func() {
		ticker := time.NewTicker(f.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if f.tick(stop) {
					return
				}
			}
		}
	}()
}

// tick applies one cooldown second. Reports whether the goroutine driving
// stop should exit. A goroutine superseded while waiting for the lock (its
// countdown was cancelled and a fresh one started) must not touch the new
// countdown.
func (f *AuthFlow) tick(stop chan struct{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tickerStop != stop {
		return true
	}
	if f.cooldown > 0 {
		f.cooldown--
	}
	if f.cooldown == 0 {
		f.tickerStop = nil
		return true
	}
	return false
}

func (f *AuthFlow) stopCooldownLocked() {
	f.cooldown = 0
	if f.tickerStop != nil {
		close(f.tickerStop)
		f.tickerStop = nil
	}
}

func validateCredentials(mode domain.AuthMode, creds Credentials) error {
	if strings.TrimSpace(creds.Email) == "" {
		return domain.NewValidationError("email", "email is required")
	}
	switch mode {
	case domain.ModeLogin:
		if creds.Password == "" {
			return domain.NewValidationError("password", "password is required")
		}
	case domain.ModeRegister:
		if creds.Password == "" {
			return domain.NewValidationError("password", "password is required")
		}
		if creds.Password != creds.ConfirmPassword {
			return domain.NewValidationError("confirm_password", "passwords do not match")
		}
		if strings.TrimSpace(creds.FullName) == "" {
			return domain.NewValidationError("full_name", "full name is required")
		}
	case domain.ModeForgot:
		if creds.NewPassword == "" {
			return domain.NewValidationError("new_password", "new password is required")
		}
		if creds.NewPassword != creds.ConfirmNewPassword {
			return domain.NewValidationError("confirm_new_password", "passwords do not match")
		}
	}
	return nil
}

// asAuthError maps upstream rejections to AuthError with the service's own
// message. Transport failures pass through as NetworkError.
func asAuthError(err error) error {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return &domain.AuthError{Message: upstream.Message}
	}
	return err
}

func codeComplete(digits [domain.CodeLength]string) bool {
	for _, d := range digits {
		if !isDigit(d) {
			return false
		}
	}
	return true
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}
