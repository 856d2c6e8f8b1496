package identity

import (
	"context"
	"strconv"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"

	"go.uber.org/zap"
)

// ConfirmResult reports the per-field outcome of a confirmation attempt so
// the caller can translate each mismatch into its own error message.
type ConfirmResult struct {
	MainOK    bool
	Candidate CandidateResult
}

// Confirmed reports whether the attempt confirmed the credential.
func (r ConfirmResult) Confirmed() bool {
	return r.MainOK && r.Candidate != CandidateIncorrect
}

// SendOptions control a single confirmation-code dispatch.
type SendOptions struct {
	Candidate bool // send to the pending candidate value instead of the main one
	// GenerateNew forces a fresh PIN. A zero (unset/consumed) PIN is
	// regenerated regardless.
	GenerateNew bool
	// IgnoreFrequencyLimit skips the SMS cooldown check. Used for the
	// initial sends on registration and credential change.
	IgnoreFrequencyLimit bool
}

// ConfirmationService is the credential confirmation state machine: PIN
// verification with attempt counting, candidate promotion and confirmation
// code dispatch.
type ConfirmationService struct {
	store       UserStore
	clock       Clock
	sendEmail   EmailSender
	sendSMS     SMSSender
	identityCfg *configs.IdentityConfig
	logger      *zap.Logger
	hooks       []ConfirmationHook
}

func NewConfirmationService(
	store UserStore,
	clock Clock,
	sendEmail EmailSender,
	sendSMS SMSSender,
	identityCfg *configs.IdentityConfig,
	logger *zap.Logger,
) *ConfirmationService {
	return &ConfirmationService{
		store:       store,
		clock:       clock,
		sendEmail:   sendEmail,
		sendSMS:     sendSMS,
		identityCfg: identityCfg,
		logger:      logger,
	}
}

// AddHook registers a callback invoked synchronously after every successful
// confirmation. Hooks run after the user row is persisted.
func (s *ConfirmationService) AddHook(hook ConfirmationHook) {
	s.hooks = append(s.hooks, hook)
}

func (s *ConfirmationService) attemptsLimit(kind CredentialKind) int {
	if kind == CredentialEmail {
		return s.identityCfg.EmailConfirmationAttemptsLimit
	}
	return s.identityCfg.PhoneNumberConfirmationAttemptsLimit
}

// parsePin converts a submitted PIN string to its numeric form. Empty or
// malformed input becomes 0, which never matches a live PIN.
func parsePin(pin string) int {
	n, err := strconv.Atoi(pin)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Confirm verifies the submitted PIN(s) for one credential kind and advances
// its confirmation state.
//
// Both PINs must match when a candidate value is pending; only the main PIN
// otherwise. On success the PIN slots are zeroed, the attempt counter resets
// and a pending candidate replaces the main value. On failure the attempt
// counter grows by one. The user row is persisted either way.
func (s *ConfirmationService) Confirm(
	ctx context.Context,
	user *models.User,
	kind CredentialKind,
	mainPin string,
	candidatePin string,
) (ConfirmResult, error) {
	fields := accessorFor(kind)

	if fields.attempts(user) >= s.attemptsLimit(kind) {
		return ConfirmResult{}, NewIdentityError(ErrAttemptsLimitReached, "confirmation attempts limit reached")
	}

	result := ConfirmResult{
		MainOK:    parsePin(mainPin) == fields.pin(user),
		Candidate: CandidateNone,
	}
	candidateValue := fields.candidate(user)
	if candidateValue != "" {
		if parsePin(candidatePin) == fields.candidatePin(user) {
			result.Candidate = CandidateCorrect
		} else {
			result.Candidate = CandidateIncorrect
		}
	}

	if !result.Confirmed() {
		fields.setAttempts(user, fields.attempts(user)+1)
		if err := s.store.Update(ctx, user); err != nil {
			return ConfirmResult{}, NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
		}
		return result, nil
	}

	previousValue := fields.value(user)
	fields.setPin(user, 0)
	fields.setCandidatePin(user, 0)
	fields.setConfirmed(user, true)
	fields.setAttempts(user, 0)

	promoted := candidateValue != ""
	if promoted {
		fields.setValue(user, candidateValue)
		fields.setCandidate(user, "")
	}

	if err := s.store.Update(ctx, user); err != nil {
		return ConfirmResult{}, NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	if promoted {
		s.notifyCredentialChanged(user, kind, previousValue)
	}

	for _, hook := range s.hooks {
		hook(ctx, user, kind, fields.value(user), !promoted)
	}

	s.logger.Info("credential confirmed",
		zap.String("user_id", user.ID),
		zap.String("credential", string(kind)),
		zap.Bool("candidate_promoted", promoted))
	return result, nil
}

// notifyCredentialChanged tells the previous owner address that the
// credential was replaced. Dispatch failures are logged, not returned: the
// promotion is already persisted.
func (s *ConfirmationService) notifyCredentialChanged(user *models.User, kind CredentialKind, previousValue string) {
	destination := user.Email
	if kind == CredentialEmail {
		destination = previousValue
	}
	if destination == "" {
		return
	}

	credentialName := "email"
	if kind == CredentialPhoneNumber {
		credentialName = "phone number"
	}
	subject := Localize(user.PreferredLanguage, subjectCredentialChanged, s.identityCfg.Domain)
	body := Localize(user.PreferredLanguage, msgCredentialChanged, credentialName, s.identityCfg.Domain)
	if err := s.sendEmail(destination, subject, body); err != nil {
		s.logger.Warn("failed to send credential changed notice",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}

// SendCode issues a confirmation code for one credential kind.
//
// SMS sends are gated by the per-kind cooldown window unless
// opts.IgnoreFrequencyLimit; email sends are never throttled. A candidate
// send with no pending candidate is a no-op. The user row is persisted
// before the message is dispatched, so a dispatch failure leaves the
// cooldown engaged.
func (s *ConfirmationService) SendCode(
	ctx context.Context,
	user *models.User,
	kind CredentialKind,
	opts SendOptions,
) error {
	fields := accessorFor(kind)

	if fields.attempts(user) >= s.attemptsLimit(kind) {
		return NewIdentityError(ErrAttemptsLimitReached, "confirmation attempts limit reached")
	}

	destination := fields.value(user)
	if opts.Candidate {
		destination = fields.candidate(user)
		if destination == "" {
			return nil
		}
	}

	if kind == CredentialPhoneNumber {
		codeKind := CodeConfirmation
		if opts.Candidate {
			codeKind = CodeCandidateConfirmation
		}
		now := s.clock.Now()
		if !opts.IgnoreFrequencyLimit && !smsWindowOpen(user, codeKind, now) {
			return NewIdentityError(ErrTooFrequentRequests, "confirmation code was requested too recently")
		}
		period := time.Duration(s.identityCfg.PhoneNumberConfirmationSMSPeriodMin) * time.Minute
		reserveSMSWindow(user, codeKind, now, period)
	}

	pin := fields.pin
	setPin := fields.setPin
	if opts.Candidate {
		pin = fields.candidatePin
		setPin = fields.setCandidatePin
	}
	if opts.GenerateNew || pin(user) == 0 {
		setPin(user, GeneratePin())
	}

	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	body := Localize(user.PreferredLanguage, msgConfirmationPin, s.identityCfg.Domain, pin(user))
	var sendErr error
	if kind == CredentialPhoneNumber {
		sendErr = s.sendSMS(destination, body)
	} else {
		subject := Localize(user.PreferredLanguage, subjectConfirmationPin, s.identityCfg.Domain)
		sendErr = s.sendEmail(destination, subject, body)
	}
	if sendErr != nil {
		// State is already persisted; surface the dispatch failure without
		// rolling the cooldown back.
		s.logger.Warn("failed to dispatch confirmation code",
			zap.String("user_id", user.ID),
			zap.String("credential", string(kind)),
			zap.Bool("candidate", opts.Candidate),
			zap.Error(sendErr))
	}
	return nil
}

// RequestChange registers newValue as the pending candidate for the given
// credential kind and dispatches both confirmation codes: a resend to the
// current value and a fresh code to the candidate.
func (s *ConfirmationService) RequestChange(
	ctx context.Context,
	user *models.User,
	kind CredentialKind,
	newValue string,
) error {
	fields := accessorFor(kind)

	if newValue == fields.value(user) || newValue == fields.candidate(user) {
		return nil
	}

	fields.setCandidate(user, newValue)
	fields.setCandidatePin(user, 0)
	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	if err := s.sendCodeForChange(ctx, user, kind, false); err != nil {
		return err
	}
	return s.sendCodeForChange(ctx, user, kind, true)
}

func (s *ConfirmationService) sendCodeForChange(ctx context.Context, user *models.User, kind CredentialKind, candidate bool) error {
	return s.SendCode(ctx, user, kind, SendOptions{
		Candidate:            candidate,
		GenerateNew:          true,
		IgnoreFrequencyLimit: true,
	})
}
