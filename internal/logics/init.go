package logics

import (
	"identity-server/configs"
	"identity-server/internal/identity"
	"identity-server/internal/repositories"
)

// Global service instances, wired once at startup after configs and
// repositories are initialized.
var (
	EmailSvc *EmailService
	SMSSvc   *SMSService

	UserRepo *repositories.UserRepository
	SiteRepo *repositories.SiteRepository

	ConfirmationSvc *identity.ConfirmationService
	RegistrationSvc *identity.RegistrationService
	ResetSvc        *identity.ResetService
	MFASvc          *identity.MFAService
	GoogleSvc       *identity.GoogleService
)

// Init constructs the service graph. Must run after configs.Init and
// repositories.Init.
func Init() {
	EmailSvc = NewEmailService(configs.Configs.Email)
	SMSSvc = NewSMSService(configs.Configs.SMS, configs.Logger)

	UserRepo = repositories.NewUserRepository(repositories.DBS.Postgres)
	SiteRepo = repositories.NewSiteRepository(repositories.DBS.Postgres)

	identityCfg := &configs.Configs.Identity
	sendEmail := EmailSvc.Sender(identityCfg.Domain)
	sendSMS := SMSSvc.Sender()

	ConfirmationSvc = identity.NewConfirmationService(
		UserRepo, identity.SystemClock, sendEmail, sendSMS, identityCfg, configs.Logger)
	ConfirmationSvc.AddHook(AuditLogSvc.ConfirmationHook())

	RegistrationSvc = identity.NewRegistrationService(
		UserRepo, ConfirmationSvc, identityCfg, configs.Logger)

	ResetSvc = identity.NewResetService(
		UserRepo, identity.SystemClock, sendEmail, sendSMS, identityCfg, configs.Logger)

	MFASvc = identity.NewMFAService(
		UserRepo, repositories.DBS.Redis, identityCfg,
		configs.Configs.Service.Debug, configs.Logger)

	GoogleSvc = identity.NewGoogleService(
		UserRepo, repositories.DBS.Redis, identity.SystemClock,
		&configs.Configs.Google, configs.Configs.Secrets.TempTokenSecret, configs.Logger)
}
