package identity

import (
	"context"

	"identity-server/internal/models"
)

// EmailSender delivers a rendered message to an email address.
// Implementations live in internal/logics; the engines only hold the contract.
type EmailSender func(destination, subject, htmlBody string) error

// SMSSender delivers a rendered message to a phone number.
type SMSSender func(destination, body string) error

// UserStore is the persistence surface the engines need. The gorm-backed
// repositories.UserRepository satisfies it; tests substitute a mock.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindBySiteAndEmail(ctx context.Context, siteID uint, email string) (*models.User, error)
	FindBySiteAndPhoneNumber(ctx context.Context, siteID uint, phoneNumber string) (*models.User, error)
	FindBySiteAndCredential(ctx context.Context, siteID uint, credential string) (*models.User, error)
	FindByGoogleSub(ctx context.Context, siteID uint, sub string) (*models.User, error)
	ExistsBySiteAndEmail(ctx context.Context, siteID uint, email string) (bool, error)
	ExistsBySiteAndPhoneNumber(ctx context.Context, siteID uint, phoneNumber string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// ConfirmationHook is invoked synchronously after a credential is confirmed.
// initial is true for the first confirmation of a fresh value and false when
// a candidate replaced an already-confirmed one.
type ConfirmationHook func(ctx context.Context, user *models.User, kind CredentialKind, value string, initial bool)
