package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a tenant-scoped identity record.
//
// Each credential (email, phone number) carries a confirmed value, an
// optional candidate replacement awaiting confirmation, two PIN slots
// (0 = unset/consumed), and a failed-attempt counter. The *UnlocksAt
// timestamps gate when the next SMS code of each kind may be sent
// (nil = never sent, always allowed).
type User struct {
	ID     string `gorm:"type:char(12);primaryKey" json:"id"`
	SiteID uint   `gorm:"not null;uniqueIndex:idx_users_site_email,priority:1;uniqueIndex:idx_users_site_phone,priority:1" json:"site_id"`

	Email                         string `gorm:"size:250;not null;uniqueIndex:idx_users_site_email,priority:2" json:"email"`
	EmailCandidate                string `gorm:"size:250;not null;default:''" json:"email_candidate"`
	IsEmailConfirmed              bool   `gorm:"default:false" json:"is_email_confirmed"`
	EmailConfirmationPin          int    `gorm:"column:email_confirmation_pin;default:0" json:"-"`
	EmailCandidateConfirmationPin int    `gorm:"column:email_candidate_confirmation_pin;default:0" json:"-"`
	EmailConfirmationAttempts     int    `gorm:"default:0" json:"-"`

	PhoneNumber                         string `gorm:"size:200;not null;uniqueIndex:idx_users_site_phone,priority:2" json:"phone_number"`
	PhoneNumberCandidate                string `gorm:"size:200;not null;default:''" json:"phone_number_candidate"`
	IsPhoneNumberConfirmed              bool   `gorm:"default:false" json:"is_phone_number_confirmed"`
	PhoneNumberConfirmationPin          int    `gorm:"column:phone_number_confirmation_pin;default:0" json:"-"`
	PhoneNumberCandidateConfirmationPin int    `gorm:"column:phone_number_candidate_confirmation_pin;default:0" json:"-"`
	PhoneNumberConfirmationAttempts     int    `gorm:"default:0" json:"-"`

	// SMS cooldown gates: the next code of a kind may be sent once the
	// matching timestamp has passed. Refreshed only when a send occurs.
	PhoneNumberConfirmationCodeSMSUnlocksAt          *time.Time `gorm:"column:phone_number_confirmation_code_sms_unlocks_at" json:"-"`
	PhoneNumberCandidateConfirmationCodeSMSUnlocksAt *time.Time `gorm:"column:phone_number_candidate_confirmation_code_sms_unlocks_at" json:"-"`
	PasswordResetCodeSMSUnlocksAt                    *time.Time `gorm:"column:password_reset_code_sms_unlocks_at" json:"-"`

	PasswordResetCode         *int       `gorm:"column:password_reset_code" json:"-"`
	PasswordResetCodeIssuedAt *time.Time `gorm:"column:password_reset_code_issued_at" json:"-"`

	Password string `gorm:"size:250;not null" json:"-"` // bcrypt hash

	// MFASecretKey is the shared TOTP secret; empty = MFA disabled.
	MFASecretKey string `gorm:"column:mfa_secret_key;size:160;not null;default:''" json:"-"`

	GoogleSub string `gorm:"size:64;index;not null;default:''" json:"-"`

	FirstName         string `gorm:"size:200;not null;default:''" json:"first_name"`
	LastName          string `gorm:"size:200;not null;default:''" json:"last_name"`
	PreferredLanguage string `gorm:"size:10;not null;default:'en'" json:"preferred_language"`

	IsActive    bool `gorm:"default:true" json:"is_active"`
	IsStaff     bool `gorm:"default:false" json:"is_staff"`
	IsSuperuser bool `gorm:"default:false" json:"is_superuser"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Site *Site `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}

// FullName is used as the TOTP provisioning label.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
