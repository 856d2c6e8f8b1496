package identity

import (
	"time"

	"identity-server/internal/models"
)

// SMSUnlockTime returns when the next SMS code of the given kind may be sent.
// nil means no code of that kind was ever sent, so sending is allowed.
// Email codes have no unlock field and are never throttled.
func SMSUnlockTime(user *models.User, kind CodeKind) *time.Time {
	get, _ := smsUnlockField(kind)
	return get(user)
}

// smsWindowOpen reports whether a send of the given kind is currently allowed.
func smsWindowOpen(user *models.User, kind CodeKind, now time.Time) bool {
	unlocksAt := SMSUnlockTime(user, kind)
	return unlocksAt == nil || !unlocksAt.After(now)
}

// reserveSMSWindow pushes the unlock timestamp forward. Called only when a
// send actually happens, so an aborted request never extends the cooldown.
func reserveSMSWindow(user *models.User, kind CodeKind, now time.Time, period time.Duration) {
	_, set := smsUnlockField(kind)
	unlocksAt := now.Add(period)
	set(user, &unlocksAt)
}
