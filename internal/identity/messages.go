package identity

import (
	"fmt"

	"golang.org/x/text/language"
)

// Outbound message catalog. Keys are message identifiers, values are
// fmt templates per supported language. Unsupported preferred languages
// fall back through the matcher to the default.
const (
	msgConfirmationPin   = "confirmation_pin"
	msgPasswordResetCode = "password_reset_code"
	msgPasswordChanged   = "password_changed"
	msgCredentialChanged = "credential_changed"

	subjectConfirmationPin   = "subject_confirmation_pin"
	subjectPasswordResetCode = "subject_password_reset_code"
	subjectPasswordChanged   = "subject_password_changed"
	subjectCredentialChanged = "subject_credential_changed"
)

var messageCatalog = map[language.Tag]map[string]string{
	language.English: {
		msgConfirmationPin:   "Your %s confirmation code is %d.",
		msgPasswordResetCode: "Your %s password reset code is %d.",
		msgPasswordChanged:   "The password for your %s account has been changed. If this was not you, contact support immediately.",
		msgCredentialChanged: "The %s on your %s account has been changed. If this was not you, contact support immediately.",

		subjectConfirmationPin:   "%s confirmation code",
		subjectPasswordResetCode: "%s password reset",
		subjectPasswordChanged:   "%s password changed",
		subjectCredentialChanged: "%s account updated",
	},
	language.Korean: {
		msgConfirmationPin:   "%s 인증 코드는 %d 입니다.",
		msgPasswordResetCode: "%s 비밀번호 재설정 코드는 %d 입니다.",
		msgPasswordChanged:   "%s 계정의 비밀번호가 변경되었습니다. 본인이 아닌 경우 즉시 고객센터에 문의하세요.",
		msgCredentialChanged: "%[2]s 계정의 %[1]s이(가) 변경되었습니다. 본인이 아닌 경우 즉시 고객센터에 문의하세요.",

		subjectConfirmationPin:   "%s 인증 코드",
		subjectPasswordResetCode: "%s 비밀번호 재설정",
		subjectPasswordChanged:   "%s 비밀번호 변경 알림",
		subjectCredentialChanged: "%s 계정 변경 알림",
	},
}

var supportedLanguages = []language.Tag{
	language.English, // first entry is the fallback
	language.Korean,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// resolveLanguage maps a user's preferred language to a catalog tag.
func resolveLanguage(preferred string) language.Tag {
	tag, err := language.Parse(preferred)
	if err != nil {
		return language.English
	}
	_, index, _ := languageMatcher.Match(tag)
	return supportedLanguages[index]
}

// Localize renders a catalog entry in the user's preferred language.
func Localize(preferred, key string, args ...interface{}) string {
	tag := resolveLanguage(preferred)
	tmpl, ok := messageCatalog[tag][key]
	if !ok {
		tmpl = messageCatalog[language.English][key]
	}
	return fmt.Sprintf(tmpl, args...)
}
