package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalize(t *testing.T) {
	en := Localize("en", msgConfirmationPin, "example.com", 123456)
	assert.Contains(t, en, "123456")
	assert.Contains(t, en, "example.com")

	ko := Localize("ko", msgConfirmationPin, "example.com", 123456)
	assert.Contains(t, ko, "123456")
	assert.NotEqual(t, en, ko)
}

func TestLocalize_FallsBackToEnglish(t *testing.T) {
	unknown := Localize("xx", msgPasswordChanged, "example.com")
	en := Localize("en", msgPasswordChanged, "example.com")
	assert.Equal(t, en, unknown)

	malformed := Localize("!!", msgPasswordChanged, "example.com")
	assert.Equal(t, en, malformed)
}

func TestLocalize_RegionalVariantsMatch(t *testing.T) {
	base := Localize("ko", subjectConfirmationPin, "example.com")
	regional := Localize("ko-KR", subjectConfirmationPin, "example.com")
	assert.Equal(t, base, regional)
}
