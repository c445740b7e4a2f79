package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english question", "What causes yellow leaves on my maize?", "en"},
		{"twi greeting", "Mepaakyɛw, wo ho te sɛn?", "tw"},
		{"twi farming", "Adɛn nti na me bankye afuom yɛ basaa?", "tw"},
		{"ewe markers", "Nye agble ɖe, aleke mawɔ ɖo?", "ee"},
		{"empty", "", "en"},
		{"too short", "ok", "en"},
		{"numbers only", "1234 5678", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := Detect(tt.text)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "Twi (Akan)", Name("tw"))
	assert.Equal(t, "English", Name("en"))
	assert.Equal(t, "Unknown", Name("xx"))
}
