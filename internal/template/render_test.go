package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	years := Years{Template: 2025, Target: 2027}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "placeholder", in: "{year} Weeks", want: "2027 Weeks"},
		{name: "template literal", in: "2025 Weeks", want: "2027 Weeks"},
		{name: "both spellings", in: "{year} vs 2025", want: "2027 vs 2027"},
		{name: "repeated", in: "{year}/{year}", want: "2027/2027"},
		{name: "literal inside a longer number is kept", in: "Invoice 120251", want: "Invoice 120251"},
		{name: "date-like context", in: "2025-12-31", want: "2027-12-31"},
		{name: "letter prefix", in: "FY2025 Goals", want: "FY2027 Goals"},
		{name: "underscore", in: "Weeks_2025", want: "Weeks_2027"},
		{name: "adjacent years", in: "2025 2025", want: "2027 2027"},
		{name: "formula reference", in: `ref("FY2025 Goals") + 1`, want: `ref("FY2027 Goals") + 1`},
		{name: "doubled year is one number", in: "20252025", want: "20252025"},
		{name: "no token", in: "Projects", want: "Projects"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, years))
		})
	}
}

func TestRender_SameYear(t *testing.T) {
	years := Years{Template: 2025, Target: 2025}
	assert.Equal(t, "2025 Weeks", Render("{year} Weeks", years))
	assert.Equal(t, "2025 Weeks", Render("2025 Weeks", years))
}

func TestRender_IsIdempotent(t *testing.T) {
	years := Years{Template: 2025, Target: 2026}
	once := Render("{year} Weekly Goals for 2025", years)
	assert.Equal(t, once, Render(once, years))
}

func TestHasToken(t *testing.T) {
	years := Years{Template: 2025, Target: 2026}
	assert.True(t, HasToken("{year} Months", years))
	assert.True(t, HasToken("ref(\"2025 Weeks\")", years))
	assert.False(t, HasToken("Projects", years))
	assert.False(t, HasToken("202512", years))
	assert.True(t, HasToken("FY2025", years))
}
