package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ID
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"plus only", "+", ""},
		{"plain digits", "919999999999", "919999999999"},
		{"leading plus", "+919999999999", "919999999999"},
		{"formatted", "+91 (999) 999-99.99", "919999999999"},
		{"jid", "919999999999@s.whatsapp.net", "919999999999"},
		{"jid with device", "919999999999:3@s.whatsapp.net", "919999999999"},
		{"legacy jid", "919999999999@c.us", "919999999999"},
		{"upper-case server", "15550001@S.WhatsApp.Net", "15550001"},
		{"upper-case legacy server", "15550001@C.US", "15550001"},
		{"upper-case user and server", "Foo@S.WHATSAPP.NET", "foo"},
		{"group jid kept", "120363123456@g.us", "120363123456@g.us"},
		{"lid kept", "3917077286968@lid", "3917077286968@lid"},
		{"instagram handle", "  Dr.Clinic_Official ", "dr.clinic_official"},
		{"stacked plus and spaces", "+ +abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "+", "+919999999999", "919999999999:1@s.whatsapp.net", "+ +abc",
		"Visitor-42", "foo@bar.com", "  +1 (555) 010-9999  ", "120363123456@g.us",
		"15550001@S.WhatsApp.Net", "Foo@S.WHATSAPP.NET", "Foo.Bar@S.WhatsApp.Net", "120363123456@G.US",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(string(once)), "Normalize(Normalize(%q))", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("+919999999999", "919999999999"))
	assert.True(t, Equal("919999999999@s.whatsapp.net", "+91 99999 99999"))
	assert.True(t, Equal("15550001@S.WhatsApp.Net", "+15550001"))
	assert.False(t, Equal("+919999999999", "919999999998"))
	assert.False(t, Equal("", ""), "empty identities never match")
}

func TestSet(t *testing.T) {
	s := NewSet("+15550100", "", "15550100@s.whatsapp.net")
	assert.Len(t, s, 1)
	assert.True(t, s.Contains(Normalize("1 555 0100")))
	assert.False(t, s.Contains(""))
	assert.False(t, s.Contains("15550101"))
}
