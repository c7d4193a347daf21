package chat

import "testing"

func TestCheckContent_Emails(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		blocked bool
	}{
		{"plain address", "reach me at john@example.com", true},
		{"uppercase", "JOHN.DOE@MAIL.EXAMPLE.ORG", true},
		{"plus tag", "billing+invoices@pay.example.io anytime", true},
		{"embedded in sentence", "my mail(is)john_doe@web.co, write me", true},
		{"at but no domain", "meet @ the studio", false},
		{"no contact details", "the first cut looks great", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, blocked := CheckContent(tt.input)
			if blocked != tt.blocked {
				t.Errorf("CheckContent(%q) blocked = %v, want %v", tt.input, blocked, tt.blocked)
			}
			if tt.blocked && term != "email" {
				t.Errorf("CheckContent(%q) term = %q, want %q", tt.input, term, "email")
			}
		})
	}
}

func TestCheckContent_DigitRuns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		blocked bool
	}{
		{"ten digits", "call me at 9876543210", true},
		{"eleven digits", "12345678901", true},
		{"run inside text", "number98765432109end", true},
		{"nine digits", "order ref 987654321", false},
		{"digits split by dashes", "987-654-3210", false},
		{"two short runs", "123456789 and 123456789", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, blocked := CheckContent(tt.input)
			if blocked != tt.blocked {
				t.Errorf("CheckContent(%q) blocked = %v, want %v", tt.input, blocked, tt.blocked)
			}
			if tt.blocked && term != "phone" {
				t.Errorf("CheckContent(%q) term = %q, want %q", tt.input, term, "phone")
			}
		})
	}
}

func Test_hasLongDigitRun(t *testing.T) {
	if hasLongDigitRun("123456789") {
		t.Error("expected nine digits to pass")
	}
	if !hasLongDigitRun("1234567890") {
		t.Error("expected ten digits to be detected")
	}
}
