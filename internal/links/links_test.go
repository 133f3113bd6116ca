package links

import "testing"

func TestExtractGroupRef(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		// pure signed integer ids pass through unchanged
		{"-1001234567890", "-1001234567890", true},
		{"123456", "123456", true},
		// t.me/+CODE and t.me/joinchat/CODE yield the invite code
		{"t.me/+AbCd_Ef-123", "AbCd_Ef-123", true},
		{"https://t.me/+AbCd_Ef-123", "AbCd_Ef-123", true},
		{"t.me/joinchat/AbCd_Ef-123", "AbCd_Ef-123", true},
		{"http://www.t.me/joinchat/XyZ987", "XyZ987", true},
		// @username used as-is
		{"@meugrupo", "@meugrupo", true},
		// bare t.me/username becomes @username
		{"t.me/meugrupo", "@meugrupo", true},
		{"https://t.me/meugrupo/", "@meugrupo", true},
		// everything else is unrecognized
		{"", "", false},
		{"hello world", "", false},
		{"t.me/+", "", false},
		{"t.me/joinchat/", "", false},
		{"t.me/a b", "", false},
		{"@ab", "", false},
		{"12.50", "", false},
		{"https://example.com/group", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractGroupRef(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractGroupRef(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGroupLink(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"@meugrupo", "https://t.me/meugrupo"},
		{"AbCd_Ef-123", "https://t.me/+AbCd_Ef-123"},
		{"-1001234567890", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := GroupLink(tt.ref); got != tt.want {
			t.Errorf("GroupLink(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
