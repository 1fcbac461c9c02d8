package logging

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "ab****"},
		{"12345:abcdef", "1234****cdef"},
		{"sk-proj-1234567890", "sk-p**********7890"},
	}
	for _, c := range cases {
		if got := MaskSecret(c.in); got != c.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "debug" {
		t.Error("debug level not parsed")
	}
	if parseLevel("nonsense").String() != "info" {
		t.Error("Unknown levels should fall back to info")
	}
}
