package misc

import (
	"testing"
	"time"
)

func TestLookupEnv(t *testing.T) {
	tests := []struct {
		name   string
		val    string
		want   string
		wantOK bool
	}{
		{"plain", "bar", "bar", true},
		{"trimmed", "  bar \t", "bar", true},
		{"blank counts as unset", "   ", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PW_LOOKUP", tt.val)
			got, ok := LookupEnv("PW_LOOKUP")
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("LookupEnv = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
	if got := Getenv("PW_LOOKUP_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("Getenv default = %q", got)
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10", 10 * time.Second, false},
		{" 3 ", 3 * time.Second, false},
		{"1500ms", 1500 * time.Millisecond, false},
		{"2m", 2 * time.Minute, false},
		{"-5", 0, false},
		{"-1s", 0, false},
		{"soon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeconds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeconds(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name string
		val  string
		def  time.Duration
		want time.Duration
	}{
		{"go syntax", "5s", 0, 5 * time.Second},
		{"bare seconds", "7", 0, 7 * time.Second},
		{"malformed keeps default", "oops", 3 * time.Second, 3 * time.Second},
		{"unset keeps default", "", 7 * time.Second, 7 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PW_INTERVAL", tt.val)
			if got := GetDuration("PW_INTERVAL", tt.def); got != tt.want {
				t.Fatalf("GetDuration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TrUe", "t", "yes", "Y", "on"} {
		if b, err := ParseBool(s); err != nil || !b {
			t.Errorf("ParseBool(%q) = %v, %v", s, b, err)
		}
	}
	for _, s := range []string{"0", "false", "F", "no", "n", " off "} {
		if b, err := ParseBool(s); err != nil || b {
			t.Errorf("ParseBool(%q) = %v, %v", s, b, err)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("ParseBool(maybe) should fail")
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("PW_TOGGLE", "off")
	if GetBool("PW_TOGGLE", true) {
		t.Fatal("off should read as false")
	}
	t.Setenv("PW_TOGGLE", "maybe")
	if !GetBool("PW_TOGGLE", true) {
		t.Fatal("malformed value should keep the default")
	}
	t.Setenv("PW_TOGGLE", "")
	if GetBool("PW_TOGGLE", false) {
		t.Fatal("unset value should keep the default")
	}
}
