package misc

import (
	"strings"
	"testing"
)

func TestSumSHA256(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		key   string
		want  string
	}{
		{"empty", nil, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"value and key", []byte("hello"), "world", "936a185caaa266bb9cbe981e9e05cb78cd732b0b3280eb944412bb6f8f8f07af"},
		{"binary value", []byte{0x00, 0x01, 0x02}, "key", "acc3dc23298dcb1aec9b764fbc38f8eaea64040c6cd2c0a7bc958be0cf06b292"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SumSHA256(tc.value, tc.key); got != tc.want {
				t.Fatalf("SumSHA256 = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSumSHA256_DoesNotTouchSpareCapacity(t *testing.T) {
	buf := make([]byte, 0, 64)
	buf = append(buf, `{"score":97}`...)
	spare := buf[:cap(buf)]
	spare[len(buf)] = '!'

	first := SumSHA256(buf, "secret")
	if spare[len(buf)] != '!' {
		t.Fatal("key was written into the caller's backing array")
	}
	if second := SumSHA256(buf, "secret"); second != first {
		t.Fatalf("digest changed between calls: %s != %s", first, second)
	}
}

func TestVerifySHA256(t *testing.T) {
	body := []byte(`[{"kind":"memory_leak"}]`)
	sig := SumSHA256(body, "secret")

	tests := []struct {
		name string
		key  string
		sig  string
		want bool
	}{
		{"matching", "secret", sig, true},
		{"upper case hex", "secret", strings.ToUpper(sig), true},
		{"wrong key", "other", sig, false},
		{"truncated", "secret", sig[:32], false},
		{"not hex", "secret", "zz" + sig[2:], false},
		{"empty", "secret", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifySHA256(body, tc.key, tc.sig); got != tc.want {
				t.Fatalf("VerifySHA256 = %v, want %v", got, tc.want)
			}
		})
	}
}
