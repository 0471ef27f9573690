package util

import (
	"bytes"
	"testing"
)

func TestPrintBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		in   BuildInfo
		want string
	}{
		{
			name: "all set",
			in:   BuildInfo{Version: "v1.2.0", Date: "2026-01-02", Commit: "abc123"},
			want: "Build version: v1.2.0\nBuild date: 2026-01-02\nBuild commit: abc123\n",
		},
		{
			name: "missing values",
			in:   BuildInfo{Version: "v1.2.0"},
			want: "Build version: v1.2.0\nBuild date: N/A\nBuild commit: N/A\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintBuildInfo(&buf, tt.in)
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
