package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connected_time.txt")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	if err := sink.WriteLine("h1 3"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := sink.WriteLine("h2 1"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := string(data), "h1 3\nh2 1\n"; got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestFormatTimeDropsTrailingZeros(t *testing.T) {
	cases := []struct {
		t    float64
		want string
	}{
		{0, "0"},
		{43200, "43200"},
		{30.5, "30.5"},
	}
	for _, tc := range cases {
		if got := formatTime(tc.t); got != tc.want {
			t.Errorf("formatTime(%g) = %q, want %q", tc.t, got, tc.want)
		}
	}
}
