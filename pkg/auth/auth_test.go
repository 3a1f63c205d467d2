package auth

import (
	"errors"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{" Bearer abc ", "abc", nil},
		{"", "", ErrNoAuthorization},
		{"Basic abc", "", ErrNotBearer},
		{"Bearer", "", ErrNotBearer},
		{"Bearer ", "", ErrNotBearer},
		{"Bearer a b", "", ErrNotBearer},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, %v; want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
		}
	}
}
