package logging

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeConnectionString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "key value dsn",
			in:   "host=db port=5432 user=app password=s3cret dbname=clinic",
			want: "host=db port=5432 user=app password=[REDACTED] dbname=clinic",
		},
		{
			name: "url credentials",
			in:   "postgres://app:s3cret@db:5432/clinic",
			want: "postgres://[REDACTED]@[REDACTED]/clinic",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeConnectionString(tt.in))
		})
	}
}

func TestSanitizeError(t *testing.T) {
	err := errors.New("dial failed: postgres://app:s3cret@db:5432/clinic refused")
	got := SanitizeError(err)
	assert.NotContains(t, got, "s3cret")
	assert.Contains(t, got, RedactedText)

	err = errors.New("request rejected: api_key=sk-abcdefghijklmnopqrstuvwxyz123456 invalid")
	got = SanitizeError(err)
	assert.NotContains(t, got, "sk-abcdefghijklmnopqrstuvwxyz123456")

	assert.Equal(t, "", SanitizeError(nil))
}

func TestSanitizeQueryTruncates(t *testing.T) {
	long := "SELECT " + strings.Repeat("x", 200)
	got := SanitizeQuery(long)
	assert.Len(t, got, MaxQueryLogLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "SELECT 1", SanitizeQuery("SELECT 1"))
	assert.Equal(t, "", SanitizeQuery(""))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "abcde", TruncateString("abcde", 5))
	assert.Equal(t, "abcde...", TruncateString("abcdefgh", 5))
}
