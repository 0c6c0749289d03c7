package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntrospectOptionsSensitive(t *testing.T) {
	opts := IntrospectOptions{
		SensitiveColumns: []string{"patient.name", "nik"},
	}

	tests := []struct {
		name   string
		table  string
		column string
		want   bool
	}{
		{name: "qualified entry matches its table", table: "patient", column: "name", want: true},
		{name: "qualified entry skips other tables", table: "doctor", column: "name", want: false},
		{name: "bare entry matches any table", table: "patient", column: "nik", want: true},
		{name: "bare entry matches another table", table: "audit_log", column: "nik", want: true},
		{name: "untagged column", table: "patient", column: "birth_date", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.sensitive(tt.table, tt.column))
		})
	}
}

func TestIntrospectOptionsSensitiveEmptyList(t *testing.T) {
	opts := IntrospectOptions{}
	assert.False(t, opts.sensitive("patient", "name"))
}
