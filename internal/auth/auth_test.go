package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("popcorn")
	require.NoError(t, err)

	assert.NotEqual(t, "popcorn", hash)
	assert.True(t, CheckPassword(hash, "popcorn"))
	assert.False(t, CheckPassword(hash, "Popcorn"))
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name    string
		fields  [4]string
		wantErr error
		ok      bool
	}{
		{name: "valid", fields: [4]string{"Ana", "ana@example.com", "secret1", "secret1"}, ok: true},
		{name: "missing name", fields: [4]string{" ", "ana@example.com", "secret1", "secret1"}},
		{name: "missing confirm", fields: [4]string{"Ana", "ana@example.com", "secret1", ""}},
		{name: "mismatch", fields: [4]string{"Ana", "ana@example.com", "secret1", "secret2"}, wantErr: ErrPasswordMismatch},
		{name: "short", fields: [4]string{"Ana", "ana@example.com", "abc", "abc"}, wantErr: ErrWeakPassword},
		{name: "bad email", fields: [4]string{"Ana", "ana.example.com", "secret1", "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.fields[0], tt.fields[1], tt.fields[2], tt.fields[3])
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
