package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	r := NewStringRecord("CN=Bob,DC=corp", map[string][]string{
		"sAMAccountName": {"bob"},
		"memberOf":       {"CN=A", "CN=B"},
	})

	assert.False(t, r.IsEmpty())
	assert.True(t, r.Has("samaccountname"))
	assert.Equal(t, "bob", r.Value("SAMACCOUNTNAME"))
	assert.Equal(t, []string{"CN=A", "CN=B"}, r.Strings("memberof"))
	assert.Equal(t, []string{"memberOf", "sAMAccountName"}, r.Names())
	assert.Empty(t, r.Value("mail"))

	assert.True(t, Record{}.IsEmpty())
}

func TestParseEncryption(t *testing.T) {
	testCases := []struct {
		in      string
		want    Encryption
		wantErr bool
	}{
		{in: "", want: EncryptionNone},
		{in: "none", want: EncryptionNone},
		{in: "StartTLS", want: EncryptionStartTLS},
		{in: "start-tls", want: EncryptionStartTLS},
		{in: "ldaps", want: EncryptionLDAPS},
		{in: "kerberos", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEncryption(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownEncryption)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
