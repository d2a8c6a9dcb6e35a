package sid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(s string) SID {
	out, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return out
}

// rid is the last sub-authority.
func rid(s SID) uint32 {
	if len(s.subAuthorities) == 0 {
		return 0
	}

	return s.subAuthorities[len(s.subAuthorities)-1]
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		wantString string
		wantDomain string
		wantRID    uint32
		wantErr    error
	}{
		{
			name:       "domain user",
			input:      "S-1-5-21-1004336348-1177238915-682003330-1105",
			wantString: "S-1-5-21-1004336348-1177238915-682003330-1105",
			wantDomain: "S-1-5-21-1004336348-1177238915-682003330",
			wantRID:    1105,
		},
		{
			name:       "lower case prefix",
			input:      "s-1-5-21-1-2-3-500",
			wantString: "S-1-5-21-1-2-3-500",
			wantDomain: "S-1-5-21-1-2-3",
			wantRID:    500,
		},
		{
			name:       "well known",
			input:      "S-1-5-18",
			wantString: "S-1-5-18",
			wantDomain: "S-1-5",
			wantRID:    18,
		},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "not a sid", input: "X-1-5", wantErr: ErrMalformed},
		{name: "bad sub authority", input: "S-1-5-abc", wantErr: ErrMalformed},
		{name: "too short", input: "S-1", wantErr: ErrMalformed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantString, got.String())
			assert.Equal(t, tc.wantDomain, got.DomainPrefix())
			assert.Equal(t, tc.wantRID, rid(got))
		})
	}
}

func TestDecode(t *testing.T) {
	// S-1-5-21-1-2-3-1105 in its binary layout.
	raw := []byte{
		0x01, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
		0x15, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
		0x51, 0x04, 0x00, 0x00,
	}

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-21-1-2-3-1105", got.String())
	assert.Equal(t, "S-1-5-21-1-2-3", got.DomainPrefix())

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Decode(raw[:10])
	require.ErrorIs(t, err, ErrMalformed)
}

func TestInDomain(t *testing.T) {
	member := mustParse("S-1-5-21-1-2-3-1105")

	assert.True(t, member.InDomain("S-1-5-21-1-2-3"))
	assert.True(t, member.InDomain(" s-1-5-21-1-2-3 "))
	assert.False(t, member.InDomain("S-1-5-21-9-9-9"))
	assert.False(t, member.InDomain(""))
	assert.False(t, SID{}.InDomain("S-1-5-21-1-2-3"))
}

func TestFromValue(t *testing.T) {
	got, err := FromValue([]byte("S-1-5-21-7-8-9-500"))
	require.NoError(t, err)
	assert.Equal(t, uint32(500), rid(got))

	got, err = FromValue([]byte{0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0x12, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-18", got.String())

	_, err = FromValue([]byte("garbage"))
	require.ErrorIs(t, err, ErrMalformed)
}
