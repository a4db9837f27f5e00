package accountcode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertools/contpaq-normalizer/internal/accountcode"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

func TestParse_ValidCode(t *testing.T) {
	parsed, ok := accountcode.Parse("132-020-000-000-00")
	require.True(t, ok)
	assert.Equal(t, "132-020-000-000-00", parsed.Full)
	assert.Equal(t, "132", parsed.MainGroup)
	assert.Equal(t, "020", parsed.AccountCode)
}

func TestParse_TrimsWhitespace(t *testing.T) {
	parsed, ok := accountcode.Parse("  133-001-000-000-00  ")
	require.True(t, ok)
	assert.Equal(t, "133-001-000-000-00", parsed.Full)
	assert.Equal(t, "001", parsed.AccountCode)
}

func TestParse_NonMatches(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain text", "OBRA CIVIL"},
		{"too few groups", "132-020-000-00"},
		{"too many groups", "132-020-000-000-00-00"},
		{"short last group", "132-020-000-000-0"},
		{"non numeric group", "132-ABC-000-000-00"},
		{"date shaped", "01/Ene/2024"},
		{"embedded code", "x 132-020-000-000-00"},
		{"wrong separators", "132.020.000.000.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := accountcode.Parse(tc.input)
			assert.False(t, ok, "input %q should not parse", tc.input)
		})
	}
}

func TestExtract_ReturnsSecondGroupVerbatim(t *testing.T) {
	assert.Equal(t, "020", accountcode.Extract("132-020-000-000-00"))
	assert.Equal(t, "001", accountcode.Extract("133-001-123-456-78"))
	assert.Equal(t, "000", accountcode.Extract("900-000-000-000-00"))
	assert.Equal(t, "", accountcode.Extract("not a code"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, accountcode.IsValid("132-020-000-000-00"))
	assert.False(t, accountcode.IsValid("132-020"))
}

func TestFamily(t *testing.T) {
	fam, ok := accountcode.Family("132-001-000-000-00")
	require.True(t, ok)
	assert.Equal(t, types.FamilyAPK, fam)

	fam, ok = accountcode.Family("133-001-000-000-00")
	require.True(t, ok)
	assert.Equal(t, types.FamilyEPK, fam)

	_, ok = accountcode.Family("900-001-000-000-00")
	assert.False(t, ok, "unreserved prefix has no family")

	_, ok = accountcode.Family("junk")
	assert.False(t, ok)
}
