package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromVariant(t *testing.T) {
	tests := []struct {
		name        string
		is          InstructionSet
		variant     string
		expected    []string
		expectedErr string
	}{
		{
			name:     "amd64 default",
			is:       Amd64,
			variant:  "default",
			expected: []string{"sse3", "ssse3"},
		},
		{
			name:     "amd64 x86-64-v2",
			is:       Amd64,
			variant:  "x86-64-v2",
			expected: []string{"sse3", "ssse3", "sse4.1", "sse4.2", "popcnt"},
		},
		{
			name:     "arm64 cortex-a55",
			is:       Arm64,
			variant:  "cortex-a55",
			expected: []string{"asimd", "crc32", "lse"},
		},
		{
			name:        "unknown variant",
			is:          Amd64,
			variant:     "bogus",
			expectedErr: `unknown amd64 variant "bogus"`,
		},
		{
			name:        "unknown instruction set",
			is:          Unknown,
			variant:     "default",
			expectedErr: "no variants defined for instruction set unknown(0x0)",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			f, err := FromVariant(tc.is, tc.variant)
			if tc.expectedErr != "" {
				require.EqualError(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.is, f.ISA())
			for _, name := range tc.expected {
				require.True(t, f.Has(name), "expected feature %s", name)
			}
		})
	}
}

func TestFeatures_AddFromString(t *testing.T) {
	base, err := FromVariant(Amd64, "default")
	require.NoError(t, err)

	tests := []struct {
		name        string
		csv         string
		has         []string
		hasNot      []string
		expectedErr string
	}{
		{
			name: "single add",
			csv:  "sse4.1",
			has:  []string{"sse3", "ssse3", "sse4.1"},
		},
		{
			name: "multiple with whitespace",
			csv:  "sse4.1, sse4.2 ,popcnt",
			has:  []string{"sse4.1", "sse4.2", "popcnt"},
		},
		{
			name:   "no- prefix removes",
			csv:    "avx,no-ssse3",
			has:    []string{"sse3", "avx"},
			hasNot: []string{"ssse3"},
		},
		{
			name:        "unknown feature",
			csv:         "sse9",
			expectedErr: `unknown amd64 feature "sse9"`,
		},
		{
			name:        "empty element",
			csv:         "sse4.1,,popcnt",
			expectedErr: `unknown amd64 feature ""`,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			f, err := base.AddFromString(tc.csv)
			if tc.expectedErr != "" {
				require.EqualError(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			for _, name := range tc.has {
				require.True(t, f.Has(name), "expected feature %s", name)
			}
			for _, name := range tc.hasNot {
				require.False(t, f.Has(name), "unexpected feature %s", name)
			}
			// The receiver is immutable.
			require.True(t, base.Has("ssse3"))
			require.False(t, base.Has("avx"))
		})
	}
}

func TestFeatures_String(t *testing.T) {
	f, err := FromVariant(Amd64, "default")
	require.NoError(t, err)
	require.Equal(t, "amd64:sse3,ssse3", f.String())

	f, err = f.AddFromString("avx")
	require.NoError(t, err)
	require.Equal(t, "amd64:avx,sse3,ssse3", f.String())
}

func TestHostFeatures_includesDefaultBaseline(t *testing.T) {
	host := Host()
	if host == Unknown {
		t.Skip("no backend support for this architecture")
	}
	f := HostFeatures()
	require.Equal(t, host, f.ISA())

	baseline, err := FromVariant(host, "default")
	require.NoError(t, err)
	require.Equal(t, baseline.Mask(), f.Mask()&baseline.Mask())
}

func TestHost_matchesGOARCH(t *testing.T) {
	// Host is derived from runtime.GOARCH, so its String must round-trip
	// on every architecture tests run on.
	host := Host()
	if host == Unknown {
		t.Skip("no backend support for this architecture")
	}
	require.NotEqual(t, "", host.String())
}
