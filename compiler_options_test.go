package kiln

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kilnvm/kiln/isa"
)

// fakeRuntime implements api.Runtime for tests.
type fakeRuntime struct {
	options    []string
	debuggable bool
	image      string
}

func (r *fakeRuntime) CompilerOptions() []string { return r.options }
func (r *fakeRuntime) Debuggable() bool          { return r.debuggable }
func (r *fakeRuntime) ImageLocation() string     { return r.image }

// hostFeatureName returns a feature name valid for the host instruction
// set but outside the default-variant baseline, plus a second variant
// name, for option-parsing tests.
func hostFeatureName(t *testing.T) (feature, variant string) {
	switch isa.Host() {
	case isa.Amd64:
		return "sse4.1", "x86-64-v2"
	case isa.Arm64:
		return "crc32", "cortex-a55"
	default:
		t.Skipf("no feature table for %s", isa.Host())
		return "", ""
	}
}

// loadForTest runs the option loader with a warning-level logger and
// returns the snapshot plus everything logged at warning or above.
func loadForTest(t *testing.T, rt *fakeRuntime) (*CompilerOptions, string) {
	var buf bytes.Buffer
	opts, err := loadCompilerOptions(rt, zerolog.New(&buf).Level(zerolog.WarnLevel))
	require.NoError(t, err)
	return opts, buf.String()
}

func TestLoadCompilerOptions_defaults(t *testing.T) {
	// Scenario: empty input with a positive debuggability hint.
	opts, _ := loadForTest(t, &fakeRuntime{debuggable: true})

	require.Equal(t, isa.Host(), opts.InstructionSet())
	require.True(t, opts.Debuggable())
	require.False(t, opts.PIC())
	require.False(t, opts.GenerateDebugInfo())
	require.False(t, opts.CompilingWithCoreImage())
	require.Equal(t, UnsetInlineMaxCodeUnits, opts.InlineMaxCodeUnits())
	// With no variant or feature option at all, the host is probed.
	require.Equal(t, isa.HostFeatures(), opts.Features())
}

func TestLoadCompilerOptions_unrecognizedKeysIgnored(t *testing.T) {
	opts, logged := loadForTest(t, &fakeRuntime{options: []string{
		"--compiler-filter=speed",
		"--huge-method-max=16384",
		"--not-an-option",
	}})

	defaults, _ := loadForTest(t, &fakeRuntime{})
	require.Equal(t, defaults, opts)
	require.Empty(t, logged)
}

func TestLoadCompilerOptions_debuggableMirrorsHint(t *testing.T) {
	tests := []struct {
		name     string
		options  []string
		hint     bool
		expected bool
	}{
		{name: "hint false", hint: false, expected: false},
		{name: "hint true", hint: true, expected: true},
		{name: "option overrides false hint", options: []string{"--debuggable"}, hint: false, expected: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			opts, _ := loadForTest(t, &fakeRuntime{options: tc.options, debuggable: tc.hint})
			require.Equal(t, tc.expected, opts.Debuggable())
		})
	}
}

func TestLoadCompilerOptions_picAlwaysFalse(t *testing.T) {
	for _, options := range [][]string{
		nil,
		{"--pic"},
		{"--position-independent-code=true"},
	} {
		opts, _ := loadForTest(t, &fakeRuntime{options: options})
		require.False(t, opts.PIC())
	}
}

func TestLoadCompilerOptions_featureOptionsCommute(t *testing.T) {
	feature, _ := hostFeatureName(t)

	featuresOnly, _ := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-features=" + feature,
	}})
	explicitDefault, _ := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-variant=default",
		"--instruction-set-features=" + feature,
	}})
	reversed, _ := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-features=" + feature,
		"--instruction-set-variant=default",
	}})

	// A features option with no preceding variant implies the "default"
	// variant baseline, and the two option kinds commute.
	require.Equal(t, explicitDefault.Features(), featuresOnly.Features())
	require.Equal(t, explicitDefault.Features(), reversed.Features())
	require.True(t, featuresOnly.Features().Has(feature))
}

func TestLoadCompilerOptions_lastVariantWins(t *testing.T) {
	_, variant := hostFeatureName(t)

	opts, _ := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-variant=" + variant,
		"--instruction-set-variant=default",
	}})

	defaultBaseline, err := isa.FromVariant(isa.Host(), "default")
	require.NoError(t, err)
	require.Equal(t, defaultBaseline, opts.Features())
}

func TestLoadCompilerOptions_bogusVariant(t *testing.T) {
	// Scenario: an unparseable variant is a warning, not a failure, and
	// features fall back to the default-variant baseline.
	opts, logged := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-variant=bogus",
	}})

	defaultBaseline, err := isa.FromVariant(isa.Host(), "default")
	require.NoError(t, err)
	require.Equal(t, defaultBaseline, opts.Features())
	require.Contains(t, logged, "error parsing instruction set variant")
	require.Contains(t, logged, "bogus")
}

func TestLoadCompilerOptions_bogusFeatures(t *testing.T) {
	opts, logged := loadForTest(t, &fakeRuntime{options: []string{
		"--instruction-set-features=definitely-not-a-feature",
	}})

	defaultBaseline, err := isa.FromVariant(isa.Host(), "default")
	require.NoError(t, err)
	require.Equal(t, defaultBaseline, opts.Features())
	require.Contains(t, logged, "error parsing instruction set features")
}

func TestLoadCompilerOptions_inlineMaxCodeUnits(t *testing.T) {
	tests := []struct {
		name     string
		option   string
		expected int
		warns    bool
	}{
		{name: "valid", option: "--inline-max-code-units=47", expected: 47},
		{name: "zero disables inlining", option: "--inline-max-code-units=0", expected: 0},
		{name: "malformed", option: "--inline-max-code-units=lots", expected: UnsetInlineMaxCodeUnits, warns: true},
		{name: "negative", option: "--inline-max-code-units=-3", expected: UnsetInlineMaxCodeUnits, warns: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			opts, logged := loadForTest(t, &fakeRuntime{options: []string{tc.option}})
			require.Equal(t, tc.expected, opts.InlineMaxCodeUnits())
			if tc.warns {
				require.Contains(t, logged, "ignoring malformed inline limit")
			} else {
				require.Empty(t, logged)
			}
		})
	}
}

func TestLoadCompilerOptions_generateDebugInfo(t *testing.T) {
	tests := []struct {
		name     string
		options  []string
		expected bool
	}{
		{name: "off by default", expected: false},
		{name: "long form", options: []string{"--generate-debug-info"}, expected: true},
		{name: "short form", options: []string{"-g"}, expected: true},
		{name: "explicit off", options: []string{"--generate-debug-info", "--no-generate-debug-info"}, expected: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			opts, _ := loadForTest(t, &fakeRuntime{options: tc.options})
			require.Equal(t, tc.expected, opts.GenerateDebugInfo())
		})
	}
}

func TestLoadCompilerOptions_instructionSetMismatch(t *testing.T) {
	foreign := isa.Arm
	if isa.Host() == isa.Arm {
		foreign = isa.Arm64
	}

	_, err := loadCompilerOptionsForISA(&fakeRuntime{}, zerolog.Nop(), foreign)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not match the running process")
}

func TestIsCoreImageFilename(t *testing.T) {
	tests := []struct {
		location string
		expected bool
	}{
		{location: "", expected: false},
		{location: "/system/framework/boot.art", expected: false},
		{location: "/data/art-test/core.art", expected: true},
		{location: "/data/art-test/core-optimizing.art", expected: true},
		{location: "core.art", expected: true},
		{location: "/data/encore.art", expected: false},
		{location: "/data/core-interpreter.oat", expected: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.location, func(t *testing.T) {
			require.Equal(t, tc.expected, isCoreImageFilename(tc.location))
		})
	}
}

func TestLoadCompilerOptions_coreImage(t *testing.T) {
	opts, _ := loadForTest(t, &fakeRuntime{image: "/data/art-test/core-optimizing.art"})
	require.True(t, opts.CompilingWithCoreImage())
}
