package kiln

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kilnvm/kiln/api"
	"github.com/kilnvm/kiln/isa"
)

// UnsetInlineMaxCodeUnits is the default inline limit: no limit at all.
const UnsetInlineMaxCodeUnits = -1

// Option keys the loader recognizes. Every other key in the runtime's
// tuning input is accepted and silently ignored, so runtimes can pass
// their full option surface through unfiltered.
const (
	optionDebuggable          = "--debuggable"
	optionGenerateDebugInfo   = "--generate-debug-info"
	optionGenerateDebugInfoG  = "-g"
	optionNoGenerateDebugInfo = "--no-generate-debug-info"
	optionInlineMaxCodeUnits  = "--inline-max-code-units="
	optionISAVariant          = "--instruction-set-variant="
	optionISAFeatures         = "--instruction-set-features="
)

// CompilerOptions is one immutable configuration snapshot. Snapshots are
// replaced wholesale on Reconfigure and never mutated in place, so a
// snapshot obtained from the current pointer is safe to read without
// synchronization for as long as the reader holds it.
type CompilerOptions struct {
	instructionSet         isa.InstructionSet
	features               isa.Features
	debuggable             bool
	generateDebugInfo      bool
	inlineMaxCodeUnits     int
	compilingWithCoreImage bool
}

// InstructionSet returns the instruction set code is generated for.
func (o *CompilerOptions) InstructionSet() isa.InstructionSet { return o.instructionSet }

// Features returns the instruction-set feature set the backend may target.
// Its instruction set always matches InstructionSet.
func (o *CompilerOptions) Features() isa.Features { return o.features }

// Debuggable reports whether generated code must stay debugger-friendly.
func (o *CompilerOptions) Debuggable() bool { return o.debuggable }

// GenerateDebugInfo reports whether native debug metadata is emitted for
// compiled methods and loaded types.
func (o *CompilerOptions) GenerateDebugInfo() bool { return o.generateDebugInfo }

// InlineMaxCodeUnits returns the inlining size limit, or
// UnsetInlineMaxCodeUnits when unlimited.
func (o *CompilerOptions) InlineMaxCodeUnits() int { return o.inlineMaxCodeUnits }

// PIC reports whether position-independent code is generated. It is false
// for every input: code placed by the code cache is patched in place and
// never relocated, so the JIT unconditionally overrides any PIC request.
func (o *CompilerOptions) PIC() bool { return false }

// CompilingWithCoreImage reports whether the runtime booted from a core
// image, which changes what the backend may assume about boot classes.
func (o *CompilerOptions) CompilingWithCoreImage() bool { return o.compilingWithCoreImage }

// loadCompilerOptions parses the runtime's tuning input into a fresh
// snapshot.
//
// Malformed or unrecognized input never fails the load: it is logged and
// defaulted. The only error is an instruction-set mismatch against the
// running process, which no defaulting can make safe.
func loadCompilerOptions(rt api.Runtime, log zerolog.Logger) (*CompilerOptions, error) {
	return loadCompilerOptionsForISA(rt, log, isa.Host())
}

// loadCompilerOptionsForISA is the test seam for the instruction-set
// verification: production callers always pass isa.Host().
func loadCompilerOptionsForISA(rt api.Runtime, log zerolog.Logger, runtimeISA isa.InstructionSet) (*CompilerOptions, error) {
	opts := &CompilerOptions{
		instructionSet:     runtimeISA,
		inlineMaxCodeUnits: UnsetInlineMaxCodeUnits,
	}

	// A mismatch between the configured instruction set and the one the
	// process runs on means build/runtime skew, not bad user input.
	if host := isa.Host(); opts.instructionSet != host {
		return nil, fmt.Errorf("instruction set %s does not match the running process (%s)",
			opts.instructionSet, host)
	}

	var (
		debuggableSet bool
		variant       string
		variantSet    bool
		featureCSVs   []string
	)
	for _, option := range rt.CompilerOptions() {
		log.Debug().Str("option", option).Msg("jit compiler option")
		switch {
		case option == optionDebuggable:
			opts.debuggable = true
			debuggableSet = true
		case option == optionGenerateDebugInfo || option == optionGenerateDebugInfoG:
			opts.generateDebugInfo = true
		case option == optionNoGenerateDebugInfo:
			opts.generateDebugInfo = false
		case strings.HasPrefix(option, optionInlineMaxCodeUnits):
			v, err := strconv.Atoi(option[len(optionInlineMaxCodeUnits):])
			if err != nil || v < 0 {
				log.Warn().Str("option", option).Msg("ignoring malformed inline limit")
				continue
			}
			opts.inlineMaxCodeUnits = v
		case strings.HasPrefix(option, optionISAVariant):
			// Last variant option wins.
			variant = option[len(optionISAVariant):]
			variantSet = true
		case strings.HasPrefix(option, optionISAFeatures):
			featureCSVs = append(featureCSVs, option[len(optionISAFeatures):])
		default:
			// Unrecognized keys are tolerated, not errors.
		}
	}

	// If no option decided debuggability, the runtime's own mode does.
	if !debuggableSet {
		opts.debuggable = rt.Debuggable()
	}

	opts.features = resolveFeatures(opts.instructionSet, variant, variantSet, featureCSVs, log)
	opts.compilingWithCoreImage = isCoreImageFilename(rt.ImageLocation())
	return opts, nil
}

// resolveFeatures merges the variant baseline with the accumulated feature
// strings. Feature strings apply on top of the baseline regardless of
// whether they appeared before or after the variant option, so the two
// option kinds commute.
//
// When neither kind of option was present at all, the host CPU is probed
// instead of assuming the conservative default baseline.
func resolveFeatures(is isa.InstructionSet, variant string, variantSet bool, featureCSVs []string, log zerolog.Logger) isa.Features {
	if !variantSet && len(featureCSVs) == 0 {
		return isa.HostFeatures()
	}

	defaultBaseline, err := isa.FromVariant(is, "default")
	if err != nil {
		// Unreachable after the instruction-set verification, which only
		// admits sets with a variant table.
		panic(fmt.Errorf("BUG: no default variant for %s: %w", is, err))
	}

	features := defaultBaseline
	if variantSet {
		if f, err := isa.FromVariant(is, variant); err != nil {
			log.Warn().Str("variant", variant).Err(err).Msg("error parsing instruction set variant")
		} else {
			features = f
		}
	}
	for _, csv := range featureCSVs {
		if f, err := features.AddFromString(csv); err != nil {
			log.Warn().Str("features", csv).Err(err).Msg("error parsing instruction set features")
			features = defaultBaseline
		} else {
			features = f
		}
	}
	return features
}

// isCoreImageFilename reports whether the boot image location names a core
// image: a "core.art" basename, or a "core-<suffix>.art" flavor of it.
func isCoreImageFilename(location string) bool {
	base := filepath.Base(location)
	return base == "core.art" ||
		(strings.HasPrefix(base, "core-") && strings.HasSuffix(base, ".art"))
}
