package config

import (
	"fmt"
	"regexp"
	"strconv"
)

// InstructionSetVersion is a bitfield of instruction-set versions an
// OPTABLE/MACHINE assembler option resolves to (supplemented from
// original_source's instruction_set_version.h). Instruction-table
// membership is a pure bitfield test (spec.md §9 design note "Global
// instruction tables"); only this table/bitfield plumbing is
// implemented, the per-instruction operand-validity bodies are out of
// scope (spec.md §1) and are represented by the InstructionValidator
// interface in package processing.
type InstructionSetVersion uint32

const (
	VersionZOP InstructionSetVersion = 1 << iota
	VersionYOP
	VersionESA
	VersionXA
	VersionDOS
	Version370
	VersionUNI
	VersionZS1
	VersionZS2
	VersionZS3
	VersionZS4
	VersionZS5
	VersionZS6
	VersionZS7
	VersionZS8
	VersionZS9
	VersionZSA

	// VersionAll is every version OR'd together; VersionNone excludes an
	// instruction from every table (reserved/unsupported mnemonics).
	VersionNone InstructionSetVersion = 0
)

// VersionAll is every known version, used as the membership test's
// upper bound.
const VersionAll = VersionZOP | VersionYOP | VersionESA | VersionXA | VersionDOS |
	Version370 | VersionUNI | VersionZS1 | VersionZS2 | VersionZS3 | VersionZS4 |
	VersionZS5 | VersionZS6 | VersionZS7 | VersionZS8 | VersionZS9 | VersionZSA

// Supports is a pure membership test: does this instruction's version
// bitfield include v.
func (available InstructionSetVersion) Supports(v InstructionSetVersion) bool {
	return available&v != 0
}

var zseriesPattern = regexp.MustCompile(`^(ZSERIES|ZS)(-(\d+))?$`)
var archPattern = regexp.MustCompile(`^ARCH-(\d+)$`)

// ResolveMachine maps a MACHINE option value (spec.md §6, including the
// parametrized ZSERIES-N / ZS-N / ARCH-N families) to the
// InstructionSetVersion it selects.
func ResolveMachine(machine string) (InstructionSetVersion, error) {
	switch machine {
	case "S370":
		return Version370, nil
	case "S370XA", "S390":
		return VersionXA, nil
	case "S370ESA", "S390E":
		return VersionESA, nil
	}
	if m := zseriesPattern.FindStringSubmatch(machine); m != nil {
		return resolveGeneration(m[3])
	}
	if m := archPattern.FindStringSubmatch(machine); m != nil {
		return resolveGeneration(m[1])
	}
	return VersionNone, fmt.Errorf("config: unrecognized MACHINE value %q", machine)
}

func resolveGeneration(digits string) (InstructionSetVersion, error) {
	if digits == "" {
		return VersionZS1, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 10 {
		return VersionNone, fmt.Errorf("config: ZSERIES/ARCH generation out of range 1..10: %q", digits)
	}
	versions := []InstructionSetVersion{
		VersionZS1, VersionZS2, VersionZS3, VersionZS4, VersionZS5,
		VersionZS6, VersionZS7, VersionZS8, VersionZS9, VersionZSA,
	}
	return versions[n-1], nil
}

var zsOptableVersions = map[string]InstructionSetVersion{
	"ZS1": VersionZS1, "ZS2": VersionZS2, "ZS3": VersionZS3, "ZS4": VersionZS4,
	"ZS5": VersionZS5, "ZS6": VersionZS6, "ZS7": VersionZS7, "ZS8": VersionZS8,
	"ZS9": VersionZS9, "ZSA": VersionZSA,
}

// ResolveOptable maps an OPTABLE option value to the InstructionSetVersion
// it selects.
func ResolveOptable(optable string) (InstructionSetVersion, error) {
	switch optable {
	case "370":
		return Version370, nil
	case "DOS":
		return VersionDOS, nil
	case "ESA":
		return VersionESA, nil
	case "UNI":
		return VersionUNI, nil
	case "XA":
		return VersionXA, nil
	case "YOP":
		return VersionYOP, nil
	case "ZOP":
		return VersionZOP, nil
	}
	if ValidOptable[optable] {
		switch optable {
		case "Z9":
			return VersionZS1, nil
		case "Z10":
			return VersionZS2, nil
		case "Z11":
			return VersionZS3, nil
		case "Z12":
			return VersionZS4, nil
		case "Z13":
			return VersionZS5, nil
		case "Z14":
			return VersionZS6, nil
		case "Z15":
			return VersionZS7, nil
		case "Z16":
			return VersionZS8, nil
		}
		if v, ok := zsOptableVersions[optable]; ok {
			return v, nil
		}
	}
	return VersionNone, fmt.Errorf("config: unrecognized OPTABLE value %q", optable)
}

// Validate checks the "exactly one of MACHINE and OPTABLE" constraint
// (spec.md §6) and resolves whichever is set.
func (o AssemblerOptions) Validate() (InstructionSetVersion, error) {
	if len(o.SysParm) >= 256 {
		return VersionNone, fmt.Errorf("config: SYSPARM must be shorter than 256 characters")
	}
	hasMachine := o.Machine != ""
	hasOptable := o.Optable != ""
	switch {
	case hasMachine == hasOptable:
		return VersionNone, fmt.Errorf("config: exactly one of MACHINE and OPTABLE must be set")
	case hasMachine:
		return ResolveMachine(o.Machine)
	default:
		return ResolveOptable(o.Optable)
	}
}
