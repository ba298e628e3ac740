package config

import "encoding/json"

// ProcessorGroups is the `pgroups` configuration document (spec.md §6):
// named groups of libraries an assembled program's COPY/macro search path
// draws from, each with its own assembler options and preprocessor chain.
type ProcessorGroups struct {
	Pgroups []ProcessorGroup `json:"pgroups"`
	// MacroExtensions lists file extensions recognized as macro source
	// when searching a library path, workspace-wide default.
	MacroExtensions []string `json:"macro_extensions"`
}

// ProcessorGroup is one named pgroup entry.
type ProcessorGroup struct {
	Name         string          `json:"name"`
	Libs         []json.RawMessage `json:"libs"`
	AsmOptions   AssemblerOptions  `json:"asm_options"`
	Preprocessor json.RawMessage   `json:"preprocessor"`
}

// LibPath is one `libs` entry shaped as a filesystem path.
type LibPath struct {
	Path               string   `json:"path"`
	Optional           bool     `json:"optional"`
	MacroExtensions    []string `json:"macro_extensions"`
	PreferAlternateRoot bool    `json:"prefer_alternate_root"`
}

// LibDataset is one `libs` entry shaped as a mainframe dataset reference.
type LibDataset struct {
	Dataset  string `json:"dataset"`
	Optional bool   `json:"optional"`
}

// LibEndevor is one `libs` entry shaped as an Endevor element reference.
type LibEndevor struct {
	Environment string `json:"environment"`
	Stage       string `json:"stage"`
	System      string `json:"system"`
	Subsystem   string `json:"subsystem"`
	Type        string `json:"type"`
	UseMap      bool   `json:"use_map"`
	Optional    bool   `json:"optional"`
	Profile     string `json:"profile"`
}

// DecodeLibPath, DecodeLibDataset and DecodeLibEndevor attempt to decode
// one `libs` entry as each concrete shape; json.RawMessage defers that
// decision to the caller, which must try shapes in the order spec.md §6
// lists them (a bare string is shorthand for LibPath.Path).
func DecodeLibPath(raw json.RawMessage) (LibPath, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return LibPath{Path: s, MacroExtensions: []string{}}, true
	}
	var p LibPath
	if err := json.Unmarshal(raw, &p); err == nil && p.Path != "" {
		return p, true
	}
	return LibPath{}, false
}

func DecodeLibDataset(raw json.RawMessage) (LibDataset, bool) {
	var d LibDataset
	if err := json.Unmarshal(raw, &d); err == nil && d.Dataset != "" {
		return d, true
	}
	return LibDataset{}, false
}

func DecodeLibEndevor(raw json.RawMessage) (LibEndevor, bool) {
	var e LibEndevor
	if err := json.Unmarshal(raw, &e); err == nil && e.Environment != "" {
		e.UseMap = true
		return e, true
	}
	return LibEndevor{}, false
}

// PreprocessorKind enumerates the preprocessor names spec.md §6 recognizes.
type PreprocessorKind string

const (
	PreprocessorDB2      PreprocessorKind = "DB2"
	PreprocessorCICS     PreprocessorKind = "CICS"
	PreprocessorEndevor  PreprocessorKind = "ENDEVOR"
)

// DB2Options is the DB2 preprocessor's option object.
type DB2Options struct {
	Version     string `json:"version"`
	Conditional bool   `json:"conditional"`
}

// CICSOption is one entry of the CICS preprocessor's option array; the
// grammar only permits the six mutually-exclusive-in-pairs keywords
// spec.md §6 lists.
type CICSOption string

const (
	CICSProlog    CICSOption = "PROLOG"
	CICSNoProlog  CICSOption = "NOPROLOG"
	CICSEpilog    CICSOption = "EPILOG"
	CICSNoEpilog  CICSOption = "NOEPILOG"
	CICSLeasm     CICSOption = "LEASM"
	CICSNoLeasm   CICSOption = "NOLEASM"
)

// ProgramMapping is the `pgms` configuration document (spec.md §6):
// associates glob patterns over program names with a named processor
// group.
type ProgramMapping struct {
	Pgms                    []ProgramMappingEntry `json:"pgms"`
	AlwaysRecognize         []string              `json:"alwaysRecognize"`
	DiagnosticsSuppressLimit int                  `json:"diagnosticsSuppressLimit"`
}

// ProgramMappingEntry is one `pgms` entry.
type ProgramMappingEntry struct {
	Program    string           `json:"program"` // glob
	Pgroup     string           `json:"pgroup"`
	AsmOptions AssemblerOptions `json:"asm_options"`
}

// AssemblerOptions is the assembler-options JSON subset spec.md §6
// defines. Exactly one of Machine and Optable should be set; ResolveOptable
// checks Optable against ValidOptable below, and ResolveMachine checks
// Machine.
type AssemblerOptions struct {
	SysParm  string `json:"SYSPARM"`
	Profile  string `json:"PROFILE"`
	SystemID string `json:"SYSTEM_ID"`
	Machine  string `json:"MACHINE"`
	Optable  string `json:"OPTABLE"`
	GOFF     bool   `json:"GOFF"`
	XObject  bool   `json:"XOBJECT"` // synonym for GOFF
	Rent     bool   `json:"RENT"`
}

// ValidMachine is the fixed set of MACHINE values spec.md §6 allows,
// excluding the parametrized ZSERIES-N/ARCH-N families, which
// ResolveMachine handles.
var ValidMachine = map[string]bool{
	"S370": true, "S370XA": true, "S370ESA": true,
	"S390": true, "S390E": true,
}

// ValidOptable is the fixed set of OPTABLE values spec.md §6 allows.
var ValidOptable = map[string]bool{
	"370": true, "DOS": true, "ESA": true, "UNI": true, "XA": true, "YOP": true,
	"Z9": true, "Z10": true, "Z11": true, "Z12": true, "Z13": true, "Z14": true,
	"Z15": true, "Z16": true, "ZOP": true,
	"ZS1": true, "ZS2": true, "ZS3": true, "ZS4": true, "ZS5": true,
	"ZS6": true, "ZS7": true, "ZS8": true, "ZS9": true, "ZSA": true,
}
