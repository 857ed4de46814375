package domain

import (
	"fmt"
	"strings"
)

type Operation string

const (
	OpConsolidate        Operation = "Consolidate"
	OpTranslate          Operation = "Translate"
	OpLoadData           Operation = "LoadData"
	OpExtractData        Operation = "ExtractData"
	OpExtractMetadata    Operation = "ExtractMetadata"
	OpExtractRules       Operation = "ExtractRules"
	OpExtractMemberLists Operation = "ExtractMemberLists"
	OpExtractSecurity    Operation = "ExtractSecurity"
	OpExtractJournals    Operation = "ExtractJournals"
)

// OperationSpec describes the request contract of one operation.
type OperationSpec struct {
	Operation Operation
	Short     string
	Aliases   []string
	Required  []Key
	// ExpectsTasks marks operations that must hand back task ids when they
	// report having started.
	ExpectsTasks bool
	CheckPOV     bool
	Success      string
	Failure      string
}

var operationSpecs = []OperationSpec{
	{
		Operation:    OpConsolidate,
		Short:        "Run a consolidation for a POV",
		Aliases:      []string{"consol"},
		Required:     []Key{KeyApplication, KeyCluster, KeyPOV},
		ExpectsTasks: true,
		CheckPOV:     true,
		Success:      "Consolidation completed successfully",
		Failure:      "One or more consolidation tasks failed",
	},
	{
		Operation:    OpTranslate,
		Short:        "Run a currency translation for a POV",
		Required:     []Key{KeyApplication, KeyCluster, KeyPOV},
		ExpectsTasks: true,
		CheckPOV:     true,
		Success:      "Translation completed successfully",
		Failure:      "One or more translation tasks failed",
	},
	{
		Operation: OpLoadData,
		Short:     "Load a data file into an application",
		Aliases:   []string{"load"},
		Required:  []Key{KeyApplication, KeyCluster, KeyDataFile},
		Success:   "Data load completed successfully",
		Failure:   "Data load task failed",
	},
	{
		Operation: OpExtractData,
		Short:     "Extract data for a POV slice",
		Aliases:   []string{"extract"},
		Required:  []Key{KeyApplication, KeyCluster, KeyPOV},
		Success:   "Data extract completed successfully",
		Failure:   "Data extract task failed",
	},
	{
		Operation: OpExtractMetadata,
		Short:     "Extract application metadata",
		Aliases:   []string{"metadata"},
		Required:  []Key{KeyApplication, KeyCluster},
		Success:   "Metadata extract completed successfully",
		Failure:   "Metadata extract task failed",
	},
	{
		Operation: OpExtractRules,
		Short:     "Extract application rules",
		Aliases:   []string{"rules"},
		Required:  []Key{KeyApplication, KeyCluster},
		Success:   "Rules extract completed successfully",
		Failure:   "Rules extract task failed",
	},
	{
		Operation: OpExtractMemberLists,
		Short:     "Extract member lists",
		Aliases:   []string{"memberlists"},
		Required:  []Key{KeyApplication, KeyCluster},
		Success:   "Member lists extract completed successfully",
		Failure:   "Member lists extract task failed",
	},
	{
		Operation: OpExtractSecurity,
		Short:     "Extract security definitions",
		Aliases:   []string{"security"},
		Required:  []Key{KeyApplication, KeyCluster},
		Success:   "Security extract completed successfully",
		Failure:   "Security extract task failed",
	},
	{
		Operation: OpExtractJournals,
		Short:     "Extract journals",
		Aliases:   []string{"journals"},
		Required:  []Key{KeyApplication, KeyCluster, KeyPOV},
		Success:   "Journals extract completed successfully",
		Failure:   "Journals extract task failed",
	},
}

func Operations() []OperationSpec {
	return append([]OperationSpec(nil), operationSpecs...)
}

func (o Operation) Spec() (OperationSpec, bool) {
	for _, spec := range operationSpecs {
		if spec.Operation == o {
			return spec, true
		}
	}
	return OperationSpec{}, false
}

// ParseOperation resolves a name case-insensitively, ignoring separators, and
// accepts the short aliases.
func ParseOperation(name string) (Operation, error) {
	normalized := normalizeOperationName(name)
	for _, spec := range operationSpecs {
		if normalizeOperationName(string(spec.Operation)) == normalized {
			return spec.Operation, nil
		}
		for _, alias := range spec.Aliases {
			if alias == normalized {
				return spec.Operation, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

func normalizeOperationName(name string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(name)))
}
