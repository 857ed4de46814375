package domain

import (
	"strings"
)

const (
	DefaultDelimiter     = ";"
	DefaultTablePrefix   = "HFM_"
	DefaultConsolidation = "AllWithData"
)

// ConsolidationMask maps a user facing consolidation type to the server task
// mask. Unknown or empty types fall back to consolidate-all-with-data.
func ConsolidationMask(kind string) string {
	switch normalizeChoice(kind) {
	case "all":
		return "WEBOM_DATAGRID_TASK_CONSOLIDATEALL"
	case "impacted":
		return "WEBOM_DATAGRID_TASK_CONSOLIDATE"
	case "forcecalculate", "force":
		return "WEBOM_DATAGRID_TASK_FORCECALCULATE"
	default:
		return "WEBOM_DATAGRID_TASK_CONSOLIDATEALLWITHDATA"
	}
}

func TranslationMask(force bool) string {
	if force {
		return "WEBOM_DATAGRID_TASK_FORCETRANSLATE"
	}
	return "WEBOM_DATAGRID_TASK_TRANSLATE"
}

func LoadDataOptions(p Params) map[string]any {
	duplicates := "DATALOAD_MERGE"
	switch normalizeChoice(p.String(KeyLoadMode)) {
	case "replace":
		duplicates = "DATALOAD_REPLACE"
	case "accumulate":
		duplicates = "DATALOAD_ACCUMULATE"
	}

	return map[string]any{
		"delimiter":                  delimiter(p),
		"accumulateWithinFile":       p.Bool(KeyAccumulate, false),
		"appendToLogFile":            false,
		"containSharesData":          true,
		"containSubmissionPhaseData": false,
		"decimalChar":                "",
		"thousandsChar":              "",
		"loadCalculated":             false,
		"duplicates":                 duplicates,
		"mode":                       "LOAD",
		"fileFormat":                 "DATALOAD_FILE_FORMAT_NATIVE",
	}
}

func ExtractDataOptions(p Params) map[string]any {
	options := map[string]any{
		"delimiter":              delimiter(p),
		"metadataSlice":          p.String(KeyPOV),
		"includeCalculatedData":  p.Bool(KeyCalculatedData, false),
		"includeDerivedData":     p.Bool(KeyDerivedData, false),
		"includeDynamicAccounts": p.Bool(KeyDynamicAccounts, false),
		"includeData":            true,
	}

	format := normalizeChoice(p.String(KeyExtractFormat))
	switch {
	case strings.Contains(format, "noheader"):
		options["extractFormat"] = "EA_EXTRACT_TYPE_FLATFILE_NOHEADER"
	case strings.Contains(format, "flatfile"), strings.Contains(format, "standard"):
		options["extractFormat"] = "EA_EXTRACT_TYPE_FLATFILE"
	case strings.Contains(format, "warehouse"), strings.Contains(format, "database"):
		options["extractFormat"] = "EA_EXTRACT_TYPE_WAREHOUSE"
		if dsn := p.String(KeyDSN); dsn != "" {
			prefix := p.String(KeyTablePrefix)
			if prefix == "" {
				prefix = DefaultTablePrefix
			}
			options["dsn"] = dsn
			options["tablePrefix"] = prefix
		}
	case strings.Contains(format, "essbase"):
		options["extractFormat"] = "EA_EXTRACT_TYPE_ESSBASE"
	default:
		options["extractFormat"] = "EA_EXTRACT_TYPE_FLATFILE"
	}

	return options
}

func MetadataExtractOptions(p Params) map[string]any {
	fileFormat := "METADATA_FILE_FORMAT_ENUM_APP"
	if normalizeChoice(p.String(KeyFileFormat)) == "xml" {
		fileFormat = "METADATA_FILE_FORMAT_ENUM_XML"
	}

	return map[string]any{
		"delimiter":      delimiter(p),
		"accounts":       p.Bool(KeyAccounts, true),
		"entities":       p.Bool(KeyEntities, true),
		"scenarios":      p.Bool(KeyScenarios, true),
		"currencies":     p.Bool(KeyCurrencies, true),
		"values":         p.Bool(KeyValues, true),
		"ICPs":           p.Bool(KeyICPs, true),
		"appSettings":    p.Bool(KeyAppSettings, true),
		"consolMethods":  p.Bool(KeyConsolMethods, true),
		"cellTxtLabels":  p.Bool(KeyCellTextLabels, true),
		"systemAccounts": p.Bool(KeySystemAccounts, false),
		"years":          true,
		"periods":        true,
		"views":          true,
		"fileFormat":     fileFormat,
	}
}

// RulesFileFormat defaults to XML; only "rle" selects the legacy format.
func RulesFileFormat(p Params) string {
	if normalizeChoice(p.String(KeyFileFormat)) == "rle" {
		return "RULESEXTRACT_FILE_FORMAT_RLE"
	}
	return "RULESEXTRACT_FILE_FORMAT_XML"
}

func SecurityExtractOptions(p Params) map[string]any {
	return map[string]any{
		"delimiter":           delimiter(p),
		"users":               p.Bool(KeyUsers, true),
		"securityClasses":     p.Bool(KeySecurityClasses, true),
		"roleAccess":          p.Bool(KeyRoleAccess, true),
		"securityClassAccess": p.Bool(KeySecurityClassAccess, true),
		"fileFormat":          "SECURITYEXTRACT_FILEFORMAT_NATIVE",
	}
}

func JournalExtractOptions(p Params) map[string]any {
	options := map[string]any{
		"delimiter": delimiter(p),
		"pov":       p.String(KeyPOV),
		"regular":   p.Bool(KeyRegular, true),
		"standard":  p.Bool(KeyStandard, true),
		"recurring": p.Bool(KeyRecurring, false),
	}
	if labels := splitList(p.String(KeyLabels), ";,"); len(labels) > 0 {
		options["labels"] = labels
	}
	if groups := splitList(p.String(KeyGroups), ";,"); len(groups) > 0 {
		options["groups"] = groups
	}
	return options
}

func delimiter(p Params) string {
	if d := p.String(KeyDelimiter); d != "" {
		return d
	}
	return DefaultDelimiter
}

func normalizeChoice(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(raw)))
}
