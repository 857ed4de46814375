package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Key string

const (
	KeyApplication       Key = "Application"
	KeyConsolidationType Key = "ConsolidationType"
	KeyPOV               Key = "POV"
	KeyUser              Key = "User"
	KeyPassword          Key = "Password"
	KeyCluster           Key = "Cluster"
	KeyProvider          Key = "Provider"
	KeyDomain            Key = "Domain"
	KeyServer            Key = "Server"
	KeyDelimiter         Key = "Delimiter"
	KeyFileFormat        Key = "FileFormat"
	KeySession           Key = "Session"

	KeyDataFile        Key = "DataFile"
	KeyLoadMode        Key = "LoadMode"
	KeyAccumulate      Key = "Accumulate"
	KeyForce           Key = "Force"
	KeyExtractFormat   Key = "ExtractFormat"
	KeyDSN             Key = "DSN"
	KeyTablePrefix     Key = "TablePrefix"
	KeyCalculatedData  Key = "CalculatedData"
	KeyDerivedData     Key = "DerivedData"
	KeyDynamicAccounts Key = "DynamicAccounts"
	KeyLabels          Key = "Labels"
	KeyGroups          Key = "Groups"
	KeyRegular         Key = "Regular"
	KeyStandard        Key = "Standard"
	KeyRecurring       Key = "Recurring"

	KeyAccounts       Key = "Accounts"
	KeyEntities       Key = "Entities"
	KeyScenarios      Key = "Scenarios"
	KeyCurrencies     Key = "Currencies"
	KeyValues         Key = "Values"
	KeyICPs           Key = "ICPs"
	KeyAppSettings    Key = "AppSettings"
	KeyConsolMethods  Key = "ConsolMethods"
	KeyCellTextLabels Key = "CellTextLabels"
	KeySystemAccounts Key = "SystemAccounts"

	KeyUsers               Key = "Users"
	KeySecurityClasses     Key = "SecurityClasses"
	KeyRoleAccess          Key = "RoleAccess"
	KeySecurityClassAccess Key = "SecurityClassAccess"
)

var canonicalKeys = map[Key]struct{}{}

func init() {
	for _, key := range []Key{
		KeyApplication, KeyConsolidationType, KeyPOV, KeyUser, KeyPassword, KeyCluster,
		KeyProvider, KeyDomain, KeyServer, KeyDelimiter, KeyFileFormat, KeySession,
		KeyDataFile, KeyLoadMode, KeyAccumulate, KeyForce, KeyExtractFormat, KeyDSN,
		KeyTablePrefix, KeyCalculatedData, KeyDerivedData, KeyDynamicAccounts, KeyLabels,
		KeyGroups, KeyRegular, KeyStandard, KeyRecurring,
		KeyAccounts, KeyEntities, KeyScenarios, KeyCurrencies, KeyValues, KeyICPs,
		KeyAppSettings, KeyConsolMethods, KeyCellTextLabels, KeySystemAccounts,
		KeyUsers, KeySecurityClasses, KeyRoleAccess, KeySecurityClassAccess,
	} {
		canonicalKeys[key] = struct{}{}
	}
}

func (k Key) IsCanonical() bool {
	_, ok := canonicalKeys[k]
	return ok
}

// ParseKey resolves a canonical key name case-insensitively.
func ParseKey(name string) (Key, bool) {
	name = strings.TrimSpace(name)
	for key := range canonicalKeys {
		if strings.EqualFold(string(key), name) {
			return key, true
		}
	}
	return "", false
}

// Params is the canonical parameter set of one request. Insertion order is
// kept so that diagnostics and expansions are stable.
type Params struct {
	keys   []Key
	values map[Key]any
}

// Set records a string value. Empty values are treated as absent.
func (p *Params) Set(key Key, value string) {
	if strings.TrimSpace(value) == "" {
		p.Delete(key)
		return
	}
	p.put(key, value)
}

func (p *Params) SetSession(session *Session) {
	if session == nil {
		p.Delete(KeySession)
		return
	}
	p.put(KeySession, session)
}

func (p *Params) Delete(key Key) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, existing := range p.keys {
		if existing == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *Params) put(key Key, value any) {
	if p.values == nil {
		p.values = map[Key]any{}
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p Params) Has(key Key) bool {
	_, ok := p.values[key]
	return ok
}

func (p Params) Get(key Key) (any, bool) {
	value, ok := p.values[key]
	return value, ok
}

func (p Params) String(key Key) string {
	value, ok := p.values[key].(string)
	if !ok {
		return ""
	}
	return value
}

// Bool parses a flag-like value, falling back to def when the key is absent or
// not a boolean literal.
func (p Params) Bool(key Key, def bool) bool {
	raw := p.String(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return parsed
}

func (p Params) Session() *Session {
	session, _ := p.values[KeySession].(*Session)
	return session
}

func (p Params) Keys() []Key {
	return append([]Key(nil), p.keys...)
}

func (p Params) Len() int { return len(p.keys) }

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := Params{keys: append([]Key(nil), p.keys...), values: make(map[Key]any, len(p.values))}
	for key, value := range p.values {
		out.values[key] = value
	}
	return out
}

// Map flattens the set for the remote side. A session is replaced by its
// remote object reference.
func (p Params) Map() map[string]any {
	out := make(map[string]any, len(p.keys))
	for _, key := range p.keys {
		value := p.values[key]
		if session, ok := value.(*Session); ok {
			value = session.Ref
		}
		out[string(key)] = value
	}
	return out
}

// Redacted renders the parameters for logs with credentials masked.
func (p Params) Redacted() map[string]string {
	out := make(map[string]string, len(p.keys))
	for _, key := range p.keys {
		switch key {
		case KeyPassword:
			out[string(key)] = "***"
		case KeySession:
			out[string(key)] = "<session>"
		default:
			out[string(key)] = fmt.Sprint(p.values[key])
		}
	}
	return out
}

// Aliased is a canonical parameter map expanded with every known alias.
type Aliased map[string]any

// AliasTable maps a canonical key to the alternative names remote actions are
// known to read it under.
type AliasTable map[Key][]string

func DefaultAliases() AliasTable {
	return AliasTable{
		KeyApplication:       {"application", "appName", "APPLICATION", "app"},
		KeyConsolidationType: {"consolidationType", "consolType", "ConsolType", "type"},
		KeyPOV:               {"pov", "Pov", "povString", "POVString"},
		KeyUser:              {"user", "userName", "username", "UserName"},
		KeyPassword:          {"password", "pwd", "PASSWORD"},
		KeyCluster:           {"cluster", "clusterName", "ClusterName", "server"},
		KeyProvider:          {"provider", "providerURL", "ProviderURL"},
		KeyDomain:            {"domain", "DOMAIN"},
		KeyServer:            {"serverName", "ServerName", "SERVER"},
		KeyDelimiter:         {"delimiter", "Delim", "delim"},
		KeyFileFormat:        {"fileFormat", "format", "Format"},
		KeySession:           {"session", "sessionInfo", "SessionInfo"},
		KeyDataFile:          {"dataFile", "file", "fileName", "FileName"},
		KeyLoadMode:          {"loadMode", "duplicates", "mode"},
		KeyExtractFormat:     {"extractFormat", "ExtractType", "extractType"},
		KeyLabels:            {"labels", "journalLabels"},
		KeyGroups:            {"groups", "journalGroups"},
	}
}

// Expand copies in and, for every canonical key present, writes its value
// under the canonical name and each alias. Keys with no value are left out.
// Expanding an already expanded map yields the same map.
func (t AliasTable) Expand(in map[string]any) Aliased {
	out := make(Aliased, len(in)*2)
	for key, value := range in {
		out[key] = value
	}
	for key, aliases := range t {
		value, ok := in[string(key)]
		if !ok {
			continue
		}
		out[string(key)] = value
		for _, alias := range aliases {
			out[alias] = value
		}
	}
	return out
}

// Validate rejects aliases shared by two canonical keys or shadowing one.
func (t AliasTable) Validate() error {
	keys := make([]Key, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	owner := map[string]Key{}
	for key := range canonicalKeys {
		owner[string(key)] = key
	}
	for _, key := range keys {
		if _, ok := owner[string(key)]; !ok {
			owner[string(key)] = key
		}
	}

	for _, key := range keys {
		for _, alias := range t[key] {
			if alias == "" {
				return fmt.Errorf("empty alias for %s", key)
			}
			if existing, ok := owner[alias]; ok && existing != key {
				return fmt.Errorf("alias %q of %s collides with %s", alias, key, existing)
			}
			owner[alias] = key
		}
	}

	return nil
}

// Merge returns a table holding the aliases of both tables.
func (t AliasTable) Merge(other AliasTable) AliasTable {
	out := make(AliasTable, len(t)+len(other))
	for key, aliases := range t {
		out[key] = append([]string(nil), aliases...)
	}
	for key, aliases := range other {
		for _, alias := range aliases {
			if !containsString(out[key], alias) {
				out[key] = append(out[key], alias)
			}
		}
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
