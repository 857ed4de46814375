package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsSetKeepsOrderAndDropsEmptyValues(t *testing.T) {
	var p Params
	p.Set(KeyPOV, "S#Actual")
	p.Set(KeyApplication, "APP1")
	p.Set(KeyCluster, "  ")
	p.Set(KeyPOV, "S#Budget")

	assert.Equal(t, []Key{KeyPOV, KeyApplication}, p.Keys())
	assert.Equal(t, "S#Budget", p.String(KeyPOV))
	assert.False(t, p.Has(KeyCluster))

	p.Set(KeyPOV, "")
	assert.Equal(t, []Key{KeyApplication}, p.Keys())
}

func TestParamsMapReplacesSessionWithReference(t *testing.T) {
	var p Params
	p.Set(KeyApplication, "APP1")
	p.SetSession(NewSession(ObjectRef{ID: "s-1", Class: "SessionInfo"}, "", "test", nil))

	got := p.Map()

	assert.Equal(t, "APP1", got["Application"])
	assert.Equal(t, ObjectRef{ID: "s-1", Class: "SessionInfo"}, got["Session"])
}

func TestParamsBoolFallsBackOnGarbage(t *testing.T) {
	var p Params
	p.Set(KeyAccumulate, "TRUE")
	p.Set(KeyRecurring, "maybe")

	assert.True(t, p.Bool(KeyAccumulate, false))
	assert.True(t, p.Bool(KeyRecurring, true))
	assert.False(t, p.Bool(KeyStandard, false))
}

func TestParamsRedactedMasksPassword(t *testing.T) {
	var p Params
	p.Set(KeyUser, "admin")
	p.Set(KeyPassword, "secret")

	got := p.Redacted()

	assert.Equal(t, "admin", got["User"])
	assert.Equal(t, "***", got["Password"])
}

func TestAliasTableExpandWritesEveryAlias(t *testing.T) {
	table := AliasTable{
		KeyApplication: {"application", "appName"},
		KeyPOV:         {"pov"},
	}
	in := map[string]any{"Application": "APP1", "extra": 7}

	got := table.Expand(in)

	assert.Equal(t, Aliased{
		"Application": "APP1",
		"application": "APP1",
		"appName":     "APP1",
		"extra":       7,
	}, got)
	assert.NotContains(t, got, "pov")
}

func TestAliasTableExpandIsIdempotent(t *testing.T) {
	table := DefaultAliases()
	in := map[string]any{"Application": "APP1", "POV": "S#Actual", "User": "admin"}

	once := table.Expand(in)
	twice := table.Expand(once)

	assert.Equal(t, once, twice)
}

func TestAliasTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   AliasTable
		wantErr string
	}{
		{name: "defaults are valid", table: DefaultAliases()},
		{
			name:    "alias shared by two keys",
			table:   AliasTable{KeyApplication: {"app"}, KeyCluster: {"app"}},
			wantErr: `alias "app"`,
		},
		{
			name:    "alias shadows another canonical key",
			table:   AliasTable{KeyApplication: {"Cluster"}},
			wantErr: "collides with Cluster",
		},
		{
			name:    "empty alias",
			table:   AliasTable{KeyPOV: {""}},
			wantErr: "empty alias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAliasTableMergeUnionsAliases(t *testing.T) {
	base := AliasTable{KeyApplication: {"application"}}
	merged := base.Merge(AliasTable{KeyApplication: {"application", "App"}, KeyPOV: {"pov"}})

	assert.Equal(t, []string{"application", "App"}, merged[KeyApplication])
	assert.Equal(t, []string{"pov"}, merged[KeyPOV])
	assert.Equal(t, []string{"application"}, base[KeyApplication])
}

func TestParseKeyIgnoresCase(t *testing.T) {
	key, ok := ParseKey(" datafile ")
	assert.True(t, ok)
	assert.Equal(t, KeyDataFile, key)

	_, ok = ParseKey("Nope")
	assert.False(t, ok)
}
