package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	session := ObjectRef{ID: "s-1"}
	pool := []Arg{
		{Type: TypeSession, Value: session},
		{Type: TypeApplication, Value: "APP1"},
		{Type: TypePOV, Value: "S#Actual.Y#2025.P#Jan.E#E1"},
		{Type: TypeTaskType, Value: "WEBOM_DATAGRID_TASK_CONSOLIDATEALLWITHDATA"},
	}

	tests := []struct {
		name  string
		shape Shape
		want  []any
	}{
		{
			name:  "exact types in declared order",
			shape: Shape{TypePOVList, TypeTaskType},
			want:  []any{[]string{"S#Actual.Y#2025.P#Jan.E#E1"}, "WEBOM_DATAGRID_TASK_CONSOLIDATEALLWITHDATA"},
		},
		{
			name:  "string slots take the first unused string value",
			shape: Shape{TypeString, TypeString},
			want:  []any{"APP1", "S#Actual.Y#2025.P#Jan.E#E1"},
		},
		{
			name:  "missing value becomes placeholder",
			shape: Shape{TypeSession, TypeFileList},
			want:  []any{session, ""},
		},
		{
			name:  "any slot accepts the next value",
			shape: Shape{TypeAny, TypeAny},
			want:  []any{session, "APP1"},
		},
		{
			name:  "empty shape",
			shape: Shape{},
			want:  []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.shape, pool))
		})
	}
}

func TestCoerceWrapsOptionsIntoList(t *testing.T) {
	options := map[string]any{"delimiter": ";"}

	got := Coerce(Shape{TypeFileList, TypeOptionsList}, []Arg{
		{Type: TypeOptions, Value: options},
		{Type: TypeFileList, Value: []string{"load.dat"}},
	})

	assert.Equal(t, []any{[]string{"load.dat"}, []any{options}}, got)
}

func TestDescriptorQualifiedName(t *testing.T) {
	action := CapabilityDescriptor{Class: "oracle.epm.fm.actions.ConsolidateAction", Method: "execute"}
	login := CapabilityDescriptor{Class: "ServiceClientFactory", Via: "getSecurityService", Method: "login"}

	assert.Equal(t, "ConsolidateAction.execute", action.QualifiedName())
	assert.Equal(t, "ServiceClientFactory.getSecurityService.login", login.QualifiedName())
}

func TestDescriptorAppliesTo(t *testing.T) {
	desc := CapabilityDescriptor{Builds: []string{"11.1.2.4", "11.2"}}

	assert.True(t, desc.AppliesTo("11.1.2.4.205"))
	assert.True(t, desc.AppliesTo(""))
	assert.False(t, desc.AppliesTo("11.1.2.0"))
	assert.True(t, CapabilityDescriptor{}.AppliesTo("11.1.2.0"))
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "(user, password, cluster)", Shape{TypeUser, TypePassword, TypeCluster}.String())
	assert.True(t, Shape{TypeMap}.IsKeyed())
	assert.False(t, Shape{TypeMap, TypeString}.IsKeyed())
}

func TestParseParamType(t *testing.T) {
	got, err := ParseParamType(" POV[] ")
	assert.NoError(t, err)
	assert.Equal(t, TypePOVList, got)

	_, err = ParseParamType("double")
	assert.Error(t, err)
}

func TestDescriptorValidate(t *testing.T) {
	assert.NoError(t, CapabilityDescriptor{Class: "A", Method: "run", Pattern: PatternObject}.Validate())
	assert.Error(t, CapabilityDescriptor{Method: "run"}.Validate())
	assert.Error(t, CapabilityDescriptor{Class: "A"}.Validate())
	assert.Error(t, CapabilityDescriptor{Class: "A", Method: "run", Pattern: "rpc"}.Validate())
	assert.Error(t, CapabilityDescriptor{Class: "A", Via: "getX", Method: "run", Pattern: PatternAction}.Validate())
}
