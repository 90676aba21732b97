package jtdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_NilSchema(t *testing.T) {
	_, err := Compile(nil)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestCompile_UnresolvedRef(t *testing.T) {
	_, err := Compile(&Schema{Ref: ref("missing")})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, `unresolved ref "missing"`)

	// construction failures never surface as parse Issues
	_, ok := AsIssues(err)
	assert.False(t, ok)
}

func TestCompile_UnknownType(t *testing.T) {
	_, err := Compile(&Schema{Type: "int64"})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, `unknown type "int64"`)
}

func TestCompile_DiscriminatorMapping(t *testing.T) {
	cases := []struct {
		name string
		s    *Schema
	}{
		{
			name: "empty mapping",
			s:    &Schema{Discriminator: "type"},
		},
		{
			name: "nullable branch",
			s: &Schema{
				Discriminator: "type",
				Mapping: map[string]*Schema{
					"a": {Properties: map[string]*Schema{"x": {Type: "int8"}}, Nullable: true},
				},
			},
		},
		{
			name: "non-properties branch",
			s: &Schema{
				Discriminator: "type",
				Mapping:       map[string]*Schema{"a": {Type: "string"}},
			},
		},
		{
			name: "branch redefines tag",
			s: &Schema{
				Discriminator: "type",
				Mapping: map[string]*Schema{
					"a": {Properties: map[string]*Schema{"type": {Type: "string"}}},
				},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.s)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
		})
	}
}

func TestCompile_NestedUnresolvedRef(t *testing.T) {
	s := &Schema{
		Definitions: map[string]*Schema{
			"node": {Properties: map[string]*Schema{"next": {Ref: ref("nod")}}},
		},
		Ref: ref("node"),
	}
	_, err := Compile(s)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, `unresolved ref "nod"`)
}

func TestSchema_FormPriority(t *testing.T) {
	elem := &Schema{Type: "string"}

	assert.Equal(t, FormElements, (&Schema{Elements: elem, Values: elem, Type: "string"}).Form())
	assert.Equal(t, FormValues, (&Schema{Values: elem, Discriminator: "t", Type: "string"}).Form())
	assert.Equal(t, FormDiscriminator, (&Schema{Discriminator: "t", Properties: map[string]*Schema{"a": elem}}).Form())
	assert.Equal(t, FormProperties, (&Schema{Properties: map[string]*Schema{"a": elem}, Enum: []string{"x"}}).Form())
	assert.Equal(t, FormProperties, (&Schema{OptionalProperties: map[string]*Schema{"a": elem}}).Form())
	assert.Equal(t, FormEnum, (&Schema{Enum: []string{"x"}, Type: "string"}).Form())
	assert.Equal(t, FormType, (&Schema{Type: "string", Ref: ref("d")}).Form())
	assert.Equal(t, FormRef, (&Schema{Ref: ref("d")}).Form())
	assert.Equal(t, FormEmpty, (&Schema{Nullable: true}).Form())
}
