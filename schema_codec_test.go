package jtdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codecSchemaJSON = `{
  "definitions": {
    "coord": {"properties": {"x": {"type": "float64"}, "y": {"type": "float64"}}}
  },
  "properties": {
    "name": {"type": "string"},
    "points": {"elements": {"ref": "coord"}}
  },
  "optionalProperties": {
    "color": {"enum": ["red", "green"], "nullable": true}
  }
}`

const codecSchemaYAML = `
definitions:
  coord:
    properties:
      x: {type: float64}
      y: {type: float64}
properties:
  name: {type: string}
  points:
    elements: {ref: coord}
optionalProperties:
  color:
    enum: [red, green]
    nullable: true
`

func TestSchemaFromJSON(t *testing.T) {
	s, err := SchemaFromJSON([]byte(codecSchemaJSON))
	require.NoError(t, err)
	assert.Equal(t, FormProperties, s.Form())
	require.Contains(t, s.Definitions, "coord")
	assert.Equal(t, FormProperties, s.Definitions["coord"].Form())
}

func TestSchemaFromJSON_UnknownKey(t *testing.T) {
	_, err := SchemaFromJSON([]byte(`{"elments": {"type": "string"}}`))
	require.Error(t, err)
}

func TestSchemaFromYAML_MatchesJSON(t *testing.T) {
	js, err := SchemaFromJSON([]byte(codecSchemaJSON))
	require.NoError(t, err)
	ys, err := SchemaFromYAML([]byte(codecSchemaYAML))
	require.NoError(t, err)

	pj, err := Compile(js)
	require.NoError(t, err)
	py, err := Compile(ys)
	require.NoError(t, err)

	input := []byte(`{"name":"path","points":[{"x":1,"y":2}],"color":null}`)
	vj, err := pj.Parse(input)
	require.NoError(t, err)
	vy, err := py.Parse(input)
	require.NoError(t, err)
	assert.Equal(t, vj, vy)

	bad := []byte(`{"name":"path","points":[{"x":1,"z":2}]}`)
	_, errj := pj.Parse(bad)
	_, erry := py.Parse(bad)
	require.Error(t, errj)
	require.Error(t, erry)
	assert.Equal(t, errj, erry)
}
