package jtdc

// Schema is one JTD schema node. Exactly one form drives parser generation
// even when several form keys are present; Form applies the fixed priority
// order {elements, values, discriminator, properties, optionalProperties,
// enum, type, ref}. A node with no recognized form accepts any JSON value.
type Schema struct {
	// Definitions is only honored on the root schema passed to Compile.
	Definitions map[string]*Schema `json:"definitions,omitempty"`

	Elements             *Schema            `json:"elements,omitempty"`
	Values               *Schema            `json:"values,omitempty"`
	Discriminator        string             `json:"discriminator,omitempty"`
	Mapping              map[string]*Schema `json:"mapping,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	OptionalProperties   map[string]*Schema `json:"optionalProperties,omitempty"`
	AdditionalProperties bool               `json:"additionalProperties,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Ref                  *string            `json:"ref,omitempty"`

	// Nullable is orthogonal to the form: a nullable schema first probes the
	// literal null and falls through to its form on mismatch.
	Nullable bool `json:"nullable,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Form identifies the structural kind of a schema node.
type Form int

const (
	FormEmpty Form = iota // accept any JSON value
	FormElements
	FormValues
	FormDiscriminator
	FormProperties // properties and/or optionalProperties
	FormEnum
	FormType
	FormRef
)

func (f Form) String() string {
	switch f {
	case FormElements:
		return "elements"
	case FormValues:
		return "values"
	case FormDiscriminator:
		return "discriminator"
	case FormProperties:
		return "properties"
	case FormEnum:
		return "enum"
	case FormType:
		return "type"
	case FormRef:
		return "ref"
	default:
		return "empty"
	}
}

// Form selects the node's form using the fixed priority order.
func (s *Schema) Form() Form {
	switch {
	case s.Elements != nil:
		return FormElements
	case s.Values != nil:
		return FormValues
	case s.Discriminator != "":
		return FormDiscriminator
	case s.Properties != nil || s.OptionalProperties != nil:
		return FormProperties
	case len(s.Enum) > 0:
		return FormEnum
	case s.Type != "":
		return FormType
	case s.Ref != nil:
		return FormRef
	default:
		return FormEmpty
	}
}
