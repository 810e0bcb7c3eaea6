package endpoint

// Descriptor provides metadata about an endpoint type.
// Used by CLI/docs for rendering configuration help.
type Descriptor struct {
	ID           string
	Family       string
	Title        string
	Vendor       string
	Description  string
	Categories   []string
	Protocols    []string
	DocsURL      string
	Fields       []*FieldDescriptor
	SampleConfig map[string]any
}

// FieldDescriptor defines a configuration field.
type FieldDescriptor struct {
	Key          string
	Label        string
	ValueType    string // "string", "integer", "boolean", "password"
	Required     bool
	Description  string
	Placeholder  string
	DefaultValue string
	Sensitive    bool
}
