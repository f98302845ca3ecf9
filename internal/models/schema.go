package models

// ColumnSpec is a column as declared by an administrator.
type ColumnSpec struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

type DropdownOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TableDefinition describes a dynamic table. Options is keyed by column name.
type TableDefinition struct {
	Name    string
	Columns []ColumnSpec
	Options map[string][]DropdownOption
}

// Column is an existing column as reported by store introspection.
type Column struct {
	Name    string           `json:"name"`
	Type    string           `json:"type"`
	Options []DropdownOption `json:"options"`
}
