package core

// ParentKind says where a templated table is created.
type ParentKind string

// Parent kinds.
const (
	ParentContainer ParentKind = "page"
)

// TableTemplate describes one table of the template topology.
// Name carries the year placeholder; SourceID is the template-year table to clone.
type TableTemplate struct {
	Key      string     `yaml:"key"`
	Name     string     `yaml:"name"`
	Parent   ParentKind `yaml:"parent"`
	Icon     string     `yaml:"icon"`
	Omit     []string   `yaml:"omit"`
	SourceID string     `yaml:"source_id"`
}

// RelationTemplate describes one bidirectional reference between two tables.
// Table and column names may contain the year placeholder.
type RelationTemplate struct {
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourceColumn string `yaml:"source_column"`
	TargetColumn string `yaml:"target_column"`
}

// ChildTemplate is a table that receives one row per week or per month,
// each linked to its parent row through ParentColumn.
type ChildTemplate struct {
	Table        string `yaml:"table"`
	ParentColumn string `yaml:"parent_column"`
}

// EnvEntry pairs a template's environment key with the id of its table.
type EnvEntry struct {
	Key     string
	TableID string
}
