// Package topology holds the fixed set of tables, relations and seed rows
// that make up one planning year.
package topology

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

//go:embed topology.yaml
var defaultTopology []byte

// Calendar names the tables and columns the calendar rows go into.
type Calendar struct {
	Weeks           string `yaml:"weeks"`
	Months          string `yaml:"months"`
	WeekDateColumn  string `yaml:"week_date_column"`
	MonthDateColumn string `yaml:"month_date_column"`
	WeekMonthColumn string `yaml:"week_month_column"`
}

// Children lists the tables that get one row per week or per month.
type Children struct {
	Weekly  []core.ChildTemplate `yaml:"weekly"`
	Monthly []core.ChildTemplate `yaml:"monthly"`
}

// YearRow describes the single row representing the year itself.
type YearRow struct {
	Table        string `yaml:"table"`
	Title        string `yaml:"title"`
	MonthsColumn string `yaml:"months_column"`
}

// Topology is the template of one planning year. Names are unrendered.
type Topology struct {
	Tables      []core.TableTemplate    `yaml:"tables"`
	Relations   []core.RelationTemplate `yaml:"relations"`
	Calendar    Calendar                `yaml:"calendar"`
	Children    Children                `yaml:"children"`
	YearRow     YearRow                 `yaml:"year_row"`
	ManualSteps []string                `yaml:"manual_steps"`
}

// Default returns the built-in topology.
func Default() (*Topology, error) {
	return Parse(defaultTopology)
}

// Load reads a topology from a YAML file.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a topology. Unknown fields are rejected.
func Parse(data []byte) (*Topology, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t Topology
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}
	for i := range t.Tables {
		if t.Tables[i].Parent == "" {
			t.Tables[i].Parent = core.ParentContainer
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// TableByKey returns the template with the given key, ignoring case.
func (t *Topology) TableByKey(key string) (core.TableTemplate, bool) {
	for _, tbl := range t.Tables {
		if strings.EqualFold(tbl.Key, key) {
			return tbl, true
		}
	}
	return core.TableTemplate{}, false
}

// Bind returns a copy of t with source table ids filled in from sources,
// keyed by table key. Tables without an entry keep their current id.
func (t *Topology) Bind(sources map[string]string) *Topology {
	out := *t
	out.Tables = make([]core.TableTemplate, len(t.Tables))
	for i, tbl := range t.Tables {
		if id, ok := sources[tbl.Key]; ok && id != "" {
			tbl.SourceID = id
		}
		out.Tables[i] = tbl
	}
	return &out
}

// Unbound returns the keys of tables with no source id.
func (t *Topology) Unbound() []string {
	var keys []string
	for _, tbl := range t.Tables {
		if tbl.SourceID == "" {
			keys = append(keys, tbl.Key)
		}
	}
	return keys
}

// RequiredColumns returns the columns a table needs regardless of its
// source schema: the date columns the calendar rows are written to.
func (t *Topology) RequiredColumns(name string) map[string]core.PropertySpec {
	cols := map[string]core.PropertySpec{}
	switch name {
	case t.Calendar.Weeks:
		if t.Calendar.WeekDateColumn != "" {
			cols[t.Calendar.WeekDateColumn] = core.PropertySpec{Kind: core.KindDate}
		}
	case t.Calendar.Months:
		if t.Calendar.MonthDateColumn != "" {
			cols[t.Calendar.MonthDateColumn] = core.PropertySpec{Kind: core.KindDate}
		}
	}
	return cols
}

// Validate checks that every reference names a declared table and that
// keys and names are unique.
func (t *Topology) Validate() error {
	var errs []error

	keys := map[string]bool{}
	names := map[string]bool{}
	for i, tbl := range t.Tables {
		switch {
		case tbl.Key == "":
			errs = append(errs, fmt.Errorf("tables[%d]: key is required", i))
		case keys[tbl.Key]:
			errs = append(errs, fmt.Errorf("tables[%d]: duplicate key %q", i, tbl.Key))
		}
		switch {
		case tbl.Name == "":
			errs = append(errs, fmt.Errorf("tables[%d]: name is required", i))
		case names[tbl.Name]:
			errs = append(errs, fmt.Errorf("tables[%d]: duplicate name %q", i, tbl.Name))
		}
		if tbl.Parent != core.ParentContainer {
			errs = append(errs, fmt.Errorf("tables[%d]: unsupported parent %q", i, tbl.Parent))
		}
		keys[tbl.Key] = true
		names[tbl.Name] = true
	}

	ref := func(where, name string) {
		if !names[name] {
			errs = append(errs, fmt.Errorf("%s: unknown table %q", where, name))
		}
	}
	for i, rel := range t.Relations {
		where := fmt.Sprintf("relations[%d]", i)
		ref(where+".source", rel.Source)
		ref(where+".target", rel.Target)
		if rel.SourceColumn == "" || rel.TargetColumn == "" {
			errs = append(errs, fmt.Errorf("%s: source_column and target_column are required", where))
		}
	}

	ref("calendar.weeks", t.Calendar.Weeks)
	ref("calendar.months", t.Calendar.Months)
	child := func(where string, c core.ChildTemplate) {
		ref(where, c.Table)
		if c.ParentColumn == "" {
			errs = append(errs, fmt.Errorf("%s: parent_column is required", where))
		}
	}
	for i, c := range t.Children.Weekly {
		child(fmt.Sprintf("children.weekly[%d]", i), c)
	}
	for i, c := range t.Children.Monthly {
		child(fmt.Sprintf("children.monthly[%d]", i), c)
	}
	ref("year_row.table", t.YearRow.Table)
	if t.YearRow.Title == "" {
		errs = append(errs, errors.New("year_row.title is required"))
	}

	return errors.Join(errs...)
}
