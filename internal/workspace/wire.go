package workspace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

const dateLayout = "2006-01-02"

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

func plainText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case p.PlainText != "":
			b.WriteString(p.PlainText)
		case p.Text != nil:
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}

func textRuns(s string) []richText {
	return []richText{{Type: "text", Text: &textContent{Content: s}}}
}

type parentRef struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

func (p parentRef) id() string {
	if p.DatabaseID != "" {
		return p.DatabaseID
	}
	return p.PageID
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// searchHit is the part of a search result shared by tables and rows.
type searchHit struct {
	Object     string                     `json:"object"`
	ID         string                     `json:"id"`
	Title      []richText                 `json:"title"`
	Parent     parentRef                  `json:"parent"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type optionsConfig struct {
	Options []core.SelectOption `json:"options"`
}

type formulaConfig struct {
	Expression string `json:"expression"`
}

type rollupConfig struct {
	RelationPropertyName string `json:"relation_property_name"`
	RollupPropertyName   string `json:"rollup_property_name"`
	Function             string `json:"function"`
}

type dualProperty struct {
	SyncedPropertyName string `json:"synced_property_name,omitempty"`
}

type relationConfig struct {
	DatabaseID   string        `json:"database_id"`
	Type         string        `json:"type"`
	DualProperty *dualProperty `json:"dual_property,omitempty"`
}

type numberConfig struct {
	Format string `json:"format"`
}

// propertyObject is a column as returned by the table endpoint.
type propertyObject struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Number      *numberConfig   `json:"number,omitempty"`
	Select      *optionsConfig  `json:"select,omitempty"`
	MultiSelect *optionsConfig  `json:"multi_select,omitempty"`
	Status      *optionsConfig  `json:"status,omitempty"`
	Formula     *formulaConfig  `json:"formula,omitempty"`
	Rollup      *rollupConfig   `json:"rollup,omitempty"`
	Relation    *relationConfig `json:"relation,omitempty"`
}

type tableObject struct {
	ID         string                    `json:"id"`
	Title      []richText                `json:"title"`
	Parent     parentRef                 `json:"parent"`
	Properties map[string]propertyObject `json:"properties"`
}

func options(c *optionsConfig) []core.SelectOption {
	if c == nil {
		return nil
	}
	return c.Options
}

// decodeColumn maps a store property to its ColumnSchema variant.
func decodeColumn(name string, p propertyObject) core.ColumnSchema {
	if p.Name != "" {
		name = p.Name
	}
	switch core.Kind(p.Type) {
	case core.KindTitle:
		return core.TitleColumn{Name: name}
	case core.KindText:
		return core.TextColumn{Name: name}
	case core.KindNumber:
		col := core.NumberColumn{Name: name}
		if p.Number != nil {
			col.Format = p.Number.Format
		}
		return col
	case core.KindDate:
		return core.DateColumn{Name: name}
	case core.KindCheckbox:
		return core.CheckboxColumn{Name: name}
	case core.KindSelect:
		return core.SelectColumn{Name: name, Options: options(p.Select)}
	case core.KindMultiSelect:
		return core.MultiSelectColumn{Name: name, Options: options(p.MultiSelect)}
	case core.KindStatus:
		return core.StatusColumn{Name: name, Options: options(p.Status)}
	case core.KindFormula:
		col := core.FormulaColumn{Name: name}
		if p.Formula != nil {
			col.Expression = p.Formula.Expression
		}
		return col
	case core.KindRollup:
		col := core.RollupColumn{Name: name}
		if p.Rollup != nil {
			col.RelationColumn = p.Rollup.RelationPropertyName
			col.TargetColumn = p.Rollup.RollupPropertyName
			col.Function = p.Rollup.Function
		}
		return col
	case core.KindRelation:
		col := core.RelationColumn{Name: name}
		if p.Relation != nil {
			col.TargetTableID = p.Relation.DatabaseID
			if p.Relation.DualProperty != nil {
				col.SyncedName = p.Relation.DualProperty.SyncedPropertyName
			}
		}
		return col
	default:
		return core.UnsupportedColumn{Name: name, RawKind: p.Type}
	}
}

// decodeColumns orders a property map title first, then by name.
func decodeColumns(props map[string]propertyObject) []core.ColumnSchema {
	cols := make([]core.ColumnSchema, 0, len(props))
	for name, p := range props {
		cols = append(cols, decodeColumn(name, p))
	}
	sort.SliceStable(cols, func(i, j int) bool {
		ti, tj := cols[i].Kind() == core.KindTitle, cols[j].Kind() == core.KindTitle
		if ti != tj {
			return ti
		}
		return cols[i].ColumnName() < cols[j].ColumnName()
	})
	return cols
}

func emptyObject() map[string]any { return map[string]any{} }

// encodeSpec converts a creation schema to the store's property format.
func encodeSpec(spec core.PropertySpec) (map[string]any, error) {
	switch spec.Kind {
	case core.KindTitle, core.KindText, core.KindDate, core.KindCheckbox:
		return map[string]any{string(spec.Kind): emptyObject()}, nil
	case core.KindNumber:
		format := spec.NumberFormat
		if format == "" {
			format = "number"
		}
		return map[string]any{"number": numberConfig{Format: format}}, nil
	case core.KindSelect, core.KindMultiSelect:
		opts := spec.Options
		if opts == nil {
			opts = []core.SelectOption{}
		}
		return map[string]any{string(spec.Kind): optionsConfig{Options: opts}}, nil
	case core.KindFormula:
		return map[string]any{"formula": formulaConfig{Expression: spec.Expression}}, nil
	case core.KindRollup:
		if spec.Rollup == nil {
			return nil, fmt.Errorf("rollup column has no configuration")
		}
		return map[string]any{"rollup": rollupConfig{
			RelationPropertyName: spec.Rollup.RelationColumn,
			RollupPropertyName:   spec.Rollup.TargetColumn,
			Function:             spec.Rollup.Function,
		}}, nil
	case core.KindRelation:
		if spec.Relation == nil || spec.Relation.TargetTableID == "" {
			return nil, fmt.Errorf("relation column has no target table")
		}
		rel := map[string]any{"database_id": spec.Relation.TargetTableID}
		if spec.Relation.ReverseName != "" {
			rel["type"] = "dual_property"
			rel["dual_property"] = dualProperty{SyncedPropertyName: spec.Relation.ReverseName}
		} else {
			rel["type"] = "single_property"
			rel["single_property"] = emptyObject()
		}
		return map[string]any{"relation": rel}, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedColumnKind, spec.Kind)
	}
}

func encodeSpecs(columns map[string]core.PropertySpec) (map[string]any, error) {
	out := make(map[string]any, len(columns))
	for name, spec := range columns {
		enc, err := encodeSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out[name] = enc
	}
	return out, nil
}

type dateObject struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

type idRef struct {
	ID string `json:"id"`
}

// encodeValue converts a cell value to the store's page property format.
func encodeValue(v core.Value) (map[string]any, error) {
	switch v := v.(type) {
	case core.TitleValue:
		return map[string]any{"title": textRuns(v.Text)}, nil
	case core.TextValue:
		return map[string]any{"rich_text": textRuns(v.Text)}, nil
	case core.NumberValue:
		return map[string]any{"number": v.Number}, nil
	case core.DateValue:
		d := dateObject{Start: v.Start.Format(dateLayout)}
		if !v.End.IsZero() {
			end := v.End.Format(dateLayout)
			d.End = &end
		}
		return map[string]any{"date": d}, nil
	case core.CheckboxValue:
		return map[string]any{"checkbox": v.Checked}, nil
	case core.SelectValue:
		return map[string]any{"select": map[string]string{"name": v.Name}}, nil
	case core.RelationValue:
		refs := make([]idRef, len(v.IDs))
		for i, id := range v.IDs {
			refs[i] = idRef{ID: id}
		}
		return map[string]any{"relation": refs}, nil
	default:
		return nil, fmt.Errorf("%w: value %T", core.ErrUnsupportedColumnKind, v)
	}
}

func encodeValues(values map[string]core.Value) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, v := range values {
		enc, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out[name] = enc
	}
	return out, nil
}

// pageProperty is a cell as returned by the row endpoints.
type pageProperty struct {
	Type     string      `json:"type"`
	Title    []richText  `json:"title"`
	RichText []richText  `json:"rich_text"`
	Number   *float64    `json:"number"`
	Date     *dateObject `json:"date"`
	Checkbox *bool       `json:"checkbox"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select"`
	Relation []idRef `json:"relation"`
}

type pageObject struct {
	ID         string                     `json:"id"`
	Parent     parentRef                  `json:"parent"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// decodeValue maps a cell to a Value. ok is false for kinds leapyear never reads.
func decodeValue(p pageProperty) (core.Value, bool) {
	switch core.Kind(p.Type) {
	case core.KindTitle:
		return core.TitleValue{Text: plainText(p.Title)}, true
	case core.KindText:
		return core.TextValue{Text: plainText(p.RichText)}, true
	case core.KindNumber:
		if p.Number == nil {
			return nil, false
		}
		return core.NumberValue{Number: *p.Number}, true
	case core.KindDate:
		if p.Date == nil {
			return nil, false
		}
		start, err := parseDate(p.Date.Start)
		if err != nil {
			return nil, false
		}
		v := core.DateValue{Start: start}
		if p.Date.End != nil {
			if end, err := parseDate(*p.Date.End); err == nil {
				v.End = end
			}
		}
		return v, true
	case core.KindCheckbox:
		if p.Checkbox == nil {
			return nil, false
		}
		return core.CheckboxValue{Checked: *p.Checkbox}, true
	case core.KindSelect:
		if p.Select == nil {
			return nil, false
		}
		return core.SelectValue{Name: p.Select.Name}, true
	case core.KindRelation:
		ids := make([]string, len(p.Relation))
		for i, r := range p.Relation {
			ids[i] = r.ID
		}
		return core.RelationValue{IDs: ids}, true
	}
	return nil, false
}

// decodeRow converts a page into a Row. Cells that fail to decode are skipped.
func decodeRow(tableID string, page pageObject) core.Row {
	row := core.Row{
		ID:      page.ID,
		TableID: tableID,
		Values:  make(map[string]core.Value, len(page.Properties)),
	}
	if row.TableID == "" {
		row.TableID = page.Parent.DatabaseID
	}
	for name, raw := range page.Properties {
		var p pageProperty
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		v, ok := decodeValue(p)
		if !ok {
			continue
		}
		if t, isTitle := v.(core.TitleValue); isTitle {
			row.Title = t.Text
		}
		row.Values[name] = v
	}
	return row
}
