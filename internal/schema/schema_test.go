package schema

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var years = template.Years{Template: 2025, Target: 2026}

func sourceColumns() []core.ColumnSchema {
	return []core.ColumnSchema{
		core.TitleColumn{Name: "Week"},
		core.DateColumn{Name: "Dates"},
		core.NumberColumn{Name: "Score", Format: "percent"},
		core.SelectColumn{Name: "Mood", Options: []core.SelectOption{{Name: "Good", Color: "green"}, {Name: "Bad", Color: "red"}}},
		core.MultiSelectColumn{Name: "2025 Tags", Options: []core.SelectOption{{Name: "Work", Color: "blue"}}},
		core.CheckboxColumn{Name: "Done"},
		core.TextColumn{Name: "Notes"},
		core.StatusColumn{Name: "Progress"},
		core.FormulaColumn{Name: "Label", Expression: `ref("Week")`},
		core.RollupColumn{Name: "Tasks Done", RelationColumn: "Tasks", TargetColumn: "Done", Function: "count"},
		core.RelationColumn{Name: "2025 Weeks", TargetTableID: "t1"},
		core.UnsupportedColumn{Name: "Owner", RawKind: "people"},
	}
}

func TestTransform(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	got := Transform(sourceColumns(), []string{"Notes"}, years, logger)

	assert.Equal(t, map[string]core.PropertySpec{
		"Week":      {Kind: core.KindTitle},
		"Dates":     {Kind: core.KindDate},
		"Score":     {Kind: core.KindNumber, NumberFormat: "percent"},
		"Mood":      {Kind: core.KindSelect, Options: []core.SelectOption{{Name: "Good", Color: "green"}, {Name: "Bad", Color: "red"}}},
		"2026 Tags": {Kind: core.KindMultiSelect, Options: []core.SelectOption{{Name: "Work", Color: "blue"}}},
		"Done":      {Kind: core.KindCheckbox},
	}, got)

	assert.Contains(t, logs.String(), "dropping unsupported column kind")
	assert.Contains(t, logs.String(), "Owner")
}

func TestTransform_DropsRelationColumns(t *testing.T) {
	got := Transform([]core.ColumnSchema{
		core.TitleColumn{Name: "Name"},
		core.RelationColumn{Name: "2025 Weeks"},
	}, nil, years, nil)

	assert.NotContains(t, got, "2025 Weeks")
	assert.NotContains(t, got, "2026 Weeks")
	assert.Len(t, got, 1)
}

func TestTransform_OmitAcceptsEitherSpelling(t *testing.T) {
	cols := []core.ColumnSchema{
		core.TitleColumn{Name: "Name"},
		core.TextColumn{Name: "2025 Notes"},
		core.TextColumn{Name: "Summary"},
	}

	got := Transform(cols, []string{"{year} Notes"}, years, nil)
	assert.NotContains(t, got, "2026 Notes")

	got = Transform(cols, []string{"2025 Notes", "Summary"}, years, nil)
	assert.Equal(t, map[string]core.PropertySpec{"Name": {Kind: core.KindTitle}}, got)
}

func TestTransform_AddsTitleWhenMissing(t *testing.T) {
	got := Transform([]core.ColumnSchema{core.TextColumn{Name: "Notes"}}, nil, years, nil)

	require.Contains(t, got, DefaultTitleColumn)
	assert.Equal(t, core.KindTitle, got[DefaultTitleColumn].Kind)
}

func TestTransform_OptionsAreCopied(t *testing.T) {
	opts := []core.SelectOption{{Name: "A"}}
	got := Transform([]core.ColumnSchema{core.TitleColumn{Name: "Name"}, core.SelectColumn{Name: "S", Options: opts}}, nil, years, nil)

	opts[0].Name = "changed"
	assert.Equal(t, "A", got["S"].Options[0].Name)
}

func TestPlace(t *testing.T) {
	tests := []struct {
		col  core.ColumnSchema
		want Placement
	}{
		{core.TitleColumn{Name: "Name"}, PlaceBasic},
		{core.SelectColumn{Name: "S"}, PlaceBasic},
		{core.RelationColumn{Name: "R"}, PlaceRelation},
		{core.FormulaColumn{Name: "F"}, PlaceComputed},
		{core.RollupColumn{Name: "R"}, PlaceComputed},
		{core.StatusColumn{Name: "S"}, PlaceManual},
		{core.UnsupportedColumn{Name: "P", RawKind: "people"}, PlaceDropped},
	}

	for _, tt := range tests {
		t.Run(tt.col.ColumnName()+"/"+string(tt.col.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.want, Place(tt.col))
		})
	}
}

func TestComputed(t *testing.T) {
	got := Computed(sourceColumns())
	require.Len(t, got, 2)
	assert.Equal(t, "Label", got[0].ColumnName())
	assert.Equal(t, "Tasks Done", got[1].ColumnName())
}

func TestMissing(t *testing.T) {
	want := map[string]core.PropertySpec{
		"Name":  {Kind: core.KindTitle},
		"Dates": {Kind: core.KindDate},
		"Score": {Kind: core.KindNumber},
	}
	have := []core.ColumnSchema{
		core.TitleColumn{Name: "Title"},
		core.DateColumn{Name: "Dates"},
	}

	assert.Equal(t, map[string]core.PropertySpec{"Score": {Kind: core.KindNumber}}, Missing(want, have))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Good, Bad", Describe(sourceColumns()[3]))
	assert.Equal(t, `ref("Week")`, Describe(core.FormulaColumn{Expression: `ref("Week")`}))
	assert.Equal(t, "count(Tasks.Done)", Describe(core.RollupColumn{RelationColumn: "Tasks", TargetColumn: "Done", Function: "count"}))
	assert.Equal(t, "-> t1 (synced as Weeks)", Describe(core.RelationColumn{TargetTableID: "t1", SyncedName: "Weeks"}))
	assert.Equal(t, "", Describe(core.TitleColumn{Name: "Name"}))
}
