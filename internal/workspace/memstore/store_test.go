package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

func titleOnly() map[string]core.PropertySpec {
	return map[string]core.PropertySpec{"Name": {Kind: core.KindTitle}}
}

func TestStore_CreateTableRequiresContainer(t *testing.T) {
	s := New()
	_, err := s.CreateTable(context.Background(), "missing", "2026 Weeks", "", titleOnly())
	assert.True(t, workspace.IsNotFound(err))
}

func TestStore_CreateTableRequiresOneTitle(t *testing.T) {
	s := New()
	root := s.AddPage("Planning")

	_, err := s.CreateTable(context.Background(), root, "x", "", map[string]core.PropertySpec{
		"Dates": {Kind: core.KindDate},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRemoteCall)
}

func TestStore_SearchIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	id, err := s.CreateTable(ctx, root, "2026 Weeks", "", titleOnly())
	require.NoError(t, err)

	got, err := s.Search(ctx, core.EntityTable, "weeks")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Entity{ID: id, Kind: core.EntityTable, Title: "2026 Weeks", ParentID: root}, got[0])

	pages, err := s.Search(ctx, core.EntityRow, "plan")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, root, pages[0].ID)
}

func TestStore_DualRelationCreatesReverseColumn(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	months, err := s.CreateTable(ctx, root, "Months", "", titleOnly())
	require.NoError(t, err)
	weeks, err := s.CreateTable(ctx, root, "Weeks", "", titleOnly())
	require.NoError(t, err)

	require.NoError(t, s.UpdateTableSchema(ctx, weeks, map[string]core.PropertySpec{
		"Month": {Kind: core.KindRelation, Relation: &core.RelationSpec{TargetTableID: months, ReverseName: "Weeks"}},
	}))

	cols, err := s.GetTableSchema(ctx, months)
	require.NoError(t, err)
	assert.Contains(t, cols, core.ColumnSchema(core.RelationColumn{Name: "Weeks", TargetTableID: weeks, SyncedName: "Month"}))
}

func TestStore_RollupNeedsRelation(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	tbl, err := s.CreateTable(ctx, root, "Weeks", "", titleOnly())
	require.NoError(t, err)

	err = s.UpdateTableSchema(ctx, tbl, map[string]core.PropertySpec{
		"Task Count": {Kind: core.KindRollup, Rollup: &core.RollupSpec{RelationColumn: "Tasks", TargetColumn: "Name", Function: "count"}},
	})
	require.Error(t, err)

	cols, err := s.GetTableSchema(ctx, tbl)
	require.NoError(t, err)
	assert.Len(t, cols, 1, "failed update must not change the schema")
}

func TestStore_StatusIsRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	tbl, err := s.CreateTable(ctx, root, "Tasks", "", titleOnly())
	require.NoError(t, err)

	err = s.UpdateTableSchema(ctx, tbl, map[string]core.PropertySpec{"State": {Kind: core.KindStatus}})
	assert.ErrorIs(t, err, core.ErrUnsupportedColumnKind)
}

func TestStore_RowsAndRelationSync(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	months, err := s.CreateTable(ctx, root, "Months", "", titleOnly())
	require.NoError(t, err)
	weeks, err := s.CreateTable(ctx, root, "Weeks", "", map[string]core.PropertySpec{
		"Week":  {Kind: core.KindTitle},
		"Month": {Kind: core.KindRelation, Relation: &core.RelationSpec{TargetTableID: months, ReverseName: "Weeks"}},
	})
	require.NoError(t, err)

	jan, err := s.CreateRow(ctx, months, map[string]core.Value{core.TitleKey: core.TitleValue{Text: "January"}})
	require.NoError(t, err)
	w1, err := s.CreateRow(ctx, weeks, map[string]core.Value{core.TitleKey: core.TitleValue{Text: "Week 01"}})
	require.NoError(t, err)

	require.NoError(t, s.UpdateRow(ctx, w1, map[string]core.Value{"Month": core.RelationValue{IDs: []string{jan}}}))

	rows, err := s.QueryRows(ctx, months, &workspace.RowFilter{TitleEquals: "January"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	back, ok := rows[0].Relation("Weeks")
	require.True(t, ok)
	assert.Equal(t, []string{w1}, back.IDs)

	require.NoError(t, s.UpdateRow(ctx, w1, map[string]core.Value{"Month": core.RelationValue{}}))
	rows, err = s.QueryRows(ctx, months, nil)
	require.NoError(t, err)
	back, _ = rows[0].Relation("Weeks")
	assert.Empty(t, back.IDs)

	none, err := s.QueryRows(ctx, weeks, &workspace.RowFilter{TitleEquals: "Week 02"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_RowValidation(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	tbl, err := s.CreateTable(ctx, root, "Weeks", "", map[string]core.PropertySpec{
		"Name":  {Kind: core.KindTitle},
		"Dates": {Kind: core.KindDate},
	})
	require.NoError(t, err)

	_, err = s.CreateRow(ctx, tbl, map[string]core.Value{"Nope": core.TextValue{Text: "x"}})
	assert.Error(t, err)

	_, err = s.CreateRow(ctx, tbl, map[string]core.Value{"Dates": core.TextValue{Text: "x"}})
	assert.Error(t, err)

	assert.Empty(t, s.Rows(tbl))
}

func TestStore_HookAndCounters(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := s.AddPage("Planning")
	boom := errors.New("boom")
	s.SetHook(func(c Call) error {
		if c.Op == OpCreateTable && c.Name == "Broken" {
			return boom
		}
		return nil
	})

	_, err := s.CreateTable(ctx, root, "Broken", "", titleOnly())
	assert.ErrorIs(t, err, boom)
	_, err = s.CreateTable(ctx, root, "Fine", "", titleOnly())
	assert.NoError(t, err)

	assert.Equal(t, 2, s.Calls(OpCreateTable))
	_, ok := s.TableByName("Broken")
	assert.False(t, ok)
	_, ok = s.TableByName("Fine")
	assert.True(t, ok)
}
