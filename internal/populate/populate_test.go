package populate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapyear/internal/calendar"
	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/testutil"
	"github.com/leapstack-labs/leapyear/internal/workspace/memstore"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthRows(t *testing.T) {
	rows := MonthRows("months", "Dates", 2028)
	require.Len(t, rows, 12)
	assert.Equal(t, "January", rows[0].Title)
	assert.Equal(t, core.DateValue{Start: day(2028, time.February, 1), End: day(2028, time.February, 29)}, rows[1].Values["Dates"])

	assert.Nil(t, MonthRows("months", "", 2028)[0].Values)
}

func TestWeekRows(t *testing.T) {
	rows := WeekRows("weeks", "Dates", calendar.Weeks(2026))
	require.Len(t, rows, 53)
	assert.Equal(t, "Week 01", rows[0].Title)
	assert.Equal(t, core.DateValue{Start: day(2025, time.December, 28), End: day(2026, time.January, 3)}, rows[0].Values["Dates"])
}

func TestChildAndYearRows(t *testing.T) {
	rows := ChildRows("reviews", "Week", []Parent{{ID: "w1", Title: "Week 01"}, {ID: "w2", Title: "Week 02"}})
	require.Len(t, rows, 2)
	assert.Equal(t, RowSpec{
		TableID: "reviews",
		Title:   "Week 02",
		Values:  map[string]core.Value{"Week": core.RelationValue{IDs: []string{"w2"}}},
	}, rows[1])

	year := YearRow("years", "2026", "Months", []string{"m1", "m2"})
	assert.Equal(t, core.RelationValue{IDs: []string{"m1", "m2"}}, year.Values["Months"])
	assert.Nil(t, YearRow("years", "2026", "Months", nil).Values)
}

func TestCreateThenExists(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	root := store.AddPage("Planning")
	tbl, err := store.CreateTable(ctx, root, "Weeks", "", map[string]core.PropertySpec{
		"Name":  {Kind: core.KindTitle},
		"Dates": {Kind: core.KindDate},
	})
	require.NoError(t, err)
	logger := testutil.NewTestLogger(t)
	p := New(store, probe.New(store, logger), logger)

	spec := WeekRows(tbl, "Dates", calendar.Weeks(2026))[0]
	assert.False(t, p.Exists(ctx, spec).Exists)

	id, err := p.Create(ctx, spec)
	require.NoError(t, err)

	res := p.Exists(ctx, spec)
	assert.True(t, res.Exists)
	assert.Equal(t, id, res.ID)
	assert.Len(t, store.Rows(tbl), 1)
}

func TestCreate_MissingTable(t *testing.T) {
	store := memstore.New()
	p := New(store, probe.New(store, nil), nil)

	_, err := p.Create(context.Background(), RowSpec{Title: "Week 01"})
	assert.ErrorIs(t, err, core.ErrEntityNotFound)
	assert.Zero(t, store.Calls(memstore.OpCreateRow))
}

func TestLink(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	root := store.AddPage("Planning")
	months, err := store.CreateTable(ctx, root, "Months", "", map[string]core.PropertySpec{"Name": {Kind: core.KindTitle}})
	require.NoError(t, err)
	weeks, err := store.CreateTable(ctx, root, "Weeks", "", map[string]core.PropertySpec{
		"Name":  {Kind: core.KindTitle},
		"Month": {Kind: core.KindRelation, Relation: &core.RelationSpec{TargetTableID: months, ReverseName: "Weeks"}},
	})
	require.NoError(t, err)
	p := New(store, probe.New(store, nil), nil)

	jan, err := p.Create(ctx, RowSpec{TableID: months, Title: "January"})
	require.NoError(t, err)
	w1, err := p.Create(ctx, RowSpec{TableID: weeks, Title: "Week 01"})
	require.NoError(t, err)

	require.NoError(t, p.Link(ctx, w1, "Month", jan))

	rows := store.Rows(months)
	require.Len(t, rows, 1)
	back, ok := rows[0].Relation("Weeks")
	require.True(t, ok)
	assert.Equal(t, []string{w1}, back.IDs)
}
