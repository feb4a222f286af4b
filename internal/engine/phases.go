package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/leapstack-labs/leapyear/internal/calendar"
	"github.com/leapstack-labs/leapyear/internal/expr"
	"github.com/leapstack-labs/leapyear/internal/populate"
	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/relation"
	"github.com/leapstack-labs/leapyear/internal/schema"
	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Phase names, in run order.
const (
	PhaseTables    = "Create tables"
	PhaseRelations = "Wire relations"
	PhaseComputed  = "Clone computed columns"
	PhaseRows      = "Seed week and month rows"
	PhaseLinks     = "Link weeks to months"
	PhaseFinish    = "Fill gaps and seed child rows"
)

// pipeline is the state of one run. The table registry is not part of it:
// every phase rescans the container.
type pipeline struct {
	*Engine
	run    *runner
	target Target
}

func (p *pipeline) render(s string) string {
	return template.Render(s, p.target.Years)
}

func (p *pipeline) scan(ctx context.Context) (core.TableRegistry, error) {
	return p.prober.ScanTables(ctx, p.target.ContainerID)
}

// columnSnapshot caches table schemas for one phase. A failed read is
// cached as nil so done checks fall through to live probes.
type columnSnapshot struct {
	prober *probe.Prober
	cols   map[string]map[string]core.ColumnSchema
}

func newColumnSnapshot(prober *probe.Prober) *columnSnapshot {
	return &columnSnapshot{prober: prober, cols: map[string]map[string]core.ColumnSchema{}}
}

func (s *columnSnapshot) get(ctx context.Context, tableID string) map[string]core.ColumnSchema {
	if tableID == "" {
		return nil
	}
	if cols, ok := s.cols[tableID]; ok {
		return cols
	}
	cols, err := s.prober.Columns(ctx, tableID)
	if err != nil {
		cols = nil
	}
	s.cols[tableID] = cols
	return cols
}

// rowSnapshot caches row listings by table for one phase.
type rowSnapshot struct {
	prober *probe.Prober
	rows   map[string]map[string]core.Row
}

func newRowSnapshot(prober *probe.Prober) *rowSnapshot {
	return &rowSnapshot{prober: prober, rows: map[string]map[string]core.Row{}}
}

func (s *rowSnapshot) get(ctx context.Context, tableID string) map[string]core.Row {
	if tableID == "" {
		return nil
	}
	if rows, ok := s.rows[tableID]; ok {
		return rows
	}
	rows, err := s.prober.Rows(ctx, tableID)
	if err != nil {
		rows = nil
	}
	s.rows[tableID] = rows
	return rows
}

func (s *rowSnapshot) has(ctx context.Context, tableID, title string) bool {
	_, ok := s.get(ctx, tableID)[probe.Normalize(title)]
	return ok
}

// sourceSchema reads the template-year schema a table is cloned from.
func (p *pipeline) sourceSchema(ctx context.Context, tmpl core.TableTemplate) ([]core.ColumnSchema, error) {
	if tmpl.SourceID == "" {
		return nil, fmt.Errorf("%w: source table id for %s", core.ErrConfigurationMissing, tmpl.Key)
	}
	cols, err := p.client.GetTableSchema(ctx, tmpl.SourceID)
	if err != nil {
		return nil, fmt.Errorf("reading source schema of %s: %w", tmpl.Key, err)
	}
	return cols, nil
}

// basicColumns is the phase-1 schema of a table: the transformed source
// schema plus any columns the topology requires.
func (p *pipeline) basicColumns(ctx context.Context, tmpl core.TableTemplate) (map[string]core.PropertySpec, error) {
	cols, err := p.sourceSchema(ctx, tmpl)
	if err != nil {
		return nil, err
	}
	specs := schema.Transform(cols, tmpl.Omit, p.target.Years, p.logger)
	for name, spec := range p.target.Topology.RequiredColumns(tmpl.Name) {
		if _, ok := specs[name]; !ok {
			specs[name] = spec
		}
	}
	return specs, nil
}

type tableItem struct {
	tmpl core.TableTemplate
	name string
}

// createTables is phase 1.
func (p *pipeline) createTables(ctx context.Context) core.PhaseResult {
	reg, err := p.scan(ctx)
	if err != nil {
		p.logger.Warn("container scan failed, probing tables one by one", "error", err)
	}

	items := make([]item[tableItem], len(p.target.Topology.Tables))
	for i, tmpl := range p.target.Topology.Tables {
		name := p.render(tmpl.Name)
		items[i] = item[tableItem]{label: name, value: tableItem{tmpl: tmpl, name: name}}
	}

	return runPhase(ctx, p.run, phase[tableItem]{
		number: 1,
		name:   PhaseTables,
		items:  items,
		done: func(t tableItem) bool {
			_, ok := probe.Lookup(reg, t.name)
			return ok
		},
		probe: func(ctx context.Context, t tableItem) bool {
			return p.prober.Table(ctx, p.target.ContainerID, t.name).Exists
		},
		create: func(ctx context.Context, t tableItem) error {
			cols, err := p.basicColumns(ctx, t.tmpl)
			if err != nil {
				return err
			}
			id, err := p.client.CreateTable(ctx, p.target.ContainerID, t.name, t.tmpl.Icon, cols)
			if err != nil {
				return fmt.Errorf("creating table %q: %w", t.name, err)
			}
			p.logger.Debug("created table", "table_id", id, "label", t.name, "columns", len(cols))
			return nil
		},
	})
}

// envEntries lists the provisioned tables in topology order.
func (p *pipeline) envEntries(reg core.TableRegistry) []core.EnvEntry {
	return EnvEntries(reg, p.target.Topology.Tables, p.target.Years)
}

// wireRelations is phase 2.
func (p *pipeline) wireRelations(ctx context.Context) core.PhaseResult {
	reg, err := p.scan(ctx)
	if err != nil {
		return core.PhaseResult{Number: 2, Name: PhaseRelations, Err: err}
	}

	items := make([]item[relation.Link], len(p.target.Topology.Relations))
	for i, rel := range p.target.Topology.Relations {
		source, target := p.render(rel.Source), p.render(rel.Target)
		link := relation.Link{
			SourceColumn: p.render(rel.SourceColumn),
			TargetColumn: p.render(rel.TargetColumn),
		}
		link.SourceTableID, _ = probe.Lookup(reg, source)
		link.TargetTableID, _ = probe.Lookup(reg, target)
		items[i] = item[relation.Link]{
			label: fmt.Sprintf("%s.%s <-> %s.%s", source, link.SourceColumn, target, link.TargetColumn),
			value: link,
		}
	}

	cols := newColumnSnapshot(p.prober)
	return runPhase(ctx, p.run, phase[relation.Link]{
		number: 2,
		name:   PhaseRelations,
		items:  items,
		done: func(l relation.Link) bool {
			if l.TargetTableID == "" {
				return false
			}
			return probe.HasRelation(cols.get(ctx, l.SourceTableID), l.SourceColumn, l.TargetTableID)
		},
		probe:  p.wirer.Wired,
		create: p.wirer.Wire,
	})
}

type computedItem struct {
	tableID string
	name    string
	spec    core.PropertySpec
}

// cloneComputed is phase 3.
func (p *pipeline) cloneComputed(ctx context.Context) core.PhaseResult {
	reg, err := p.scan(ctx)
	if err != nil {
		return core.PhaseResult{Number: 3, Name: PhaseComputed, Err: err}
	}

	var items []item[computedItem]
	for _, tmpl := range p.target.Topology.Tables {
		name := p.render(tmpl.Name)
		source, err := p.sourceSchema(ctx, tmpl)
		if err != nil {
			items = append(items, item[computedItem]{label: name, err: err})
			continue
		}
		computed, err := expr.Order(schema.Computed(source))
		if err != nil {
			items = append(items, item[computedItem]{label: name, err: err})
			continue
		}
		tableID, found := probe.Lookup(reg, name)
		for _, col := range computed {
			colName := p.render(col.ColumnName())
			it := item[computedItem]{label: name + "." + colName}
			switch spec, err := expr.Rewrite(col, p.target.Years); {
			case !found:
				it.err = fmt.Errorf("%w: table %q", core.ErrEntityNotFound, name)
			case err != nil:
				it.err = err
			default:
				it.value = computedItem{tableID: tableID, name: colName, spec: spec}
			}
			items = append(items, it)
		}
	}

	cols := newColumnSnapshot(p.prober)
	return runPhase(ctx, p.run, phase[computedItem]{
		number: 3,
		name:   PhaseComputed,
		items:  items,
		done: func(c computedItem) bool {
			_, ok := cols.get(ctx, c.tableID)[probe.Normalize(c.name)]
			return ok
		},
		probe: func(ctx context.Context, c computedItem) bool {
			return p.prober.Column(ctx, c.tableID, c.name, "").Exists
		},
		create: func(ctx context.Context, c computedItem) error {
			if err := p.client.UpdateTableSchema(ctx, c.tableID, map[string]core.PropertySpec{c.name: c.spec}); err != nil {
				return fmt.Errorf("adding column %q: %w", c.name, err)
			}
			return nil
		},
	})
}

// calendarTables resolves the weeks and months tables, which phases 4 and 5
// cannot run without.
func (p *pipeline) calendarTables(reg core.TableRegistry) (weeksID, monthsID string, err error) {
	cal := p.target.Topology.Calendar
	weeks, months := p.render(cal.Weeks), p.render(cal.Months)
	weeksID, ok := probe.Lookup(reg, weeks)
	if !ok {
		return "", "", fmt.Errorf("%w: table %q", core.ErrEntityNotFound, weeks)
	}
	monthsID, ok = probe.Lookup(reg, months)
	if !ok {
		return "", "", fmt.Errorf("%w: table %q", core.ErrEntityNotFound, months)
	}
	return weeksID, monthsID, nil
}

func rowItems(specs []populate.RowSpec) []item[populate.RowSpec] {
	items := make([]item[populate.RowSpec], len(specs))
	for i, spec := range specs {
		items[i] = item[populate.RowSpec]{label: spec.Title, value: spec}
	}
	return items
}

func (p *pipeline) rowPhase(ctx context.Context, number int, name string, items []item[populate.RowSpec]) core.PhaseResult {
	rows := newRowSnapshot(p.prober)
	return runPhase(ctx, p.run, phase[populate.RowSpec]{
		number: number,
		name:   name,
		items:  items,
		done: func(s populate.RowSpec) bool {
			return rows.has(ctx, s.TableID, s.Title)
		},
		probe: func(ctx context.Context, s populate.RowSpec) bool {
			return p.populator.Exists(ctx, s).Exists
		},
		create: func(ctx context.Context, s populate.RowSpec) error {
			_, err := p.populator.Create(ctx, s)
			return err
		},
	})
}

// seedCalendar is phase 4.
func (p *pipeline) seedCalendar(ctx context.Context) core.PhaseResult {
	reg, err := p.scan(ctx)
	if err == nil {
		var weeksID, monthsID string
		if weeksID, monthsID, err = p.calendarTables(reg); err == nil {
			cal := p.target.Topology.Calendar
			specs := populate.MonthRows(monthsID, cal.MonthDateColumn, p.target.Years.Target)
			specs = append(specs, populate.WeekRows(weeksID, cal.WeekDateColumn, calendar.Weeks(p.target.Years.Target))...)
			return p.rowPhase(ctx, 4, PhaseRows, rowItems(specs))
		}
	}
	return core.PhaseResult{Number: 4, Name: PhaseRows, Err: err}
}

type weekLink struct {
	weekRowID  string
	monthRowID string
	current    core.RelationValue
}

// linkWeeks is phase 5.
func (p *pipeline) linkWeeks(ctx context.Context) core.PhaseResult {
	fail := func(err error) core.PhaseResult {
		return core.PhaseResult{Number: 5, Name: PhaseLinks, Err: err}
	}
	reg, err := p.scan(ctx)
	if err != nil {
		return fail(err)
	}
	weeksID, monthsID, err := p.calendarTables(reg)
	if err != nil {
		return fail(err)
	}
	weekRows, err := p.prober.Rows(ctx, weeksID)
	if err != nil {
		return fail(err)
	}
	monthRows, err := p.prober.Rows(ctx, monthsID)
	if err != nil {
		return fail(err)
	}

	column := p.target.Topology.Calendar.WeekMonthColumn
	year := p.target.Years.Target
	var items []item[weekLink]
	for _, week := range calendar.Weeks(year) {
		month := calendar.AssignWeekToMonth(week, year)
		it := item[weekLink]{label: fmt.Sprintf("%s -> %s", week.Title, month.Title)}
		weekRow, ok := weekRows[probe.Normalize(week.Title)]
		monthRow, found := monthRows[probe.Normalize(month.Title)]
		switch {
		case !ok:
			it.err = fmt.Errorf("%w: week row %q", core.ErrEntityNotFound, week.Title)
		case !found:
			it.err = fmt.Errorf("%w: month row %q", core.ErrEntityNotFound, month.Title)
		default:
			current, _ := weekRow.Relation(column)
			it.value = weekLink{weekRowID: weekRow.ID, monthRowID: monthRow.ID, current: current}
		}
		items = append(items, it)
	}

	return runPhase(ctx, p.run, phase[weekLink]{
		number: 5,
		name:   PhaseLinks,
		items:  items,
		done: func(l weekLink) bool {
			return l.current.Contains(l.monthRowID)
		},
		create: func(ctx context.Context, l weekLink) error {
			return p.populator.Link(ctx, l.weekRowID, column, l.monthRowID)
		},
	})
}

// task is a phase-6 item. The last phase mixes schema fixes and row
// creation, so each task carries its own checks.
type task struct {
	done   bool
	probe  func(context.Context) bool
	create func(context.Context) error
}

// finish is phase 6.
func (p *pipeline) finish(ctx context.Context) core.PhaseResult {
	reg, err := p.scan(ctx)
	if err != nil {
		return core.PhaseResult{Number: 6, Name: PhaseFinish, Err: err}
	}

	var items []item[task]
	items = append(items, p.gapTasks(ctx, reg)...)

	rows := newRowSnapshot(p.prober)
	cal := p.target.Topology.Calendar
	year := p.target.Years.Target

	var weekTitles, monthTitles []string
	for _, w := range calendar.Weeks(year) {
		weekTitles = append(weekTitles, w.Title)
	}
	for _, m := range calendar.Months() {
		monthTitles = append(monthTitles, m.Title)
	}

	weekParents := p.parents(ctx, reg, rows, cal.Weeks, weekTitles)
	monthParents := p.parents(ctx, reg, rows, cal.Months, monthTitles)

	for _, child := range p.target.Topology.Children.Weekly {
		items = append(items, p.childTasks(ctx, reg, rows, child, weekParents)...)
	}
	for _, child := range p.target.Topology.Children.Monthly {
		items = append(items, p.childTasks(ctx, reg, rows, child, monthParents)...)
	}
	items = append(items, p.yearTask(ctx, reg, rows, monthParents))

	return runPhase(ctx, p.run, phase[task]{
		number: 6,
		name:   PhaseFinish,
		items:  items,
		done:   func(t task) bool { return t.done },
		probe: func(ctx context.Context, t task) bool {
			return t.probe != nil && t.probe(ctx)
		},
		create: func(ctx context.Context, t task) error { return t.create(ctx) },
	})
}

// gapTasks adds the basic columns an existing table is missing, such as
// columns added to the source after the table was created.
func (p *pipeline) gapTasks(ctx context.Context, reg core.TableRegistry) []item[task] {
	var items []item[task]
	for _, tmpl := range p.target.Topology.Tables {
		name := p.render(tmpl.Name)
		tableID, ok := probe.Lookup(reg, name)
		if !ok {
			continue
		}
		want, err := p.basicColumns(ctx, tmpl)
		if err != nil {
			p.logger.Debug("skipping schema gap check", "label", name, "error", err)
			continue
		}
		have, err := p.client.GetTableSchema(ctx, tableID)
		if err != nil {
			items = append(items, item[task]{label: name + " schema", err: err})
			continue
		}
		missing := schema.Missing(want, have)
		for _, colName := range sortedKeys(missing) {
			cols := map[string]core.PropertySpec{colName: missing[colName]}
			items = append(items, item[task]{
				label: name + "." + colName,
				value: task{
					probe: func(ctx context.Context) bool {
						return p.prober.Column(ctx, tableID, colName, "").Exists
					},
					create: func(ctx context.Context) error {
						return p.client.UpdateTableSchema(ctx, tableID, cols)
					},
				},
			})
		}
	}
	return items
}

// parents returns the rows of a calendar table in calendar order. Rows
// not yet created are left out.
func (p *pipeline) parents(ctx context.Context, reg core.TableRegistry, rows *rowSnapshot, table string, titles []string) []populate.Parent {
	tableID, ok := probe.Lookup(reg, p.render(table))
	if !ok {
		return nil
	}
	existing := rows.get(ctx, tableID)
	var out []populate.Parent
	for _, title := range titles {
		if row, ok := existing[probe.Normalize(title)]; ok {
			out = append(out, populate.Parent{ID: row.ID, Title: row.Title})
		}
	}
	return out
}

func (p *pipeline) rowTask(ctx context.Context, rows *rowSnapshot, spec populate.RowSpec) item[task] {
	return item[task]{
		label: spec.Title,
		value: task{
			done:  rows.has(ctx, spec.TableID, spec.Title),
			probe: func(ctx context.Context) bool { return p.populator.Exists(ctx, spec).Exists },
			create: func(ctx context.Context) error {
				_, err := p.populator.Create(ctx, spec)
				return err
			},
		},
	}
}

func (p *pipeline) childTasks(ctx context.Context, reg core.TableRegistry, rows *rowSnapshot, child core.ChildTemplate, parents []populate.Parent) []item[task] {
	name := p.render(child.Table)
	tableID, ok := probe.Lookup(reg, name)
	if !ok {
		return []item[task]{{label: name, err: fmt.Errorf("%w: table %q", core.ErrEntityNotFound, name)}}
	}
	specs := populate.ChildRows(tableID, p.render(child.ParentColumn), parents)
	items := make([]item[task], len(specs))
	for i, spec := range specs {
		items[i] = p.rowTask(ctx, rows, spec)
		items[i].label = name + ": " + spec.Title
	}
	return items
}

func (p *pipeline) yearTask(ctx context.Context, reg core.TableRegistry, rows *rowSnapshot, months []populate.Parent) item[task] {
	yr := p.target.Topology.YearRow
	name := p.render(yr.Table)
	title := p.render(yr.Title)
	tableID, ok := probe.Lookup(reg, name)
	if !ok {
		return item[task]{label: title, err: fmt.Errorf("%w: table %q", core.ErrEntityNotFound, name)}
	}
	ids := make([]string, len(months))
	for i, m := range months {
		ids[i] = m.ID
	}
	column := p.render(yr.MonthsColumn)
	label := name + ": " + title

	// A year row created before the month rows existed is relinked once
	// they do.
	row, exists := rows.get(ctx, tableID)[probe.Normalize(title)]
	if !exists || column == "" {
		it := p.rowTask(ctx, rows, populate.YearRow(tableID, title, column, ids))
		it.label = label
		return it
	}
	current, _ := row.Relation(column)
	return item[task]{
		label: label,
		value: task{
			done: containsAll(current, ids),
			create: func(ctx context.Context) error {
				return p.populator.Link(ctx, row.ID, column, ids...)
			},
		},
	}
}

func containsAll(rel core.RelationValue, ids []string) bool {
	for _, id := range ids {
		if !rel.Contains(id) {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
