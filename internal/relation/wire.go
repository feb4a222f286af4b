// Package relation creates bidirectional references between tables.
package relation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Link is one relation to wire, with table ids already resolved.
type Link struct {
	SourceTableID string
	TargetTableID string
	SourceColumn  string
	TargetColumn  string
}

func (l Link) String() string {
	return fmt.Sprintf("%s <-> %s", l.SourceColumn, l.TargetColumn)
}

func (l Link) validate() error {
	switch {
	case l.SourceTableID == "":
		return fmt.Errorf("%w: source table for %s", core.ErrEntityNotFound, l)
	case l.TargetTableID == "":
		return fmt.Errorf("%w: target table for %s", core.ErrEntityNotFound, l)
	case l.SourceColumn == "" || l.TargetColumn == "":
		return fmt.Errorf("%w: column names for relation %s", core.ErrConfigurationMissing, l)
	}
	return nil
}

// Columns is the schema update that creates the link: one relation column
// on the source whose synced reverse column the store adds to the target.
func (l Link) Columns() map[string]core.PropertySpec {
	return map[string]core.PropertySpec{
		l.SourceColumn: {
			Kind: core.KindRelation,
			Relation: &core.RelationSpec{
				TargetTableID: l.TargetTableID,
				ReverseName:   l.TargetColumn,
			},
		},
	}
}

// Wirer creates links.
type Wirer struct {
	client workspace.Client
	prober *probe.Prober
	logger *slog.Logger
}

// New creates a Wirer.
func New(client workspace.Client, prober *probe.Prober, logger *slog.Logger) *Wirer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Wirer{client: client, prober: prober, logger: logger}
}

// Wired reports whether the source column already exists as a relation
// to the target table.
func (w *Wirer) Wired(ctx context.Context, l Link) bool {
	if l.SourceTableID == "" || l.TargetTableID == "" {
		return false
	}
	return w.prober.Relation(ctx, l.SourceTableID, l.SourceColumn, l.TargetTableID).Exists
}

// Wire creates the link with a single schema update on the source table.
func (w *Wirer) Wire(ctx context.Context, l Link) error {
	if err := l.validate(); err != nil {
		return err
	}
	if err := w.client.UpdateTableSchema(ctx, l.SourceTableID, l.Columns()); err != nil {
		return fmt.Errorf("wiring %s: %w", l, err)
	}
	w.logger.Debug("wired relation", "table_id", l.SourceTableID, "target_table_id", l.TargetTableID, "column", l.SourceColumn)
	return nil
}
