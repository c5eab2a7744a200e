package workbench

import (
	"context"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"go.uber.org/zap"
)

// NodeKind distinguishes the two levels of the schema tree.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeTable
)

// SchemaNode is a database or a table in the schema tree.
type SchemaNode struct {
	Name     string
	Kind     NodeKind
	Parent   *SchemaNode // nil for databases
	Children []*SchemaNode
}

// Selection is the (database, table) pair table-scoped operations act on.
type Selection struct {
	Database string
	Table    string
}

// Empty reports whether no table has been chosen.
func (s Selection) Empty() bool {
	return s.Database == "" || s.Table == ""
}

func (s Selection) String() string {
	if s.Empty() {
		return ""
	}
	return s.Database + "." + s.Table
}

// LoadDatabases rebuilds the schema tree from scratch. If listing fails
// part way, the nodes built so far stay in the tree.
func (w *Workbench) LoadDatabases(ctx context.Context) ([]*SchemaNode, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadDatabases(ctx)
}

func (w *Workbench) loadDatabases(ctx context.Context) ([]*SchemaNode, error) {
	if err := w.requireConnection("load databases"); err != nil {
		return nil, err
	}

	w.tree = nil

	names, err := w.conn.ListDatabases(ctx)
	if err != nil {
		return w.tree, apperr.Wrap(apperr.KindQuery, "load databases", err)
	}

	for _, name := range names {
		db := &SchemaNode{Name: name, Kind: NodeDatabase}
		w.tree = append(w.tree, db)

		tables, err := w.conn.ListTables(ctx, name)
		if err != nil {
			w.logger.Warn("schema load stopped", zap.String("database", name), zap.Error(err))
			return w.tree, apperr.Wrap(apperr.KindQuery, "load tables of "+name, err)
		}
		for _, table := range tables {
			db.Children = append(db.Children, &SchemaNode{Name: table, Kind: NodeTable, Parent: db})
		}
	}

	w.logger.Debug("schema loaded", zap.Int("databases", len(w.tree)))
	return w.tree, nil
}

// Tree returns the current schema tree.
func (w *Workbench) Tree() []*SchemaNode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree
}

// Select applies a tree selection. Table nodes set the Selection; database
// nodes leave it unchanged.
func (w *Workbench) Select(node *SchemaNode) {
	if node == nil || node.Kind != NodeTable || node.Parent == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel = Selection{Database: node.Parent.Name, Table: node.Name}
}

// SelectTable selects a table by name. The table must be in the loaded tree.
func (w *Workbench) SelectTable(database, table string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if node := w.findTable(database, table); node != nil {
		w.sel = Selection{Database: database, Table: table}
		return nil
	}
	return apperr.Validation("select", "unknown table %s.%s", database, table)
}

func (w *Workbench) findTable(database, table string) *SchemaNode {
	for _, db := range w.tree {
		if db.Name != database {
			continue
		}
		for _, t := range db.Children {
			if t.Name == table {
				return t
			}
		}
	}
	return nil
}

// Selection returns the current selection.
func (w *Workbench) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}
