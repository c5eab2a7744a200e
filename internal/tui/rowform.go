package tui

import (
	"fmt"
	"strings"

	"github.com/johan-st/sqlhelper/internal/workbench"
)

// rowForm edits the fields of a prepared insert or update.
type rowForm struct {
	form   *workbench.Form
	inputs *inputForm
	err    error
}

func newRowForm(form *workbench.Form) *rowForm {
	rf := &rowForm{form: form, inputs: &inputForm{}}
	for _, f := range form.Fields {
		rf.inputs.add(f.Name, f.Value, fieldHint(f), false)
	}
	return rf
}

func fieldHint(f workbench.Field) string {
	parts := []string{strings.ToLower(f.Type)}
	if f.Primary {
		parts = append(parts, "pk")
	}
	if f.Nullable {
		parts = append(parts, "null")
	}
	if f.Key {
		parts = append(parts, "★ match")
	}
	return strings.Join(parts, " ")
}

func (rf *rowForm) title() string {
	if rf.form.Kind == workbench.FormUpdate {
		return fmt.Sprintf("Edit row %d of %s", rf.form.RowIndex+1, rf.form.Selection)
	}
	return "Insert into " + rf.form.Selection.String()
}

// setKeyToFocused makes the focused field the one the update matches on.
func (rf *rowForm) setKeyToFocused() error {
	i := rf.inputs.focused()
	if err := rf.form.SetKeyColumn(rf.form.Fields[i].Name); err != nil {
		return err
	}
	for j, f := range rf.form.Fields {
		rf.inputs.setHint(j, fieldHint(f))
	}
	return nil
}
