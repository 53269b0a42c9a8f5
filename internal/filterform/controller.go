package filterform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
)

// Controller owns a form for the duration of one interaction and applies
// user actions to it.
type Controller struct {
	catalog *models.Catalog
	form    models.Form
	focus   Focus
	notice  string
	strict  bool
	log     *slog.Logger
}

// NewController creates a controller for form. A nil log uses the default
// logger.
func NewController(cat *models.Catalog, form models.Form, log *slog.Logger) *Controller {
	if log == nil {
		log = logger.Get()
	}
	if len(form.Clauses) == 0 {
		form = models.NewForm()
	}
	return &Controller{
		catalog: cat,
		form:    form,
		log:     log.With("component", "filterform"),
	}
}

// SetStrict makes Apply check the form invariants after every action and
// fail when one is broken.
func (c *Controller) SetStrict(strict bool) {
	c.strict = strict
}

// Apply applies one action.
//
// Adding a second row for an exclusive property is reported through Notice
// and leaves the form as it was. Removing a row that is already gone is a
// no-op, so a repeated submission does no harm.
func (c *Controller) Apply(a Action) error {
	c.notice = ""
	c.focus = Focus{}

	switch a.Kind {
	case ActionAddRow:
		f, focus, err := AddRow(c.catalog, c.form, a.Key.Clause, a.Key.Property)
		if errors.Is(err, ErrFilterExists) {
			c.notice = "A filter already exists for that property"
			c.log.Info("rejected duplicate filter", "key", a.Key.String())
			return nil
		}
		if err != nil {
			return fmt.Errorf("add filter %s: %w", a.Key, err)
		}
		c.form, c.focus = f, focus
	case ActionRemoveRow:
		f, err := RemoveRow(c.form, a.Key, a.Row)
		if errors.Is(err, ErrRowNotFound) {
			c.log.Warn("ignoring removal of missing row", "key", a.Key.String(), "row", a.Row)
			return nil
		}
		if err != nil {
			return fmt.Errorf("remove filter %s: %w", a.Key, err)
		}
		c.form = f
	case ActionAddClause:
		c.form = AddClause(c.form)
	case ActionUpdate, ActionNone:
		return nil
	}

	c.log.Debug("applied action", "action", a.Kind.String(), "clauses", len(c.form.Clauses))
	if c.strict {
		if err := Validate(c.catalog, c.form); err != nil {
			return fmt.Errorf("form invariant broken after %s: %w", a.Kind, err)
		}
	}
	return nil
}

// SetValues replaces the values of one row
func (c *Controller) SetValues(key models.Key, row int, values []string) error {
	f, err := SetValues(c.catalog, c.form, key, row, values)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	c.form = f
	return nil
}

// SetMode changes the match mode of a group
func (c *Controller) SetMode(key models.Key, mode string) error {
	f, err := SetMode(c.catalog, c.form, key, mode)
	if err != nil {
		return fmt.Errorf("set %s mode: %w", key, err)
	}
	c.form = f
	return nil
}

// Catalog returns the property catalog of the form
func (c *Controller) Catalog() *models.Catalog {
	return c.catalog
}

// Form returns the current form
func (c *Controller) Form() models.Form {
	return c.form
}

// Focus returns the input to focus after the last action
func (c *Controller) Focus() Focus {
	return c.focus
}

// Notice returns the user-facing message of the last action, if any
func (c *Controller) Notice() string {
	return c.notice
}

// View lays out the current form
func (c *Controller) View() FormView {
	v := Layout(c.catalog, c.form, c.focus)
	v.Notice = c.notice
	return v
}

// QueryString returns the canonical query string of the current form
func (c *Controller) QueryString() string {
	return QueryString(c.catalog, c.form)
}
