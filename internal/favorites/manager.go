package favorites

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/ticketq/internal/export"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/models"
)

var (
	// ErrNotFound is returned when no favorite matches an ID or name
	ErrNotFound = errors.New("favorite not found")
	// ErrNoFilters is returned for a query that would match every ticket
	ErrNoFilters = errors.New("query has no filters")
)

// Order selects how List sorts favorites
type Order string

const (
	OrderName   Order = "name"
	OrderUsage  Order = "usage"
	OrderRecent Order = "recent"
)

// ParseOrder parses a list order name
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(s)); o {
	case OrderName, OrderUsage, OrderRecent:
		return o, nil
	case "":
		return OrderName, nil
	}
	return "", fmt.Errorf("unknown order %q (want name, usage or recent)", s)
}

// Manager keeps named filter queries in a yaml file. Queries are stored as
// the canonical query string of their form under the manager's catalog, so
// two favorites for the same filters store the same text.
type Manager struct {
	mu        sync.Mutex
	path      string
	catalog   *models.Catalog
	favorites []models.Favorite
	now       func() time.Time
}

// NewManager opens the favorites file in dir, if there is one
func NewManager(dir string, cat *models.Catalog) (*Manager, error) {
	m := &Manager{
		path:    filepath.Join(dir, "favorites.yaml"),
		catalog: cat,
		now:     time.Now,
	}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read favorites file: %w", err)
	}
	if err := yaml.Unmarshal(data, &m.favorites); err != nil {
		return nil, fmt.Errorf("failed to parse favorites: %w", err)
	}
	return m, nil
}

// save writes the file atomically; readers never see a partial file
func (m *Manager) save() error {
	data, err := yaml.Marshal(m.favorites)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}
	if err := atomic.WriteFile(m.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	return nil
}

// Canonicalize parses a query string, or a URL carrying one, and returns
// its canonical form. Queries without any filter are rejected.
func (m *Manager) Canonicalize(query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canonicalize(query)
}

func (m *Manager) canonicalize(query string) (string, error) {
	form, err := m.parse(query)
	if err != nil {
		return "", err
	}
	if len(properties(form)) == 0 {
		return "", ErrNoFilters
	}
	return filterform.QueryString(m.catalog, form), nil
}

func (m *Manager) parse(query string) (models.Form, error) {
	query = strings.TrimSpace(query)
	if i := strings.IndexByte(query, '?'); i >= 0 {
		query = query[i+1:]
	}
	v, err := url.ParseQuery(query)
	if err != nil {
		return models.Form{}, fmt.Errorf("invalid query string: %w", err)
	}
	return filterform.ParseValues(m.catalog, v)
}

// properties lists the filtered properties of a form, in first-use order
func properties(f models.Form) []string {
	var names []string
	for _, c := range f.Clauses {
		for _, g := range c.Groups {
			if !slices.Contains(names, g.Property) {
				names = append(names, g.Property)
			}
		}
	}
	return names
}

func (m *Manager) checkName(id, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("favorite name cannot be empty")
	}
	for _, fav := range m.favorites {
		if fav.ID != id && strings.EqualFold(fav.Name, name) {
			return "", fmt.Errorf("a favorite named %q already exists (names are case-insensitive)", name)
		}
	}
	return name, nil
}

// Add saves a new favorite
func (m *Manager) Add(name, description, query string, tags []string) (*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, err := m.checkName("", name)
	if err != nil {
		return nil, err
	}
	query, err = m.canonicalize(query)
	if err != nil {
		return nil, fmt.Errorf("favorite %q: %w", name, err)
	}

	now := m.now()
	fav := models.Favorite{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Query:       query,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.favorites = append(m.favorites, fav)
	if err := m.save(); err != nil {
		m.favorites = m.favorites[:len(m.favorites)-1]
		return nil, err
	}
	return &fav, nil
}

// Update replaces the fields of an existing favorite. Its usage statistics
// are kept.
func (m *Manager) Update(id, name, description, query string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	name, err := m.checkName(id, name)
	if err != nil {
		return err
	}
	query, err = m.canonicalize(query)
	if err != nil {
		return fmt.Errorf("favorite %q: %w", name, err)
	}

	prev := m.favorites[i]
	fav := &m.favorites[i]
	fav.Name = name
	fav.Description = strings.TrimSpace(description)
	fav.Query = query
	fav.Tags = tags
	fav.UpdatedAt = m.now()
	if err := m.save(); err != nil {
		m.favorites[i] = prev
		return err
	}
	return nil
}

// Delete removes a favorite by ID
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	m.favorites = slices.Delete(m.favorites, i, i+1)
	return m.save()
}

// RecordUsage counts a run of a favorite
func (m *Manager) RecordUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	m.favorites[i].UsageCount++
	m.favorites[i].LastUsed = m.now()
	return m.save()
}

func (m *Manager) index(id string) int {
	return slices.IndexFunc(m.favorites, func(f models.Favorite) bool { return f.ID == id })
}

// Find returns the favorite with the given ID or (case-insensitive) name
func (m *Manager) Find(ref string) (*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, fav := range m.favorites {
		if fav.ID == ref || strings.EqualFold(fav.Name, ref) {
			return &fav, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// GetAll returns every favorite, most used first
func (m *Manager) GetAll() []models.Favorite {
	return m.List(OrderUsage, 0)
}

// List returns up to limit favorites (all when limit <= 0) in the given
// order. Ties keep file order.
func (m *Manager) List(order Order, limit int) []models.Favorite {
	m.mu.Lock()
	out := slices.Clone(m.favorites)
	m.mu.Unlock()

	switch order {
	case OrderUsage:
		slices.SortStableFunc(out, func(a, b models.Favorite) int {
			return cmp.Compare(b.UsageCount, a.UsageCount)
		})
	case OrderRecent:
		slices.SortStableFunc(out, func(a, b models.Favorite) int {
			return b.LastUsed.Compare(a.LastUsed)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.Favorite) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Search returns the favorites whose name, description or tags contain
// text, or that filter on a property whose name or label contains it.
func (m *Manager) Search(text string) []models.Favorite {
	all := m.List(OrderName, 0)
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return all
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Favorite
	for _, fav := range all {
		if m.matches(fav, text) {
			out = append(out, fav)
		}
	}
	return out
}

func (m *Manager) matches(fav models.Favorite, text string) bool {
	fields := append([]string{fav.Name, fav.Description}, fav.Tags...)
	if form, err := m.parse(fav.Query); err == nil {
		for _, name := range properties(form) {
			fields = append(fields, name)
			if p, ok := m.catalog.Lookup(name); ok {
				fields = append(fields, p.Label)
			}
		}
	}
	return slices.ContainsFunc(fields, func(s string) bool {
		return strings.Contains(strings.ToLower(s), text)
	})
}

// Export writes all favorites as CSV or JSON. An empty path writes next to
// the favorites file. It returns the path written.
func (m *Manager) Export(format export.Format, path string) (string, error) {
	favs := m.List(OrderName, 0)
	if len(favs) == 0 {
		return "", fmt.Errorf("no favorites to export")
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(m.path), "favorites."+string(format))
	}

	var err error
	switch format {
	case export.FormatCSV:
		err = export.ExportToCSV(favs, path)
	case export.FormatJSON:
		err = export.ExportToJSON(favs, path)
	default:
		return "", fmt.Errorf("cannot export favorites as %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export favorites: %w", err)
	}
	return path, nil
}
