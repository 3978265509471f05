package quiz

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"quizbot/internal/logger"
)

// ErrCategoryNotFound is returned when a requested category is absent from the catalog.
var ErrCategoryNotFound = errors.New("quiz category not found")

const (
	minOptions = 2
	maxOptions = 6
)

// Question is a single multiple-choice question. Immutable once loaded.
type Question struct {
	Text        string   `yaml:"text"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Explanation string   `yaml:"explanation"`
}

// Category groups an ordered list of questions under a unique name.
type Category struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

// Catalog is the read-only collection of quiz categories. It requires no
// locking: it is built once at startup and never mutated afterwards.
type Catalog struct {
	names      []string
	categories map[string]Category
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadFile reads and validates a catalog from a YAML definition.
// A malformed catalog is a startup error; the bot must not serve it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cat, err := New(file.Categories)
	if err != nil {
		return nil, err
	}
	logger.Catalog.Info("catalog loaded",
		slog.String("event", "catalog.load"),
		slog.String("path", path),
		slog.Int("categories", len(cat.names)),
	)
	return cat, nil
}

// New builds a catalog from already-parsed categories, validating every
// category and question.
func New(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}
	cat := &Catalog{
		names:      make([]string, 0, len(categories)),
		categories: make(map[string]Category, len(categories)),
	}
	for _, c := range categories {
		if err := validateCategory(c); err != nil {
			return nil, err
		}
		if _, exists := cat.categories[c.Name]; exists {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		cat.names = append(cat.names, c.Name)
		cat.categories[c.Name] = c
	}
	return cat, nil
}

// ListCategories returns category names in definition order.
func (c *Catalog) ListCategories() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// GetCategory returns the category by name or ErrCategoryNotFound.
func (c *Catalog) GetCategory(name string) (Category, error) {
	cat, ok := c.categories[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}
	return cat, nil
}

func validateCategory(c Category) error {
	if c.Name == "" {
		return fmt.Errorf("category with empty name")
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("category %q has no questions", c.Name)
	}
	for i, q := range c.Questions {
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("category %q, question %d: %w", c.Name, i+1, err)
		}
	}
	return nil
}

func validateQuestion(q Question) error {
	if q.Text == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return fmt.Errorf("got %d options, want %d..%d", len(q.Options), minOptions, maxOptions)
	}
	seen := make(map[string]struct{}, len(q.Options))
	answerFound := false
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("empty option")
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
		if opt == q.Answer {
			answerFound = true
		}
	}
	if !answerFound {
		return fmt.Errorf("answer %q is not among the options", q.Answer)
	}
	return nil
}
