package quiz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validCategory(name string) Category {
	return Category{
		Name: name,
		Questions: []Question{
			{
				Text:        "Сколько игроков на площадке?",
				Options:     []string{"4", "6"},
				Answer:      "6",
				Explanation: "В классическом формате играют по 6 человек.",
			},
		},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		wantErr    bool
	}{
		{
			name:       "valid",
			categories: []Category{validCategory("Правила")},
		},
		{
			name:    "empty catalog",
			wantErr: true,
		},
		{
			name: "category without questions",
			categories: []Category{
				{Name: "Пустая"},
			},
			wantErr: true,
		},
		{
			name: "duplicate category",
			categories: []Category{
				validCategory("Правила"),
				validCategory("Правила"),
			},
			wantErr: true,
		},
		{
			name: "answer not among options",
			categories: []Category{
				{
					Name: "Правила",
					Questions: []Question{
						{Text: "q", Options: []string{"a", "b"}, Answer: "c"},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "duplicate option",
			categories: []Category{
				{
					Name: "Правила",
					Questions: []Question{
						{Text: "q", Options: []string{"a", "a"}, Answer: "a"},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "single option",
			categories: []Category{
				{
					Name: "Правила",
					Questions: []Question{
						{Text: "q", Options: []string{"a"}, Answer: "a"},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "too many options",
			categories: []Category{
				{
					Name: "Правила",
					Questions: []Question{
						{Text: "q", Options: []string{"a", "b", "c", "d", "e", "f", "g"}, Answer: "a"},
					},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.categories)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestListCategoriesKeepsOrder(t *testing.T) {
	cat, err := New([]Category{
		validCategory("Правила волейбола"),
		validCategory("История волейбола"),
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	got := cat.ListCategories()
	want := []string{"Правила волейбола", "История волейбола"}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	cat, err := New([]Category{validCategory("Правила")})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	if _, err := cat.GetCategory("nonexistent"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if _, err := cat.GetCategory("Правила"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `categories:
  - name: "Правила"
    questions:
      - text: "Сколько касаний разрешено?"
        options: ["2", "3"]
        answer: "3"
        explanation: "Максимум три касания."
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	c, err := cat.GetCategory("Правила")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if len(c.Questions) != 1 || c.Questions[0].Answer != "3" {
		t.Fatalf("unexpected category content: %+v", c)
	}
}

func TestLoadFileRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `categories:
  - name: "Правила"
    questions:
      - text: "q"
        options: ["a", "b"]
        answer: "c"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error for answer outside options")
	}
}
