package questionset

import (
	"testing"
	"time"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	set := &Set{
		Name:      "thesis-run",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Questions: []evalrun.Question{
			{ID: "Q1", Question: "first?", Answer: "a1"},
			{ID: "Q2", Question: "second?", Answer: "a2"},
			{ID: "Q3", Question: "third?", Answer: "a3"},
		},
	}

	if err := store.Save(set); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load("thesis-run")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != set.Name {
		t.Errorf("name = %q", got.Name)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(got.Questions))
	}
	for i, q := range got.Questions {
		if q.ID != set.Questions[i].ID {
			t.Errorf("question %d = %s, want %s (order must be preserved)", i, q.ID, set.Questions[i].ID)
		}
	}
}

func TestListSorted(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Save(&Set{Name: name}); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListEmptyDir(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("names = %v, want empty", names)
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`a/b\c:d`, "a_b_c_d"},
		{`  spaced  `, "spaced"},
		{`dots...`, "dots"},
		{`???`, "_"},
		{``, "questions"},
		{`plain-name`, "plain-name"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
