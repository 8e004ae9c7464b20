// Package questionset persists named question sets as JSON files.
package questionset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
)

// Set is a named collection of evaluation questions.
type Set struct {
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Source    string             `json:"source,omitempty"`
	Questions []evalrun.Question `json:"questions"`
}

// Store reads and writes question sets under a data directory.
type Store struct {
	dir string
}

func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "questions")}
}

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// sanitizeName makes a set name safe as a file name.
func sanitizeName(name string) string {
	name = unsafeNameRe.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return "questions"
	}
	return name
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, sanitizeName(name)+".json")
}

func (s *Store) Save(set *Set) error {
	if s == nil {
		return fmt.Errorf("questionset: nil store")
	}
	if set == nil {
		return fmt.Errorf("questionset: nil set")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("questionset: mkdir: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("questionset: marshal: %w", err)
	}
	if err := os.WriteFile(s.path(set.Name), data, 0o644); err != nil {
		return fmt.Errorf("questionset: write: %w", err)
	}
	return nil
}

func (s *Store) Load(name string) (*Set, error) {
	if s == nil {
		return nil, fmt.Errorf("questionset: nil store")
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("questionset: read %q: %w", name, err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("questionset: unmarshal %q: %w", name, err)
	}
	return &set, nil
}

// List returns the names of all stored sets, sorted.
func (s *Store) List() ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("questionset: nil store")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("questionset: list: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// SampleQuestions is a small built-in set for smoke-testing a
// deployment without generating questions first.
func SampleQuestions() []evalrun.Question {
	return []evalrun.Question{
		{
			ID:         "Q1",
			Question:   "Was ist Sarkopenie?",
			Answer:     "Sarkopenie ist der altersbedingte Verlust von Muskelmasse und Muskelkraft.",
			Type:       "definition",
			Difficulty: "easy",
			Status:     "pending",
			Source:     "sample",
		},
		{
			ID:         "Q2",
			Question:   "Welche Faktoren begünstigen die Entstehung von Sarkopenie?",
			Answer:     "Bewegungsmangel, Mangelernährung, hormonelle Veränderungen und chronische Entzündungsprozesse begünstigen die Entstehung von Sarkopenie.",
			Type:       "factual",
			Difficulty: "medium",
			Status:     "pending",
			Source:     "sample",
		},
		{
			ID:         "Q3",
			Question:   "Wie kann Sarkopenie im Alter vorgebeugt werden?",
			Answer:     "Regelmäßiges Krafttraining und eine ausreichende Proteinzufuhr können Sarkopenie im Alter vorbeugen.",
			Type:       "applied",
			Difficulty: "medium",
			Status:     "pending",
			Source:     "sample",
		},
	}
}
