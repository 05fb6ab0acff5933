package stubserver

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Review is the feedback a reviewer left for one student.
type Review struct {
	Name     string `yaml:"name"`
	Time     string `yaml:"time"`
	FourChar string `yaml:"four_char"`
	Feedback string `yaml:"feedback"`
}

// Submission is a piece of work received through /exec?action=submit.
type Submission struct {
	ID         string
	Name       string
	Content    string
	ReceivedAt time.Time
}

// seedFile is the on-disk layout accepted by LoadSeedFile.
type seedFile struct {
	Reviews []Review `yaml:"reviews"`
}

// Store keeps reviews and submissions in memory. Names are matched after
// trimming and NFC normalization.
type Store struct {
	mu          sync.RWMutex
	reviews     map[string]Review
	submissions []Submission
}

// NewStore returns a store preloaded with reviews.
func NewStore(reviews ...Review) *Store {
	s := &Store{reviews: map[string]Review{}}
	s.Seed(reviews...)
	return s
}

// Seed adds or replaces reviews. Reviews without a name are skipped.
func (s *Store) Seed(reviews ...Review) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, r := range reviews {
		key := nameKey(r.Name)
		if key == "" {
			continue
		}
		r.Name = key
		s.reviews[key] = r
		added++
	}
	return added
}

// Review looks up the review for name.
func (s *Store) Review(name string) (Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[nameKey(name)]
	return r, ok
}

// Submit records a submission and returns it with its assigned id.
func (s *Store) Submit(name, content string, at time.Time) Submission {
	sub := Submission{
		ID:         uuid.NewString(),
		Name:       nameKey(name),
		Content:    content,
		ReceivedAt: at,
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()
	return sub
}

// Submissions returns a copy of everything received so far, oldest first.
func (s *Store) Submissions() []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Submission(nil), s.submissions...)
}

// LoadSeedFile reads a YAML file of the form
//
//	reviews:
//	  - name: 測試
//	    time: 2024/9/1 08:00:00
//	    four_char: 別出心裁
//	    feedback: ...
func LoadSeedFile(path string) ([]Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stubserver: read seed: %w", err)
	}
	var parsed seedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("stubserver: parse seed %s: %w", path, err)
	}
	if len(parsed.Reviews) == 0 {
		return nil, errors.New("stubserver: seed file has no reviews")
	}
	return parsed.Reviews, nil
}

func nameKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
