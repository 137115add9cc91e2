package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spigell/scholarpath/internal/scholarship"
)

// Exclusions is the on-disk list format shared by the exclude file and the
// applied file.
type Exclusions struct {
	Items []*Exclusion `json:"items"`
}

type Exclusion struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	URL        string    `json:"url,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ExcludedAt time.Time `json:"excludedAt"`
}

// ExclusionsFrom builds entries for the given scholarships.
func ExclusionsFrom(items []*scholarship.Scholarship, reason string, at time.Time) *Exclusions {
	excluded := &Exclusions{}
	for _, s := range items {
		excluded.Items = append(excluded.Items, &Exclusion{
			ID:         s.ID,
			Name:       s.Name,
			URL:        s.URL,
			Provider:   s.Provider,
			Reason:     reason,
			ExcludedAt: at.UTC(),
		})
	}
	return excluded
}

// ReadExclusions reads a list file. A missing or empty file is an empty list.
func ReadExclusions(path string) (*Exclusions, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Exclusions{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &Exclusions{}, nil
	}

	var excluded Exclusions
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose IDs are not listed yet and returns how many were added.
func (e *Exclusions) Append(more *Exclusions) int {
	if more == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	added := 0
	for _, item := range more.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
		added++
	}
	return added
}

func (e *Exclusions) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *Exclusions) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
