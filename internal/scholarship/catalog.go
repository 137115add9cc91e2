package scholarship

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Catalog is an ordered collection of scholarships.
type Catalog struct {
	Items []*Scholarship `json:"items"`
}

func NewCatalog(items ...*Scholarship) *Catalog {
	return &Catalog{Items: items}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Catalog) FindByID(id string) *Scholarship {
	if c == nil {
		return nil
	}
	for _, s := range c.Items {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (c *Catalog) IDs() []string {
	ids := make([]string, 0, c.Len())
	if c == nil {
		return ids
	}
	for _, s := range c.Items {
		ids = append(ids, s.ID)
	}
	return ids
}

// Index maps scholarship IDs to records. The first record wins on duplicate IDs.
func (c *Catalog) Index() map[string]*Scholarship {
	idx := make(map[string]*Scholarship, c.Len())
	if c == nil {
		return idx
	}
	for _, s := range c.Items {
		if _, ok := idx[s.ID]; !ok {
			idx[s.ID] = s
		}
	}
	return idx
}

// TotalFunding sums award amounts of every scholarship in the catalog.
func (c *Catalog) TotalFunding() float64 {
	total := 0.0
	if c == nil {
		return total
	}
	for _, s := range c.Items {
		total += s.Amount
	}
	return total
}

// Validate returns the first malformed record.
func (c *Catalog) Validate() error {
	if c == nil {
		return &ValidationError{Record: RecordCatalog, Reason: "catalog is required"}
	}
	for _, s := range c.Items {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Exclude removes scholarships whose IDs are in targets and returns the removed IDs.
// Order of the remaining items is preserved.
func (c *Catalog) Exclude(targets []string) []string {
	if c == nil || len(targets) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		drop[t] = struct{}{}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, s := range c.Items {
		if _, ok := drop[s.ID]; ok {
			excluded = append(excluded, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	c.Items = kept
	return excluded
}

// Filter returns a new catalog with the scholarships keep accepts.
func (c *Catalog) Filter(keep func(*Scholarship) bool) *Catalog {
	out := &Catalog{}
	if c == nil {
		return out
	}
	for _, s := range c.Items {
		if keep(s) {
			out.Items = append(out.Items, s)
		}
	}
	return out
}

// SortedByAmount returns a copy ordered by award amount descending, ties by ID.
func (c *Catalog) SortedByAmount() []*Scholarship {
	items := make([]*Scholarship, 0, c.Len())
	if c != nil {
		items = append(items, c.Items...)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Amount != items[j].Amount {
			return items[i].Amount > items[j].Amount
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// ReportByProvider groups scholarships by provider for a quick console overview.
func (c *Catalog) ReportByProvider() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	if c == nil {
		return report
	}
	for _, s := range c.Items {
		key := s.Provider
		if key == "" {
			key = "unknown provider"
		}
		deadline := ""
		if !s.Deadline.IsZero() {
			deadline = s.Deadline.Format("2006-01-02")
		}
		report[key] = append(report[key], map[string]string{
			"id":       s.ID,
			"name":     s.Name,
			"amount":   fmt.Sprintf("%.0f", s.Amount),
			"deadline": deadline,
			"url":      s.URL,
		})
	}
	return report
}

func (c *Catalog) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "scholarships_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}
