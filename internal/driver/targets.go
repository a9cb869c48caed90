// File: internal/driver/targets.go
package driver

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/pinpoint-cli/internal/locator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Target describes one element to locate and click on one page. Exactly one
// strategy applies per target: a stored reference image (visual) or an
// ordered selector cascade (DOM).
type Target struct {
	URL string `json:"url"`

	// ReferenceImage selects the visual strategy.
	ReferenceImage string `json:"reference_image,omitempty"`
	// Threshold overrides the configured minimum match confidence. Zero
	// means "use configured default".
	Threshold float64 `json:"threshold,omitempty"`

	// Selectors selects the DOM strategy. Order is priority: the most stable
	// selector first, broad text fallbacks last.
	Selectors []string `json:"selectors,omitempty"`
}

// Candidates converts the ordered selector list into ranked candidates.
func (t Target) Candidates() []locator.Candidate {
	out := make([]locator.Candidate, 0, len(t.Selectors))
	for i, s := range t.Selectors {
		out = append(out, locator.Candidate{Pattern: s, Rank: i})
	}
	return out
}

// Validate rejects targets that cannot be processed. These are configuration
// errors: surfaced immediately, never retried.
func (t Target) Validate() error {
	if t.URL == "" {
		return fmt.Errorf("driver: target has no URL")
	}
	hasVisual := t.ReferenceImage != ""
	hasDOM := len(t.Selectors) > 0
	switch {
	case hasVisual && hasDOM:
		return fmt.Errorf("driver: target %s mixes visual and DOM strategies; pick one", t.URL)
	case !hasVisual && !hasDOM:
		return fmt.Errorf("driver: target %s has neither a reference image nor selectors", t.URL)
	}
	if t.Threshold < 0 || t.Threshold > 1 {
		return fmt.Errorf("driver: target %s threshold must be in [0,1], got %v", t.URL, t.Threshold)
	}
	return nil
}

// LoadTargets reads an ordered target list from a JSON file. The list is an
// explicit sequence handed to the run loop; nothing is kept in process-wide
// state.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: failed to read targets file %q: %w", path, err)
	}

	var targets []Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("driver: failed to parse targets file %q: %w", path, err)
	}
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return targets, nil
}
