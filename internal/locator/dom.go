// File: internal/locator/dom.go
package locator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DOM locates a target by probing an ordered list of selector candidates
// against the live document, returning the first that resolves to a visible
// element.
type DOM struct {
	candidates   []Candidate
	pager        Pager
	probeTimeout time.Duration
	logger       *zap.Logger
}

// NewDOM builds a DOM cascade locator. Candidates are copied and sorted by
// ascending rank; the caller's slice is not modified. An empty cascade is a
// configuration error.
func NewDOM(pager Pager, candidates []Candidate, probeTimeout time.Duration, logger *zap.Logger) (*DOM, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	return &DOM{
		candidates:   ordered,
		pager:        pager,
		probeTimeout: probeTimeout,
		logger:       logger.Named("dom"),
	}, nil
}

// Locate walks the cascade strictly in rank order. A probe failure for an
// individual candidate (malformed pattern, transient query error) counts as
// "this candidate did not match" and never aborts the cascade. Exhausting
// the list is a legitimate NotFound, not an error.
func (d *DOM) Locate(ctx context.Context) (Resolution, error) {
	for _, c := range d.candidates {
		if err := ctx.Err(); err != nil {
			return NotFound(), err
		}

		visible, err := d.pager.QueryVisible(ctx, c.Pattern, d.probeTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return NotFound(), ctx.Err()
			}
			d.logger.Debug("Probe failed; treating candidate as a miss",
				zap.String("pattern", c.Pattern),
				zap.Int("rank", c.Rank),
				zap.Error(err),
			)
			continue
		}
		if !visible {
			continue
		}

		d.logger.Debug("Candidate matched",
			zap.String("pattern", c.Pattern),
			zap.Int("rank", c.Rank),
		)
		return Resolution{
			Found:    true,
			Strategy: StrategyDOM,
			Pattern:  c.Pattern,
			Rank:     c.Rank,
		}, nil
	}
	return NotFound(), nil
}
