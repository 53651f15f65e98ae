package convert

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/bolt/v3"
)

// Pending is a conversion suspended at the scanned-pages decision. It holds
// every extracted page and is enough to resume without the source PDF.
type Pending struct {
	State            State           `json:"state"`
	ScannedPageCount int             `json:"scanned_page_count"`
	Pages            []ExtractedPage `json:"pages"`
	ImagesExtracted  int             `json:"images_extracted"`
	Warnings         []Warning       `json:"warnings,omitempty"`
}

func (r *run) pending(state State) *Pending {
	return &Pending{
		State:            state,
		ScannedPageCount: r.scannedCount(),
		Pages:            r.pages,
		ImagesExtracted:  r.imagesExtracted,
		Warnings:         r.warnings,
	}
}

// restore copies the pending state into a fresh machine context.
func (p *Pending) restore(logger *bolt.Logger) *run {
	return &run{
		pages:           slices.Clone(p.Pages),
		imagesExtracted: p.ImagesExtracted,
		warnings:        slices.Clone(p.Warnings),
		logger:          logger,
	}
}

// MarshalBinary encodes the pending state as JSON.
func (p *Pending) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPending decodes state written by MarshalBinary.
func UnmarshalPending(data []byte) (*Pending, error) {
	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pending conversion: %w", err)
	}
	if p.State != StateAwaitingChoice {
		return nil, fmt.Errorf("decode pending conversion: %w (state %q)", ErrNotAwaitingChoice, p.State)
	}
	return &p, nil
}
