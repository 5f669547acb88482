// Package render defines the output boundary engines write to: a set of named
// regions holding text or item lists.
package render

import "sync"

// Region names an output area.
type Region string

// Regions written by the engines
const (
	RegionTitle    Region = "title"
	RegionQuestion Region = "question"
	RegionOptions  Region = "options"
	RegionFeedback Region = "feedback"
	RegionProgress Region = "progress"
	RegionSummary  Region = "summary"
	RegionExercise Region = "exercise"
	RegionDetail   Region = "detail"
	RegionTimer    Region = "timer"
	RegionPhase    Region = "phase"
	RegionPair     Region = "pair"
	RegionStatus   Region = "status"
)

// Target receives engine output. Implementations must be safe for use from
// deferred callbacks.
type Target interface {
	SetText(region Region, text string)
	SetItems(region Region, items []string)
	Clear(region Region)
}

// View is the content of one region.
type View struct {
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Board is an in-memory Target.
type Board struct {
	mu      sync.RWMutex
	regions map[Region]View
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{regions: make(map[Region]View)}
}

// SetText replaces the region's content with text.
func (b *Board) SetText(region Region, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regions[region] = View{Text: text}
}

// SetItems replaces the region's content with a copy of items.
func (b *Board) SetItems(region Region, items []string) {
	cp := make([]string, len(items))
	copy(cp, items)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.regions[region] = View{Items: cp}
}

// Clear empties the region.
func (b *Board) Clear(region Region) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.regions, region)
}

// Reset empties every region.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regions = make(map[Region]View)
}

// Text returns the text of a region.
func (b *Board) Text(region Region) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.regions[region].Text
}

// Items returns a copy of the items of a region.
func (b *Board) Items(region Region) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := b.regions[region].Items
	if items == nil {
		return nil
	}
	cp := make([]string, len(items))
	copy(cp, items)
	return cp
}

// Snapshot returns a copy of every non-empty region.
func (b *Board) Snapshot() map[Region]View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[Region]View, len(b.regions))
	for r, v := range b.regions {
		cp := View{Text: v.Text}
		if v.Items != nil {
			cp.Items = append([]string(nil), v.Items...)
		}
		out[r] = cp
	}
	return out
}

// Discard is a Target that drops all output.
type Discard struct{}

// SetText implements Target.
func (Discard) SetText(Region, string) {}

// SetItems implements Target.
func (Discard) SetItems(Region, []string) {}

// Clear implements Target.
func (Discard) Clear(Region) {}
