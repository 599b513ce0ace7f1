package importer

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mode is the kind of import run.
type Mode string

const (
	// ModeUpsert adds new products and updates existing ones by SKU.
	ModeUpsert Mode = "upsert"
	// ModeReset empties the products table and imports from scratch.
	ModeReset Mode = "reset"
)

// Stats are the counters of one category.
type Stats struct {
	Folders     int `json:"folders"`
	Added       int `json:"added"`
	Updated     int `json:"updated"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
	PhotosAdded int `json:"photos_added"`
	Documents   int `json:"documents"`
}

func (s *Stats) add(o Stats) {
	s.Folders += o.Folders
	s.Added += o.Added
	s.Updated += o.Updated
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.PhotosAdded += o.PhotosAdded
	s.Documents += o.Documents
}

// Report is the result of one run. Categories keep the order they were
// first touched in.
type Report struct {
	Mode       Mode
	Deleted    int64
	StartedAt  time.Time
	FinishedAt time.Time

	order []string
	stats map[string]*Stats
}

func NewReport(mode Mode) *Report {
	return &Report{
		Mode:      mode,
		StartedAt: time.Now(),
		stats:     make(map[string]*Stats),
	}
}

// Category returns the counters of the named category, adding them on
// first use.
func (r *Report) Category(name string) *Stats {
	if s, ok := r.stats[name]; ok {
		return s
	}
	s := &Stats{}
	r.stats[name] = s
	r.order = append(r.order, name)
	return s
}

// Categories lists the category names in report order.
func (r *Report) Categories() []string {
	return append([]string(nil), r.order...)
}

func (r *Report) Totals() Stats {
	var total Stats
	for _, name := range r.order {
		total.add(*r.stats[name])
	}
	return total
}

func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
}

// Clone returns a deep copy.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.order = r.Categories()
	c.stats = make(map[string]*Stats, len(r.stats))
	for name, s := range r.stats {
		copied := *s
		c.stats[name] = &copied
	}
	return &c
}

// Summary renders the end-of-run block, one line per entry.
func (r *Report) Summary() []string {
	lines := []string{"📊 ПІДСУМОК ІМПОРТУ"}
	if r.Mode == ModeReset {
		lines = append(lines, fmt.Sprintf("🗑 Видалено старих записів: %d", r.Deleted))
	}
	for _, name := range r.order {
		s := r.stats[name]
		lines = append(lines, fmt.Sprintf("📁 %s: папок %d, додано %d, оновлено %d, пропущено %d, помилок %d, фото %d, документів %d",
			name, s.Folders, s.Added, s.Updated, s.Skipped, s.Failed, s.PhotosAdded, s.Documents))
	}
	t := r.Totals()
	lines = append(lines, fmt.Sprintf("✅ Всього: додано %d, оновлено %d, пропущено %d, помилок %d, фото %d",
		t.Added, t.Updated, t.Skipped, t.Failed, t.PhotosAdded))
	return lines
}

type reportJSON struct {
	Mode       Mode              `json:"mode"`
	Deleted    int64             `json:"deleted"`
	Categories map[string]*Stats `json:"categories"`
	Totals     Stats             `json:"totals"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Mode:       r.Mode,
		Deleted:    r.Deleted,
		Categories: r.stats,
		Totals:     r.Totals(),
		StartedAt:  r.StartedAt,
	}
	if out.Categories == nil {
		out.Categories = map[string]*Stats{}
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		out.FinishedAt = &finished
	}
	return json.Marshal(out)
}

// Progress receives human-readable progress from a run.
type Progress interface {
	// Step replaces the current phase message.
	Step(msg string)
	// Detail appends a per-item line.
	Detail(line string)
}

type discard struct{}

func (discard) Step(string)   {}
func (discard) Detail(string) {}

// Discard is a Progress that drops everything.
var Discard Progress = discard{}

// Tee fans progress out to several receivers.
func Tee(ps ...Progress) Progress {
	return tee(ps)
}

type tee []Progress

func (t tee) Step(msg string) {
	for _, p := range t {
		p.Step(msg)
	}
}

func (t tee) Detail(line string) {
	for _, p := range t {
		p.Detail(line)
	}
}
