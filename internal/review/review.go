// Package review keeps per-entity review and comment collections and the
// rating statistics derived from them.
package review

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/lumina_shop/internal/util"
)

var ErrValidation = errors.New("validation")

const (
	DateLayout = "Jan 2, 2006"
	MinRating  = 1
	MaxRating  = 5
)

type Kind string

const (
	KindReview  Kind = "review"
	KindComment Kind = "comment"
)

type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	EntityID  int       `json:"entityId"`
	Author    string    `json:"author"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `json:"rating,omitempty"`
	Body      string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Date      string    `json:"date"`
	Avatar    string    `json:"avatar"`
}

// Submission is user input. Rating zero means "not given".
type Submission struct {
	Author string
	Email  string
	Body   string
	Rating int
}

type Bucket struct {
	Stars   int     `json:"stars"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Summary struct {
	Average   float64  `json:"average"`
	Total     int      `json:"total"`
	Histogram []Bucket `json:"histogram"`
}

type Aggregator struct {
	kind Kind
	ids  IDSource
	now  func() time.Time

	mu        sync.RWMutex
	entries   map[int][]Entry
	baselines map[int]float64
	observers []func(Entry)
}

type Option func(*Aggregator)

func WithIDSource(ids IDSource) Option {
	return func(a *Aggregator) { a.ids = ids }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(kind Kind, opts ...Option) *Aggregator {
	a := &Aggregator{
		kind:      kind,
		now:       time.Now,
		entries:   make(map[int][]Entry),
		baselines: make(map[int]float64),
	}
	for _, o := range opts {
		o(a)
	}
	if a.ids == nil {
		a.ids = NewTimestampIDs(a.now)
	}
	return a
}

func (a *Aggregator) Kind() Kind { return a.kind }

// Seed installs the baseline rating and the pre-existing entries of an
// entity. Entries are expected newest first.
func (a *Aggregator) Seed(entityID int, baseline float64, entries []Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baselines[entityID] = baseline
	if len(entries) == 0 {
		return
	}
	cp := make([]Entry, len(entries))
	for i, e := range entries {
		e.Kind = a.kind
		e.EntityID = entityID
		if e.Date == "" && !e.CreatedAt.IsZero() {
			e.Date = e.CreatedAt.Format(DateLayout)
		}
		if e.Avatar == "" {
			e.Avatar = util.Initials(e.Author)
		}
		cp[i] = e
	}
	a.entries[entityID] = cp
}

// Subscribe registers fn for every accepted submission.
func (a *Aggregator) Subscribe(fn func(Entry)) {
	a.mu.Lock()
	a.observers = append(a.observers, fn)
	a.mu.Unlock()
}

func (a *Aggregator) ListFor(entityID int) []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := slices.Clone(a.entries[entityID])
	if out == nil {
		out = []Entry{}
	}
	return out
}

func (a *Aggregator) Submit(entityID int, in Submission) (Entry, error) {
	in.Author = strings.TrimSpace(in.Author)
	in.Body = strings.TrimSpace(in.Body)
	in.Email = strings.TrimSpace(in.Email)

	if err := a.validate(in); err != nil {
		return Entry{}, err
	}

	now := a.now()
	e := Entry{
		ID:        a.ids.Next(),
		Kind:      a.kind,
		EntityID:  entityID,
		Author:    in.Author,
		Email:     in.Email,
		Body:      in.Body,
		CreatedAt: now.UTC(),
		Date:      now.Format(DateLayout),
		Avatar:    util.Initials(in.Author),
	}
	if a.kind == KindReview {
		e.Rating = in.Rating
	}

	a.mu.Lock()
	a.entries[entityID] = append([]Entry{e}, a.entries[entityID]...)
	observers := slices.Clone(a.observers)
	a.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
	return e, nil
}

func (a *Aggregator) validate(in Submission) error {
	var problems []string
	if in.Author == "" {
		problems = append(problems, "name is required")
	}
	if in.Body == "" {
		problems = append(problems, "content is required")
	}
	switch a.kind {
	case KindReview:
		if in.Rating < MinRating || in.Rating > MaxRating {
			problems = append(problems, fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
		}
		if in.Email != "" && !validEmail(in.Email) {
			problems = append(problems, "email is invalid")
		}
	case KindComment:
		if in.Email == "" {
			problems = append(problems, "email is required")
		} else if !validEmail(in.Email) {
			problems = append(problems, "email is invalid")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// AverageRating is the mean rating rounded to one decimal, or the entity's
// baseline while it has no rated entries.
func (a *Aggregator) AverageRating(entityID int) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sum, n := 0, 0
	for _, e := range a.entries[entityID] {
		if e.Rating > 0 {
			sum += e.Rating
			n++
		}
	}
	if n == 0 {
		return a.baselines[entityID]
	}
	return ratio1(sum, n)
}

// Histogram returns one bucket per star value, five stars first.
func (a *Aggregator) Histogram(entityID int) []Bucket {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var counts [MaxRating + 1]int
	total := 0
	for _, e := range a.entries[entityID] {
		if e.Rating >= MinRating && e.Rating <= MaxRating {
			counts[e.Rating]++
			total++
		}
	}

	out := make([]Bucket, 0, MaxRating)
	for stars := MaxRating; stars >= MinRating; stars-- {
		b := Bucket{Stars: stars, Count: counts[stars]}
		if total > 0 {
			b.Percent = ratio1(counts[stars]*100, total)
		}
		out = append(out, b)
	}
	return out
}

func (a *Aggregator) Summary(entityID int) Summary {
	h := a.Histogram(entityID)
	total := 0
	for _, b := range h {
		total += b.Count
	}
	return Summary{
		Average:   a.AverageRating(entityID),
		Total:     total,
		Histogram: h,
	}
}

// ratio1 is num/den rounded half away from zero to one decimal. The
// division is done in decimal so halves like 4.25 round up exactly.
func ratio1(num, den int) float64 {
	q := decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den)))
	return q.Round(1).InexactFloat64()
}
