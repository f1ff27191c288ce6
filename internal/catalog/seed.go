package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/lumina_shop/internal/util"
)

//go:embed seed.yaml
var defaultSeed []byte

const seedDateLayout = "2006-01-02"

type seedEntryDoc struct {
	Author string `yaml:"author"`
	Email  string `yaml:"email"`
	Rating int    `yaml:"rating"`
	Date   string `yaml:"date"`
	Body   string `yaml:"body"`
}

type productDoc struct {
	ID          int            `yaml:"id"`
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Price       string         `yaml:"price"`
	Image       string         `yaml:"image"`
	Category    string         `yaml:"category"`
	Description string         `yaml:"description"`
	InStock     bool           `yaml:"in_stock"`
	Rating      float64        `yaml:"rating"`
	ReviewCount int            `yaml:"review_count"`
	Featured    bool           `yaml:"featured"`
	Reviews     []seedEntryDoc `yaml:"reviews"`
}

type postDoc struct {
	ID        int            `yaml:"id"`
	Title     string         `yaml:"title"`
	Slug      string         `yaml:"slug"`
	Excerpt   string         `yaml:"excerpt"`
	Content   string         `yaml:"content"`
	Image     string         `yaml:"image"`
	Category  string         `yaml:"category"`
	Published string         `yaml:"published"`
	ReadTime  string         `yaml:"read_time"`
	Author    string         `yaml:"author"`
	Featured  bool           `yaml:"featured"`
	Comments  []seedEntryDoc `yaml:"comments"`
}

type seedDoc struct {
	Products []productDoc `yaml:"products"`
	Posts    []postDoc    `yaml:"posts"`
}

// Seed is the decoded catalog document: records plus the reviews and
// comments that ship with them, keyed by product or post id.
type Seed struct {
	Products []Product
	Posts    []Post
	Reviews  map[int][]SeedEntry
	Comments map[int][]SeedEntry
}

func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads path, or the embedded document when path is empty.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var doc seedDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}

	s := Seed{
		Reviews:  make(map[int][]SeedEntry),
		Comments: make(map[int][]SeedEntry),
	}

	for _, d := range doc.Products {
		price, err := decimal.NewFromString(d.Price)
		if err != nil {
			return Seed{}, fmt.Errorf("product %d price %q: %w", d.ID, d.Price, ErrValidation)
		}
		p := Product{
			ID:           d.ID,
			Name:         strings.TrimSpace(d.Name),
			Slug:         d.Slug,
			Price:        price,
			Image:        d.Image,
			Category:     d.Category,
			CategorySlug: Slugify(d.Category),
			Description:  d.Description,
			InStock:      d.InStock,
			Rating:       d.Rating,
			ReviewCount:  d.ReviewCount,
			Featured:     d.Featured,
		}
		if p.Slug == "" {
			p.Slug = Slugify(p.Name)
		}
		s.Products = append(s.Products, p)

		entries, err := convertEntries(d.Reviews)
		if err != nil {
			return Seed{}, fmt.Errorf("product %d reviews: %w", d.ID, err)
		}
		if len(entries) > 0 {
			s.Reviews[p.ID] = entries
		}
	}

	for _, d := range doc.Posts {
		published, err := time.Parse(seedDateLayout, d.Published)
		if err != nil {
			return Seed{}, fmt.Errorf("post %d published %q: %w", d.ID, d.Published, ErrValidation)
		}
		p := Post{
			ID:           d.ID,
			Title:        strings.TrimSpace(d.Title),
			Slug:         d.Slug,
			Excerpt:      d.Excerpt,
			Content:      d.Content,
			Image:        d.Image,
			Category:     d.Category,
			CategorySlug: Slugify(d.Category),
			PublishedAt:  published,
			Date:         published.Format(DateLayout),
			ReadTime:     d.ReadTime,
			Author:       d.Author,
			AuthorAvatar: util.Initials(d.Author),
			Featured:     d.Featured,
		}
		if p.Slug == "" {
			p.Slug = Slugify(p.Title)
		}
		s.Posts = append(s.Posts, p)

		entries, err := convertEntries(d.Comments)
		if err != nil {
			return Seed{}, fmt.Errorf("post %d comments: %w", d.ID, err)
		}
		if len(entries) > 0 {
			s.Comments[p.ID] = entries
		}
	}

	return s, nil
}

func convertEntries(docs []seedEntryDoc) ([]SeedEntry, error) {
	out := make([]SeedEntry, 0, len(docs))
	for _, d := range docs {
		at, err := time.Parse(seedDateLayout, d.Date)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", d.Date, ErrValidation)
		}
		out = append(out, SeedEntry{
			Author: d.Author,
			Email:  d.Email,
			Rating: d.Rating,
			Body:   d.Body,
			Date:   at,
		})
	}
	return out, nil
}
