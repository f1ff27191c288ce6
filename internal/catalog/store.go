package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	DefaultFeaturedProducts = 8
	DefaultFeaturedPosts    = 6
	DefaultRelated          = 3
)

type ProductFilter struct {
	CategorySlug string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStockOnly  bool
	Ordering     string
	// IDs restricts the result to these products. With no Ordering the
	// result follows the order of IDs (search relevance).
	IDs []int
}

type PostFilter struct {
	CategorySlug string
	Search       string
	Ordering     string
	IDs          []int
}

// Store is the read-only catalog. Only post view counters change after
// construction.
type Store struct {
	products      []Product
	productByID   map[int]int
	productBySlug map[string]int

	posts      []Post
	postBySlug map[string]int

	mu    sync.Mutex
	views map[int]int64
}

func NewStore(products []Product, posts []Post) (*Store, error) {
	s := &Store{
		products:      slices.Clone(products),
		productByID:   make(map[int]int, len(products)),
		productBySlug: make(map[string]int, len(products)),
		posts:         slices.Clone(posts),
		postBySlug:    make(map[string]int, len(posts)),
		views:         make(map[int]int64, len(posts)),
	}

	for i, p := range s.products {
		if p.Name == "" || p.Slug == "" {
			return nil, fmt.Errorf("product %d needs a name and slug: %w", p.ID, ErrValidation)
		}
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("product %d price must be positive: %w", p.ID, ErrValidation)
		}
		if p.Rating < 0 || p.Rating > 5 {
			return nil, fmt.Errorf("product %d rating out of range: %w", p.ID, ErrValidation)
		}
		if _, dup := s.productByID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d: %w", p.ID, ErrValidation)
		}
		if _, dup := s.productBySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate product slug %q: %w", p.Slug, ErrValidation)
		}
		s.productByID[p.ID] = i
		s.productBySlug[p.Slug] = i
	}

	ids := make(map[int]struct{}, len(posts))
	for i, p := range s.posts {
		if p.Title == "" || p.Slug == "" {
			return nil, fmt.Errorf("post %d needs a title and slug: %w", p.ID, ErrValidation)
		}
		if _, dup := ids[p.ID]; dup {
			return nil, fmt.Errorf("duplicate post id %d: %w", p.ID, ErrValidation)
		}
		if _, dup := s.postBySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate post slug %q: %w", p.Slug, ErrValidation)
		}
		ids[p.ID] = struct{}{}
		s.postBySlug[p.Slug] = i
	}

	return s, nil
}

func NewStoreFromSeed(seed Seed) (*Store, error) {
	return NewStore(seed.Products, seed.Posts)
}

func (s *Store) Product(id int) (Product, error) {
	i, ok := s.productByID[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return s.products[i], nil
}

func (s *Store) ProductBySlug(slug string) (Product, error) {
	i, ok := s.productBySlug[slug]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	return s.products[i], nil
}

func (s *Store) AllProducts() []Product {
	return slices.Clone(s.products)
}

func (s *Store) Products(f ProductFilter) ([]Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("min_price above max_price: %w", ErrValidation)
	}

	rank := rankOf(f.IDs)
	q := strings.ToLower(strings.TrimSpace(f.Search))

	var out []Product
	for _, p := range s.products {
		if !matchCategory(f.CategorySlug, p.CategorySlug) {
			continue
		}
		if rank != nil {
			if _, ok := rank[p.ID]; !ok {
				continue
			}
		} else if q != "" && !containsFold(q, p.Name, p.Description) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.InStockOnly && !p.InStock {
			continue
		}
		out = append(out, p)
	}

	if f.Ordering == "" && rank != nil {
		sort.SliceStable(out, func(i, j int) bool { return rank[out[i].ID] < rank[out[j].ID] })
		return out, nil
	}
	sortProducts(out, f.Ordering)
	return out, nil
}

func (s *Store) FeaturedProducts(limit int) []Product {
	if limit <= 0 {
		limit = DefaultFeaturedProducts
	}
	var out []Product
	for _, p := range s.products {
		if p.Featured {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (s *Store) RelatedProducts(p Product, limit int) []Product {
	if limit <= 0 {
		limit = DefaultRelated
	}
	var out []Product
	for _, o := range s.products {
		if o.ID == p.ID || o.Category != p.Category {
			continue
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) Categories() []Category {
	return categoriesOf(len(s.products), func(i int) (string, string) {
		return s.products[i].Category, s.products[i].CategorySlug
	})
}

func (s *Store) PostBySlug(slug string) (Post, error) {
	i, ok := s.postBySlug[slug]
	if !ok {
		return Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}
	return s.posts[i], nil
}

func (s *Store) AllPosts() []Post {
	return slices.Clone(s.posts)
}

func (s *Store) Posts(f PostFilter) []Post {
	rank := rankOf(f.IDs)
	q := strings.ToLower(strings.TrimSpace(f.Search))

	var out []Post
	for _, p := range s.posts {
		if !matchCategory(f.CategorySlug, p.CategorySlug) {
			continue
		}
		if rank != nil {
			if _, ok := rank[p.ID]; !ok {
				continue
			}
		} else if q != "" && !containsFold(q, p.Title, p.Excerpt) {
			continue
		}
		out = append(out, p)
	}

	if f.Ordering == "" && rank != nil {
		sort.SliceStable(out, func(i, j int) bool { return rank[out[i].ID] < rank[out[j].ID] })
		return out
	}
	s.sortPosts(out, f.Ordering)
	return out
}

func (s *Store) FeaturedPosts(limit int) []Post {
	if limit <= 0 {
		limit = DefaultFeaturedPosts
	}
	var out []Post
	for _, p := range s.posts {
		if p.Featured {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (s *Store) RelatedPosts(p Post, limit int) []Post {
	if limit <= 0 {
		limit = DefaultRelated
	}
	var out []Post
	for _, o := range s.posts {
		if o.ID == p.ID || o.Category != p.Category {
			continue
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) BlogCategories() []Category {
	return categoriesOf(len(s.posts), func(i int) (string, string) {
		return s.posts[i].Category, s.posts[i].CategorySlug
	})
}

// RecordView bumps the view counter of a post and returns the new value.
func (s *Store) RecordView(slug string) (int64, error) {
	p, err := s.PostBySlug(slug)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[p.ID]++
	return s.views[p.ID], nil
}

func (s *Store) Views(postID int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[postID]
}

func matchCategory(want, got string) bool {
	return want == "" || strings.EqualFold(want, "all") || want == got
}

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func rankOf(ids []int) map[int]int {
	if ids == nil {
		return nil
	}
	m := make(map[int]int, len(ids))
	for i, id := range ids {
		if _, seen := m[id]; !seen {
			m[id] = i
		}
	}
	return m
}

func categoriesOf(n int, at func(int) (string, string)) []Category {
	var out []Category
	idx := make(map[string]int)
	for i := 0; i < n; i++ {
		name, slug := at(i)
		if j, ok := idx[slug]; ok {
			out[j].Count++
			continue
		}
		idx[slug] = len(out)
		out = append(out, Category{Name: name, Slug: slug, Count: 1})
	}
	return out
}

// Orderings applied when a listing asks for none or for an unknown key.
const (
	DefaultProductOrdering = "-created"
	DefaultPostOrdering    = "-created"
)

// sortProducts orders ps by key, a field name with an optional "-" for
// descending. Seed ids follow creation order, so they stand in for it.
func sortProducts(ps []Product, ordering string) {
	less := productOrder(ordering)
	if less == nil {
		ordering = DefaultProductOrdering
		less = productOrder(ordering)
	}
	sortBy(ps, strings.HasPrefix(ordering, "-"), less)
}

func productOrder(ordering string) func(a, b Product) bool {
	switch strings.TrimPrefix(ordering, "-") {
	case "price":
		return func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case "name":
		return func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "rating", "average_rating":
		return func(a, b Product) bool { return a.Rating < b.Rating }
	case "created", "created_at", "id":
		return func(a, b Product) bool { return a.ID < b.ID }
	}
	return nil
}

func (s *Store) sortPosts(ps []Post, ordering string) {
	less := s.postOrder(ordering)
	if less == nil {
		ordering = DefaultPostOrdering
		less = s.postOrder(ordering)
	}
	sortBy(ps, strings.HasPrefix(ordering, "-"), less)
}

func (s *Store) postOrder(ordering string) func(a, b Post) bool {
	switch strings.TrimPrefix(ordering, "-") {
	case "created", "created_at", "published_at", "date":
		return func(a, b Post) bool {
			if a.PublishedAt.Equal(b.PublishedAt) {
				return a.ID < b.ID
			}
			return a.PublishedAt.Before(b.PublishedAt)
		}
	case "title":
		return func(a, b Post) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "views":
		s.mu.Lock()
		views := make(map[int]int64, len(s.views))
		for k, v := range s.views {
			views[k] = v
		}
		s.mu.Unlock()
		return func(a, b Post) bool { return views[a.ID] < views[b.ID] }
	}
	return nil
}

func sortBy[T any](xs []T, desc bool, less func(a, b T) bool) {
	sort.SliceStable(xs, func(i, j int) bool {
		if desc {
			return less(xs[j], xs[i])
		}
		return less(xs[i], xs[j])
	})
}
