package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindPost    Kind = "post"
)

var ErrBackend = errors.New("search backend")

// Document is the shape stored for both products and posts.
type Document struct {
	Kind     Kind   `json:"kind"`
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

func docID(d Document) string { return string(d.Kind) + "-" + strconv.Itoa(d.ID) }

func ProductDocument(p catalog.Product) Document {
	return Document{Kind: KindProduct, ID: p.ID, Slug: p.Slug, Title: p.Name, Body: p.Description, Category: p.CategorySlug}
}

func PostDocument(p catalog.Post) Document {
	return Document{Kind: KindPost, ID: p.ID, Slug: p.Slug, Title: p.Title, Body: p.Excerpt + "\n" + p.Content, Category: p.CategorySlug}
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
	Log  *slog.Logger
}

func NewIndex(es *elasticsearch.Client, name string, log *slog.Logger) *Index {
	if log == nil {
		log = logging.Discard()
	}
	return &Index{ES: es, Name: name, Log: log}
}

const mapping = `{
  "mappings": {
    "properties": {
      "kind":     {"type": "keyword"},
      "id":       {"type": "integer"},
      "slug":     {"type": "keyword"},
      "title":    {"type": "text"},
      "body":     {"type": "text"},
      "category": {"type": "keyword"}
    }
  }
}`

// Ensure creates the index with its mapping when it does not exist.
func (ix *Index) Ensure(ctx context.Context) error {
	res, err := ix.ES.Indices.Exists([]string{ix.Name}, ix.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: exists: %v", ErrBackend, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ix.ES.Indices.Create(ix.Name,
		ix.ES.Indices.Create.WithContext(ctx),
		ix.ES.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrBackend, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: create index: %s %s", ErrBackend, res.Status(), body)
	}
	ix.Log.Info("search_index_created", "index", ix.Name)
	return nil
}

// IndexCatalog bulk-loads every product and post.
func (ix *Index) IndexCatalog(ctx context.Context, store *catalog.Store) (int, error) {
	var docs []Document
	for _, p := range store.AllProducts() {
		docs = append(docs, ProductDocument(p))
	}
	for _, p := range store.AllPosts() {
		docs = append(docs, PostDocument(p))
	}
	return len(docs), ix.Bulk(ctx, docs)
}

func (ix *Index) Bulk(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		meta := map[string]any{"index": map[string]any{"_index": ix.Name, "_id": docID(d)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}

	res, err := ix.ES.Bulk(&buf,
		ix.ES.Bulk.WithContext(ctx),
		ix.ES.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("%w: bulk: %v", ErrBackend, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: bulk: %s", ErrBackend, res.Status())
	}

	var out struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode bulk: %v", ErrBackend, err)
	}
	if out.Errors {
		return fmt.Errorf("%w: bulk reported item errors", ErrBackend)
	}
	return nil
}

// Search returns ids of the given kind in relevance order. The slice is
// never nil so callers can tell "no hits" from "no search".
func (ix *Index) Search(ctx context.Context, kind Kind, query string, size int) ([]int, error) {
	if size <= 0 {
		size = 100
	}
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "body"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{"term": map[string]any{"kind": string(kind)}},
			},
		},
		"_source": []string{"id"},
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrBackend, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", ErrBackend, res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID int `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrBackend, err)
	}

	ids := make([]int, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}
