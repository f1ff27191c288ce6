package app

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/review"
	"github.com/Skotchmaster/lumina_shop/pkg/events"
)

// seedAggregators loads the reviews and comments shipped with the catalog.
// Product baselines come from the catalog rating; posts have none.
func seedAggregators(store *catalog.Store, seed catalog.Seed) (reviews, comments *review.Aggregator) {
	reviews = review.New(review.KindReview)
	for _, p := range store.AllProducts() {
		reviews.Seed(p.ID, p.Rating, entriesOf(seed.Reviews[p.ID]))
	}
	comments = review.New(review.KindComment)
	for _, p := range store.AllPosts() {
		comments.Seed(p.ID, 0, entriesOf(seed.Comments[p.ID]))
	}
	return reviews, comments
}

func entriesOf(in []catalog.SeedEntry) []review.Entry {
	out := make([]review.Entry, len(in))
	for i, s := range in {
		out[i] = review.Entry{
			ID:        int64(i + 1),
			Author:    s.Author,
			Email:     s.Email,
			Rating:    s.Rating,
			Body:      s.Body,
			CreatedAt: s.Date,
		}
	}
	return out
}

func publishEntry(pub events.Publisher, log *slog.Logger) func(review.Entry) {
	return func(e review.Entry) {
		ev := map[string]any{
			"type":     string(e.Kind) + "_created",
			"entityId": e.EntityID,
			"id":       e.ID,
			"rating":   e.Rating,
			"author":   e.Author,
			"at":       e.CreatedAt,
		}
		if err := pub.PublishEvent(context.Background(), events.TopicReview, string(e.Kind), ev); err != nil {
			log.Error("review_publish_error", "kind", e.Kind, "error", err)
		}
	}
}
