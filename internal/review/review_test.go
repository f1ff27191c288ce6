package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2024, time.February, 3, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func TestListForUnknownEntityIsEmpty(t *testing.T) {
	a := New(KindReview)
	got := a.ListFor(42)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSubmitPrependsNewestFirst(t *testing.T) {
	a := New(KindReview, WithClock(clock))
	a.Seed(1, 4.8, []Entry{{ID: 1, Author: "Jessica M.", Rating: 5, Body: "Beautiful"}})

	e, err := a.Submit(1, Submission{Author: "  Nora Quinn ", Body: "Lovely vase", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "Nora Quinn", e.Author)
	assert.Equal(t, "NQ", e.Avatar)
	assert.Equal(t, "Feb 3, 2024", e.Date)
	assert.Equal(t, fixed.UnixMilli(), e.ID)

	list := a.ListFor(1)
	require.Len(t, list, 2)
	assert.Equal(t, e.ID, list[0].ID)
	assert.Equal(t, "JM", list[1].Avatar)
}

func TestSubmitValidationLeavesStateAlone(t *testing.T) {
	a := New(KindReview)

	cases := []Submission{
		{Author: "", Body: "text", Rating: 5},
		{Author: "Ann", Body: "   ", Rating: 5},
		{Author: "Ann", Body: "text", Rating: 0},
		{Author: "Ann", Body: "text", Rating: 6},
		{Author: "Ann", Body: "text", Rating: 5, Email: "not-an-email"},
	}
	for _, in := range cases {
		_, err := a.Submit(7, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}
	assert.Empty(t, a.ListFor(7))
}

func TestCommentsNeedEmailAndIgnoreRating(t *testing.T) {
	a := New(KindComment)

	_, err := a.Submit(1, Submission{Author: "Ann", Body: "Nice"})
	assert.ErrorContains(t, err, "email is required")

	e, err := a.Submit(1, Submission{Author: "Ann", Email: "ann@example.com", Body: "Nice", Rating: 3})
	require.NoError(t, err)
	assert.Zero(t, e.Rating)
	assert.Equal(t, KindComment, e.Kind)
}

func TestAverageRating(t *testing.T) {
	a := New(KindReview)
	a.Seed(1, 4.8, nil)

	assert.Equal(t, 4.8, a.AverageRating(1))
	assert.Equal(t, 0.0, a.AverageRating(2))

	_, err := a.Submit(1, Submission{Author: "Ann", Body: "Great", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.AverageRating(1))

	_, err = a.Submit(1, Submission{Author: "Bob", Body: "Fine", Rating: 4})
	require.NoError(t, err)
	_, err = a.Submit(1, Submission{Author: "Cy", Body: "Fine", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 4.3, a.AverageRating(1))
}

func TestHistogram(t *testing.T) {
	a := New(KindReview)

	empty := a.Histogram(1)
	require.Len(t, empty, 5)
	for _, b := range empty {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Percent)
	}

	a.Seed(1, 4.8, []Entry{
		{ID: 1, Author: "A", Rating: 5, Body: "x"},
		{ID: 2, Author: "B", Rating: 4, Body: "x"},
		{ID: 3, Author: "C", Rating: 5, Body: "x"},
	})
	h := a.Histogram(1)
	assert.Equal(t, Bucket{Stars: 5, Count: 2, Percent: 66.7}, h[0])
	assert.Equal(t, Bucket{Stars: 4, Count: 1, Percent: 33.3}, h[1])
	assert.Equal(t, Bucket{Stars: 1, Count: 0, Percent: 0}, h[4])

	s := a.Summary(1)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 4.7, s.Average)
}

func TestSubscribersSeeAcceptedEntries(t *testing.T) {
	a := New(KindReview)
	var seen []Entry
	a.Subscribe(func(e Entry) { seen = append(seen, e) })

	_, _ = a.Submit(1, Submission{Author: "", Body: "x", Rating: 5})
	_, err := a.Submit(1, Submission{Author: "Ann", Body: "x", Rating: 5})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "Ann", seen[0].Author)
}

func TestTimestampIDsNeverCollide(t *testing.T) {
	ids := NewTimestampIDs(clock)
	a, b, c := ids.Next(), ids.Next(), ids.Next()
	assert.Equal(t, fixed.UnixMilli(), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestAverageRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		ratings []int
		want    float64
	}{
		{[]int{5, 4, 4, 4}, 4.3},
		{[]int{5, 4}, 4.5},
		{[]int{1, 1, 2}, 1.3},
		{[]int{2, 1, 1, 1, 1, 1, 1, 1}, 1.1},
	}
	for _, tc := range cases {
		a := New(KindReview)
		for _, r := range tc.ratings {
			_, err := a.Submit(1, Submission{Author: "Ann", Body: "ok", Rating: r})
			require.NoError(t, err)
		}
		assert.Equal(t, tc.want, a.AverageRating(1), "%v", tc.ratings)
	}
}
