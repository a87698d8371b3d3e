package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	body []byte
	err  error
}

func (s staticSource) Fetch(context.Context) ([]byte, error) { return s.body, s.err }
func (s staticSource) Name() string                          { return "static" }

var testNow = time.Date(2025, 12, 10, 15, 30, 0, 0, time.UTC)

func TestAdmit_DropsUnparseableAndPast(t *testing.T) {
	in := []domain.CourseOffering{
		{ID: 1, StartDate: "not a date"},
		{ID: 2, StartDate: "Mon 15th December 2025"},
		{ID: 3, StartDate: "Tue 9th December 2025"},
		{ID: 4, StartDate: "Wed 10th December 2025"},
	}

	got := Admit(in, testNow)

	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].ID, "today is eligible")
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, "2025-12-15", got[1].Date.Format("2006-01-02"))
}

func TestAdmit_SortsAscendingStable(t *testing.T) {
	in := []domain.CourseOffering{
		{ID: 1, StartDate: "20th January 2026"},
		{ID: 2, StartDate: "12th December 2025"},
		{ID: 3, StartDate: "20th January 2026"},
	}

	got := Admit(in, testNow)

	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestStore_RefreshFailureYieldsEmptyCatalog(t *testing.T) {
	s := NewStore(staticSource{err: errors.New("boom")}, nil)
	s.now = func() time.Time { return testNow }

	n := s.Refresh(context.Background())

	assert.Zero(t, n)
	assert.Empty(t, s.All())
}

func TestStore_RefreshLoadsFeed(t *testing.T) {
	body := []byte(`[
		{"id": 7, "name": "HSA", "start_date": "Fri 12th December 2025", "venue": "Online"},
		{"id": 8, "name": "HSA", "start_date": "Thu 4th December 2025", "venue": "Online"}
	]`)
	s := NewStore(staticSource{body: body}, nil)
	s.now = func() time.Time { return testNow }

	require.Equal(t, 1, s.Refresh(context.Background()))

	c, ok := s.ByID(7)
	require.True(t, ok)
	assert.Equal(t, "HSA", c.Name)
	_, ok = s.ByID(8)
	assert.False(t, ok)
	assert.Equal(t, testNow, s.LoadedAt())
}

func TestStore_RefreshKeepsGoodRecordsBesideBadOnes(t *testing.T) {
	body := []byte(`[
		{"id": 7, "name": "HSA", "start_date": "Fri 12th December 2025", "venue": "Online"},
		{"id": 8, "name": "SMSTS", "start_date": "Mon 15th December 2025", "venue": {"city": "London"}}
	]`)
	s := NewStore(staticSource{body: body}, nil)
	s.now = func() time.Time { return testNow }

	require.Equal(t, 1, s.Refresh(context.Background()))
	_, ok := s.ByID(7)
	assert.True(t, ok)
}

func TestStore_ResolveCardsDedups(t *testing.T) {
	s := NewStaticStore([]domain.CourseOffering{
		{ID: 1, Name: "SMSTS | A", StartDate: "Mon 15th December 2025", Venue: "Stratford"},
		{ID: 2, Name: "SMSTS | B", StartDate: "Mon 15th December 2025", Venue: "Stratford"},
		{ID: 3, Name: "SMSTS", StartDate: "Mon 15th December 2025", Venue: "Online"},
	})

	got := s.ResolveCards([]int{2, 99, 1, 3})

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID, "first occurrence wins")
	assert.Equal(t, 3, got[1].ID)
}

func TestStore_KnownIDs(t *testing.T) {
	s := NewStaticStore([]domain.CourseOffering{{ID: 1}, {ID: 2}})
	assert.Equal(t, []int{2, 1}, s.KnownIDs([]int{2, 5, 1}))
}
