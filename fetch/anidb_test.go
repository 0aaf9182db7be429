package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bebopResponse = `{
	"aid": 23,
	"title": "Cowboy Bebop",
	"titles": [
		{"title": "Cowboy Bebop", "type": "main"},
		{"title": "Kaubōi Bibappu", "type": "official"},
		{"title": "CB", "type": "short"}
	],
	"synopsis": "In 2071, bounty hunters drift through the solar system.",
	"tags": [{"name": "space"}, {"name": "bounty hunters"}, {"name": ""}],
	"episode_count_normal": 26,
	"episode_count_special": 1,
	"start_date": "1998-04-03",
	"end_date": "1999-04-24",
	"begin_year": 1998,
	"end_year": 1999,
	"ratings": {"permanent": 8.77, "permanent_count": 48591},
	"ann_id": 13,
	"related_anime": [{"aid": 543, "type": "sequel", "title": "Cowboy Bebop: The Movie"}],
	"similar_anime": [{"aid": 6, "title": "Trigun"}]
}`

func TestFetchByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime", r.URL.Path)
		assert.Equal(t, "Cowboy Bebop", r.URL.Query().Get("title"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bebopResponse))
	}))
	defer server.Close()

	client, err := NewAniDBClient(server.URL)
	require.NoError(t, err)

	record, err := client.FetchByTitle(context.Background(), "Cowboy Bebop")
	require.NoError(t, err)

	assert.Equal(t, "anidb-23", record.RecordID)
	assert.Equal(t, 23, record.AniDBID)
	assert.Equal(t, "Cowboy Bebop", record.TitleMain)
	assert.Equal(t, []string{"Kaubōi Bibappu", "CB"}, record.TitleAlts, "main titles and blanks excluded")
	assert.Equal(t, []string{"space", "bounty hunters"}, record.Tags)
	assert.Equal(t, 26, record.EpisodeCountNormal)
	assert.Equal(t, 1, record.EpisodeCountSpecial)
	assert.Equal(t, 1998, record.BeginYear)
	assert.Equal(t, 1999, record.EndYear)
	assert.Equal(t, 877, record.Rating, "0-10 scale stored as 0-1000")
	assert.Equal(t, 48591, record.VoteCount)
	assert.Equal(t, 13, record.ANNID)
	require.NotNil(t, record.AirDate)
	assert.Equal(t, 1998, record.AirDate.Year())
	require.Len(t, record.Relations, 1)
	assert.Equal(t, "anidb-543", record.Relations[0].RelatedID)
	require.Len(t, record.Similar, 1)
	assert.Equal(t, "anidb-6", record.Similar[0].RelatedID)
	assert.False(t, record.FetchedAt.IsZero())
}

func TestFetchByTitle_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewAniDBClient(server.URL)
	require.NoError(t, err)

	_, err = client.FetchByTitle(context.Background(), "Nonexistent Show")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchByTitle_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewAniDBClient(server.URL)
	require.NoError(t, err)

	_, err = client.FetchByTitle(context.Background(), "Cowboy Bebop")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchByTitle_EmptyTitle(t *testing.T) {
	client, err := NewAniDBClient("http://localhost:1")
	require.NoError(t, err)

	_, err = client.FetchByTitle(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseAniDBResponse_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"missing aid", `{"title": "Cowboy Bebop"}`},
		{"missing title", `{"aid": 23}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAniDBResponse([]byte(tt.body))
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestParseAniDBResponse_UnparseableDatesDropped(t *testing.T) {
	record, err := ParseAniDBResponse([]byte(`{
		"aid": 23,
		"title": "Cowboy Bebop",
		"start_date": "sometime in spring",
		"end_date": ""
	}`))
	require.NoError(t, err)
	assert.Nil(t, record.AirDate)
	assert.Nil(t, record.EndDate)
}
