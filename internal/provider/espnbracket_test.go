package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tournamentFixture = `{
  "rounds": [
    {
      "round": 0,
      "games": [
        {
          "seeds": [16, 16],
          "teams": [
            {"name": "Wagner", "region": "East"},
            {"name": "Howard", "region": "East"}
          ]
        }
      ]
    },
    {
      "round": 1,
      "games": [
        {
          "seeds": [1, 16],
          "teams": [
            {"displayName": "UConn", "region": "East"},
            {"name": "", "region": "East"}
          ]
        },
        {
          "seeds": [8, 9],
          "teams": [
            {"name": "FAU", "region": "East"},
            {"name": "Northwestern", "region": ""}
          ]
        }
      ]
    },
    {
      "round": 2,
      "games": [
        {
          "seeds": [1],
          "teams": [{"name": "UConn", "region": "East"}]
        }
      ]
    }
  ]
}`

func TestESPNBracket_FetchBracket(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(tournamentFixture))
	}))
	defer server.Close()

	p := NewESPNBracket()
	p.url = server.URL

	seeds := p.FetchBracket(context.Background(), 2026)
	assert.Equal(t, "/2026/en/api/tournament", gotPath)

	// The empty slot, the region-less entry, and the round-2 echo of UConn
	// are all dropped; both play-in entrants share the 16 line
	require.Len(t, seeds, 4)
	assert.Equal(t, "Wagner", seeds[0].Name)
	assert.Equal(t, 16, seeds[0].Seed)
	assert.Equal(t, "East", seeds[0].Region)
	assert.Equal(t, "Howard", seeds[1].Name)
	assert.Equal(t, 16, seeds[1].Seed)
	assert.Equal(t, "UConn", seeds[2].Name)
	assert.Equal(t, 1, seeds[2].Seed)
	assert.Equal(t, "FAU", seeds[3].Name)
	assert.Equal(t, 8, seeds[3].Seed)
}

func TestESPNBracket_ServerErrorDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewESPNBracket()
	p.url = server.URL

	assert.Empty(t, p.FetchBracket(context.Background(), 2026))
}
