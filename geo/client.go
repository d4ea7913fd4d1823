// Package geo forwards free-text city queries to the Geoapify
// autocomplete endpoint. Lookup is advisory: a transport failure is
// logged and treated exactly like zero results, never surfaced to the
// user.
package geo

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// Suggestion is one ranked autocomplete hit: a stable place identifier
// plus the display string shown to (and stored for) the user.
type Suggestion struct {
	PlaceID   string `json:"placeId"`
	Formatted string `json:"formatted"`
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			PlaceID   string `json:"place_id"`
			Formatted string `json:"formatted"`
		} `json:"properties"`
	} `json:"features"`
}

// Search returns up to five city suggestions for the query, localized
// to Portuguese, in the endpoint's ranking order. A blank query
// returns an empty slice without touching the network.
func (c *Client) Search(ctx context.Context, query string) []Suggestion {
	if strings.TrimSpace(query) == "" {
		return []Suggestion{}
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("type", "city")
	params.Set("lang", "pt")
	params.Set("limit", "5")
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		log.Printf("Erro ao buscar cidades: %v", err)
		return []Suggestion{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Erro ao buscar cidades: %v", err)
		return []Suggestion{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Erro ao buscar cidades: status %d", resp.StatusCode)
		return []Suggestion{}
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		log.Printf("Erro ao buscar cidades: %v", err)
		return []Suggestion{}
	}

	suggestions := make([]Suggestion, 0, len(fc.Features))
	for _, f := range fc.Features {
		suggestions = append(suggestions, Suggestion{
			PlaceID:   f.Properties.PlaceID,
			Formatted: f.Properties.Formatted,
		})
	}
	return suggestions
}
