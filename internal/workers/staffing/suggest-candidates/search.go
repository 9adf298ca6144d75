// internal/workers/staffing/suggest-candidates/search.go
package suggestcandidates

import (
	"encoding/json"
	"fmt"
	"io"

	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

// WorkerIndexMapping is the mapping the worker manager creates the candidate
// index with when it is missing.
const WorkerIndexMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "fullName":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "seniority": {"type": "keyword"},
      "phone":     {"type": "keyword", "index": false},
      "active":    {"type": "boolean"}
    }
  }
}`

// searchOrder puts the tiers with the fewest eligible workers first so the
// scarce people are not used up by broader slots.
var searchOrder = []coverage.Tier{coverage.Senior, coverage.Specialista, coverage.Medior, coverage.Junior}

// buildSearchBody matches active workers able to fill a slot of tier, ranking
// an exact seniority match above higher tiers.
func buildSearchBody(tier coverage.Tier, exclude []string) map[string]interface{} {
	eligible := make([]string, 0, 4)
	for _, t := range coverage.EligibleTiers(tier) {
		eligible = append(eligible, string(t))
	}

	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"active": true}},
			map[string]interface{}{"terms": map[string]interface{}{"seniority": eligible}},
		},
		"should": []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{
					"seniority": map[string]interface{}{"value": string(tier), "boost": 2.0},
				},
			},
		},
	}
	if len(exclude) > 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"terms": map[string]interface{}{"id": exclude}},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"fullName.raw": "asc"},
		},
		"track_scores": true,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Score  *float64      `json:"_score"`
			Source models.Worker `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeCandidates(body io.Reader) ([]models.Candidate, error) {
	var resp searchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		id := hit.Source.ID
		if id == "" {
			id = hit.ID
		}
		candidate := models.Candidate{
			ID:        id,
			FullName:  hit.Source.FullName,
			Seniority: hit.Source.Seniority,
			Phone:     hit.Source.Phone,
		}
		if hit.Score != nil {
			candidate.Score = *hit.Score
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
