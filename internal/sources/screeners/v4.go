package screeners

import (
	"context"
	"fmt"

	"github.com/complykit/screendiff/internal/transport"
	"github.com/complykit/screendiff/pkg/screening"
)

// v4Response is the shape returned by the v4 API revision: a flat hit
// list with identity fields under a "fields" object.
type v4Response struct {
	Total int     `json:"total"`
	Hits  []v4Hit `json:"hits"`
}

type v4Hit struct {
	Fields struct {
		SanctionID string `json:"sanction_id"`
		Name       string `json:"name"`
		List       string `json:"list"`
	} `json:"fields"`
}

// v4Client screens names against the v4 API revision.
type v4Client struct {
	endpoint  string
	transport *transport.Client
}

func (c *v4Client) ID() screening.SourceID {
	return screening.SourceV4
}

// Screen implements sources.Source.
func (c *v4Client) Screen(ctx context.Context, name string) ([]screening.MatchRecord, error) {
	resp, err := c.transport.PostJSON(ctx, c.endpoint, map[string]string{"query": name})
	if err != nil {
		return nil, fmt.Errorf("v4: request failed: %w", err)
	}

	var result v4Response
	if err := transport.DecodeResponse(c.ID().String(), resp, &result); err != nil {
		return nil, fmt.Errorf("v4: %w", err)
	}

	records := make([]screening.MatchRecord, 0, len(result.Hits))
	for i, h := range result.Hits {
		records = append(records, screening.MatchRecord{
			Source:     c.ID(),
			EntityID:   h.Fields.SanctionID,
			EntityName: h.Fields.Name,
			Reference:  h.Fields.List,
			Rank:       i + 1,
		})
	}
	return records, nil
}
