package screeners

import (
	"context"
	"fmt"
	"net/url"

	"github.com/complykit/screendiff/internal/transport"
	"github.com/complykit/screendiff/pkg/screening"
)

// univiusResponse is the shape returned by the univius API: top-level
// entity objects, queried by GET.
type univiusResponse struct {
	Entities []univiusEntity `json:"entities"`
}

type univiusEntity struct {
	SdnID      string `json:"sdnId"`
	EntityName string `json:"entityName"`
	ListName   string `json:"listName"`
}

// univiusClient screens names against the univius API.
type univiusClient struct {
	endpoint  string
	transport *transport.Client
}

func (c *univiusClient) ID() screening.SourceID {
	return screening.SourceUnivius
}

// Screen implements sources.Source.
func (c *univiusClient) Screen(ctx context.Context, name string) ([]screening.MatchRecord, error) {
	u := c.endpoint + "?name=" + url.QueryEscape(name)
	resp, err := c.transport.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("univius: request failed: %w", err)
	}

	var result univiusResponse
	if err := transport.DecodeResponse(c.ID().String(), resp, &result); err != nil {
		return nil, fmt.Errorf("univius: %w", err)
	}

	records := make([]screening.MatchRecord, 0, len(result.Entities))
	for i, e := range result.Entities {
		records = append(records, screening.MatchRecord{
			Source:     c.ID(),
			EntityID:   e.SdnID,
			EntityName: e.EntityName,
			Reference:  e.ListName,
			Rank:       i + 1,
		})
	}
	return records, nil
}
