package screeners

import (
	"context"
	"fmt"

	"github.com/complykit/screendiff/internal/transport"
	"github.com/complykit/screendiff/pkg/screening"
)

// v2Response is the shape returned by the v1.2/v2 API revision. Match
// identity lives inside a nested rulesDetails object that is absent for
// unscored rows.
type v2Response struct {
	Result struct {
		Matches []v2Match `json:"matches"`
	} `json:"result"`
}

type v2Match struct {
	Score        float64         `json:"score"`
	RulesDetails *v2RulesDetails `json:"rulesDetails"`
}

type v2RulesDetails struct {
	SdnID    string `json:"sdnid"`
	SdnName  string `json:"sdnname"`
	ListName string `json:"listname"`
}

// v2Client screens names against the v2 API revision.
type v2Client struct {
	endpoint  string
	transport *transport.Client
}

func (c *v2Client) ID() screening.SourceID {
	return screening.SourceV2
}

// Screen implements sources.Source.
func (c *v2Client) Screen(ctx context.Context, name string) ([]screening.MatchRecord, error) {
	resp, err := c.transport.PostJSON(ctx, c.endpoint, map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("v2: request failed: %w", err)
	}

	var result v2Response
	if err := transport.DecodeResponse(c.ID().String(), resp, &result); err != nil {
		return nil, fmt.Errorf("v2: %w", err)
	}

	records := make([]screening.MatchRecord, 0, len(result.Result.Matches))
	for i, m := range result.Result.Matches {
		rec := screening.MatchRecord{
			Source: c.ID(),
			Rank:   i + 1,
		}
		// A match without rulesDetails (or without an sdnid inside it)
		// is unidentifiable: it stays visible in raw views with an
		// empty id and never participates in cross-source matching.
		if m.RulesDetails != nil {
			rec.EntityID = m.RulesDetails.SdnID
			rec.EntityName = m.RulesDetails.SdnName
			rec.Reference = m.RulesDetails.ListName
		}
		records = append(records, rec)
	}
	return records, nil
}
