package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"fintrack/internal/common"
	"fintrack/internal/model"
	"fintrack/internal/service"
)

// intelPayload is the strict-JSON shape requested from the extraction phase.
type intelPayload struct {
	Benefits   []string `json:"benefits"`
	Milestones []struct {
		Label  string  `json:"label"`
		Target float64 `json:"target"`
		Reward string  `json:"reward"`
	} `json:"milestones"`
}

// FetchCardIntelligence looks up public benefits and milestones for a card
// in two phases: a grounded web search over the bank and variant names, then
// a strict-JSON extraction of the search summary.
func (c *Client) FetchCardIntelligence(ctx context.Context, bankName, variantName string) (*service.CardIntel, error) {
	searchPrompt := fmt.Sprintf(`Find the official benefits, rewards, and milestone targets for the "%s %s" credit card in India.
Specifically look for:
- Lounge access rules (Domestic/International)
- Reward points per ₹150 or ₹100 spent
- Milestone rewards (Annual fee waiver, vouchers)
- Milestone values must be in INR (₹).`, bankName, variantName)

	var intel *service.CardIntel
	err := common.WithRetry(ctx, func() error {
		// Phase 1: search the web for public card details.
		searchResp, err := c.genai.Models.GenerateContent(ctx, c.cfg.SearchModel,
			genai.Text(searchPrompt),
			&genai.GenerateContentConfig{
				Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			})
		if err != nil {
			return classifyAPIError("search phase", err)
		}

		rawText := searchResp.Text()
		if rawText == "" {
			return fmt.Errorf("search phase: empty response from model")
		}
		sources := groundingSources(searchResp)

		// Phase 2: format the public data into strict JSON.
		formatResp, err := c.genai.Models.GenerateContent(ctx, c.cfg.SearchModel,
			genai.Text(fmt.Sprintf(`Extract card details into JSON from this public text: %s

Output STRICT JSON only, one object with:
- "benefits": array of strings (public features)
- "milestones": array of objects with "label" (string), "target" (number), "reward" (string)
Do NOT wrap the response in code fences.`, rawText)),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			})
		if err != nil {
			return classifyAPIError("format phase", err)
		}

		var payload intelPayload
		clean := cleanModelJSON(formatResp.Text())
		if err := json.Unmarshal([]byte(clean), &payload); err != nil {
			return fmt.Errorf("format phase: unmarshal JSON: %w", err)
		}

		intel = &service.CardIntel{
			Benefits: payload.Benefits,
			Sources:  sources,
		}
		for _, m := range payload.Milestones {
			intel.Milestones = append(intel.Milestones, service.MilestoneIntel{
				Label:  m.Label,
				Target: m.Target,
				Reward: m.Reward,
			})
		}
		return nil
	}, c.retryOpts)

	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", common.ErrEnrichmentFailed, bankName, variantName, err)
	}

	slog.Debug("Fetched card intelligence",
		"bank", bankName,
		"variant", variantName,
		"benefits", len(intel.Benefits),
		"sources", len(intel.Sources))
	return intel, nil
}

// groundingSources collects the web pages the search phase grounded on.
func groundingSources(resp *genai.GenerateContentResponse) []model.IntelSource {
	var sources []model.IntelSource
	if resp == nil || len(resp.Candidates) == 0 {
		return sources
	}
	md := resp.Candidates[0].GroundingMetadata
	if md == nil {
		return sources
	}
	for _, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, model.IntelSource{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}
