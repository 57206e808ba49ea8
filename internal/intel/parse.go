package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"fintrack/internal/common"
	"fintrack/internal/service"
)

// parsedPayload is the strict-JSON shape requested from the parse call.
type parsedPayload struct {
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
	Category     string  `json:"category"`
	CardLastFour string  `json:"cardLastFour"`
}

// ParseTransactionText extracts the fields of one transaction from an opaque
// pasted string, typically a bank SMS or clipboard content.
func (c *Client) ParseTransactionText(ctx context.Context, rawText string) (*service.ParsedTransaction, error) {
	prompt := fmt.Sprintf(`Extract transaction details from this single message: %q.
Return STRICT JSON, one object with:
- "amount": number
- "description": string (merchant or purpose)
- "date": string, ISO format "YYYY-MM-DD"
- "category": string, one of: Food & Dining, Shopping, Transportation, Bills & Utilities, Entertainment, Health & Wellness, Travel, Other
- "cardLastFour": string (last four digits of the card, or "" if absent)
Use Indian context. Do NOT wrap the response in code fences.`, rawText)

	var parsed *service.ParsedTransaction
	err := common.WithRetry(ctx, func() error {
		resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.ParseModel,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			})
		if err != nil {
			return classifyAPIError("parse call", err)
		}

		text := resp.Text()
		if text == "" {
			return fmt.Errorf("empty response from model")
		}

		var payload parsedPayload
		if err := json.Unmarshal([]byte(cleanModelJSON(text)), &payload); err != nil {
			return fmt.Errorf("unmarshal JSON: %w", err)
		}

		parsed = &service.ParsedTransaction{
			Amount:       payload.Amount,
			Description:  payload.Description,
			Date:         payload.Date,
			Category:     payload.Category,
			CardLastFour: payload.CardLastFour,
		}
		return nil
	}, c.retryOpts)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParseFailed, err)
	}
	return parsed, nil
}

// cleanModelJSON strips markdown fences and surrounding junk the model may
// emit despite instructions, keeping the outermost JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there's still junk around the JSON value, keep only from the first
	// opening bracket to the last closing one of the same kind.
	open, closed := "{", "}"
	if arr := strings.Index(s, "["); arr != -1 {
		if obj := strings.Index(s, "{"); obj == -1 || arr < obj {
			open, closed = "[", "]"
		}
	}
	if start := strings.Index(s, open); start != -1 {
		if end := strings.LastIndex(s, closed); end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
