package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

// summaryModules are the quoteSummary modules merged into chart metadata
const summaryModules = "assetProfile,price,summaryDetail"

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw float64 `json:"raw"`
}

type summaryResult struct {
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
		Country  string `json:"country"`
	} `json:"assetProfile"`
	Price *struct {
		LongName  string   `json:"longName"`
		ShortName string   `json:"shortName"`
		MarketCap rawValue `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		PreviousClose rawValue `json:"previousClose"`
		DayLow        rawValue `json:"dayLow"`
		DayHigh       rawValue `json:"dayHigh"`
		MarketCap     rawValue `json:"marketCap"`
	} `json:"summaryDetail"`
}

// getSummary fetches the profile, price and summary detail modules for symbol
func (c *Client) getSummary(ctx context.Context, symbol models.Symbol) (*summaryResult, error) {
	params := url.Values{}
	params.Set("modules", summaryModules)

	body, err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol.String()), params)
	if err != nil {
		return nil, err
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("summary error: %s: %s", resp.QuoteSummary.Error.Code, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("empty summary for %s", symbol)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// enrich fills metadata the chart endpoint does not carry. Failures are
// logged and leave meta as it was.
func (c *Client) enrich(ctx context.Context, meta *models.InstrumentMetadata) {
	summary, err := c.getSummary(ctx, meta.Symbol)
	if err != nil {
		c.logger.Warn().Str("symbol", meta.Symbol.String()).Err(err).Msg("Yahoo quote summary unavailable")
		return
	}
	mergeSummary(meta, summary)
}

// mergeSummary copies summary fields into meta where meta has no value
func mergeSummary(meta *models.InstrumentMetadata, s *summaryResult) {
	if p := s.AssetProfile; p != nil {
		fillString(&meta.Sector, p.Sector)
		fillString(&meta.Industry, p.Industry)
		fillString(&meta.Country, p.Country)
	}
	if p := s.Price; p != nil {
		fillString(&meta.LongName, p.LongName)
		fillString(&meta.ShortName, p.ShortName)
		fillFloat(&meta.MarketCap, p.MarketCap.Raw)
	}
	if d := s.SummaryDetail; d != nil {
		fillFloat(&meta.PreviousClose, d.PreviousClose.Raw)
		fillFloat(&meta.DayLow, d.DayLow.Raw)
		fillFloat(&meta.DayHigh, d.DayHigh.Raw)
		fillFloat(&meta.MarketCap, d.MarketCap.Raw)
	}
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func fillFloat(dst *float64, v float64) {
	if *dst == 0 {
		*dst = v
	}
}
