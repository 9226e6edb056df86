// Package usaspending adapts the USAspending.gov award search API.
package usaspending

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/transport/upstream"
	"github.com/kailas-cloud/placescout/internal/version"
)

// Provider is the label used in errors, metrics and logs.
const Provider = "usaspending"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.usaspending.gov/api/v2"

const (
	maxPageSize        = 100
	defaultWindowYears = 10
)

// Award fields requested from the API.
var fields = []string{
	"Award ID",
	"Recipient Name",
	"Award Amount",
	"Start Date",
	"End Date",
	"Place of Performance Zip5",
	"Description",
	"Awarding Agency",
	"Funding Agency",
	"Place of Performance State Code",
	"Place of Performance City Code",
}

// Contract award type codes A-D (BPA call, purchase order, delivery order, definitive contract).
var awardTypeCodes = []string{"A", "B", "C", "D"}

// Config holds client settings.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	WindowYears int
	Logger      *zap.Logger
}

// Client issues award searches.
type Client struct {
	baseURL     string
	http        *http.Client
	windowYears int
	now         func() time.Time
	logger      *zap.Logger
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.WindowYears <= 0 {
		cfg.WindowYears = defaultWindowYears
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        cfg.HTTPClient,
		windowYears: cfg.WindowYears,
		now:         time.Now,
		logger:      cfg.Logger,
	}
}

type timePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type popLocation struct {
	Country string `json:"country"`
	State   string `json:"state,omitempty"`
}

type filters struct {
	AwardTypeCodes []string      `json:"award_type_codes"`
	TimePeriod     []timePeriod  `json:"time_period"`
	Locations      []popLocation `json:"place_of_performance_locations"`
}

type request struct {
	Filters filters  `json:"filters"`
	Fields  []string `json:"fields"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	Sort    string   `json:"sort"`
	Order   string   `json:"order"`
}

type result struct {
	AwardID        string           `json:"Award ID"`
	RecipientName  string           `json:"Recipient Name"`
	AwardAmount    *decimal.Decimal `json:"Award Amount"`
	StartDate      string           `json:"Start Date"`
	EndDate        string           `json:"End Date"`
	Zip5           string           `json:"Place of Performance Zip5"`
	Description    string           `json:"Description"`
	AwardingAgency string           `json:"Awarding Agency"`
	FundingAgency  string           `json:"Funding Agency"`
}

type response struct {
	Results      []result `json:"results"`
	PageMetadata struct {
		Page    int  `json:"page"`
		HasNext bool `json:"hasNext"`
	} `json:"page_metadata"`
}

// SearchAwards fetches one page of contract awards performed in q.State and
// keeps those whose ZIP5 starts with one of q.ZipPrefixes (all when empty).
// The API has no radius filter, so q.RadiusMiles does not narrow the query.
func (c *Client) SearchAwards(ctx context.Context, q contract.Query, page, pageSize int) (contract.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	w := q.Window.Resolve(c.now(), c.windowYears)
	body := request{
		Filters: filters{
			AwardTypeCodes: awardTypeCodes,
			TimePeriod:     []timePeriod{{StartDate: w.Start.Format(time.DateOnly), EndDate: w.End.Format(time.DateOnly)}},
			Locations:      []popLocation{{Country: "USA", State: q.State}},
		},
		Fields: fields,
		Page:   page,
		Limit:  pageSize,
		Sort:   "Award Amount",
		Order:  "desc",
	}

	data, err := json.Marshal(body)
	if err != nil {
		return contract.Page{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/spending_by_award/", bytes.NewReader(data))
	if err != nil {
		return contract.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return contract.Page{}, upstream.TransportError(ctx, Provider, err)
	}
	defer resp.Body.Close()

	if err := upstream.CheckResponse(Provider, resp); err != nil {
		return contract.Page{}, err
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return contract.Page{}, fmt.Errorf("decode %s response: %w", Provider, err)
	}

	awards := make([]contract.Award, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if !matchesZip(r.Zip5, q.ZipPrefixes) {
			continue
		}
		awards = append(awards, contract.Award{
			AwardID:               r.AwardID,
			RecipientName:         strings.TrimSpace(r.RecipientName),
			AwardAmount:           r.AwardAmount,
			StartDate:             r.StartDate,
			EndDate:               r.EndDate,
			PlaceOfPerformanceZip: r.Zip5,
			Description:           strings.TrimSpace(r.Description),
			AwardingAgency:        r.AwardingAgency,
			FundingAgency:         r.FundingAgency,
		})
	}

	c.logger.Debug("Award page fetched",
		zap.String("state", q.State),
		zap.Int("page", page),
		zap.Int("returned", len(parsed.Results)),
		zap.Int("in_area", len(awards)),
		zap.Bool("has_next", parsed.PageMetadata.HasNext),
	)

	return contract.Page{Number: page, Awards: awards, HasNext: parsed.PageMetadata.HasNext}, nil
}

func matchesZip(zip string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	if len(zip) < 3 {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(zip, p) {
			return true
		}
	}
	return false
}
