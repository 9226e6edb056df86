package contract

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnknownRecipient groups awards without a recipient name.
const UnknownRecipient = "UNKNOWN RECIPIENT"

// MaxDescriptions caps Summary.Descriptions.
const MaxDescriptions = 3

// ContractorTotal is one recipient's summed award value.
type ContractorTotal struct {
	Recipient string
	Total     decimal.Decimal
}

// Summary is the per-location contract analytics. Derived, never cached.
type Summary struct {
	LocationKey    string
	TotalValue     decimal.Decimal
	Contractors    []ContractorTotal // ranked: total desc, recipient asc
	AwardCount     int
	MissingAmounts int
	Agencies       []string
	Descriptions   []string // first non-empty award descriptions, input order
}

// ContractorTotals returns the recipient -> total view of the ranking.
func (s Summary) ContractorTotals() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.Contractors))
	for _, c := range s.Contractors {
		m[c.Recipient] = c.Total
	}
	return m
}

// Top returns at most n highest-ranked contractors.
func (s Summary) Top(n int) []ContractorTotal {
	if n < 0 || n >= len(s.Contractors) {
		return s.Contractors
	}
	return s.Contractors[:n]
}

// Summarize aggregates awards into a Summary. Missing amounts count as zero
// and are logged. An empty input yields a zero summary.
func Summarize(locationKey string, awards []Award, logger *zap.Logger) Summary {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := Summary{
		LocationKey:  locationKey,
		TotalValue:   decimal.Zero,
		Contractors:  []ContractorTotal{},
		Agencies:     []string{},
		Descriptions: []string{},
		AwardCount:   len(awards),
	}

	totals := make(map[string]decimal.Decimal)
	agencies := make(map[string]struct{})

	for _, a := range awards {
		amount := decimal.Zero
		if a.AwardAmount == nil {
			s.MissingAmounts++
			logger.Warn("Award has no amount, counting as zero",
				zap.String("location_key", locationKey),
				zap.String("award_id", a.AwardID),
				zap.String("recipient", a.RecipientName),
			)
		} else {
			amount = *a.AwardAmount
		}

		recipient := strings.TrimSpace(a.RecipientName)
		if recipient == "" {
			recipient = UnknownRecipient
		}

		s.TotalValue = s.TotalValue.Add(amount)
		totals[recipient] = totals[recipient].Add(amount)

		if ag := strings.TrimSpace(a.AwardingAgency); ag != "" {
			agencies[ag] = struct{}{}
		}
		if d := strings.TrimSpace(a.Description); d != "" && len(s.Descriptions) < MaxDescriptions {
			s.Descriptions = append(s.Descriptions, d)
		}
	}

	for r, t := range totals {
		s.Contractors = append(s.Contractors, ContractorTotal{Recipient: r, Total: t})
	}
	sort.Slice(s.Contractors, func(i, j int) bool {
		ci, cj := s.Contractors[i], s.Contractors[j]
		if c := ci.Total.Cmp(cj.Total); c != 0 {
			return c > 0
		}
		return ci.Recipient < cj.Recipient
	})

	for ag := range agencies {
		s.Agencies = append(s.Agencies, ag)
	}
	sort.Strings(s.Agencies)

	return s
}
