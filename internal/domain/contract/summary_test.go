package contract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSummarize_RanksRecipients(t *testing.T) {
	awards := []Award{
		{AwardID: "1", RecipientName: "A", AwardAmount: amount("100")},
		{AwardID: "2", RecipientName: "B", AwardAmount: amount("300")},
		{AwardID: "3", RecipientName: "A", AwardAmount: amount("50")},
	}

	s := Summarize("contract:abc", awards, zap.NewNop())

	if !s.TotalValue.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("TotalValue = %s, want 450", s.TotalValue)
	}
	if len(s.Contractors) != 2 {
		t.Fatalf("expected 2 contractors, got %d", len(s.Contractors))
	}
	if s.Contractors[0].Recipient != "B" || !s.Contractors[0].Total.Equal(decimal.NewFromInt(300)) {
		t.Errorf("rank[0] = %+v, want B/300", s.Contractors[0])
	}
	if s.Contractors[1].Recipient != "A" || !s.Contractors[1].Total.Equal(decimal.NewFromInt(150)) {
		t.Errorf("rank[1] = %+v, want A/150", s.Contractors[1])
	}
	if s.AwardCount != 3 {
		t.Errorf("AwardCount = %d", s.AwardCount)
	}
	if got := s.ContractorTotals()["A"]; !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("ContractorTotals()[A] = %s", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("contract:empty", nil, nil)

	if !s.TotalValue.IsZero() {
		t.Errorf("TotalValue = %s, want 0", s.TotalValue)
	}
	if len(s.Contractors) != 0 {
		t.Errorf("expected empty ranking, got %v", s.Contractors)
	}
	if s.Contractors == nil {
		t.Error("expected non-nil empty ranking")
	}
}

func TestSummarize_TiesBrokenByName(t *testing.T) {
	awards := []Award{
		{RecipientName: "Zeta LLC", AwardAmount: amount("10")},
		{RecipientName: "Alpha Inc", AwardAmount: amount("10")},
		{RecipientName: "Mid Corp", AwardAmount: amount("10")},
	}

	s := Summarize("k", awards, nil)

	want := []string{"Alpha Inc", "Mid Corp", "Zeta LLC"}
	for i, w := range want {
		if s.Contractors[i].Recipient != w {
			t.Errorf("rank[%d] = %q, want %q", i, s.Contractors[i].Recipient, w)
		}
	}
}

func TestSummarize_MissingAmountCountsAsZeroAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	awards := []Award{
		{AwardID: "1", RecipientName: "A", AwardAmount: amount("12.34")},
		{AwardID: "2", RecipientName: "A", AwardAmount: nil},
	}

	s := Summarize("k", awards, zap.New(core))

	if !s.TotalValue.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("TotalValue = %s", s.TotalValue)
	}
	if s.MissingAmounts != 1 {
		t.Errorf("MissingAmounts = %d", s.MissingAmounts)
	}
	if logs.Len() != 1 {
		t.Errorf("expected 1 warning, got %d", logs.Len())
	}
}

func TestSummarize_DecimalExactness(t *testing.T) {
	awards := []Award{
		{RecipientName: "A", AwardAmount: amount("0.1")},
		{RecipientName: "A", AwardAmount: amount("0.2")},
	}

	s := Summarize("k", awards, nil)

	if s.TotalValue.String() != "0.3" {
		t.Fatalf("TotalValue = %s, want 0.3", s.TotalValue)
	}
}

func TestSummarize_UnknownRecipientAndAgencies(t *testing.T) {
	awards := []Award{
		{RecipientName: "  ", AwardAmount: amount("5"), AwardingAgency: "Department of Energy"},
		{RecipientName: "B", AwardAmount: amount("1"), AwardingAgency: "Department of Defense"},
		{RecipientName: "B", AwardAmount: amount("1"), AwardingAgency: "Department of Energy"},
	}

	s := Summarize("k", awards, nil)

	if s.Contractors[0].Recipient != UnknownRecipient {
		t.Errorf("rank[0] = %q, want %q", s.Contractors[0].Recipient, UnknownRecipient)
	}
	if len(s.Agencies) != 2 || s.Agencies[0] != "Department of Defense" {
		t.Errorf("Agencies = %v", s.Agencies)
	}
}

func TestSummarize_Descriptions(t *testing.T) {
	awards := []Award{
		{Description: " RUNWAY REPAIR "},
		{Description: ""},
		{Description: "SECURITY SERVICES"},
		{Description: "FUEL"},
		{Description: "CATERING"},
	}

	s := Summarize("k", awards, nil)

	want := []string{"RUNWAY REPAIR", "SECURITY SERVICES", "FUEL"}
	if len(s.Descriptions) != len(want) {
		t.Fatalf("Descriptions = %v, want %v", s.Descriptions, want)
	}
	for i := range want {
		if s.Descriptions[i] != want[i] {
			t.Errorf("Descriptions[%d] = %q, want %q", i, s.Descriptions[i], want[i])
		}
	}
}

func TestSummary_Top(t *testing.T) {
	s := Summary{Contractors: []ContractorTotal{{Recipient: "a"}, {Recipient: "b"}, {Recipient: "c"}}}
	if len(s.Top(2)) != 2 {
		t.Errorf("Top(2) len = %d", len(s.Top(2)))
	}
	if len(s.Top(10)) != 3 {
		t.Errorf("Top(10) len = %d", len(s.Top(10)))
	}
}

func TestTimeWindow_Resolve(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	w := TimeWindow{}.Resolve(now, 10)

	if !w.End.Equal(now) {
		t.Errorf("End = %v", w.End)
	}
	if w.Start.Year() != 2016 {
		t.Errorf("Start = %v, want 2016", w.Start)
	}
	if !(TimeWindow{}).IsZero() {
		t.Error("zero window should report IsZero")
	}
}
