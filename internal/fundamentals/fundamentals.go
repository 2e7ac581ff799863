// Package fundamentals extracts valuation and earnings fields from a quote snapshot.
package fundamentals

import (
	"marketreport/internal/coerce"
	"marketreport/internal/market"
)

// Extract never fails. Fields the snapshot lacks stay nil so that a missing
// value cannot be mistaken for a reported zero.
func Extract(s market.Snapshot) *market.Fundamentals {
	f := coerce.Fields(s)
	return &market.Fundamentals{
		TrailingEPS:     coerce.ToFloat(f.Get("trailingEps")),
		ForwardEPS:      coerce.ToFloat(f.Get("forwardEps")),
		TrailingPE:      coerce.ToFloat(f.Get("trailingPE")),
		ForwardPE:       coerce.ToFloat(f.Get("forwardPE")),
		DividendYield:   coerce.ToPercent(f.Get("dividendYield")),
		DividendRate:    coerce.ToFloat(f.Get("dividendRate")),
		PayoutRatio:     coerce.ToPercent(f.Get("payoutRatio")),
		ProfitMargin:    coerce.ToPercent(f.Get("profitMargins")),
		OperatingMargin: coerce.ToPercent(f.Get("operatingMargins")),
		GrossMargin:     coerce.ToPercent(f.Get("grossMargins")),
		// providers report this as a single date, a start/end range or only
		// as epoch bounds depending on the instrument
		EarningsDate: coerce.FormatEarningsDate(
			f.First("earningsDate", "earningsTimestampStart", "earningsTimestamp"),
		),
		EarningsQuarterlyGrowth: coerce.ToPercent(f.Get("earningsQuarterlyGrowth")),
		EarningsGrowth:          coerce.ToPercent(f.Get("earningsGrowth")),
	}
}
