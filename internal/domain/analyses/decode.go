package analyses

import (
	"encoding/json"
)

// assign decodes into a fresh value and only writes dst on success, so a
// malformed sub-report never leaves a half-populated field behind.
func assign[T any](dst *T, b json.RawMessage) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// reportFields maps report JSON keys to decoders targeting one field each.
// Decoding is per-field so one malformed sub-report never discards the rest.
var reportFields = map[string]func(*Report, json.RawMessage) error{
	"summary":            func(r *Report, b json.RawMessage) error { return assign(&r.Summary, b) },
	"validation":         func(r *Report, b json.RawMessage) error { return assign(&r.Validation, b) },
	"market_size":        func(r *Report, b json.RawMessage) error { return assign(&r.MarketSize, b) },
	"competitors":        func(r *Report, b json.RawMessage) error { return assign(&r.Competitors, b) },
	"swot":               func(r *Report, b json.RawMessage) error { return assign(&r.SWOT, b) },
	"marketing_channels": func(r *Report, b json.RawMessage) error { return assign(&r.MarketingChannels, b) },
	"revenue_streams":    func(r *Report, b json.RawMessage) error { return assign(&r.RevenueStreams, b) },
	"roadmap":            func(r *Report, b json.RawMessage) error { return assign(&r.Roadmap, b) },
	"risks":              func(r *Report, b json.RawMessage) error { return assign(&r.Risks, b) },
	"pricing":            func(r *Report, b json.RawMessage) error { return assign(&r.Pricing, b) },
	"unit_economics":     func(r *Report, b json.RawMessage) error { return assign(&r.UnitEconomics, b) },
	"mvp_features":       func(r *Report, b json.RawMessage) error { return assign(&r.MVPFeatures, b) },
	"tech_stack":         func(r *Report, b json.RawMessage) error { return assign(&r.TechStack, b) },
	"checklist":          func(r *Report, b json.RawMessage) error { return assign(&r.Checklist, b) },
	"recommendations":    func(r *Report, b json.RawMessage) error { return assign(&r.Recommendations, b) },
}

// DecodeReport parses model output leniently. Unknown keys are ignored and a
// sub-report that fails to decode is dropped, leaving its field nil. Only a
// document that is not a JSON object at all is an error.
func DecodeReport(data []byte) (Report, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Report{}, err
	}

	var r Report
	for key, decode := range reportFields {
		b, ok := raw[key]
		if !ok {
			continue
		}
		if err := decode(&r, b); err != nil {
			// drop the malformed section, keep the rest
			continue
		}
	}
	return r, nil
}
