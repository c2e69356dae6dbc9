package oracle

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"bountyOracle/internal/model"
)

// MapEvent classifies a raw feed record. It returns either a payout request or the
// terminal outcome for a record that will not be submitted.
func MapEvent(ev model.RawEvent) (model.PayoutRequest, *model.Outcome) {
	if ev.Err != nil {
		return skip(nil, model.ReasonMalformedRecord)
	}

	eventType, _ := ev.StringField(model.FieldEventType)
	if eventType != model.EventTypePRMerged {
		return skip(nil, model.ReasonUnrecognizedType)
	}

	rawID, hasID := ev.Field(model.FieldBountyID)
	wallet, _ := ev.StringField(model.FieldWinnerWallet)
	wallet = strings.TrimSpace(wallet)
	if !hasID || rawID == nil || wallet == "" {
		var idPtr *uint64
		if id, ok := parseBountyID(rawID); ok {
			idPtr = &id
		}
		return skip(idPtr, model.ReasonMissingField)
	}

	bountyID, ok := parseBountyID(rawID)
	if !ok {
		return skip(nil, model.ReasonInvalidBountyID)
	}

	prLink, _ := ev.StringField(model.FieldPRLink)
	return model.PayoutRequest{
		Index:        ev.Index,
		BountyID:     bountyID,
		WinnerWallet: wallet,
		PRLink:       prLink,
	}, nil
}

func skip(bountyID *uint64, reason string) (model.PayoutRequest, *model.Outcome) {
	outcome := model.SkippedMalformed(bountyID, reason)
	return model.PayoutRequest{}, &outcome
}

// parseBountyID accepts non-negative integral JSON numbers.
func parseBountyID(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		if id, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return id, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case float64:
		return integralFloat(n)
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

func integralFloat(f float64) (uint64, bool) {
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}
