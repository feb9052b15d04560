package crowdsale

import (
	"fmt"
	"time"
)

// PendingWhitelist returns the entries that are not yet on chain.
func PendingWhitelist(w []WhitelistEntry) []WhitelistEntry {
	var out []WhitelistEntry
	for _, e := range w {
		if !e.Stored {
			out = append(out, e)
		}
	}
	return out
}

// FieldsToUpdate compares the current tiers against the initial values
// captured at load time and lists the updates that need a transaction.
// Only tiers whose initial values were captured (updatable tiers) are
// considered; startTime is only tracked for Dutch auctions.
func FieldsToUpdate(strategy Strategy, initial []InitialValues, tiers []Tier, loc *time.Location) ([]Update, error) {
	var out []Update
	for _, iv := range initial {
		if !iv.Updatable {
			continue
		}
		if iv.Index < 0 || iv.Index >= len(tiers) {
			return nil, fmt.Errorf("initial values reference tier %d, have %d tiers", iv.Index, len(tiers))
		}
		cur := tiers[iv.Index]

		startMoved := false
		if strategy == DutchAuction && iv.StartTime != "" {
			was, err := ParseDate(iv.StartTime, loc)
			if err != nil {
				return nil, err
			}
			now, err := ParseDate(cur.StartTime, loc)
			if err != nil {
				return nil, err
			}
			if !was.Equal(now) {
				startMoved = true
				out = append(out, Update{Key: AttrStartTime, Tier: iv.Index, Time: cur.StartTime})
			}
		}

		// setCrowdsaleStartAndDuration already carries the new duration.
		// An untouched window is skipped: the display strings drop the
		// seconds the captured duration still holds.
		untouched := cur.StartTime == iv.StartTime && cur.EndTime == iv.EndTime
		if iv.EndTime != "" && !startMoved && !untouched {
			d, err := DurationMs(cur.StartTime, cur.EndTime, loc)
			if err != nil {
				return nil, err
			}
			if d != iv.Duration {
				out = append(out, Update{Key: AttrEndTime, Tier: iv.Index, Time: cur.EndTime})
			}
		}

		if pending := PendingWhitelist(cur.Whitelist); len(pending) > 0 {
			out = append(out, Update{Key: AttrWhitelist, Tier: iv.Index, Whitelist: pending})
		}
	}
	return out, nil
}
