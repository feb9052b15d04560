package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

const DefaultSessionFile = "console_session.json"

// SessionTier is the unsaved part of one tier.
type SessionTier struct {
	Index     int                        `json:"index"`
	StartTime string                     `json:"startTime,omitempty"`
	EndTime   string                     `json:"endTime,omitempty"`
	Pending   []crowdsale.WhitelistEntry `json:"pending,omitempty"`
}

// Session is what survives a restart: edits not yet submitted.
type Session struct {
	ExecID string        `json:"execId"`
	Tiers  []SessionTier `json:"tiers"`
}

// Snapshot captures edits that differ from the initial values.
func (c *Console) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Session{ExecID: c.execID}
	for _, iv := range c.initial {
		if iv.Index < 0 || iv.Index >= len(c.tiers) {
			continue
		}
		t := c.tiers[iv.Index]
		st := SessionTier{Index: iv.Index, Pending: crowdsale.PendingWhitelist(t.Whitelist)}
		if t.StartTime != iv.StartTime {
			st.StartTime = t.StartTime
		}
		if t.EndTime != iv.EndTime {
			st.EndTime = t.EndTime
		}
		if st.StartTime != "" || st.EndTime != "" || len(st.Pending) > 0 {
			s.Tiers = append(s.Tiers, st)
		}
	}
	return s
}

// SaveSession writes the pending edits to path.
func (c *Console) SaveSession(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c.Snapshot())
}

// LoadSession reapplies saved edits for the same crowdsale. A missing file
// is not an error. It returns how many tiers were restored.
func (c *Console) LoadSession(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session: %w", err)
	}
	defer f.Close()
	var s Session
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return 0, fmt.Errorf("session %s: %w", path, err)
	}
	if s.ExecID != c.ExecID() {
		return 0, nil
	}

	var errs []error
	restored := 0
	for _, st := range s.Tiers {
		// start first so the end check sees the moved window
		if st.StartTime != "" {
			if err := c.SetStartTime(st.Index, st.StartTime); err != nil {
				errs = append(errs, err)
			}
		}
		if st.EndTime != "" {
			if err := c.SetEndTime(st.Index, st.EndTime); err != nil {
				errs = append(errs, err)
			}
		}
		for _, e := range st.Pending {
			if err := c.AddWhitelistEntry(st.Index, e); err != nil && !errors.Is(err, ErrDuplicate) {
				errs = append(errs, err)
			}
		}
		restored++
	}
	return restored, errors.Join(errs...)
}
