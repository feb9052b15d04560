package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TelemetryItem records one console action.
type TelemetryItem struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Action    string `json:"action"`
	Tier      int    `json:"tier"`
	Attribute string `json:"attribute,omitempty"`
	Account   string `json:"account,omitempty"`
	TxHash    string `json:"txHash,omitempty"`
	OK        bool   `json:"ok,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Telemetry struct {
	session string
	mu      sync.Mutex
	items   []TelemetryItem
}

func NewTelemetry() *Telemetry {
	return &Telemetry{session: uuid.NewString()}
}

func (t *Telemetry) Session() string { return t.session }

func (t *Telemetry) Add(it TelemetryItem) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Time == "" {
		it.Time = time.Now().UTC().Format(time.RFC3339)
	}
	t.mu.Lock()
	t.items = append(t.items, it)
	t.mu.Unlock()
}

func (t *Telemetry) Items() []TelemetryItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TelemetryItem(nil), t.items...)
}

// Export writes telemetry to dir/<timestamp>.json and returns the path.
func (t *Telemetry) Export(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, time.Now().Format("20060102_150405")+".json")
	out := map[string]any{
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
		"session":     t.session,
		"telemetry":   t.Items(),
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", err
	}
	return path, nil
}
