package ghostimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ExportVersion is the version of the Ghostfolio import format written.
const ExportVersion = "v0"

// ActivityType is the Ghostfolio order type.
type ActivityType string

const (
	Buy       ActivityType = "BUY"
	Sell      ActivityType = "SELL"
	Dividend  ActivityType = "DIVIDEND"
	Interest  ActivityType = "INTEREST"
	Fee       ActivityType = "FEE"
	Item      ActivityType = "ITEM"
	Liability ActivityType = "LIABILITY"
)

// ParseActivityType maps a broker action ("buy", "Dividend", ...) to an ActivityType.
func ParseActivityType(action string) (ActivityType, error) {
	t := ActivityType(strings.ToUpper(strings.TrimSpace(action)))
	switch t {
	case Buy, Sell, Dividend, Interest, Fee, Item, Liability:
		return t, nil
	}
	return "", fmt.Errorf("unknown activity type %q", action)
}

// Amount is a decimal written as a bare JSON number, which is what
// Ghostfolio expects.
type Amount struct{ decimal.Decimal }

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{d} }

func (a Amount) MarshalJSON() ([]byte, error) { return []byte(a.Decimal.String()), nil }

func (a *Amount) UnmarshalJSON(data []byte) error { return a.Decimal.UnmarshalJSON(data) }

// Activity is a single line of a Ghostfolio import.
type Activity struct {
	AccountID  string       `json:"accountId"`
	Comment    string       `json:"comment"`
	Fee        Amount       `json:"fee"`
	Quantity   Amount       `json:"quantity"`
	Type       ActivityType `json:"type"`
	UnitPrice  Amount       `json:"unitPrice"`
	Currency   string       `json:"currency"`
	DataSource string       `json:"dataSource"`
	Date       string       `json:"date"`
	Symbol     string       `json:"symbol"`
}

// Meta describes an export.
type Meta struct {
	Date    time.Time `json:"date"`
	Version string    `json:"version"`
}

// Export is the document imported by Ghostfolio.
type Export struct {
	Meta       Meta       `json:"meta"`
	Activities []Activity `json:"activities"`
}

// NewExport returns an empty export dated now.
func NewExport(now time.Time) *Export {
	return &Export{
		Meta:       Meta{Date: now, Version: ExportVersion},
		Activities: []Activity{},
	}
}

// FormatDate formats an activity date the way Ghostfolio reads it.
func FormatDate(t time.Time) string { return t.Format(time.RFC3339) }

// ExportFilename returns the name of the export file for a broker at a given time.
func ExportFilename(broker string, now time.Time) string {
	return fmt.Sprintf("ghostfolio-%s-%s.json", strings.ToLower(broker), now.Format("20060102150405"))
}

// WriteExport serializes e into dir and returns the path of the written file.
// When indent is true the JSON is indented for easier reading.
func WriteExport(dir, broker string, now time.Time, e *Export, indent bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(e, "", "  ")
	} else {
		data, err = json.Marshal(e)
	}
	if err != nil {
		return "", fmt.Errorf("export error: cannot encode activities: %w", err)
	}
	filename := filepath.Join(dir, ExportFilename(broker, now))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("export error: cannot write %q: %w", filename, err)
	}
	return filename, nil
}
