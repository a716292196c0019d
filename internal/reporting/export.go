package reporting

import (
	"encoding/json"
	"fmt"
	"io"

	"strategy-journal/internal/domain"
)

// Export is the offline journal document read by the CLI.
type Export struct {
	Strategies []ExportedStrategy `json:"strategies"`
}

// ExportedStrategy is one strategy with its flat bets and optional bet groups.
type ExportedStrategy struct {
	Strategy domain.Strategy   `json:"strategy"`
	Bets     []domain.Bet      `json:"bets"`
	Groups   []domain.BetGroup `json:"groups,omitempty"`
}

// ReadExport decodes an export document.
func ReadExport(r io.Reader) (*Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	for i, s := range e.Strategies {
		if s.Strategy.ID == "" {
			return nil, fmt.Errorf("strategy %d: missing id", i)
		}
	}
	return &e, nil
}
