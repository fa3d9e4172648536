package eligibilitydomain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// Verdict explains whether a member qualifies for a tier. It is computed per
// call and never stored as authoritative state.
type Verdict struct {
	MemberID    sharedtypes.DiscordID `json:"member_id"`
	TierID      sharedtypes.TierID    `json:"tier_id"`
	TierName    tierdomain.TierName   `json:"tier_name"`
	Eligible    bool                  `json:"eligible"`
	Groups      []GroupResult         `json:"groups"`
	Message     string                `json:"message"`
	EvaluatedAt time.Time             `json:"evaluated_at"`
}

type GroupResult struct {
	GroupID      string               `json:"group_id"`
	Name         string               `json:"name,omitempty"`
	Mode         tierdomain.GroupMode `json:"mode"`
	Met          bool                 `json:"met"`
	Requirements []RequirementResult  `json:"requirements"`
}

type RequirementResult struct {
	RequirementID string                     `json:"requirement_id"`
	Kind          tierdomain.RequirementKind `json:"kind"`
	Met           bool                       `json:"met"`
	// Unavailable is set when the evidence for the requirement could not be read.
	Unavailable bool   `json:"unavailable,omitempty"`
	Reason      Reason `json:"reason,omitempty"`
}

// Reason explains why a requirement is unmet. It is one of TextReason,
// MissingItems or Shortfall.
type Reason interface {
	fmt.Stringer
	reasonType() string
}

type TextReason struct {
	Text string
}

// MissingItems lists the named items the member lacks.
type MissingItems struct {
	Items []string
}

// Shortfall maps a category to how many more items are needed.
type Shortfall map[string]int

func (r TextReason) String() string   { return r.Text }
func (r MissingItems) String() string { return "missing: " + strings.Join(r.Items, ", ") }

func (s Shortfall) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d more", k, s[k])
	}
	return "short " + strings.Join(parts, ", ")
}

const (
	reasonText      = "text"
	reasonMissing   = "missing_items"
	reasonShortfall = "shortfall"
)

func (TextReason) reasonType() string   { return reasonText }
func (MissingItems) reasonType() string { return reasonMissing }
func (Shortfall) reasonType() string    { return reasonShortfall }

type reasonJSON struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	Items     []string       `json:"items,omitempty"`
	Shortfall map[string]int `json:"shortfall,omitempty"`
}

func (r TextReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasonJSON{Type: reasonText, Text: r.Text})
}

func (r MissingItems) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasonJSON{Type: reasonMissing, Items: r.Items})
}

func (s Shortfall) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasonJSON{Type: reasonShortfall, Shortfall: map[string]int(s)})
}

// UnmarshalJSON restores the concrete Reason variant.
func (r *RequirementResult) UnmarshalJSON(data []byte) error {
	type plain RequirementResult
	var raw struct {
		plain
		Reason *reasonJSON `json:"reason,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RequirementResult(raw.plain)
	r.Reason = nil
	if raw.Reason == nil {
		return nil
	}
	switch raw.Reason.Type {
	case reasonText:
		r.Reason = TextReason{Text: raw.Reason.Text}
	case reasonMissing:
		r.Reason = MissingItems{Items: raw.Reason.Items}
	case reasonShortfall:
		r.Reason = Shortfall(raw.Reason.Shortfall)
	default:
		return fmt.Errorf("unknown reason type %q", raw.Reason.Type)
	}
	return nil
}

// UnmetRequirements returns the results of every requirement that is not met.
func (v Verdict) UnmetRequirements() []RequirementResult {
	var out []RequirementResult
	for _, g := range v.Groups {
		for _, r := range g.Requirements {
			if !r.Met {
				out = append(out, r)
			}
		}
	}
	return out
}
