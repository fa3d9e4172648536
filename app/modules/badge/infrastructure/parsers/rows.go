package parsers

import (
	"fmt"
	"strings"
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

var (
	memberColumns   = []string{"member_id", "memberid", "discord_id", "user_id"}
	badgeColumns    = []string{"badge_id", "badgeid", "badge"}
	categoryColumns = []string{"category", "badge_category"}
	awardedColumns  = []string{"awarded_at", "awardedat", "date"}
)

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "01/02/2006", "1/2/06"}

// parseRows converts a header row plus data rows into awards. Rows missing a
// member or badge id are skipped; a malformed date fails the whole file.
func parseRows(rows [][]string, format string) ([]AwardRow, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s must contain at least header and one data row", format)
	}

	header := rows[0]
	memberIdx := findColumn(header, memberColumns)
	badgeIdx := findColumn(header, badgeColumns)
	if memberIdx < 0 || badgeIdx < 0 {
		return nil, fmt.Errorf("%s missing required 'member_id' and 'badge_id' columns", format)
	}
	categoryIdx := findColumn(header, categoryColumns)
	awardedIdx := findColumn(header, awardedColumns)

	var awards []AwardRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		memberID := cell(row, memberIdx)
		badgeID := cell(row, badgeIdx)
		if memberID == "" || badgeID == "" {
			continue
		}

		award := AwardRow{
			MemberID: sharedtypes.DiscordID(memberID),
			BadgeID:  badgeID,
			Category: strings.ToLower(cell(row, categoryIdx)),
		}
		if raw := cell(row, awardedIdx); raw != "" {
			at, err := parseTime(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			award.AwardedAt = at
		}
		awards = append(awards, award)
	}

	if len(awards) == 0 {
		return nil, fmt.Errorf("no valid badge awards found in %s", format)
	}
	return awards, nil
}

func findColumn(header []string, names []string) int {
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		for _, n := range names {
			if normalized == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
