package resolver

import "github.com/vulntor/lac/pkg/signature"

// MatchTable searches the whole body with every entry of the table, in order.
// Each entry that matches contributes one Match; entries may overlap.
func MatchTable(body []byte, strat *signature.TableStrategy) []Match {
	var out []Match
	for _, entry := range strat.Entries {
		if entry.Pattern.Match(body) {
			out = append(out, Match{Version: entry.Version, Description: entry.Description})
		}
	}
	return out
}
