package domain

import "strings"

// HazardMode groups the alert event types that belong to one sales campaign
// (smoke, winter, heat, flood, flu).
type HazardMode struct {
	Name  string
	Label string

	// Events lists the NWS event names queried for this mode. A mode with no
	// events has no NWS feed; its features must be supplied by the caller.
	Events []string
}

// FeedBacked reports whether features for the mode can be fetched from NWS.
func (m HazardMode) FeedBacked() bool {
	return len(m.Events) > 0
}

var modes = []HazardMode{
	{
		Name:  "smoke",
		Label: "Wildfire Smoke",
		Events: []string{
			"Air Quality Alert",
			"Dense Smoke Advisory",
			"Red Flag Warning",
			"Fire Weather Watch",
			"Fire Warning",
		},
	},
	{
		Name:  "winter",
		Label: "Winter Storm",
		Events: []string{
			"Winter Storm Warning",
			"Winter Storm Watch",
			"Winter Weather Advisory",
			"Blizzard Warning",
			"Ice Storm Warning",
			"Lake Effect Snow Warning",
			"Extreme Cold Warning",
			"Cold Weather Advisory",
		},
	},
	{
		Name:  "heat",
		Label: "Extreme Heat",
		Events: []string{
			"Extreme Heat Warning",
			"Extreme Heat Watch",
			"Excessive Heat Warning",
			"Excessive Heat Watch",
			"Heat Advisory",
		},
	},
	{
		Name:  "flood",
		Label: "Flooding",
		Events: []string{
			"Flash Flood Warning",
			"Flash Flood Watch",
			"Flood Warning",
			"Flood Watch",
			"Flood Advisory",
			"Coastal Flood Warning",
			"Coastal Flood Advisory",
		},
	},
	{
		Name:  "flu",
		Label: "Flu & Respiratory Illness",
	},
}

// Modes returns the hazard mode catalog in display order.
func Modes() []HazardMode {
	out := make([]HazardMode, len(modes))
	copy(out, modes)
	return out
}

// LookupMode finds a hazard mode by name, case-insensitively.
func LookupMode(name string) (HazardMode, bool) {
	name = strings.TrimSpace(name)
	for _, m := range modes {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return HazardMode{}, false
}
