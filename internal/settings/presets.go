package settings

import (
	"strconv"

	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/utility"
)

// Presets are the lifetimes offered by the expiration dropdown, in display
// order.
var Presets = []domain.Preset{
	{Seconds: 86400, Label: "1 Day"},
	{Seconds: 172800, Label: "2 Days"},
	{Seconds: 432000, Label: "5 Days"},
	{Seconds: 604800, Label: "1 Week"},
	{Seconds: 1210000, Label: "2 Weeks (Default)"},
	{Seconds: 2630000, Label: "1 Month"},
	{Seconds: 5259000, Label: "2 Months"},
	{Seconds: 7889000, Label: "3 Months"},
	{Seconds: 15780000, Label: "6 Months"},
	{Seconds: 31560000, Label: "1 Year"},
}

// PresetFor returns the preset loosely equal to value, if any.
func PresetFor(value string) (domain.Preset, bool) {
	for _, p := range Presets {
		if utility.LooseEqual(strconv.Itoa(p.Seconds), value) {
			return p, true
		}
	}
	return domain.Preset{}, false
}
