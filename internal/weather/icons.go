package weather

import (
	"strings"

	"github.com/i474232898/weerlive-forecast/internal/common"
)

// Condition is a coarse weather category derived from the provider's
// free-text condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// DefaultFallbackIcon is shown for conditions missing from the icon table.
const DefaultFallbackIcon = "bewolkt.png"

// DefaultIcons maps lower-cased Weerlive condition text to icon files.
func DefaultIcons() map[string]string {
	return map[string]string{
		"zonnig":        "zonnig.png",
		"bewolkt":       "bewolkt.png",
		"half bewolkt":  "halfbewolkt.png",
		"halfbewolkt":   "halfbewolkt.png",
		"licht bewolkt": "halfbewolkt.png",
		"lichtbewolkt":  "halfbewolkt.png",
		"regen":         "regen.png",
		"buien":         "buien.png",
		"mist":          "mist.png",
		"sneeuw":        "sneeuw.png",
		"onweer":        "bliksem.png",
		"bliksem":       "bliksem.png",
		"hagel":         "hagel.png",
		"helderenacht":  "helderenacht.png",
		"nachtmist":     "nachtmist.png",
		"wolkennacht":   "wolkennacht.png",
		"zwaar bewolkt": "zwaarbewolkt.png",
		"zwaarbewolkt":  "zwaarbewolkt.png",
	}
}

// IconSet resolves condition text to an icon identifier.
type IconSet struct {
	icons    map[string]string
	fallback string
}

// NewIconSet builds an IconSet. Keys are lower-cased so lookups are
// case-insensitive.
func NewIconSet(icons map[string]string, fallback string) IconSet {
	m := make(map[string]string, len(icons))
	for k, v := range icons {
		m[normalizeCondition(k)] = v
	}
	if fallback == "" {
		fallback = DefaultFallbackIcon
	}
	return IconSet{icons: m, fallback: fallback}
}

// Icon returns the icon for condition, or the fallback icon.
func (s IconSet) Icon(condition string) string {
	if icon, ok := s.icons[normalizeCondition(condition)]; ok {
		return icon
	}
	return s.fallback
}

// Classify maps Weerlive condition text to a coarse Condition.
func Classify(condition string) Condition {
	c := normalizeCondition(condition)
	switch {
	case c == "":
		return ConditionUnknown
	case common.HasAny(c, "onweer", "bliksem", "storm"):
		return ConditionStorm
	case common.HasAny(c, "sneeuw", "hagel", "ijzel"):
		return ConditionSnow
	case common.HasAny(c, "regen", "bui", "motregen"):
		return ConditionRain
	case common.HasAny(c, "mist"):
		return ConditionMist
	case common.HasAny(c, "bewolkt", "wolk"):
		return ConditionCloudy
	case common.HasAny(c, "zon", "helder"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

func normalizeCondition(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
