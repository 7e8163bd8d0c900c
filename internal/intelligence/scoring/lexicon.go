package scoring

// Difficulty indicator levels.  A document saying "tough" or "brutal" pulls
// the keyword sub-score toward 0.9, "straightforward" toward 0.15.
const (
	easyLevel   = 0.15
	mediumLevel = 0.50
	hardLevel   = 0.90
)

// difficultyLexicon maps normalized cue tokens to indicator levels.  The
// keyword sub-score is the frequency-weighted mean over every hit in a
// topic's contributing documents.
var difficultyLexicon = map[string]float64{
	"easy":            easyLevel,
	"easiest":         easyLevel,
	"simple":          easyLevel,
	"basic":           easyLevel,
	"straightforward": easyLevel,
	"trivial":         easyLevel,

	"medium":       mediumLevel,
	"moderate":     mediumLevel,
	"intermediate": mediumLevel,
	"standard":     mediumLevel,
	"typical":      mediumLevel,
	"tricky":       mediumLevel,

	"hard":        hardLevel,
	"hardest":     hardLevel,
	"difficult":   hardLevel,
	"challenging": hardLevel,
	"tough":       hardLevel,
	"toughest":    hardLevel,
	"complex":     hardLevel,
	"advanced":    hardLevel,
	"struggled":   hardLevel,
	"struggling":  hardLevel,
	"brutal":      hardLevel,
}

// roundMarkers name interview stages.  The count of distinct markers in a
// document proxies how many rounds the report describes.
var roundMarkers = []string{
	"phone screen",
	"phone interview",
	"recruiter call",
	"online assessment",
	"coding round",
	"coding challenge",
	"coding interview",
	"leetcode",
	"hackerrank",
	"technical round",
	"technical interview",
	"technical discussion",
	"system design round",
	"design round",
	"behavioral round",
	"behavioral interview",
	"culture fit",
	"hiring manager round",
	"onsite",
	"virtual onsite",
	"team match",
	"bar raiser",
	"take home",
}
