package game

// Game types a session can be recorded under.
const (
	TypeFlags     = "flags"
	TypeCapitals  = "capitals"
	TypeMaps      = "maps"
	TypeLanguages = "languages"
	TypeTrivia    = "trivia"
)

// Types lists every playable game type.
var Types = []string{TypeFlags, TypeCapitals, TypeMaps, TypeLanguages, TypeTrivia}

// ValidType reports whether gameType is one of the fixed game types.
func ValidType(gameType string) bool {
	for _, t := range Types {
		if t == gameType {
			return true
		}
	}
	return false
}
