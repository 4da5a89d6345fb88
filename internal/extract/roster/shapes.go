package roster

import (
	"regexp"
	"strings"
)

var (
	roomRe       = regexp.MustCompile(`^\d{1,4}(?:-?[A-Za-z])?$`)
	unitMarkerRe = regexp.MustCompile(`(?i)^unit(\d)?$`)
	unitValueRe  = regexp.MustCompile(`(?i)^(?:unit\s*)?(\d)$`)
)

// allowedUnits is the facility's unit allow-list, keyed by unit number.
var allowedUnits = map[string]string{
	"2": "Unit 2",
	"3": "Unit 3",
	"4": "Unit 4",
}

// layout is what a shape rule recovers from the tokens before the identifier.
type layout struct {
	unit string
	room string
	name string
}

// shape is one entry of the ordered line-shape rule table.
type shape struct {
	name  string
	match func(toks []string) (layout, bool)
}

var shapes = []shape{
	{"room-last-comma-first", matchRoomCommaName},
	{"room-name-parts", matchRoomNameParts},
	{"unit-room-name", matchUnitRoomName},
	{"room-joined-name", matchRoomJoinedName},
	{"legacy-unit-room-name", matchLegacy},
	{"name-only", matchNameOnly},
}

// classify runs the shape table in priority order.
func classify(toks []string) (layout, string, bool) {
	for _, s := range shapes {
		if l, ok := s.match(toks); ok {
			return l, s.name, true
		}
	}
	return layout{}, "", false
}

func isRoom(tok string) bool {
	return roomRe.MatchString(tok)
}

func join(toks []string) string {
	return strings.Join(toks, " ")
}

func matchRoomCommaName(toks []string) (layout, bool) {
	if len(toks) < 2 || !isRoom(toks[0]) || !strings.HasSuffix(toks[1], ",") {
		return layout{}, false
	}
	return layout{room: toks[0], name: join(toks[1:])}, true
}

// matchRoomNameParts requires the second token not to be a room so that
// "3 361 SMITH, JOHN" is left for the explicit unit rule.
func matchRoomNameParts(toks []string) (layout, bool) {
	if len(toks) < 3 || !isRoom(toks[0]) || isRoom(toks[1]) {
		return layout{}, false
	}
	return layout{room: toks[0], name: join(toks[1:])}, true
}

func matchUnitRoomName(toks []string) (layout, bool) {
	if len(toks) < 2 {
		return layout{}, false
	}
	if m := unitMarkerRe.FindStringSubmatch(toks[0]); m != nil {
		if m[1] != "" {
			// "Unit3 361 NAME"
			return layout{unit: m[1], room: toks[1], name: join(toks[2:])}, true
		}
		if len(toks) < 3 {
			return layout{}, false
		}
		return layout{unit: toks[1], room: toks[2], name: join(toks[3:])}, true
	}
	if _, ok := allowedUnits[toks[0]]; ok && len(toks) >= 3 {
		return layout{unit: toks[0], room: toks[1], name: join(toks[2:])}, true
	}
	return layout{}, false
}

func matchRoomJoinedName(toks []string) (layout, bool) {
	if len(toks) != 2 || !isRoom(toks[0]) {
		return layout{}, false
	}
	return layout{room: toks[0], name: toks[1]}, true
}

// matchLegacy handles old exports with a free-form unit column. The room
// column must still look like a room, otherwise the tokens are a bare name.
func matchLegacy(toks []string) (layout, bool) {
	if len(toks) < 3 || !isRoom(toks[1]) {
		return layout{}, false
	}
	return layout{unit: toks[0], room: toks[1], name: join(toks[2:])}, true
}

func matchNameOnly(toks []string) (layout, bool) {
	if len(toks) == 0 {
		return layout{}, false
	}
	if len(toks) == 1 && isRoom(toks[0]) {
		return layout{room: toks[0]}, true
	}
	// "Unit 2" with nothing after it is a unit label, not a name.
	if unitMarkerRe.MatchString(toks[0]) {
		return layout{}, false
	}
	return layout{name: join(toks)}, true
}

// NormalizeUnit maps a raw unit token onto the allow-list, falling back to
// the room's leading digit. It returns "" when neither yields a known unit.
func NormalizeUnit(raw, room string) string {
	if m := unitValueRe.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		if u, ok := allowedUnits[m[1]]; ok {
			return u
		}
	}
	if room != "" {
		if u, ok := allowedUnits[room[:1]]; ok {
			return u
		}
	}
	return ""
}

// normalizeName emits "SURNAME, GIVEN NAMES". Names that already carry a
// comma are kept, minus trailing dashes.
func normalizeName(raw string) string {
	name := join(strings.Fields(raw))
	if strings.Contains(name, ",") {
		return strings.TrimRight(name, "- ")
	}
	toks := strings.Fields(name)
	if len(toks) <= 1 {
		return name
	}
	return toks[len(toks)-1] + ", " + join(toks[:len(toks)-1])
}
