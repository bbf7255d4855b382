package lidar

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	stgpsr "github.com/yuin/stagparser"
)

// formatCapabilities declares, per sibling group, the set of point formats
// (0-10) that carry it. The struct itself is never instantiated for data;
// it exists purely so stagparser can parse its `lasfmt` tags the same way
// the teacher parses `tiledb`/`filters` tags elsewhere in the corpus — a
// tag grammar repurposed from "which TileDB attribute does this field map
// to" to "which point formats carry this sibling".
type formatCapabilities struct {
	GPSTime    bool `lasfmt:"member(of=1,3,4,5,6,7,8,9,10)"`
	RGB        bool `lasfmt:"member(of=2,3,5,7,8,10)"`
	NIR        bool `lasfmt:"member(of=8,10)"`
	Wavepacket bool `lasfmt:"member(of=4,5,9,10)"`
	Extended   bool `lasfmt:"member(of=6,7,8,9,10)"`
}

func parseMemberOf(def stgpsr.Definition) map[int]bool {
	set := make(map[int]bool)
	raw, err := def.Attribute("of")
	if err != nil {
		return set
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			set[n] = true
		}
	}
	return set
}

// loadMemberSets parses formatCapabilities' tags once and caches the
// resulting format-membership sets by field name in memberSets.
var (
	memberSets     map[string]map[int]bool
	memberSetsOnce sync.Once
)

func loadMemberSets() map[string]map[int]bool {
	memberSetsOnce.Do(func() {
		memberSets = make(map[string]map[int]bool)
		defs, err := stgpsr.ParseStruct(formatCapabilities{}, "lasfmt")
		if err != nil {
			return
		}
		t := reflect.TypeOf(formatCapabilities{})
		for i := 0; i < t.NumField(); i++ {
			name := t.Field(i).Name
			fieldDefs := defs[name]
			for _, d := range fieldDefs {
				memberSets[name] = parseMemberOf(d)
			}
		}
	})
	return memberSets
}

// canonicalRecordLength returns the documented LAS point-record length in
// bytes for format, or 0 for an unrecognised format.
func canonicalRecordLength(format uint8) uint16 {
	switch format {
	case 0:
		return 20
	case 1:
		return 28
	case 2:
		return 26
	case 3:
		return 34
	case 4:
		return 57
	case 5:
		return 63
	case 6:
		return 30
	case 7:
		return 36
	case 8:
		return 38
	case 9:
		return 59
	case 10:
		return 67
	default:
		return 0
	}
}

// Capabilities reports which optional sibling groups a point format carries.
type Capabilities struct {
	GPSTime    bool
	RGB        bool
	NIR        bool
	Wavepacket bool
	// Extended marks formats >= 6, which use a widened classification byte,
	// a richer flags byte (scanner channel, overlap), and a 16-bit scaled
	// scan angle instead of the 8-bit rank.
	Extended bool
}

func CapabilitiesFor(format uint8) Capabilities {
	sets := loadMemberSets()
	f := int(format)
	return Capabilities{
		GPSTime:    sets["GPSTime"][f],
		RGB:        sets["RGB"][f],
		NIR:        sets["NIR"][f],
		Wavepacket: sets["Wavepacket"][f],
		Extended:   sets["Extended"][f],
	}
}
