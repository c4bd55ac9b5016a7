package boundary

import "strings"

// FieldBoundaryType represents field boundary condition kinds at a domain
// face
type FieldBoundaryType uint16

const (
	// FieldBCNone indicates no boundary handling at the face
	FieldBCNone FieldBoundaryType = iota

	FieldBCPEC       // Perfect electric conductor
	FieldBCPeriodic  // Periodic boundary
	FieldBCAbsorbing // Absorbing (Silver-Mueller style) boundary
	FieldBCDamped    // Damped boundary
	FieldBCOpen      // Open boundary
)

// String returns the string representation of a FieldBoundaryType
func (bc FieldBoundaryType) String() string {
	names := map[FieldBoundaryType]string{
		FieldBCNone:      "None",
		FieldBCPEC:       "PEC",
		FieldBCPeriodic:  "Periodic",
		FieldBCAbsorbing: "Absorbing",
		FieldBCDamped:    "Damped",
		FieldBCOpen:      "Open",
	}

	if name, ok := names[bc]; ok {
		return name
	}
	return "Unknown"
}

// FieldBCNameMap provides a mapping from common boundary condition names to
// FieldBoundaryType. Keys are lowercase for case-insensitive matching.
var FieldBCNameMap = map[string]FieldBoundaryType{
	"none": FieldBCNone,

	"pec":               FieldBCPEC,
	"perfect_conductor": FieldBCPEC,
	"conductor":         FieldBCPEC,

	"periodic": FieldBCPeriodic,

	"absorbing":      FieldBCAbsorbing,
	"silver_mueller": FieldBCAbsorbing,

	"damped": FieldBCDamped,

	"open": FieldBCOpen,
}

// ParseFieldBCName converts a boundary condition name string to a
// FieldBoundaryType. The matching is case-insensitive and trims whitespace.
func ParseFieldBCName(name string) (FieldBoundaryType, bool) {
	lowerName := strings.ToLower(strings.TrimSpace(name))

	if bcType, ok := FieldBCNameMap[lowerName]; ok {
		return bcType, true
	}
	return FieldBCNone, false
}

// Table holds the boundary kind at the low and high side of each grid axis.
type Table struct {
	Kinds [3][2]FieldBoundaryType // [axis][side], side 0 = low
}

// NewTable parses per-side name lists for an ndim grid. Unknown names and
// half-periodic axes are configuration errors the caller cannot proceed
// from, so they panic.
func NewTable(lo, hi []string, ndim int) (tb Table) {
	if len(lo) != ndim || len(hi) != ndim {
		panic("boundary table needs one entry per side per active axis")
	}
	for a := 0; a < ndim; a++ {
		var ok bool
		if tb.Kinds[a][0], ok = ParseFieldBCName(lo[a]); !ok {
			panic("unknown field boundary type " + lo[a])
		}
		if tb.Kinds[a][1], ok = ParseFieldBCName(hi[a]); !ok {
			panic("unknown field boundary type " + hi[a])
		}
		if (tb.Kinds[a][0] == FieldBCPeriodic) != (tb.Kinds[a][1] == FieldBCPeriodic) {
			panic("periodic boundary requires both sides of the axis")
		}
	}
	return
}

func (tb Table) Kind(axis, side int) FieldBoundaryType { return tb.Kinds[axis][side] }

func (tb Table) IsPEC(axis, side int) bool { return tb.Kinds[axis][side] == FieldBCPEC }

// AnyPEC reports whether any face of an ndim grid is a perfect conductor,
// letting drivers skip the correction passes entirely.
func (tb Table) AnyPEC(ndim int) bool {
	for a := 0; a < ndim; a++ {
		if tb.IsPEC(a, 0) || tb.IsPEC(a, 1) {
			return true
		}
	}
	return false
}

// Periodicity returns the per-axis periodicity implied by the table, the
// form the mesh geometry consumes.
func (tb Table) Periodicity(ndim int) (p [3]bool) {
	for a := 0; a < ndim; a++ {
		p[a] = tb.Kinds[a][0] == FieldBCPeriodic
	}
	return
}
