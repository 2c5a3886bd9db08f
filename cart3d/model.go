package cart3d

// Placement states whether result samples live on mesh vertices or on
// triangles. A file carries one placement, never both.
type Placement int

const (
	NodeBased Placement = iota
	CellBased
)

func (p Placement) String() string {
	return [...]string{"node-based", "cell-based"}[p]
}

// Scheme identifies the meaning of the result columns.
type Scheme int

const (
	// Conservative is the 5-variable scheme: density, three momentum
	// components, total energy.
	Conservative Scheme = iota
	// Custom is a caller-named variable set; no quantities are derived
	// from it.
	Custom
)

// ConservativeNames are the column names used for the 5-variable scheme.
var ConservativeNames = []string{"rho", "rhoU", "rhoV", "rhoW", "E"}

// ResultSet holds the raw result columns read from a results file. Values is
// column-major: Values[v][i] is variable v at sample i, so each column has
// length equal to the placement's count.
type ResultSet struct {
	Placement Placement
	Scheme    Scheme
	Names     []string
	Values    [][]float64
}

// Field is a named scalar column computed by derivation, with the same
// placement and length as the ResultSet it came from.
type Field struct {
	Name   string
	Values []float64
}

// Model is the canonical in-memory representation of a Cart3D surface
// triangulation: points, connectivity (0-based), per-triangle region ids,
// and optional attached results. It is built once by Read and treated as
// read-only by all writers; only derivation appends to Derived.
type Model struct {
	Points  [][3]float64
	Tris    [][3]int
	Regions []int
	Results *ResultSet
	Derived []Field
}

// NumPoints returns the node count.
func (m *Model) NumPoints() int { return len(m.Points) }

// NumTris returns the triangle count.
func (m *Model) NumTris() int { return len(m.Tris) }

// SampleCount returns the number of samples a column with the given
// placement must have.
func (m *Model) SampleCount(p Placement) int {
	if p == NodeBased {
		return len(m.Points)
	}
	return len(m.Tris)
}

// Validate checks the structural invariants: triangle indices in range and
// non-degenerate, one region id per triangle, and result/derived column
// lengths matching their placement.
func (m *Model) Validate() error {
	np := len(m.Points)
	for i, tri := range m.Tris {
		for _, n := range tri {
			if n < 0 || n >= np {
				return formatErrf("tris", int64(i), "triangle %d references node %d, valid range [0,%d)", i, n, np)
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return formatErrf("tris", int64(i), "triangle %d is degenerate: repeated node index", i)
		}
	}
	if len(m.Regions) != len(m.Tris) {
		return formatErrf("regions", 0, "have %d region ids for %d triangles", len(m.Regions), len(m.Tris))
	}
	if m.Results != nil {
		want := m.SampleCount(m.Results.Placement)
		if len(m.Results.Names) != len(m.Results.Values) {
			return formatErrf("results", 0, "have %d names for %d columns", len(m.Results.Names), len(m.Results.Values))
		}
		for v, col := range m.Results.Values {
			if len(col) != want {
				return formatErrf("results", int64(v), "column %q has %d samples, want %d (%s)",
					m.Results.Names[v], len(col), want, m.Results.Placement)
			}
		}
	}
	for _, f := range m.Derived {
		want := m.SampleCount(m.FieldPlacement())
		if len(f.Values) != want {
			return formatErrf("results", 0, "derived field %q has %d samples, want %d", f.Name, len(f.Values), want)
		}
	}
	return nil
}

// FieldPlacement returns the placement shared by results and derived fields.
// A model without results is node-based by convention.
func (m *Model) FieldPlacement() Placement {
	if m.Results != nil {
		return m.Results.Placement
	}
	return NodeBased
}

// DerivedField returns the derived column with the given name, or nil.
func (m *Model) DerivedField(name string) *Field {
	for i := range m.Derived {
		if m.Derived[i].Name == name {
			return &m.Derived[i]
		}
	}
	return nil
}
