package genetic

import "github.com/lixenwraith/gamatch/parameter"

// BadFitness is the fitness of any location outside the valid search area
const BadFitness = 0.0

// GeneBits is the width of each coordinate field
const GeneBits = parameter.GAGeneBits

// --- Core Data Structures ---

// Gene is a candidate template position with its cached fitness
// Fitness always corresponds to the current X/Y; operators that move a gene reset it
type Gene struct {
	X uint16
	Y uint16
	// Fitness is the quality of this position (higher = better)
	Fitness float64
}

// Axis selects one coordinate field of a gene
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// String returns human-readable axis name
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "unknown"
	}
}

// --- Fitness Oracle ---

// Oracle scores a template position; higher is better
// The engine only calls Evaluate for positions inside its Bounds
type Oracle interface {
	Evaluate(x, y int) float64
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(x, y int) float64

func (f OracleFunc) Evaluate(x, y int) float64 {
	return f(x, y)
}
