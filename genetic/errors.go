package genetic

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is wrapped by every configuration validation failure
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNilOracle is returned when an engine is built without a fitness oracle
	ErrNilOracle = errors.New("fitness oracle is nil")

	// ErrNilSource is returned when an engine is built without a random source
	ErrNilSource = errors.New("random source is nil")
)
