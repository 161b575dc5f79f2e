package parameter

import "time"

// Correlation
const (
	// PerfectFitness replaces 1/0 when a template matches a window exactly
	PerfectFitness = 1e12
)

// Headless runs
const (
	// RunGenerations is the default generation count for headless runs
	RunGenerations = 200

	// RunLogEvery is the progress logging interval in generations
	RunLogEvery = 25

	// BenchTrials is the default number of independent benchmark trials
	BenchTrials = 16

	// BenchParallelism caps concurrently running benchmark trials
	BenchParallelism = 4
)

// Reports
const (
	// ReportPath is the directory for saved run reports
	ReportPath = "./reports"

	// ReportHistoryLimit caps history rows kept in memory per run (0 = unbounded)
	ReportHistoryLimit = 0
)

// Logging
const (
	// LogFileName is the default log file used while the terminal is owned by the viewer
	LogFileName = "gamatch.log"

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 5 * time.Second
)
