package parameter

import "time"

// Viewer timing
const (
	// ViewerEventLoopDelay is the interval between generations in the terminal viewer
	ViewerEventLoopDelay = 200 * time.Millisecond

	// ViewerMinDelay is the lowest delay accepted from the command line
	ViewerMinDelay = 10 * time.Millisecond

	// ViewerEventBuffer is the capacity of the terminal event channel
	ViewerEventBuffer = 100
)

// Viewer colors (RGB)
var (
	// ViewerBestRGB outlines the best match
	ViewerBestRGB = [3]int32{255, 0, 0}

	// ViewerSelectRGB outlines the region being dragged
	ViewerSelectRGB = [3]int32{0, 255, 0}

	// ViewerStatusFgRGB is the status line foreground
	ViewerStatusFgRGB = [3]int32{230, 230, 230}

	// ViewerStatusBgRGB is the status line background
	ViewerStatusBgRGB = [3]int32{40, 40, 60}
)

// Viewer layout
const (
	// ViewerStatusRows is reserved at the bottom of the screen
	ViewerStatusRows = 1

	// ViewerRateStep is the percent step for crossover/mutation keys
	ViewerRateStep = 1

	// ViewerPopulationStep is the population step for population keys
	ViewerPopulationStep = 10
)
