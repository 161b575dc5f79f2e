package parameter

// HTTP server
const (
	// ServerListenAddr is the default listen address
	ServerListenAddr = ":8090"

	// ServerMaxSessions caps concurrently held searches
	ServerMaxSessions = 64

	// ServerMaxAdvance caps generations per advance request
	ServerMaxAdvance = 10000

	// ServerMaxUploadBytes caps uploaded image size
	ServerMaxUploadBytes = 32 << 20

	// ServerMaxPixels caps decoded image area
	ServerMaxPixels = 16 << 20

	// ServerMaxPopulation caps population per search
	ServerMaxPopulation = GAPopulationSliderMax
)
