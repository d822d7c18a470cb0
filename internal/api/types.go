package api

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse is the body of GET /readiness when the coordinator is running
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// VersionResponse is the body of GET /version
type VersionResponse struct {
	Version   string `json:"version" example:"v0.3.0"`
	Commit    string `json:"commit" example:"abc123def"`
	BuildDate string `json:"build_date" example:"2026-01-15 10:30:00 UTC"`
	GoVersion string `json:"go_version" example:"go1.25.2"`
	Platform  string `json:"platform" example:"linux/amd64"`
}
