package storage

// Config holds storage configuration
type Config struct {
	Dir     string // Local directory for generated documents
	BaseURL string // Server base URL used in download links
}
