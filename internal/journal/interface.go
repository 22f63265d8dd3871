package journal

// Service defines the interface for journal operations
type Service interface {
	Record(entry Entry) error
	Recent(limit int) ([]Entry, error)
	Clear() (int64, error)
	Cleanup() (int64, error)
	Stats() (*Stats, error)
	Close() error
}

// Ensure implementations satisfy Service
var (
	_ Service = (*Journal)(nil)
	_ Service = (*MockService)(nil)
)
