package httpapi

// Config defines console HTTP settings.
type Config struct {
	Addr        string
	BaseURL     string
	BasePath    string
	HistorySize int
}
