package calendar

const (
	Red        = "\033[31m"
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Cyan       = "\033[36m"
	Gray       = "\033[90m" // Bright black, often appears as gray
	Bold       = "\033[1m"
	ResetColor = "\033[0m" // Reset to default color
)

var statusColours = map[string]string{
	"confirmed": Green,
	"scheduled": Cyan,
	"cancelled": Gray,
}
