package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var errorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F45E6E"))

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7D56F4")).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#7D56F4")).
	Padding(0, 2)

// Banner renders the boxed startup banner for the engine binary.
func Banner(name, version string) string {
	return bannerStyle.Render(fmt.Sprintf("%s %s", name, version))
}

// Errorf renders an error line for console output emitted before the
// logger exists.
func Errorf(format string, a ...interface{}) string {
	return errorStyle.Render(fmt.Sprintf(format, a...))
}
