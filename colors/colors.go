package colors

import "github.com/fatih/color"

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
)

// Prefix returns a coloured "[name] " prefix for background loop logs
func Prefix(name string) string {
	return Blue("[" + name + "] ")
}
