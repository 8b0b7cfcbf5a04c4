// Package banner prints a startup banner for the elevator system processes.
package banner

import (
	"fmt"
	"strings"
)

const logo = `
======================================================================
 _____ _                 _
|  ___| |               | |
| |__ | | _____   ____ _| |_ ___  _ __
|  __|| |/ _ \ \ / / _` + "`" + ` | __/ _ \| '__|
| |___| |  __/\ V / (_| | || (_) | |
\____/|_|\___| \_/ \__,_|\__\___/|_|
----------------------------------------------------------------------`

const footer = `======================================================================`

// ConfigLine represents a single configuration line to display.
type ConfigLine struct {
	Label string
	Value string
}

// Print displays the startup banner with the process name and configuration.
func Print(processName string, config []ConfigLine) {
	fmt.Println(logo)
	fmt.Printf("%s\n", processName)

	maxLen := 0
	for _, c := range config {
		if len(c.Label) > maxLen {
			maxLen = len(c.Label)
		}
	}

	for _, c := range config {
		padding := strings.Repeat(" ", maxLen-len(c.Label))
		fmt.Printf("  %s%s : %s\n", c.Label, padding, c.Value)
	}

	fmt.Println()
	fmt.Println("Ready.")
	fmt.Println(footer)
	fmt.Println()
}
