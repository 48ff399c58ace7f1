// Package ui renders frampt's terminal output with Lip Gloss.
//
// # Components Overview
//
//	Spinner     - Animated status line for connect and transfer phases
//	Status      - One-line ✓/✗/! results with optional timing
//	Transcript  - Bordered block of session commands and their output
//	HostTable   - Configured hosts and ssh config aliases
//	HostPicker  - Interactive host selection (Bubble Tea list)
//	Prompts     - Password and confirm prompts using Huh forms
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess (green)  - Successful operations
//	ColorError   (red)    - Failures
//	ColorWarning (yellow) - Warnings
//	ColorInfo    (cyan)   - Paths and host names
//	ColorMuted   (gray)   - Timing and secondary text
//
// Use DisableColors() for monochrome output (for --no-color or NO_COLOR).
package ui
