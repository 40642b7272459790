package ui

import "cscrape/internal/domain"

// Viewer displays run failures in an interactive TUI
type Viewer interface {
	View(output *domain.RunOutput) error
}
