package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Progress reports the state of a long-running stage to an operator.
type Progress interface {
	Start(message string)
	Update(message string)
	Stop()
}

// NewProgress returns a spinner when f is an interactive terminal and a
// no-op reporter otherwise, so piped output and CI logs stay clean.
func NewProgress(f *os.File) Progress {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return Noop{}
	}
	return NewSpinnerProgress(f)
}

// Noop discards progress updates.
type Noop struct{}

func (Noop) Start(string)  {}
func (Noop) Update(string) {}
func (Noop) Stop()         {}

// SpinnerProgress implements Progress using briandowns/spinner.
type SpinnerProgress struct {
	spinner *spinner.Spinner
}

// NewSpinnerProgress creates a spinner writing to w.
func NewSpinnerProgress(w io.Writer) *SpinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = "  "
	_ = s.Color("cyan", "bold")

	return &SpinnerProgress{spinner: s}
}

// Start starts the spinner with an initial message.
func (sp *SpinnerProgress) Start(message string) {
	sp.spinner.Suffix = "  " + message
	sp.spinner.Start()
}

// Update replaces the spinner message.
func (sp *SpinnerProgress) Update(message string) {
	sp.spinner.Lock()
	sp.spinner.Suffix = "  " + message
	sp.spinner.Unlock()
}

// Stop stops the spinner if it is running.
func (sp *SpinnerProgress) Stop() {
	if sp.spinner.Active() {
		sp.spinner.Stop()
	}
}
