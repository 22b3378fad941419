// Package fsops performs file I/O confined to a read root and a write root.
package fsops

import (
	"github.com/petasbytes/review-agent/internal/safety"
)

// Sandbox holds the resolved roots every tool file operation is confined to.
type Sandbox struct {
	readRoot  string
	writeRoot string
}

// New resolves the roots. An empty readRoot means the working directory and an
// empty writeRoot means readRoot.
func New(readRoot, writeRoot string) (*Sandbox, error) {
	r, w, err := safety.InitSandboxRoot(readRoot, writeRoot)
	if err != nil {
		return nil, err
	}
	return &Sandbox{readRoot: r, writeRoot: w}, nil
}

func (s *Sandbox) ReadRoot() string  { return s.readRoot }
func (s *Sandbox) WriteRoot() string { return s.writeRoot }
