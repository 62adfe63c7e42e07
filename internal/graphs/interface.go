package graphs

import "io"

// Renderer writes a model in some output format.
type Renderer interface {
	Render(w io.Writer) error
}

// FileRenderer extends Renderer to accommodate CLI functionality.
type FileRenderer interface {
	Renderer

	// RenderToFile is not assumed to be thread-safe.
	// filename should be the desired file name without an extension.
	RenderToFile(filename string) error
}
