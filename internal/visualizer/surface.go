package visualizer

import (
	"time"

	"github.com/psidex/dossiergraph/internal/graphs"
	"github.com/psidex/dossiergraph/internal/layout"
)

// Surface is where the visualizer draws: a browser canvas over a websocket, or a
// recorder in tests. Calls for one generation arrive in order, and a Surface must not
// call back into the Visualizer.
type Surface interface {
	// Model announces a new model, everything drawn before it is stale.
	Model(generation int, m graphs.Model)
	Frame(generation int, f layout.Frame)
	Fit(generation int, c layout.Camera, transition time.Duration)
	// Notice is blocking for the user, it is shown before Click returns.
	Notice(n Notice)
	// Fault replaces the canvas with a static message.
	Fault(message string)
}

// Notice is the role gate's answer to a click on a locked node.
type Notice struct {
	NodeID  string `json:"nodeId"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// FallbackMessage is shown in place of the canvas when the layout cannot run.
const FallbackMessage = "The relationship graph cannot be drawn here. The dossier data is still available above."
