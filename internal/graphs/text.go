package graphs

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Text renders the model as a coloured listing for terminals.
type Text struct {
	model Model
}

var _ Renderer = (*Text)(nil)

func NewText(m Model) Text {
	return Text{model: m}
}

var roleColors = map[Role]*color.Color{
	RoleRoot:    color.New(color.FgGreen, color.Bold),
	RoleLinked:  color.New(color.FgMagenta),
	RolePerson:  color.New(color.FgRed),
	RoleUnknown: color.New(color.FgHiBlack),
}

func paint(role Role) *color.Color {
	if c, ok := roleColors[role]; ok {
		return c
	}
	return roleColors[RoleUnknown]
}

func (t Text) Render(w io.Writer) error {
	for _, entry := range Legend() {
		if _, err := paint(entry.Role).Fprintf(w, "● %s  ", entry.Label); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n\n%d nodes, %d edges\n", len(t.model.Nodes), len(t.model.Edges)); err != nil {
		return err
	}

	labels := make(map[string]string, len(t.model.Nodes))
	for _, n := range t.model.Nodes {
		labels[n.ID] = n.Label
		if _, err := paint(n.Role).Fprintf(w, "  [%s] %s", n.Role, n.Label); err != nil {
			return err
		}
		if n.ID != n.Label {
			if _, err := fmt.Fprintf(w, " (%s)", n.ID); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	for _, e := range t.model.Edges {
		if _, err := fmt.Fprintf(w, "  %s -%s-> %s\n", labels[e.Source], e.Kind, labels[e.Target]); err != nil {
			return err
		}
	}
	return nil
}
