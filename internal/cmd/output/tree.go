package output

import (
	"fmt"
	"io"

	"github.com/ddddddO/gtree"

	"github.com/agentstation/ribbonsync/pkg/tree"
)

// TreeFormatter renders a *tree.Node as an indented branch diagram. Other
// data is handed to the table formatter.
type TreeFormatter struct{}

// Format implements the Formatter interface for tree output.
func (f *TreeFormatter) Format(w io.Writer, data any) error {
	n, ok := data.(*tree.Node)
	if !ok {
		return (&TableFormatter{}).Format(w, data)
	}
	if n == nil {
		return nil
	}
	root := gtree.NewRoot(label(n))
	addChildren(root, n)
	return gtree.OutputProgrammably(w, root)
}

func addChildren(parent *gtree.Node, n *tree.Node) {
	for _, c := range n.Children {
		addChildren(parent.Add(label(c)), c)
	}
}

func label(n *tree.Node) string {
	switch {
	case n.Kind == tree.KindPackage:
		return n.Identity
	case n.Type != "":
		return fmt.Sprintf("%s [%s]", n.Identity, n.Type)
	default:
		return fmt.Sprintf("%s (%s)", n.Identity, n.Kind)
	}
}
