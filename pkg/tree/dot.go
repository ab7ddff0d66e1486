package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
)

var colourFill = map[Colour]string{
	White: "white",
	Red:   "firebrick2",
	Gold:  "gold2",
	Black: "gray20",
}

// DOT renders the tree as a Graphviz digraph, the structured counterpart
// to Pretty: coloured nodes, phantom nodes dashed, edges labelled by
// child key. Intended for `--verbose` debugging and CI artefact upload,
// not for parsing.
func (t *Tree) DOT(name string) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	for h := Handle(0); int(h) < len(t.arena); h++ {
		n := t.node(h)
		label := fmt.Sprintf("%d\\naddr=%#x\\n%s\\nsel=%d/%d sim=%d/%d", h, n.Addr, n.Colour(), n.SelWin, n.SelTry, n.SimWin, n.SimTry)
		style := "filled"
		if n.Phantom {
			style = "filled,dashed"
		}
		attrs := map[string]string{
			"label":     strconv.Quote(label),
			"style":     strconv.Quote(style),
			"fillcolor": strconv.Quote(colourFill[n.Colour()]),
			"fontcolor": strconv.Quote(fontColourFor(n.Colour())),
		}
		if err := g.AddNode(name, nodeID(h), attrs); err != nil {
			return "", err
		}
	}

	for h := Handle(0); int(h) < len(t.arena); h++ {
		n := t.node(h)
		for key, child := range n.Children {
			attrs := map[string]string{"label": strconv.Quote(key)}
			if err := g.AddEdge(nodeID(h), nodeID(child), true, attrs); err != nil {
				return "", err
			}
		}
	}

	return g.String(), nil
}

func fontColourFor(c Colour) string {
	if c == Black {
		return "white"
	}
	return "black"
}

func nodeID(h Handle) string {
	return "n" + strconv.Itoa(int(h))
}

// Pretty renders a human-readable indented dump of the tree, the textual
// analogue of the original implementation's recursive pp(): each node on
// its own line, children indented beneath their parent, capped at a depth
// of 15 below any White node since an unclassified subtree cannot yet
// reveal anything interesting further down.
func (t *Tree) Pretty() string {
	if t.root == NoHandle {
		return "(empty tree)"
	}
	var b strings.Builder
	t.pretty(&b, t.root, 0, 0)
	return b.String()
}

const maxWhiteDepth = 15

func (t *Tree) pretty(b *strings.Builder, h Handle, depth, whiteDepth int) {
	n := t.node(h)
	marker := ""
	if n.Phantom {
		marker = " (phantom)"
	}
	if n.FullyExplored {
		marker += " [fully_explored]"
	}
	fmt.Fprintf(b, "%s#%d addr=%#x %s sel=%d/%d sim=%d/%d%s\n",
		strings.Repeat("  ", depth), h, n.Addr, n.Colour(), n.SelWin, n.SelTry, n.SimWin, n.SimTry, marker)

	nextWhiteDepth := whiteDepth
	if n.Colour() == White {
		nextWhiteDepth++
	}
	if nextWhiteDepth > maxWhiteDepth {
		return
	}
	for _, child := range n.Children {
		t.pretty(b, child, depth+1, nextWhiteDepth)
	}
}
