package topology

import (
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Kind selects how a component is drawn
type Kind string

const (
	KindExternal      Kind = "external"
	KindLoadBalancer  Kind = "load_balancer"
	KindSecurityGroup Kind = "security_group"
	KindNetwork       Kind = "network"
	KindService       Kind = "service"
	KindCache         Kind = "cache"
	KindTopic         Kind = "topic"
	KindQueue         Kind = "queue"
	KindDatabase      Kind = "database"
)

var kindShapes = map[Kind][]encoding.Attribute{
	KindExternal:      {{Key: "shape", Value: "ellipse"}},
	KindLoadBalancer:  {{Key: "shape", Value: "box"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#f3e5f5"}},
	KindSecurityGroup: {{Key: "shape", Value: "hexagon"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#ffebee"}},
	KindNetwork:       {{Key: "shape", Value: "box"}, {Key: "style", Value: "dashed"}},
	KindService:       {{Key: "shape", Value: "box"}, {Key: "style", Value: "rounded,filled"}, {Key: "fillcolor", Value: "#fff3e0"}},
	KindCache:         {{Key: "shape", Value: "box3d"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#e3f2fd"}},
	KindTopic:         {{Key: "shape", Value: "cds"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#fce4ec"}},
	KindQueue:         {{Key: "shape", Value: "cds"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#fce4ec"}},
	KindDatabase:      {{Key: "shape", Value: "cylinder"}, {Key: "style", Value: "filled"}, {Key: "fillcolor", Value: "#e8f5e9"}},
}

// attrs is a fixed attribute list
type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

// Component is a node of the diagram
type Component struct {
	id    int64
	Name  string
	Label string
	Kind  Kind
}

// ID implements graph.Node
func (c *Component) ID() int64 { return c.id }

// DOTID returns a stable identifier derived from the component name
func (c *Component) DOTID() string { return c.Name }

// Attributes implements encoding.Attributer
func (c *Component) Attributes() []encoding.Attribute {
	out := []encoding.Attribute{{Key: "label", Value: c.Label}}
	return append(out, kindShapes[c.Kind]...)
}

// Link is a directed, optionally styled connection between two components
type Link struct {
	F, T  *Component
	Label string
	Color string
	Style string
}

// From implements graph.Edge
func (l Link) From() graph.Node { return l.F }

// To implements graph.Edge
func (l Link) To() graph.Node { return l.T }

// ReversedEdge implements graph.Edge
func (l Link) ReversedEdge() graph.Edge {
	l.F, l.T = l.T, l.F
	return l
}

// Attributes implements encoding.Attributer
func (l Link) Attributes() []encoding.Attribute {
	var out []encoding.Attribute
	if l.Label != "" {
		out = append(out, encoding.Attribute{Key: "label", Value: l.Label})
	}
	if l.Color != "" {
		out = append(out, encoding.Attribute{Key: "color", Value: l.Color})
	}
	if l.Style != "" {
		out = append(out, encoding.Attribute{Key: "style", Value: l.Style})
	}
	return out
}

// Cluster groups components into a DOT cluster subgraph. Clusters nest.
type Cluster struct {
	*simple.DirectedGraph
	name     string
	label    string
	children []*Cluster
}

// DOTID names the subgraph; the cluster_ prefix makes Graphviz draw a box around it
func (c *Cluster) DOTID() string { return "cluster_" + c.name }

// DOTAttributers implements dot.Attributers
func (c *Cluster) DOTAttributers() (g, n, e encoding.Attributer) {
	return attrs{{Key: "label", Value: c.label}, {Key: "style", Value: "rounded"}}, attrs{}, attrs{}
}

// Structure implements dot.Structurer
func (c *Cluster) Structure() []dot.Graph {
	out := make([]dot.Graph, len(c.children))
	for i, child := range c.children {
		out[i] = child
	}
	return out
}

// Cluster adds a nested cluster
func (c *Cluster) Cluster(name, label string) *Cluster {
	child := newCluster(name, label)
	c.children = append(c.children, child)
	return child
}

// Place puts components inside the cluster. A component belongs to one cluster.
func (c *Cluster) Place(components ...*Component) {
	for _, comp := range components {
		if c.Node(comp.ID()) == nil {
			c.AddNode(comp)
		}
	}
}

func newCluster(name, label string) *Cluster {
	return &Cluster{
		DirectedGraph: simple.NewDirectedGraph(),
		name:          slug(name),
		label:         label,
	}
}

// Diagram is a directed graph of components with nested clusters
type Diagram struct {
	*simple.DirectedGraph
	Title     string
	Direction string // Graphviz rankdir: LR or TB
	clusters  []*Cluster
	byName    map[string]*Component
}

// New creates an empty left-to-right diagram
func New(title string) *Diagram {
	return &Diagram{
		DirectedGraph: simple.NewDirectedGraph(),
		Title:         title,
		Direction:     "LR",
		byName:        make(map[string]*Component),
	}
}

// Add creates a component. Adding an existing name returns the existing component.
func (d *Diagram) Add(name, label string, kind Kind) *Component {
	name = slug(name)
	if c, ok := d.byName[name]; ok {
		return c
	}
	c := &Component{id: int64(len(d.byName)), Name: name, Label: label, Kind: kind}
	d.byName[name] = c
	d.AddNode(c)
	return c
}

// Component returns the component with the given name
func (d *Diagram) Component(name string) (*Component, bool) {
	c, ok := d.byName[slug(name)]
	return c, ok
}

// Connect adds a link; an existing link between the same components is replaced
func (d *Diagram) Connect(link Link) {
	d.SetEdge(link)
}

// Cluster adds a top-level cluster
func (d *Diagram) Cluster(name, label string) *Cluster {
	c := newCluster(name, label)
	d.clusters = append(d.clusters, c)
	return c
}

// DOTAttributers implements dot.Attributers
func (d *Diagram) DOTAttributers() (g, n, e encoding.Attributer) {
	return attrs{
			{Key: "label", Value: d.Title},
			{Key: "labelloc", Value: "t"},
			{Key: "rankdir", Value: d.Direction},
			{Key: "compound", Value: "true"},
		},
		attrs{{Key: "fontname", Value: "Helvetica"}, {Key: "fontsize", Value: "11"}},
		attrs{{Key: "fontname", Value: "Helvetica"}, {Key: "fontsize", Value: "9"}}
}

// Structure implements dot.Structurer
func (d *Diagram) Structure() []dot.Graph {
	out := make([]dot.Graph, len(d.clusters))
	for i, c := range d.clusters {
		out[i] = c
	}
	return out
}

// Marshal encodes the diagram as a DOT digraph
func Marshal(d *Diagram) ([]byte, error) {
	return dot.Marshal(d, slug(d.Title), "", "  ")
}

func slug(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
