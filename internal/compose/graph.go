package compose

import "strings"

// Input is one source fed to the engine, with the options that must
// precede it on the command line.
type Input struct {
	Args   []string
	Source string
}

// Node is one filter invocation in the graph. Labels are stored bare;
// brackets are added at render time.
type Node struct {
	Op      string
	Params  string
	Inputs  []string
	Outputs []string
}

func (n Node) render(sb *strings.Builder) {
	for _, in := range n.Inputs {
		sb.WriteByte('[')
		sb.WriteString(in)
		sb.WriteByte(']')
	}
	sb.WriteString(n.Op)
	if n.Params != "" {
		sb.WriteByte('=')
		sb.WriteString(n.Params)
	}
	for _, out := range n.Outputs {
		sb.WriteByte('[')
		sb.WriteString(out)
		sb.WriteByte(']')
	}
}

// graphBuilder accumulates inputs and nodes in deterministic order. The
// same scene always yields the same labels, so programs diff cleanly.
type graphBuilder struct {
	inputs []Input
	nodes  []Node
}

// addInput registers a source and returns its input index.
func (g *graphBuilder) addInput(source string, args ...string) int {
	g.inputs = append(g.inputs, Input{Args: args, Source: source})
	return len(g.inputs) - 1
}

func (g *graphBuilder) add(op, params string, inputs []string, outputs ...string) {
	g.nodes = append(g.nodes, Node{Op: op, Params: params, Inputs: inputs, Outputs: outputs})
}

// chain applies a sequence of single-input filters to in, labeling each
// intermediate as base_<suffix>, and returns the final label.
func (g *graphBuilder) chain(in, base string, steps []filterStep) string {
	cur := in
	for _, s := range steps {
		out := base + "_" + s.suffix
		g.add(s.op, s.params, []string{cur}, out)
		cur = out
	}
	return cur
}

type filterStep struct {
	op     string
	params string
	suffix string
}

func renderFilterComplex(nodes []Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte(';')
		}
		n.render(&sb)
	}
	return sb.String()
}
