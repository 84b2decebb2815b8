package compose

import (
	"fmt"
	"strings"

	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// Program is a fully resolved render plan: ordered inputs, the filter
// graph, stream selection and encoder arguments. It is a value; building
// one never touches the filesystem or the engine, and the same scene
// always produces a byte-identical program.
type Program struct {
	Inputs      []Input
	Nodes       []Node
	MapArgs     []string
	EncoderArgs []string
	Duration    float64
	Canvas      Canvas
}

// FilterComplex renders the graph in the engine's filter syntax.
func (p *Program) FilterComplex() string {
	return renderFilterComplex(p.Nodes)
}

// Argv assembles the complete argument vector for a render to the given
// output path, excluding the binary name and global flags the executor
// owns.
func (p *Program) Argv(output string) []string {
	args := make([]string, 0, 32)
	for _, in := range p.Inputs {
		args = append(args, in.Args...)
		args = append(args, "-i", in.Source)
	}
	if len(p.Nodes) > 0 {
		args = append(args, "-filter_complex", p.FilterComplex())
	}
	args = append(args, p.MapArgs...)
	args = append(args, p.EncoderArgs...)
	if p.Duration > 0 {
		args = append(args, "-t", util.FormatFloat(p.Duration))
	}
	args = append(args, output)
	return args
}

// String renders the program for inspection, one declaration per line.
func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("canvas ")
	sb.WriteString(p.Canvas.String())
	sb.WriteByte('\n')
	for i, in := range p.Inputs {
		fmt.Fprintf(&sb, "input %d: ", i)
		if len(in.Args) > 0 {
			sb.WriteString(strings.Join(in.Args, " "))
			sb.WriteByte(' ')
		}
		sb.WriteString(in.Source)
		sb.WriteByte('\n')
	}
	for _, n := range p.Nodes {
		var line strings.Builder
		n.render(&line)
		sb.WriteString("filter: ")
		sb.WriteString(line.String())
		sb.WriteByte('\n')
	}
	if len(p.MapArgs) > 0 {
		sb.WriteString("map: ")
		sb.WriteString(strings.Join(p.MapArgs, " "))
		sb.WriteByte('\n')
	}
	sb.WriteString("encode: ")
	sb.WriteString(strings.Join(p.EncoderArgs, " "))
	sb.WriteByte('\n')
	if p.Duration > 0 {
		sb.WriteString("duration: ")
		sb.WriteString(util.FormatFloat(p.Duration))
		sb.WriteString("s\n")
	}
	return sb.String()
}
