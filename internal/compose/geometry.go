package compose

import (
	"fmt"
	"strings"

	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// placement is the resolved symbolic position of a layer on the canvas.
// X and Y are overlay expressions, never pre-evaluated numbers, so the
// engine re-evaluates them against the layer's actual post-scale size.
type placement struct {
	X string
	Y string
}

// scaleSpec is the resolved scale filter for a layer, empty when the
// layer keeps its source size.
type scaleSpec struct {
	W      string
	H      string
	Aspect string // force_original_aspect_ratio value, empty for none
}

func (s scaleSpec) empty() bool { return s.W == "" && s.H == "" }

func (s scaleSpec) params() string {
	p := s.W + ":" + s.H
	if s.Aspect != "" {
		p += ":force_original_aspect_ratio=" + s.Aspect
	}
	return p
}

// resolvePlacement turns an anchor plus pixel offsets, or a pair of
// custom expressions, into overlay position expressions.
func resolvePlacement(anchor Anchor, dx, dy int, xExpr, yExpr string) (placement, error) {
	if xExpr != "" || yExpr != "" {
		if xExpr == "" || yExpr == "" {
			return placement{}, configErrorf("position", "custom position needs both x and y expressions")
		}
		if err := validateExpr(xExpr); err != nil {
			return placement{}, err
		}
		if err := validateExpr(yExpr); err != nil {
			return placement{}, err
		}
		return placement{X: xExpr, Y: yExpr}, nil
	}
	exprs, ok := anchorExprs[anchor]
	if !ok {
		return placement{}, configErrorf("position", "unknown anchor %q", anchor)
	}
	return placement{
		X: offsetExpr(exprs[0], dx),
		Y: offsetExpr(exprs[1], dy),
	}, nil
}

// quoteParam protects a filter parameter from the filtergraph splitter,
// which breaks on unescaped commas even inside parentheses. Function
// calls like if() and gte() need this; plain anchor arithmetic does not.
func quoteParam(expr string) string {
	if strings.Contains(expr, ",") {
		return "'" + expr + "'"
	}
	return expr
}

func offsetExpr(base string, offset int) string {
	if offset == 0 {
		return base
	}
	if base == "0" {
		return fmt.Sprintf("%d", offset)
	}
	return fmt.Sprintf("%s%+d", base, offset)
}

// resolveScale derives the scale filter for a size spec against the
// resolved canvas. An empty result means no scale node is emitted.
func resolveScale(size SizeSpec, canvas Canvas) (scaleSpec, error) {
	if err := size.validate(); err != nil {
		return scaleSpec{}, err
	}
	cw := fmt.Sprintf("%d", canvas.Width)
	ch := fmt.Sprintf("%d", canvas.Height)
	switch size.Mode {
	case SizeContain:
		return scaleSpec{W: cw, H: ch, Aspect: "decrease"}, nil
	case SizeCover:
		return scaleSpec{W: cw, H: ch, Aspect: "increase"}, nil
	case SizePixels:
		return scaleSpec{W: fmt.Sprintf("%d", size.Width), H: fmt.Sprintf("%d", size.Height)}, nil
	case SizePercent:
		w := int(float64(canvas.Width) * size.Percent / 100)
		h := int(float64(canvas.Height) * size.Percent / 100)
		if w < 1 || h < 1 {
			return scaleSpec{}, configErrorf("size", "percent %g of canvas %s collapses to zero pixels",
				size.Percent, canvas)
		}
		return scaleSpec{W: fmt.Sprintf("%d", w), H: fmt.Sprintf("%d", h), Aspect: "decrease"}, nil
	case SizeScale:
		f := util.FormatFloat(size.Factor)
		return scaleSpec{W: "iw*" + f, H: "ih*" + f}, nil
	case SizeFitWidth:
		return scaleSpec{W: cw, H: "-1"}, nil
	case SizeFitHeight:
		return scaleSpec{W: "-1", H: ch}, nil
	}
	return scaleSpec{}, configErrorf("size", "unknown size mode %q", size.Mode)
}

// exprIdents is the vocabulary a custom position expression may use:
// overlay variables plus the arithmetic functions the engine evaluates.
var exprIdents = map[string]bool{
	"W": true, "H": true, "w": true, "h": true,
	"main_w": true, "main_h": true, "overlay_w": true, "overlay_h": true,
	"t": true, "n": true, "PI": true, "E": true,
	"if": true, "ifnot": true, "gte": true, "lte": true, "gt": true, "lt": true, "eq": true,
	"min": true, "max": true, "mod": true, "abs": true,
	"floor": true, "ceil": true, "round": true, "trunc": true,
	"sin": true, "cos": true, "tan": true, "sqrt": true, "pow": true,
}

// validateExpr rejects expressions referencing identifiers the overlay
// evaluator does not define. It checks vocabulary and balance, not full
// grammar; the engine still has the final word.
func validateExpr(expr string) error {
	depth := 0
	var ident strings.Builder
	flush := func() error {
		if ident.Len() == 0 {
			return nil
		}
		name := ident.String()
		ident.Reset()
		if !exprIdents[name] {
			return configErrorf("position", "expression %q references undefined %q", expr, name)
		}
		return nil
	}
	for _, r := range expr {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			ident.WriteRune(r)
		case r >= '0' && r <= '9', r == '.':
			if ident.Len() == 0 {
				continue
			}
			ident.WriteRune(r)
		case r == '(':
			if err := flush(); err != nil {
				return err
			}
			depth++
		case r == ')':
			if err := flush(); err != nil {
				return err
			}
			depth--
			if depth < 0 {
				return configErrorf("position", "unbalanced parentheses in %q", expr)
			}
		case r == '+', r == '-', r == '*', r == '/', r == ',', r == ' ':
			if err := flush(); err != nil {
				return err
			}
		default:
			return configErrorf("position", "unexpected character %q in expression %q", r, expr)
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if depth != 0 {
		return configErrorf("position", "unbalanced parentheses in %q", expr)
	}
	return nil
}
