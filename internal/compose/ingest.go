package compose

import "fmt"

// binarizeParams snaps a grayscale matte to hard transparency. Mattes
// arrive slightly soft from lossy encoding; anything at or above
// half-luma counts as opaque.
const binarizeParams = "'if(gte(lum(X,Y),128),255,0)'"

// cropExprs returns the crop filter parameters for the color and alpha
// halves of a stacked frame, in that order.
func cropExprs(orientation StackOrientation, order StackOrder) (color, alpha string) {
	var first, second string
	switch orientation {
	case SideBySide:
		first = "iw/2:ih:0:0"
		second = "iw/2:ih:iw/2:0"
	default: // TopBottom
		first = "iw:ih/2:0:0"
		second = "iw:ih/2:0:ih/2"
	}
	if order == AlphaFirst {
		return second, first
	}
	return first, second
}

// planIngest emits the normalization sub-graph for one foreground and
// returns the label of its alpha-capable stream. videoIn and maskIn are
// input indexes; maskIn is -1 for single-input encodings. With alpha
// disabled the source collapses to an opaque stream and mask inputs are
// never referenced.
func planIngest(g *graphBuilder, fg *Foreground, videoIn, maskIn int, base string, alphaEnabled bool) string {
	src := inputLabel(videoIn)
	switch enc := fg.Encoding.(type) {
	case NativeAlpha:
		if !alphaEnabled {
			out := base + "_opaque"
			g.add("format", "rgb24", []string{src}, out)
			return out
		}
		return src

	case Stacked:
		colorCrop, alphaCrop := cropExprs(enc.Orientation, enc.Order)
		if !alphaEnabled {
			out := base + "_opaque"
			g.add("crop", colorCrop, []string{src}, base+"_colorhalf")
			g.add("format", "rgb24", []string{base + "_colorhalf"}, out)
			return out
		}
		// The stacked frame is read twice through a split so both halves
		// come from the same decoded picture.
		g.add("split", "", []string{src}, base+"_feed_c", base+"_feed_a")
		g.add("crop", colorCrop, []string{base + "_feed_c"}, base+"_colorhalf")
		g.add("format", "rgba", []string{base + "_colorhalf"}, base+"_color")
		g.add("crop", alphaCrop, []string{base + "_feed_a"}, base+"_alphahalf")
		g.add("format", "gray", []string{base + "_alphahalf"}, base+"_gray")
		g.add("geq", binarizeParams, []string{base + "_gray"}, base+"_mask")
		out := base + "_merged"
		g.add("alphamerge", "", []string{base + "_color", base + "_mask"}, out)
		return out

	case FrameSequence, SeparateMask:
		if !alphaEnabled {
			out := base + "_opaque"
			g.add("format", "rgb24", []string{src}, out)
			return out
		}
		mask := inputLabel(maskIn)
		g.add("format", "rgba", []string{src}, base+"_color")
		g.add("format", "gray", []string{mask}, base+"_gray")
		g.add("geq", binarizeParams, []string{base + "_gray"}, base+"_mask")
		out := base + "_merged"
		g.add("alphamerge", "", []string{base + "_color", base + "_mask"}, out)
		return out
	}
	return src
}

func inputLabel(idx int) string {
	if idx < 0 {
		return ""
	}
	return fmt.Sprintf("%d:v", idx)
}
