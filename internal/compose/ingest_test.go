package compose

import (
	"strings"
	"testing"
)

func stackedFG(t *testing.T, orientation StackOrientation, order StackOrder) *Foreground {
	t.Helper()
	fg, err := NewStackedForeground("fg.mp4", orientation, order, SourceInfo{Width: 1920, Height: 2160, FPS: 30})
	if err != nil {
		t.Fatal(err)
	}
	return fg
}

func TestCropExprs(t *testing.T) {
	tests := []struct {
		orientation  StackOrientation
		order        StackOrder
		color, alpha string
	}{
		{TopBottom, ColorFirst, "iw:ih/2:0:0", "iw:ih/2:0:ih/2"},
		{TopBottom, AlphaFirst, "iw:ih/2:0:ih/2", "iw:ih/2:0:0"},
		{SideBySide, ColorFirst, "iw/2:ih:0:0", "iw/2:ih:iw/2:0"},
		{SideBySide, AlphaFirst, "iw/2:ih:iw/2:0", "iw/2:ih:0:0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.orientation)+"/"+string(tt.order), func(t *testing.T) {
			color, alpha := cropExprs(tt.orientation, tt.order)
			if color != tt.color || alpha != tt.alpha {
				t.Errorf("got (%q, %q), want (%q, %q)", color, alpha, tt.color, tt.alpha)
			}
		})
	}
}

func TestPlanIngestStacked(t *testing.T) {
	fg := stackedFG(t, TopBottom, ColorFirst)
	g := &graphBuilder{}
	g.addInput(fg.Source)

	out := planIngest(g, fg, 0, -1, "l0", true)
	if out != "l0_merged" {
		t.Errorf("output label: got %q", out)
	}

	fc := renderFilterComplex(g.nodes)
	for _, want := range []string{
		"split",
		"crop=iw:ih/2:0:0",
		"crop=iw:ih/2:0:ih/2",
		"format=gray",
		"geq='if(gte(lum(X,Y),128),255,0)'",
		"alphamerge",
	} {
		if !strings.Contains(fc, want) {
			t.Errorf("filter graph missing %q:\n%s", want, fc)
		}
	}
}

func TestPlanIngestStackedAlphaDisabled(t *testing.T) {
	fg := stackedFG(t, TopBottom, ColorFirst)
	g := &graphBuilder{}
	g.addInput(fg.Source)

	out := planIngest(g, fg, 0, -1, "l0", false)
	if out != "l0_opaque" {
		t.Errorf("output label: got %q", out)
	}

	fc := renderFilterComplex(g.nodes)
	if !strings.Contains(fc, "crop=iw:ih/2:0:0") {
		t.Errorf("alpha-disabled stacked layer should still crop the color half:\n%s", fc)
	}
	if !strings.Contains(fc, "format=rgb24") {
		t.Errorf("alpha-disabled layer should flatten to rgb24:\n%s", fc)
	}
	for _, banned := range []string{"alphamerge", "geq", "split"} {
		if strings.Contains(fc, banned) {
			t.Errorf("alpha-disabled graph should not contain %q:\n%s", banned, fc)
		}
	}
}

func TestPlanIngestNativeAlpha(t *testing.T) {
	fg, err := NewNativeAlphaForeground("fg.webm", SourceInfo{Width: 1280, Height: 720, HasAlpha: true})
	if err != nil {
		t.Fatal(err)
	}
	g := &graphBuilder{}
	g.addInput(fg.Source)

	out := planIngest(g, fg, 0, -1, "l0", true)
	if out != "0:v" {
		t.Errorf("native alpha should pass through, got %q", out)
	}
	if len(g.nodes) != 0 {
		t.Errorf("native alpha should add no nodes, got %d", len(g.nodes))
	}
}

func TestPlanIngestSeparateMask(t *testing.T) {
	fg, err := NewSeparateMaskForeground("rgb.mp4", "alpha.mp4", SourceInfo{Width: 1280, Height: 720})
	if err != nil {
		t.Fatal(err)
	}
	g := &graphBuilder{}
	g.addInput(fg.Source)
	g.addInput(fg.MaskSource)

	out := planIngest(g, fg, 0, 1, "l0", true)
	if out != "l0_merged" {
		t.Errorf("output label: got %q", out)
	}
	fc := renderFilterComplex(g.nodes)
	if !strings.Contains(fc, "[1:v]format=gray") {
		t.Errorf("mask input should feed the gray conversion:\n%s", fc)
	}
	if strings.Contains(fc, "crop") {
		t.Errorf("separate mask needs no de-stacking crop:\n%s", fc)
	}
}

func TestPlanIngestDeterministic(t *testing.T) {
	fg := stackedFG(t, SideBySide, AlphaFirst)

	build := func() string {
		g := &graphBuilder{}
		g.addInput(fg.Source)
		planIngest(g, fg, 0, -1, "l0", true)
		return renderFilterComplex(g.nodes)
	}
	if a, b := build(), build(); a != b {
		t.Errorf("same source produced different graphs:\n%s\n%s", a, b)
	}
}
