package compose

import "testing"

func TestResolvePlacementAnchors(t *testing.T) {
	tests := []struct {
		anchor Anchor
		x, y   string
	}{
		{TopLeft, "0", "0"},
		{TopCenter, "(W-w)/2", "0"},
		{TopRight, "W-w", "0"},
		{CenterLeft, "0", "(H-h)/2"},
		{Center, "(W-w)/2", "(H-h)/2"},
		{CenterRight, "W-w", "(H-h)/2"},
		{BottomLeft, "0", "H-h"},
		{BottomCenter, "(W-w)/2", "H-h"},
		{BottomRight, "W-w", "H-h"},
	}
	for _, tt := range tests {
		t.Run(string(tt.anchor), func(t *testing.T) {
			pl, err := resolvePlacement(tt.anchor, 0, 0, "", "")
			if err != nil {
				t.Fatal(err)
			}
			if pl.X != tt.x || pl.Y != tt.y {
				t.Errorf("got (%q, %q), want (%q, %q)", pl.X, pl.Y, tt.x, tt.y)
			}
		})
	}
}

func TestResolvePlacementOffsets(t *testing.T) {
	pl, err := resolvePlacement(BottomRight, -20, -10, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if pl.X != "W-w-20" || pl.Y != "H-h-10" {
		t.Errorf("got (%q, %q)", pl.X, pl.Y)
	}

	pl, err = resolvePlacement(TopLeft, 15, 25, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if pl.X != "15" || pl.Y != "25" {
		t.Errorf("got (%q, %q)", pl.X, pl.Y)
	}
}

func TestResolvePlacementCustomExpr(t *testing.T) {
	pl, err := resolvePlacement(Center, 0, 0, "(W-w)/2+sin(t)*10", "H-h")
	if err != nil {
		t.Fatal(err)
	}
	if pl.X != "(W-w)/2+sin(t)*10" {
		t.Errorf("custom x not preserved: %q", pl.X)
	}

	if _, err := resolvePlacement(Center, 0, 0, "W-w", ""); err == nil {
		t.Error("expected error for missing y expression")
	}
	if _, err := resolvePlacement(Center, 0, 0, "W-q", "0"); err == nil {
		t.Error("expected error for undefined variable")
	}
	if _, err := resolvePlacement(Center, 0, 0, "(W-w", "0"); err == nil {
		t.Error("expected error for unbalanced parentheses")
	}
	if _, err := resolvePlacement(Center, 0, 0, "W;rm", "0"); err == nil {
		t.Error("expected error for unexpected character")
	}
}

func TestResolveScale(t *testing.T) {
	canvas := Canvas{Width: 1920, Height: 1080, FPS: 30}
	tests := []struct {
		name    string
		size    SizeSpec
		want    string
		wantErr bool
	}{
		{name: "contain", size: SizeSpec{Mode: SizeContain}, want: "1920:1080:force_original_aspect_ratio=decrease"},
		{name: "cover", size: SizeSpec{Mode: SizeCover}, want: "1920:1080:force_original_aspect_ratio=increase"},
		{name: "pixels", size: SizeSpec{Mode: SizePixels, Width: 640, Height: 360}, want: "640:360"},
		{name: "percent", size: SizeSpec{Mode: SizePercent, Percent: 50}, want: "960:540:force_original_aspect_ratio=decrease"},
		{name: "scale", size: SizeSpec{Mode: SizeScale, Factor: 0.5}, want: "iw*0.5:ih*0.5"},
		{name: "fit width", size: SizeSpec{Mode: SizeFitWidth}, want: "1920:-1"},
		{name: "fit height", size: SizeSpec{Mode: SizeFitHeight}, want: "-1:1080"},
		{name: "pixels missing height", size: SizeSpec{Mode: SizePixels, Width: 640}, wantErr: true},
		{name: "percent over 100", size: SizeSpec{Mode: SizePercent, Percent: 150}, wantErr: true},
		{name: "percent zero", size: SizeSpec{Mode: SizePercent}, wantErr: true},
		{name: "negative factor", size: SizeSpec{Mode: SizeScale, Factor: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveScale(tt.size, canvas)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got.params())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.params() != tt.want {
				t.Errorf("got %q, want %q", got.params(), tt.want)
			}
		})
	}
}
