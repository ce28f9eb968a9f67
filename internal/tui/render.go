package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ansiImage renders img as terminal half-blocks, two pixels per cell
// (foreground = upper pixel, background = lower pixel), downsampled to
// at most cols x rows cells.
func ansiImage(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return ""
	}

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := samplePixel(img, bounds, col, row*2, cols, rows*2)
			bottom := samplePixel(img, bounds, col, row*2+1, cols, rows*2)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom)))
			sb.WriteString(style.Render("▀"))
		}
		if row < rows-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// samplePixel maps grid coordinates onto the image with nearest-neighbor
// sampling.
func samplePixel(img image.Image, bounds image.Rectangle, x, y, gridW, gridH int) color.Color {
	px := bounds.Min.X + x*bounds.Dx()/gridW
	py := bounds.Min.Y + y*bounds.Dy()/gridH
	if px >= bounds.Max.X {
		px = bounds.Max.X - 1
	}
	if py >= bounds.Max.Y {
		py = bounds.Max.Y - 1
	}
	return img.At(px, py)
}

// hexColor formats a color as #rrggbb for lipgloss.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
