// Package render draws match views with gg for the frame endpoint and the
// headless recorder.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"arena-duel/internal/game"
)

var (
	backgroundColor = color.RGBA{12, 12, 28, 255}
	gridColor       = color.RGBA{30, 30, 45, 255}
	barBackColor    = color.RGBA{51, 51, 51, 255}
	weaponColor     = color.RGBA{220, 220, 235, 255}
	hiltColor       = color.RGBA{255, 190, 60, 255}
)

var namedColors = map[string]color.RGBA{
	"blue":   {60, 130, 255, 255},
	"red":    {255, 62, 62, 255},
	"green":  {83, 255, 69, 255},
	"yellow": {255, 220, 40, 255},
	"purple": {170, 90, 255, 255},
}

// Renderer draws views at a fixed frame size. Font faces are not safe for
// concurrent use, so Draw serializes callers.
type Renderer struct {
	Width  int
	Height int

	mu        sync.Mutex
	fontSmall font.Face
	fontLarge font.Face
}

// NewRenderer creates a renderer and loads fonts once.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{
		Width:     width,
		Height:    height,
		fontSmall: basicfont.Face7x13,
		fontLarge: basicfont.Face7x13,
	}
	r.loadFonts()
	return r
}

// loadFonts loads a system TrueType font, falling back to the built-in
// bitmap face.
func (r *Renderer) loadFonts() {
	fontPath := getFontPath()
	if fontPath == "" {
		log.Println("⚠️ No font found, using built-in bitmap font")
		return
	}

	fontData, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return
	}

	parsed, err := opentype.Parse(fontData)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	small, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 16, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create small font face: %v", err)
		return
	}
	large, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 48, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create large font face: %v", err)
		return
	}

	r.fontSmall, r.fontLarge = small, large
	log.Printf("✅ Fonts loaded from: %s", fontPath)
}

// Frame renders v into a new image.
func (r *Renderer) Frame(v game.View) image.Image {
	dc := gg.NewContext(r.Width, r.Height)
	r.Draw(dc, v)
	return dc.Image()
}

// EncodePNG renders v and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, v game.View) error {
	dc := gg.NewContext(r.Width, r.Height)
	r.Draw(dc, v)
	return dc.EncodePNG(w)
}

// Draw paints v onto dc, scaling the arena to the frame size.
func (r *Renderer) Draw(dc *gg.Context, v game.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := float64(r.Width), float64(r.Height)
	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.Push()
	if v.ArenaWidth > 0 && v.ArenaHeight > 0 {
		dc.Scale(w/v.ArenaWidth, h/v.ArenaHeight)
	}
	aw, ah := v.ArenaWidth, v.ArenaHeight
	if aw <= 0 || ah <= 0 {
		aw, ah = w, h
	}

	drawGrid(dc, aw, ah)
	if holder, ok := v.Holder(); ok {
		drawHolderTint(dc, holder, v.Tick, aw, ah)
	}
	for _, c := range v.Combatants {
		drawCombatant(dc, c)
	}
	drawWeapon(dc, v.Weapon)
	dc.Pop()

	r.drawHealthBars(dc, v.Combatants)
	if v.Finished {
		r.drawBanner(dc, v.Winner)
	}
}

func drawGrid(dc *gg.Context, w, h float64) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for x := 0.0; x <= w; x += 50 {
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}
	for y := 0.0; y <= h; y += 50 {
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}
}

// drawHolderTint washes the arena in the holder's color with a slow pulse.
func drawHolderTint(dc *gg.Context, holder game.CombatantView, tick uint64, w, h float64) {
	c := colorFor(holder.Color)
	pulse := (math.Sin(float64(tick)*0.1) + 1) / 2
	dc.SetColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(20 + pulse*25)})
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

func drawCombatant(dc *gg.Context, c game.CombatantView) {
	cx, cy := c.X+c.Size/2, c.Y+c.Size/2

	dc.Push()
	dc.RotateAbout(c.Rotation, cx, cy)
	dc.SetColor(colorFor(c.Color))
	dc.DrawRectangle(c.X, c.Y, c.Size, c.Size)
	dc.Fill()

	if c.DamageFlash > 0 {
		alpha := float64(c.DamageFlash) / float64(game.DamageFlashTicks)
		dc.SetRGBA(1, 1, 1, math.Min(alpha, 1))
		dc.DrawRectangle(c.X, c.Y, c.Size, c.Size)
		dc.Fill()
	}

	dc.SetColor(color.White)
	dc.SetLineWidth(3)
	dc.DrawRectangle(c.X, c.Y, c.Size, c.Size)
	dc.Stroke()
	dc.Pop()

	// Mini HP bar, axis aligned above the square
	barW, barH := c.Size, 6.0
	top := cy - c.Size*0.75 - barH
	dc.SetColor(barBackColor)
	dc.DrawRectangle(cx-barW/2, top, barW, barH)
	dc.Fill()
	dc.SetColor(healthColor(c.Health, c.MaxHealth))
	dc.DrawRectangle(cx-barW/2, top, barW*healthPercent(c.Health, c.MaxHealth), barH)
	dc.Fill()
}

func drawWeapon(dc *gg.Context, w game.WeaponView) {
	if w.Size <= 0 {
		return
	}
	cx, cy := w.X+w.Size/2, w.Y+w.Size/2
	alpha := 1.0
	if w.State == game.WeaponCooldown.String() {
		alpha = 0.5
	}

	dc.Push()
	dc.RotateAbout(w.Rotation, cx, cy)

	// Blade along the vertical axis with a crossguard near the bottom
	bladeW := w.Size * 0.18
	setAlpha(dc, weaponColor, alpha)
	dc.MoveTo(cx, w.Y)
	dc.LineTo(cx+bladeW/2, w.Y+bladeW)
	dc.LineTo(cx+bladeW/2, w.Y+w.Size*0.7)
	dc.LineTo(cx-bladeW/2, w.Y+w.Size*0.7)
	dc.LineTo(cx-bladeW/2, w.Y+bladeW)
	dc.ClosePath()
	dc.Fill()

	setAlpha(dc, hiltColor, alpha)
	dc.DrawRectangle(cx-w.Size*0.3, w.Y+w.Size*0.7, w.Size*0.6, w.Size*0.08)
	dc.Fill()
	dc.DrawRectangle(cx-bladeW/2, w.Y+w.Size*0.78, bladeW, w.Size*0.22)
	dc.Fill()
	dc.Pop()

	switch w.State {
	case game.WeaponFree.String():
		dc.SetRGBA(1, 1, 1, 0.6)
		dc.SetLineWidth(2)
		dc.DrawCircle(cx, cy, w.Size*0.75)
		dc.Stroke()
	case game.WeaponCooldown.String():
		start := -math.Pi / 2
		dc.SetRGBA(1, 0.75, 0.25, 0.9)
		dc.SetLineWidth(4)
		dc.DrawArc(cx, cy, w.Size*0.75, start, start+2*math.Pi*w.CooldownProgress)
		dc.Stroke()
	}
}

// drawHealthBars draws the big bars: first combatant top-left, second
// top-right, any others stacked under the first.
func (r *Renderer) drawHealthBars(dc *gg.Context, combatants []game.CombatantView) {
	const barW, barH, margin = 300.0, 24.0, 20.0
	dc.SetFontFace(r.fontSmall)

	for i, c := range combatants {
		x, y := margin, margin+float64(i/2)*(barH+12)
		if i%2 == 1 {
			x = float64(r.Width) - margin - barW
		}

		dc.SetColor(barBackColor)
		dc.DrawRectangle(x, y, barW, barH)
		dc.Fill()
		dc.SetColor(colorFor(c.Color))
		dc.DrawRectangle(x, y, barW*healthPercent(c.Health, c.MaxHealth), barH)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawStringAnchored(fmt.Sprintf("%s  %d HP", c.ID, c.Health), x+barW/2, y+barH/2, 0.5, 0.5)
	}
}

func (r *Renderer) drawBanner(dc *gg.Context, winner string) {
	w, h := float64(r.Width), float64(r.Height)
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(0, h/2-50, w, 100)
	dc.Fill()

	text := "DRAW"
	if winner != "" {
		text = fmt.Sprintf("%s WINS", winner)
	}
	dc.SetFontFace(r.fontLarge)
	dc.SetColor(color.RGBA{255, 220, 40, 255})
	dc.DrawStringAnchored(text, w/2, h/2, 0.5, 0.5)
}

func healthPercent(hp, maxHP int) float64 {
	if maxHP <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, float64(hp)/float64(maxHP)))
}

func healthColor(hp, maxHP int) color.RGBA {
	pct := healthPercent(hp, maxHP)
	if pct > 0.6 {
		return color.RGBA{83, 255, 69, 255}
	} else if pct > 0.3 {
		return color.RGBA{255, 149, 0, 255}
	}
	return color.RGBA{255, 62, 62, 255}
}

func setAlpha(dc *gg.Context, c color.RGBA, alpha float64) {
	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(float64(c.A)*alpha))
}

// colorFor resolves a named or #rrggbb color; unknown names draw white.
func colorFor(name string) color.RGBA {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return parseHexColor(name)
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}

func getFontPath() string {
	if p := os.Getenv("FONT_PATH"); p != "" {
		return p
	}

	// Try common font locations
	paths := []string{
		"C:\\Windows\\Fonts\\arial.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Try to find any ttf in current directory
	if matches, _ := filepath.Glob("*.ttf"); len(matches) > 0 {
		return matches[0]
	}
	return ""
}
