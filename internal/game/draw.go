package game

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

const (
	gridSpacing = 100
	fogCell     = 40
	hudLineH    = 15
)

var tierColors = map[sim.NodeTier]color.RGBA{
	sim.TierSmall:  {R: 120, G: 200, B: 140, A: 255},
	sim.TierMedium: {R: 90, G: 170, B: 230, A: 255},
	sim.TierLarge:  {R: 200, G: 130, B: 240, A: 255},
}

var powerupColors = map[sim.PowerupKind]color.RGBA{
	sim.PowerupHealth:  {R: 80, G: 230, B: 110, A: 255},
	sim.PowerupCredits: {R: 240, G: 210, B: 60, A: 255},
	sim.PowerupNuke:    {R: 255, G: 90, B: 40, A: 255},
}

func imageRect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// camera is the world-to-screen offset for this frame, shake included.
type camera struct {
	x, y float64
}

func (c camera) at(wx, wy float64) (float32, float32) {
	return float32(wx - c.x), float32(wy - c.y)
}

func (g *Game) frameCamera() camera {
	cam := g.engine.Camera()
	c := camera{x: cam.X, y: cam.Y}
	if s := g.engine.Shake(); s.Intensity > 0 {
		c.x += (g.shakeRng.Float64()*2 - 1) * s.Intensity
		c.y += (g.shakeRng.Float64()*2 - 1) * s.Intensity
	}
	return c
}

// drawWorld renders every entity in viewport coordinates.
func (g *Game) drawWorld(screen *ebiten.Image) {
	e := g.engine
	r := e.Rules()
	cam := g.frameCamera()

	g.drawGrid(screen, cam, r)

	for _, n := range e.Nodes() {
		if n.Depleted() || !e.VisibleToPlayer(n.X, n.Y) {
			continue
		}
		x, y := cam.at(n.X, n.Y)
		col := tierColors[n.Tier]
		fill := col
		fill.A = uint8(60 + 140*ratio(n.Remaining, n.Initial))
		vector.FillCircle(screen, x, y, float32(n.W/2), fill, true)
		vector.StrokeCircle(screen, x, y, float32(n.W/2), 1.5, col, true)
	}

	for _, b := range e.Bases() {
		if !b.Alive() || !e.VisibleToPlayer(b.X, b.Y) {
			continue
		}
		x, y := cam.at(b.X, b.Y)
		w, h := float32(b.W), float32(b.H)
		col := teamColor(b.Team)
		body := col
		body.A = 90
		vector.FillRect(screen, x-w/2, y-h/2, w, h, body, false)
		vector.StrokeRect(screen, x-w/2, y-h/2, w, h, 2, col, false)
		if b.Level(sim.ModuleTurret) > 0 {
			vector.StrokeCircle(screen, x, y, float32(r.TurretRange), 1, color.RGBA{R: col.R, G: col.G, B: col.B, A: 40}, true)
		}
		drawHealthBar(screen, x-w/2, y-h/2-8, w, ratio(b.Health, b.MaxHealth))
	}

	for _, p := range e.Powerups() {
		x, y := cam.at(p.X, p.Y)
		drawDiamond(screen, x, y, 10, powerupColors[p.Kind])
	}

	for _, u := range e.Units() {
		if !u.Alive() {
			continue
		}
		if u.Team != sim.TeamPlayer && !e.VisibleToPlayer(u.X, u.Y) {
			continue
		}
		g.drawUnit(screen, cam, u)
	}

	for _, p := range e.Particles() {
		x, y := cam.at(p.X, p.Y)
		col := teamColor(p.Team)
		col.A = uint8(255 * math.Max(0, math.Min(1, p.Life)))
		vector.FillRect(screen, x-1.5, y-1.5, 3, 3, col, false)
	}

	if w := e.Waves(); w != nil {
		g.drawTelegraphs(screen, cam, w.Pending())
	}

	if e.Mode() == sim.MatchSkirmish {
		g.drawFog(screen, cam)
	}

	if l, ok := e.Lasso(); ok {
		x0, y0, x1, y1 := l.Rect()
		sx, sy := cam.at(x0, y0)
		vector.FillRect(screen, sx, sy, float32(x1-x0), float32(y1-y0), color.RGBA{R: 80, G: 200, B: 255, A: 30}, false)
		vector.StrokeRect(screen, sx, sy, float32(x1-x0), float32(y1-y0), 1, color.RGBA{R: 80, G: 200, B: 255, A: 200}, false)
	}
}

func (g *Game) drawUnit(screen *ebiten.Image, cam camera, u *sim.Unit) {
	x, y := cam.at(u.X, u.Y)
	rad := float32(u.HitRadius)
	col := teamColor(u.Team)

	if u.Selected {
		vector.StrokeCircle(screen, x, y, rad+5, 1.5, color.RGBA{R: 120, G: 255, B: 140, A: 220}, true)
	}

	// Hull: a triangle pointing along the heading.
	var path vector.Path
	cos, sin := math.Cos(u.Rotation), math.Sin(u.Rotation)
	pt := func(fwd, side float64) (float32, float32) {
		return x + float32(fwd*cos-side*sin), y + float32(fwd*sin+side*cos)
	}
	r := float64(rad)
	path.MoveTo(pt(r, 0))
	path.LineTo(pt(-r*0.7, r*0.7))
	path.LineTo(pt(-r*0.4, 0))
	path.LineTo(pt(-r*0.7, -r*0.7))
	path.Close()
	vector.FillPath(screen, &path, &vector.FillOptions{}, &vector.DrawPathOptions{AntiAlias: true, ColorScale: colorScale(col)})

	if u.Type == sim.UnitTank {
		vector.StrokeCircle(screen, x, y, rad*0.5, 2, col, true)
	}
	if u.State == sim.UnitMining {
		vector.StrokeCircle(screen, x, y, rad+2, 1, color.RGBA{R: 200, G: 240, B: 255, A: 120}, true)
	}
	if u.Health < u.MaxHealth {
		drawHealthBar(screen, x-rad, y-rad-6, rad*2, ratio(u.Health, u.MaxHealth))
	}
	if u.IsHarvester() && u.Cargo > 0 {
		vector.FillRect(screen, x-rad, y+rad+3, rad*2*float32(ratio(u.Cargo, u.Capacity)), 2, color.RGBA{R: 240, G: 210, B: 60, A: 230}, false)
	}
}

func colorScale(c color.RGBA) ebiten.ColorScale {
	var cs ebiten.ColorScale
	cs.ScaleWithColor(c)
	return cs
}

func drawHealthBar(screen *ebiten.Image, x, y, w float32, frac float64) {
	vector.FillRect(screen, x, y, w, 3, color.RGBA{R: 40, G: 10, B: 10, A: 200}, false)
	col := color.RGBA{R: 80, G: 220, B: 90, A: 230}
	if frac < 0.35 {
		col = color.RGBA{R: 230, G: 70, B: 50, A: 230}
	}
	vector.FillRect(screen, x, y, w*float32(math.Max(0, frac)), 3, col, false)
}

func drawDiamond(screen *ebiten.Image, x, y, d float32, c color.Color) {
	vector.StrokeLine(screen, x-d, y, x, y-d, 2, c, true)
	vector.StrokeLine(screen, x, y-d, x+d, y, 2, c, true)
	vector.StrokeLine(screen, x+d, y, x, y+d, 2, c, true)
	vector.StrokeLine(screen, x, y+d, x-d, y, 2, c, true)
}

// drawGrid draws the world grid and its boundary.
func (g *Game) drawGrid(screen *ebiten.Image, cam camera, r *sim.Rules) {
	c := color.RGBA{R: 20, G: 26, B: 44, A: 255}
	startX := math.Floor(cam.x/gridSpacing) * gridSpacing
	startY := math.Floor(cam.y/gridSpacing) * gridSpacing
	for wx := startX; wx <= cam.x+float64(g.viewW); wx += gridSpacing {
		x, _ := cam.at(wx, 0)
		vector.StrokeLine(screen, x, 0, x, float32(g.viewH), 1, c, false)
	}
	for wy := startY; wy <= cam.y+float64(g.viewH); wy += gridSpacing {
		_, y := cam.at(0, wy)
		vector.StrokeLine(screen, 0, y, float32(g.viewW), y, 1, c, false)
	}
	x0, y0 := cam.at(0, 0)
	vector.StrokeRect(screen, x0, y0, float32(r.WorldW), float32(r.WorldH), 2, color.RGBA{R: 60, G: 70, B: 120, A: 255}, false)
}

// drawFog darkens viewport cells the player cannot see.
func (g *Game) drawFog(screen *ebiten.Image, cam camera) {
	fog := color.RGBA{R: 0, G: 0, B: 0, A: 150}
	for sy := 0; sy < g.viewH; sy += fogCell {
		for sx := 0; sx < g.viewW; sx += fogCell {
			wx := cam.x + float64(sx) + fogCell/2
			wy := cam.y + float64(sy) + fogCell/2
			if !g.engine.VisibleToPlayer(wx, wy) {
				vector.FillRect(screen, float32(sx), float32(sy), fogCell, fogCell, fog, false)
			}
		}
	}
}

// drawTelegraphs marks incoming spawns, clamped to the viewport edge.
func (g *Game) drawTelegraphs(screen *ebiten.Image, cam camera, pending []sim.PendingSpawn) {
	warn := color.RGBA{R: 255, G: 70, B: 50, A: 220}
	for _, p := range pending {
		x, y := cam.at(p.X, p.Y)
		x = float32(math.Max(12, math.Min(float64(g.viewW-12), float64(x))))
		y = float32(math.Max(12, math.Min(float64(g.viewH-12), float64(y))))
		pulse := float32(6 + 4*math.Abs(math.Sin(p.Timer*6)))
		vector.StrokeCircle(screen, x, y, pulse, 2, warn, true)
		vector.StrokeLine(screen, x, y-4, x, y+1, 2, warn, false)
		vector.FillCircle(screen, x, y+4, 1, warn, false)
	}
}

// hudLines renders the snapshot as the top-left HUD text.
func hudLines(s sim.Snapshot, mode sim.MatchMode, paused bool) []string {
	lines := []string{
		fmt.Sprintf("CREDITS %.0f", s.Credits),
		fmt.Sprintf("ENERGY  %.0f/%.0f (%+.0f)", s.Energy, s.EnergyMax, s.EnergyRate),
	}
	if mode == sim.MatchSurvival {
		lines = append(lines, fmt.Sprintf("WAVE    %d", s.Wave))
	}

	var mods []string
	for i, k := range sim.AllModuleKinds() {
		lvl, ok := s.BaseModules[k.String()]
		if !ok {
			continue
		}
		mods = append(mods, fmt.Sprintf("%s:%s%d", keyName(moduleKeys[i]), k, lvl))
	}
	if len(mods) > 0 {
		lines = append(lines, strings.Join(mods, " "))
	}

	var spawns []string
	for i, t := range sim.AllUnitTypes() {
		spawns = append(spawns, fmt.Sprintf("%s:%s", keyName(spawnKeys[i]), t))
	}
	lines = append(lines, strings.Join(spawns, " "))

	flags := "L=lasso A=army C=copy P=pause Tab=log"
	if s.IsLassoMode {
		flags = "[LASSO] " + flags
	}
	if paused {
		flags = "[PAUSED] " + flags
	}
	return append(lines, flags)
}

func keyName(k ebiten.Key) string {
	return strings.TrimPrefix(k.String(), "Digit")
}

func (g *Game) drawText(screen *ebiten.Image, lines []string, x, y float64, col color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	op.LineSpacing = hudLineH
	text.Draw(screen, strings.Join(lines, "\n"), g.face, op)
}

// drawHUD renders the snapshot panel, the status line and the game-over banner.
func (g *Game) drawHUD(screen *ebiten.Image) {
	s := g.lastSnapshot()
	lines := hudLines(s, g.engine.Mode(), g.paused)

	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*7 + 12)
	boxH := float32(len(lines)*hudLineH + 10)
	vector.FillRect(screen, 6, 6, boxW, boxH, color.RGBA{R: 6, G: 8, B: 18, A: 210}, false)
	vector.StrokeRect(screen, 6, 6, boxW, boxH, 1, color.RGBA{R: 60, G: 80, B: 140, A: 180}, false)
	g.drawText(screen, lines, 12, 11, color.RGBA{R: 200, G: 220, B: 255, A: 255})

	if g.statusLeft > 0 && g.status != "" {
		g.drawText(screen, []string{g.status}, 12, float64(boxH)+14, color.RGBA{R: 255, G: 220, B: 120, A: 255})
	}

	if s.GameOver == "" {
		return
	}
	banner := []string{"VICTORY"}
	if s.GameOver == sim.OutcomeLose.String() {
		banner = []string{"BASE DESTROYED"}
	}
	if s.Stats != nil {
		banner = append(banner, fmt.Sprintf("wave %d  kills %d  time %ds", s.Stats.Wave, s.Stats.Kills, s.Stats.Time))
	}
	r := g.engine.Report()
	banner = append(banner, fmt.Sprintf("score %d  scrap +%d", r.Score(), r.Scrap()), "Enter=new match  C=copy report")

	bw, bh := float32(360), float32(len(banner)*hudLineH+24)
	bx, by := float32(g.viewW)/2-bw/2, float32(g.viewH)/2-bh/2
	vector.FillRect(screen, bx, by, bw, bh, color.RGBA{R: 6, G: 8, B: 18, A: 230}, false)
	vector.StrokeRect(screen, bx, by, bw, bh, 2, teamColor(sim.TeamPlayer), false)
	g.drawText(screen, banner, float64(bx)+16, float64(by)+12, color.White)
}
