package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

// Inspector panel: rendered into an offscreen buffer at 1x then blitted at inspScale.
const (
	inspScale = 2
	inspBufW  = 200
	inspBufH  = 190
	inspPad   = 4
	inspLineH = 13
)

// Inspector shows the first selected player unit.
type Inspector struct {
	rawView bool // false = curated, true = raw dump
}

// bar renders v in [0, 1] as a 14-cell gauge.
func bar(label string, v float64) string {
	filled := int(v * 14)
	if filled < 0 {
		filled = 0
	}
	if filled > 14 {
		filled = 14
	}
	return fmt.Sprintf("%-6s %s%s %.0f%%", label, strings.Repeat("#", filled), strings.Repeat(".", 14-filled), v*100)
}

func ratio(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max
}

// inspectorLines builds the panel text for u. extra is the number of other
// selected units.
func inspectorLines(u *sim.Unit, extra int, raw bool) []string {
	title := fmt.Sprintf("[ %s %s ]", u.Label(), strings.ToUpper(u.Type.String()))
	if extra > 0 {
		title += fmt.Sprintf(" +%d", extra)
	}
	lines := []string{title}
	if raw {
		lines = append(lines,
			fmt.Sprintf("id=%d team=%s", u.ID, u.Team),
			fmt.Sprintf("pos=(%.0f,%.0f)", u.X, u.Y),
			fmt.Sprintf("hp=%.1f/%.1f", u.Health, u.MaxHealth),
			fmt.Sprintf("st=%s tgt=%s", u.State, u.Target),
			fmt.Sprintf("dst=(%.0f,%.0f)", u.TargetX, u.TargetY),
			fmt.Sprintf("node=%s", u.LastNode),
			fmt.Sprintf("cargo=%.1f/%.0f", u.Cargo, u.Capacity),
			fmt.Sprintf("spd=%.1f dmg=%.0f", u.Speed, u.Damage),
			fmt.Sprintf("rng=%.0f vis=%.0f", u.AttackRange, u.VisionRange),
			fmt.Sprintf("cd=%.0f/%.0fms", u.SinceAttackMs, u.CooldownMs),
		)
		return lines
	}

	lines = append(lines,
		fmt.Sprintf("state: %s", u.State),
		bar("hull", ratio(u.Health, u.MaxHealth)),
	)
	if u.IsHarvester() {
		lines = append(lines, bar("cargo", ratio(u.Cargo, u.Capacity)))
	} else {
		lines = append(lines, bar("weapon", ratio(u.SinceAttackMs, u.CooldownMs)))
	}
	if u.Target.Valid() {
		lines = append(lines, fmt.Sprintf("target: %s", u.Target))
	} else if u.State == sim.UnitMoving {
		lines = append(lines, fmt.Sprintf("moving to (%.0f,%.0f)", u.TargetX, u.TargetY))
	}
	return lines
}

// drawInspector renders the inspector panel bottom-left of the viewport.
func (g *Game) drawInspector(screen *ebiten.Image) {
	sel := g.engine.Selected()
	if len(sel) == 0 {
		return
	}
	lines := inspectorLines(sel[0], len(sel)-1, g.inspector.rawView)
	view := "CURATED"
	if g.inspector.rawView {
		view = "RAW"
	}
	lines = append(lines, fmt.Sprintf("view: %s  [V]", view))

	buf := g.inspBuf
	buf.Clear()
	bw := float32(inspBufW)
	bh := float32(inspPad*2 + len(lines)*inspLineH)
	if bh > inspBufH {
		bh = inspBufH
	}
	border := color.RGBA{R: 55, G: 70, B: 110, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, color.RGBA{R: 10, G: 12, B: 20, A: 230}, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, border, false)

	for i, l := range lines {
		ebitenutil.DebugPrintAt(buf, l, inspPad, inspPad+i*inspLineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(inspScale, inspScale)
	opts.GeoM.Translate(8, float64(g.viewH)-float64(bh)*inspScale-8)
	screen.DrawImage(buf, opts)
}
