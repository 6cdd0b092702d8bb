package game

import (
	"fmt"
	"image/color"
	"math/rand"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Void-Harvest/internal/audio"
	"github.com/Garsondee/Void-Harvest/internal/sim"
)

// spawnKeys and moduleKeys line up with sim.AllUnitTypes and sim.AllModuleKinds.
var (
	spawnKeys  = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}
	moduleKeys = []ebiten.Key{
		ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
		ebiten.KeyT, ebiten.KeyY, ebiten.KeyU, ebiten.KeyI,
	}
)

// statusTTL is how long a status line stays on the HUD, in frames.
const statusTTL = 180

// Options configure a Game.
type Options struct {
	Rules  *sim.Rules
	Engine []sim.Option
	Logger zerolog.Logger
	Mute   bool
	// OnGameOver is called once per match with the final report.
	OnGameOver func(sim.MatchReport)
}

// Game is the ebiten shell over a sim.Engine. It owns no game rules: input
// becomes engine commands, and drawing reads entities and the latest snapshot.
type Game struct {
	opts   Options
	log    zerolog.Logger
	engine *sim.Engine

	viewW  int
	viewH  int
	width  int
	height int

	events    *EventLog
	cues      *audio.Queue
	sound     *soundBoard
	face      text.Face
	inspector Inspector
	inspBuf   *ebiten.Image
	shakeRng  *rand.Rand

	snapMu sync.Mutex
	snap   sim.Snapshot

	paused     bool
	showLog    bool
	reported   bool
	status     string
	statusLeft int
	restarts   int64
}

// New creates a Game and starts its first match.
func New(opts Options) *Game {
	if opts.Rules == nil {
		opts.Rules = sim.DefaultRules()
	}
	g := &Game{
		opts:     opts,
		log:      opts.Logger,
		viewW:    int(opts.Rules.ViewW),
		viewH:    int(opts.Rules.ViewH),
		face:     text.NewGoXFace(basicfont.Face7x13),
		inspBuf:  ebiten.NewImage(inspBufW, inspBufH),
		shakeRng: rand.New(rand.NewSource(7)), // #nosec G404 -- cosmetic only
		showLog:  true,
	}
	g.width = g.viewW + logPanelWidth
	g.height = g.viewH
	if !opts.Mute {
		g.sound = newSoundBoard(g.log)
	}
	g.startMatch()
	return g
}

// startMatch builds a fresh engine. Restarts advance the seed so each match differs.
func (g *Game) startMatch() {
	g.events = NewEventLog()
	g.cues = &audio.Queue{}
	g.reported = false
	g.paused = false

	opts := append([]sim.Option{}, g.opts.Engine...)
	opts = append(opts,
		sim.WithLogger(g.log),
		sim.WithListener(g.events),
		sim.WithListener(g.cues),
		sim.WithSnapshotSink(g),
	)
	if g.engine != nil {
		g.restarts++
		opts = append(opts, sim.WithSeed(g.engine.Seed()+1))
	}
	g.engine = sim.NewEngine(g.opts.Rules, opts...)
	g.snap = g.engine.Snapshot()
	g.log.Info().
		Str("mode", g.engine.Mode().String()).
		Str("difficulty", g.engine.Difficulty().String()).
		Int64("seed", g.engine.Seed()).
		Int64("restarts", g.restarts).
		Msg("match started")
}

// Engine exposes the running match.
func (g *Game) Engine() *sim.Engine { return g.engine }

// PushSnapshot implements sim.SnapshotSink.
func (g *Game) PushSnapshot(s sim.Snapshot) {
	g.snapMu.Lock()
	g.snap = s
	g.snapMu.Unlock()
}

func (g *Game) lastSnapshot() sim.Snapshot {
	g.snapMu.Lock()
	defer g.snapMu.Unlock()
	return g.snap
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusLeft = statusTTL
}

func (g *Game) Update() error {
	g.handleInput()

	if !g.paused {
		g.engine.Tick(1 / float64(ebiten.TPS()))
	}

	if g.sound != nil {
		for _, c := range g.cues.Drain() {
			g.sound.play(c)
		}
	} else {
		g.cues.Drain()
	}

	if g.engine.Over() && !g.reported {
		g.reported = true
		r := g.engine.Report()
		g.log.Info().
			Str("outcome", r.Outcome.String()).
			Int("score", r.Score()).
			Int("scrap", r.Scrap()).
			Msg("match over")
		if g.opts.OnGameOver != nil {
			g.opts.OnGameOver(r)
		}
	}

	if g.statusLeft > 0 {
		g.statusLeft--
	}
	return nil
}

// handleInput maps keys and the mouse onto engine commands.
func (g *Game) handleInput() {
	e := g.engine

	for i, t := range sim.AllUnitTypes() {
		if inpututil.IsKeyJustPressed(spawnKeys[i]) && !e.SpawnUnit(t) {
			g.setStatus(fmt.Sprintf("cannot build %s", t))
		}
	}
	for i, k := range sim.AllModuleKinds() {
		if inpututil.IsKeyJustPressed(moduleKeys[i]) && !e.UpgradeBase(k) {
			g.setStatus(fmt.Sprintf("cannot upgrade %s", k))
		}
	}

	e.SetPan(sim.PanInput{
		Up:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
	})

	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		if e.ToggleLassoMode() {
			g.setStatus("lasso: drag to select")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.setStatus(fmt.Sprintf("army selected: %d", e.SelectAllArmy()))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.inspector.rawView = !g.inspector.rawView
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showLog = !g.showLog
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyReport()
	}
	if e.Over() && inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.startMatch()
		return
	}

	mx, my := ebiten.CursorPosition()
	inView := mx >= 0 && mx < g.viewW && my >= 0 && my < g.viewH
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inView:
		e.PointerDown(float64(mx), float64(my))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if n := e.PointerUp(float64(mx), float64(my)); n > 0 {
			g.setStatus(fmt.Sprintf("lasso selected: %d", n))
		}
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		e.PointerMove(float64(mx), float64(my))
	}
}

// copyReport puts the debug report on the system clipboard.
func (g *Game) copyReport() {
	report := matchDebugReport(g.engine, debugReportTicks)
	if err := clipboard.WriteAll(report); err != nil {
		g.log.Warn().Err(err).Msg("clipboard write failed")
		g.setStatus("clipboard unavailable")
		return
	}
	g.setStatus("report copied to clipboard")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 4, G: 5, B: 12, A: 255})

	view := screen.SubImage(imageRect(0, 0, g.viewW, g.viewH)).(*ebiten.Image)
	g.drawWorld(view)
	g.drawHUD(view)
	g.drawInspector(view)

	if g.showLog {
		g.events.Draw(screen, g.viewW, g.height)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
