package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/rules"
)

const (
	emptyHex    = "#121212"
	explodedHex = "#757575"
	headHex     = "#fafafa"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4fc3f7"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#424242"))
)

func (m Model) View() string {
	switch {
	case m.err != nil && m.client == nil:
		return errStyle.Render("error connecting to "+m.target) + "\n" + m.err.Error() + "\n\n" + dimStyle.Render("q to quit") + "\n"
	case m.err != nil:
		return errStyle.Render("connection lost") + "\n" + m.err.Error() + "\n\n" + dimStyle.Render("q to quit") + "\n"
	case m.client == nil:
		return dimStyle.Render("connecting to "+m.target+"...") + "\n"
	}

	c := m.client
	var b strings.Builder
	b.WriteString(titleStyle.Render("tronio"))
	fmt.Fprintf(&b, "  %s  %s  tick %d", c.State().String(), c.Options().String(), c.Simulation().Tick)
	if m.desyncs > 0 {
		b.WriteString("  " + errStyle.Render(fmt.Sprintf("desyncs %d", m.desyncs)))
	}
	b.WriteString("\n")
	b.WriteString(m.scoreLine())
	b.WriteString("\n")

	needW := int(c.Simulation().Grid.Width()) + 2
	needH := int(c.Simulation().Grid.Height())/2 + 5
	if m.width > 0 && (m.width < needW || m.height < needH) {
		b.WriteString(errStyle.Render(fmt.Sprintf("terminal is %dx%d, the arena needs %dx%d", m.width, m.height, needW, needH)))
		b.WriteString("\n")
	}
	left := boxStyle.Render(renderGrid(c.Simulation()))
	right := lipgloss.JoinVertical(lipgloss.Left, m.roster(), "", m.feedView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func teamStyle(team uint8) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(game.Palette[game.ColorIndex(team, 0)].Hex))
}

func (m Model) scoreLine() string {
	c := m.client
	parts := make([]string, 0, c.Options().Teams)
	for t := uint8(0); t < c.Options().Teams; t++ {
		score := uint8(0)
		if int(t) < len(c.Scores()) {
			score = c.Scores()[t]
		}
		parts = append(parts, teamStyle(t).Render(fmt.Sprintf("team %d: %d", t+1, score)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) roster() string {
	c := m.client
	opts := c.Options()
	mine := map[uint8]string{}
	for d, local := range m.devices {
		if slot, ok := c.LocalSlot(local); ok {
			mine[slot] = Device(d).String()
		}
	}

	var b strings.Builder
	for i, p := range c.Players() {
		slot := uint8(i)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(game.Palette[game.ColorIndex(opts.TeamOf(slot), opts.PlayerOf(slot))].Hex))
		mark := " "
		switch {
		case p.Abandoned:
			mark = "x"
		case p.Ready:
			mark = "*"
		}
		line := fmt.Sprintf("%s %-12s", mark, p.Name)
		if dev, ok := mine[slot]; ok {
			line += " (" + dev + ")"
		}
		if bike := c.Simulation().Bike(slot); bike != nil && c.State().Phase == protocol.Playing {
			switch {
			case !bike.Alive:
				line += " dead"
			case bike.Boosting():
				line += " boost"
			default:
				line += fmt.Sprintf(" %d", bike.BoostCount)
			}
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) feedView() string {
	return dimStyle.Render(strings.Join(m.feed, "\n"))
}

func (m Model) help() string {
	c := m.client
	switch {
	case c.LocalCount() == 0:
		return "space (wasd) or enter (arrows) to join  q quit"
	case c.State().Lobby():
		return "confirm: ready  cancel (x / backspace): unready  left/right: team  q quit"
	default:
		return "steer with wasd or arrows  space / enter: boost  q quit"
	}
}

// cellHex picks the colour of one grid cell.
func cellHex(s *rules.Simulation, cell game.Cell) string {
	switch {
	case !cell.Occupied():
		return emptyHex
	case cell.IsExploded():
		return explodedHex
	}
	b := s.Bike(cell.Owner())
	if b == nil {
		return explodedHex
	}
	if cell.IsHead() {
		return headHex
	}
	return game.BikeColor(b).Hex
}

// renderGrid packs two grid rows into each text row with upper half blocks:
// the foreground is the upper cell and the background the lower one. Runs of
// equal colour pairs share one styled span.
func renderGrid(s *rules.Simulation) string {
	g := s.Grid
	w, h := g.Width(), g.Height()
	var b strings.Builder
	for y := int16(0); y < h; y += 2 {
		var (
			run     strings.Builder
			runTop  string
			runBot  string
			started bool
		)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(runTop)).
				Background(lipgloss.Color(runBot)).
				Render(run.String()))
			run.Reset()
		}
		for x := int16(0); x < w; x++ {
			top := cellHex(s, g.CellAt(game.P(x, y)))
			bot := emptyHex
			if y+1 < h {
				bot = cellHex(s, g.CellAt(game.P(x, y+1)))
			}
			if !started || top != runTop || bot != runBot {
				flush()
				runTop, runBot, started = top, bot, true
			}
			run.WriteRune('▀')
		}
		flush()
		if y+2 < h {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
