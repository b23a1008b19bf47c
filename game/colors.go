package game

// Color is a palette entry handed to renderers.
type Color struct {
	Name string
	Hex  string
}

// Palette holds four shades per team.
var Palette = [16]Color{
	{"red", "#e53935"}, {"salmon", "#ff8a65"}, {"crimson", "#b71c1c"}, {"rose", "#f48fb1"},
	{"blue", "#1e88e5"}, {"sky", "#4fc3f7"}, {"navy", "#283593"}, {"violet", "#9575cd"},
	{"green", "#43a047"}, {"lime", "#c0ca33"}, {"forest", "#1b5e20"}, {"teal", "#26a69a"},
	{"yellow", "#fdd835"}, {"amber", "#ffb300"}, {"orange", "#fb8c00"}, {"sand", "#d7ccc8"},
}

// ColorIndex maps (team, player) into Palette.
func ColorIndex(team, player uint8) uint8 {
	return (team%4)*4 + player%4
}

// BikeColor is the palette entry for a bike.
func BikeColor(b *Bike) Color {
	return Palette[int(b.Color)%len(Palette)]
}
