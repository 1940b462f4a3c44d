package typeface

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/sigil-dev/sigil/metricskey"
)

var logger = xlog.NewPackageLogger("github.com/sigil-dev/sigil", "typeface")

// FontType is the type tag carried by parsed fonts.
const FontType = "Font"

// BoundingBox is the extent of the font in font units.
type BoundingBox struct {
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	XMax float64 `json:"xMax"`
	YMax float64 `json:"yMax"`
}

// Glyph holds one character outline in font units.
type Glyph struct {
	// HA is the horizontal advance.
	HA   float64 `json:"ha"`
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	// Outline is the command string: "m x y", "l x y",
	// "q cx cy x y", "b c1x c1y c2x c2y x y", "z".
	Outline string `json:"o"`

	commands []command
}

// FontData is a parsed glyph-outline description.
type FontData struct {
	FamilyName         string            `json:"familyName"`
	Resolution         float64           `json:"resolution"`
	BoundingBox        BoundingBox       `json:"boundingBox"`
	Ascender           float64           `json:"ascender"`
	Descender          float64           `json:"descender"`
	UnderlineThickness float64           `json:"underlineThickness"`
	Glyphs             map[string]*Glyph `json:"glyphs"`
}

// Font holds a type tag and the glyph-outline data sourced from a
// parsed description.
type Font struct {
	Type string

	data *FontData
}

// Data returns the parsed font data.
func (f *Font) Data() *FontData {
	return f.data
}

// FamilyName returns the font family name.
func (f *Font) FamilyName() string {
	return f.data.FamilyName
}

// Parse deserializes a glyph-outline description. It fails on invalid
// JSON, an empty glyph table, a non-positive resolution, or a malformed
// outline command string.
func Parse(raw []byte) (*Font, error) {
	defer metricskey.PerfFontOperation.MeasureSince(time.Now(), "", "parse")

	var data FontData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.WithMessage(err, "unable to parse font description")
	}
	if data.Resolution <= 0 {
		return nil, errors.Errorf("invalid resolution: %v", data.Resolution)
	}
	if len(data.Glyphs) == 0 {
		return nil, errors.Errorf("font description has no glyphs")
	}

	for name, g := range data.Glyphs {
		if g == nil {
			return nil, errors.Errorf("glyph %q: missing body", name)
		}
		commands, err := parseOutline(g.Outline)
		if err != nil {
			return nil, errors.WithMessagef(err, "glyph %q", name)
		}
		g.commands = commands
	}

	logger.KV(xlog.DEBUG, "family", data.FamilyName, "glyphs", len(data.Glyphs))
	return &Font{Type: FontType, data: &data}, nil
}

type opCode byte

const (
	opMove opCode = iota
	opLine
	opQuad
	opCubic
	opClose
)

// argCount per outline command.
var argCount = map[string]int{
	"m": 2,
	"l": 2,
	"q": 4,
	"b": 6,
	"z": 0,
}

var opForToken = map[string]opCode{
	"m": opMove,
	"l": opLine,
	"q": opQuad,
	"b": opCubic,
	"z": opClose,
}

type command struct {
	op   opCode
	args [6]float64
}

// parseOutline tokenizes an outline command string.
func parseOutline(outline string) ([]command, error) {
	tokens := strings.Fields(outline)
	var commands []command

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		n, ok := argCount[tok]
		if !ok {
			return nil, errors.Errorf("unknown outline command %q at %d", tok, i)
		}
		if i+n > len(tokens)-1 {
			return nil, errors.Errorf("outline command %q at %d: expected %d arguments", tok, i, n)
		}

		cmd := command{op: opForToken[tok]}
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(tokens[i+1+j], 64)
			if err != nil {
				return nil, errors.Errorf("outline command %q at %d: invalid argument %q", tok, i, tokens[i+1+j])
			}
			cmd.args[j] = v
		}
		commands = append(commands, cmd)
		i += 1 + n
	}
	return commands, nil
}
