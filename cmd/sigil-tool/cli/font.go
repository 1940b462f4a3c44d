package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/sigil-dev/sigil/typeface"
)

// FontCmd provides the font commands
type FontCmd struct {
	Info   FontInfoCmd   `cmd:"" help:"Print font description info"`
	Shapes FontShapesCmd `cmd:"" help:"Generate shapes for text"`
}

// FontInfoCmd specifies flags for the info command
type FontInfoCmd struct {
	Font string `kong:"arg" required:"" help:"font description file name"`
}

// Run the command
func (a *FontInfoCmd) Run(ctx *Cli) error {
	font, err := loadFont(ctx, a.Font)
	if err != nil {
		return err
	}

	data := font.Data()
	ctx.WriteJSON(map[string]any{
		"family":      data.FamilyName,
		"resolution":  data.Resolution,
		"glyphs":      len(data.Glyphs),
		"ascender":    data.Ascender,
		"descender":   data.Descender,
		"boundingBox": data.BoundingBox,
	})
	return nil
}

// FontShapesCmd specifies flags for the shapes command
type FontShapesCmd struct {
	Font string `kong:"arg" required:"" help:"font description file name"`

	Text      string  `required:"" help:"text to generate shapes for"`
	Size      float64 `default:"100" help:"glyph size in target units"`
	Divisions int     `default:"12" help:"curve flattening divisions"`
	Flatten   bool    `help:"print flattened points instead of outline segments"`
}

// Run the command
func (a *FontShapesCmd) Run(ctx *Cli) error {
	font, err := loadFont(ctx, a.Font)
	if err != nil {
		return err
	}

	shapes := font.GenerateShapes(a.Text, a.Size)
	if !a.Flatten {
		ctx.WriteJSON(shapes)
		return nil
	}

	type flatShape struct {
		Rune   string             `json:"rune"`
		Offset float64            `json:"offset"`
		Paths  [][]typeface.Point `json:"paths"`
	}
	out := make([]flatShape, 0, len(shapes))
	for _, s := range shapes {
		fs := flatShape{Rune: string(s.Rune), Offset: s.Offset}
		for _, p := range s.Paths {
			fs.Paths = append(fs.Paths, p.Points(a.Divisions))
		}
		out = append(out, fs)
	}
	ctx.WriteJSON(out)
	return nil
}

// loadFont reads and parses a font description file.
func loadFont(ctx *Cli, file string) (*typeface.Font, error) {
	raw, err := ctx.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to load font file")
	}
	return typeface.Parse(raw)
}
