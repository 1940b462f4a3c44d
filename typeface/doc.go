// Package typeface loads JSON glyph-outline font descriptions and
// turns text into vector shapes.
//
// A font description carries a glyph table mapping characters to
// outline command strings ("m", "l", "q", "b", "z") in font units.
// Parse validates the description eagerly, so that GenerateShapes never
// fails for a valid font. Shape generation is deterministic: the same
// font, text and size always produce the same outlines.
package typeface
