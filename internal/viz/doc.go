// Package viz draws phase portraits in the terminal.
//
// [Canvas] is a braille pixel grid with 2x4 dots per character cell.
// [PortraitASCII] and [Plot] map phase-space points onto it, with axes and
// diamond glyphs for fixed points.
package viz
