package model

// RasterImage is an encoded PNG and its pixel size.
type RasterImage struct {
	PNG    []byte
	Width  int
	Height int
}
