// Package render groups the avatar rendering packages.
//
// # Overview
//
// An avatar is drawn in four layers on a 512×512 canvas: a flat background,
// a filled shape rotated about the canvas centre, then the eyes and mouth
// overlays. The overlays are not rotated with the shape; they slide in the
// direction of the tilt instead.
//
// The work is split across subpackages:
//
//   - [path]: SVG path data parsing and replay
//   - [raster]: the RGBA canvas, affine matrices and the immutable transform stack
//   - [overlay]: the eyes/mouth SVG assets and their rasterized layers
//   - [compose]: layer order, transforms and the cached-overlay renderer
//
// Rendering is deterministic: the same parameters and overlay asset bytes
// always produce the same PNG bytes.
//
//	r := compose.NewRenderer(overlay.NewLayers(overlay.Default(), c, nil, logger), logger)
//	out, err := r.Render(ctx, params)
//	os.WriteFile("avatar.png", out.PNG, 0o644)
//
// [path]: github.com/nornoe/skyavatar/pkg/render/path
// [raster]: github.com/nornoe/skyavatar/pkg/render/raster
// [overlay]: github.com/nornoe/skyavatar/pkg/render/overlay
// [compose]: github.com/nornoe/skyavatar/pkg/render/compose
package render
