package enhancer

import "math"

// applyCLAHE runs contrast-limited adaptive histogram equalization on a
// quantized luma plane. The image is divided into a grid x grid tile layout;
// each tile gets its own clipped equalization mapping and every pixel is
// bilinearly interpolated between the mappings of the four nearest tile
// centers.
func applyCLAHE(luma []uint8, width, height int, clipLimit float64, grid int) []uint8 {
	cols := grid
	rows := grid
	if cols > width {
		cols = width
	}
	if rows > height {
		rows = height
	}
	if cols < 1 || rows < 1 {
		out := make([]uint8, len(luma))
		copy(out, luma)
		return out
	}

	tileW := float64(width) / float64(cols)
	tileH := float64(height) / float64(rows)

	mappings := make([][256]uint8, cols*rows)
	for ty := 0; ty < rows; ty++ {
		y0 := int(float64(ty) * tileH)
		y1 := int(float64(ty+1) * tileH)
		if ty == rows-1 {
			y1 = height
		}
		for tx := 0; tx < cols; tx++ {
			x0 := int(float64(tx) * tileW)
			x1 := int(float64(tx+1) * tileW)
			if tx == cols-1 {
				x1 = width
			}
			mappings[ty*cols+tx] = tileMapping(luma, width, x0, y0, x1, y1, clipLimit)
		}
	}

	out := make([]uint8, len(luma))
	for y := 0; y < height; y++ {
		// Position relative to tile centers, clamped to the grid edge so
		// border pixels extrapolate from the nearest tile.
		gy := float64(y)/tileH - 0.5
		ty0 := int(math.Floor(gy))
		fy := gy - float64(ty0)
		if ty0 < 0 {
			ty0, fy = 0, 0
		}
		ty1 := ty0 + 1
		if ty1 >= rows {
			ty1 = rows - 1
			if ty0 == ty1 {
				fy = 0
			}
		}
		for x := 0; x < width; x++ {
			gx := float64(x)/tileW - 0.5
			tx0 := int(math.Floor(gx))
			fx := gx - float64(tx0)
			if tx0 < 0 {
				tx0, fx = 0, 0
			}
			tx1 := tx0 + 1
			if tx1 >= cols {
				tx1 = cols - 1
				if tx0 == tx1 {
					fx = 0
				}
			}

			v := luma[y*width+x]
			tl := float64(mappings[ty0*cols+tx0][v])
			tr := float64(mappings[ty0*cols+tx1][v])
			bl := float64(mappings[ty1*cols+tx0][v])
			br := float64(mappings[ty1*cols+tx1][v])
			top := tl + (tr-tl)*fx
			bottom := bl + (br-bl)*fx
			out[y*width+x] = clampLevel(math.Round(top + (bottom-top)*fy))
		}
	}
	return out
}

// tileMapping builds the clipped equalization lookup for one tile. The clip
// limit is expressed as a multiple of the uniform bin height; clipped excess
// is redistributed evenly across all bins.
func tileMapping(luma []uint8, width, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]float64
	count := 0
	for y := y0; y < y1; y++ {
		row := y * width
		for x := x0; x < x1; x++ {
			hist[luma[row+x]]++
			count++
		}
	}

	var mapping [256]uint8
	if count == 0 {
		for i := 0; i < 256; i++ {
			mapping[i] = uint8(i)
		}
		return mapping
	}

	limit := clipLimit * float64(count) / 256.0
	if limit < 1 {
		limit = 1
	}
	excess := 0.0
	for i := 0; i < 256; i++ {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	redist := excess / 256.0
	for i := 0; i < 256; i++ {
		hist[i] += redist
	}

	cdf := 0.0
	scale := 255.0 / float64(count)
	for i := 0; i < 256; i++ {
		cdf += hist[i]
		mapping[i] = clampLevel(math.Round(cdf * scale))
	}
	return mapping
}
