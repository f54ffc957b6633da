package world

func floorDiv(a, b int32) int32 {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, y int32) uint64 {
	ux := uint64(uint32(x))
	uy := uint64(uint32(y))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// inCluster reports whether (x, y) lies inside a deposit blob. Each cell of
// a coarse lattice rolls once for a blob; a hit places the blob center at a
// hash-chosen offset inside the cell. Neighboring cells are checked too so
// blobs can straddle lattice edges.
func inCluster(seed int64, x, y, grid, radius int32, probPermille uint32) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := floorDiv(x, grid)
	gy := floorDiv(y, grid)
	r2 := radius * radius

	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			cgx := gx + dx
			cgy := gy + dy
			h := hash2(seed, cgx, cgy)
			if uint32(h%1000) >= probPermille {
				continue
			}

			ox := int32((h >> 10) % uint64(grid))
			oy := int32((h >> 20) % uint64(grid))
			cx := cgx*grid + ox
			cy := cgy*grid + oy

			ddx := x - cx
			ddy := y - cy
			if ddx*ddx+ddy*ddy <= r2 {
				return true
			}
		}
	}
	return false
}
