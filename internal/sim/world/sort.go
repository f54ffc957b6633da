package world

import "sort"

// sortActions orders a tick's proposals so that an action vacating a cell
// comes after every action that wants to fill it; the executor then walks
// the list in reverse, draining each chain from its head. Kahn's algorithm
// over the cell-occupancy graph, with one twist: actions caught in a cycle
// never reach the queue, so they are appended afterward in proposal order
// and resolved (or dropped) by apply-time validation.
func (w *World) sortActions(actions []Action) []Action {
	// outAt: actions that read/vacate a cell. inAt: actions that fill it.
	outAt := make(map[Position][]int)
	inAt := make(map[Position][]int)
	for i, a := range actions {
		switch a.Kind {
		case ActionMove, ActionRouteMove:
			outAt[a.From] = append(outAt[a.From], i)
			inAt[a.To] = append(inAt[a.To], i)
		case ActionProduce:
			if dest, ok := w.produceDestination(a.From); ok {
				outAt[a.From] = append(outAt[a.From], i)
				inAt[dest] = append(inAt[dest], i)
			}
		case ActionTeleport:
			outAt[a.From] = append(outAt[a.From], i)
		}
	}

	// Edge filler -> vacater for every contested cell. Cells are visited in
	// sorted order so the edge lists, and with them the final order, do not
	// depend on map iteration.
	cells := make([]Position, 0, len(outAt))
	for p := range outAt {
		cells = append(cells, p)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })

	graph := make(map[int][]int)
	inDegree := make(map[int]int)
	for _, p := range cells {
		ins, ok := inAt[p]
		if !ok {
			continue
		}
		for _, out := range outAt[p] {
			for _, in := range ins {
				if in == out {
					continue
				}
				graph[in] = append(graph[in], out)
				inDegree[out]++
			}
		}
	}

	stack := make([]int, 0, len(actions))
	for i := range actions {
		if inDegree[i] == 0 {
			stack = append(stack, i)
		}
	}

	order := make([]int, 0, len(actions))
	visited := make([]bool, len(actions))
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, i)
		visited[i] = true
		for _, next := range graph[i] {
			inDegree[next]--
			if inDegree[next] == 0 {
				stack = append(stack, next)
			}
		}
	}
	// Cyclic leftovers keep their proposal order.
	for i := range actions {
		if !visited[i] {
			order = append(order, i)
		}
	}

	out := make([]Action, len(order))
	for n, i := range order {
		out[n] = actions[i]
	}
	return out
}

// produceDestination resolves the cell a Produce at p would fill: the facing
// neighbor for factories, extractors and storages. Factories and extractors
// fill their own output slot, but that slot feeds the facing cell next tick,
// so ordering against the neighbor is what keeps chains flowing.
func (w *World) produceDestination(p Position) (Position, bool) {
	t := w.grid.At(p)
	if t == nil {
		return Position{}, false
	}
	switch t.Kind {
	case KindFactory, KindExtractor, KindStorage:
		return p.Shift(t.Dir), true
	}
	return Position{}, false
}

// reverseActions flips the executed order in place.
func reverseActions(a []Action) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
