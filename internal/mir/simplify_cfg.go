package mir

// SimplifyCFG performs control flow graph simplification on a function.
// Transformations:
// 1. Remove trivial goto blocks (0 instructions + goto terminator)
// 2. Collapse goto chains
// 3. Remove unreachable blocks
// 4. Renumber blocks deterministically
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	// Phase 1: Build redirect map for trivial goto blocks
	redirects := buildRedirectMap(f)

	// Phase 2: Apply redirects to all terminators
	applyRedirects(f, redirects)

	// Phase 3: Compute reachability and remove dead blocks
	reachable := computeReachability(f)

	// Phase 4: Compact and renumber blocks
	compactBlocks(f, reachable)
}

// SimplifyModule runs SimplifyCFG over every function.
func SimplifyModule(m *Module) {
	if m == nil {
		return
	}
	for _, f := range m.Funcs {
		SimplifyCFG(f)
	}
}

// buildRedirectMap finds all trivial goto blocks and builds a mapping
// from their IDs to their final targets (following chains).
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if !isTrivialGotoBlock(f, bb.ID) {
			continue
		}
		target := bb.Term.Goto.Target
		// a self-loop of trivial gotos stays as is
		visited := map[BlockID]bool{bb.ID: true}
		for !visited[target] {
			visited[target] = true

			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if isTrivialGotoBlock(f, target) {
				target = f.Blocks[target].Term.Goto.Target
				continue
			}
			break
		}
		if target != bb.ID {
			redirects[bb.ID] = target
		}
	}
	return redirects
}

// isTrivialGotoBlock checks if a block is a trivial goto block
// (0 instructions and a goto terminator).
func isTrivialGotoBlock(f *Func, id BlockID) bool {
	if id < 0 || int(id) >= len(f.Blocks) {
		return false
	}
	bb := &f.Blocks[id]
	return len(bb.Instrs) == 0 && bb.Term.Kind == TermGoto
}

// applyRedirects updates all terminators to use the redirected targets.
func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}

	redirect := func(id BlockID) BlockID {
		if newID, ok := redirects[id]; ok {
			return newID
		}
		return id
	}

	for i := range f.Blocks {
		f.Blocks[i].Term.retarget(redirect)
	}

	f.Entry = redirect(f.Entry)
}

// computeReachability performs a DFS from the entry block to find
// all reachable blocks.
func computeReachability(f *Func) []bool {
	reachable := make([]bool, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range f.Blocks[id].Term.Successors() {
			visit(succ)
		}
	}

	visit(f.Entry)
	return reachable
}

// compactBlocks removes unreachable blocks and renumbers the remaining ones.
func compactBlocks(f *Func, reachable []bool) {
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}

	if count == len(f.Blocks) {
		for i := range f.Blocks {
			f.Blocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by existing block count
		}
		return
	}

	oldToNew := make(map[BlockID]BlockID, count)
	newBlocks := make([]Block, 0, count)

	for i, keep := range reachable {
		if keep {
			//nolint:gosec // G115: bounded by existing block count
			oldToNew[BlockID(i)] = BlockID(len(newBlocks))
			newBlocks = append(newBlocks, f.Blocks[i])
		}
	}

	remap := func(id BlockID) BlockID {
		if newID, ok := oldToNew[id]; ok {
			return newID
		}
		return id
	}

	for i := range newBlocks {
		newBlocks[i].ID = BlockID(i) //nolint:gosec // G115: bounded by newBlocks length
		newBlocks[i].Term.retarget(remap)
	}

	f.Blocks = newBlocks
	f.Entry = remap(f.Entry)
}
