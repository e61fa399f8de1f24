package dag

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"quill/internal/project"
)

type UnitID uint32

type Index struct {
	PathToID map[string]UnitID
	IDToPath []string
}

// BuildIndex assigns ids to every unit path that is loaded or imported,
// in sorted path order.
func BuildIndex(metas []project.UnitMeta) Index {
	uniq := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		if meta.Path != "" {
			uniq[meta.Path] = struct{}{}
		}
		for _, dep := range meta.Imports {
			if dep.Path != "" {
				uniq[dep.Path] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(uniq))
	for p := range uniq {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	pathToID := make(map[string]UnitID, len(paths))
	for i, p := range paths {
		id, err := safecast.Conv[UnitID](i)
		if err != nil {
			panic(fmt.Errorf("unit id overflow: %w", err))
		}
		pathToID[p] = id
	}
	return Index{PathToID: pathToID, IDToPath: paths}
}
