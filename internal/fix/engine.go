// Package fix applies the edits suggested by diagnostics to unit files.
//
// Diagnostics about function bodies point into virtual files named
// "<unit path>#<func>". Their edits are moved into the unit file by locating
// the body text inside it; bodies stored with escapes cannot be located and
// their fixes are skipped.
package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every fix that does not conflict with an earlier one.
	ApplyModeAll
	// ApplyModeID applies the fix with ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes the result without writing files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID          string
	Title       string
	Code        diag.Code
	Message     string
	PrimaryPath string
	EditCount   int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	// Content is the new file text.
	Content []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	id    string
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts,
// and writes the edited files.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, errors.New("fix: FileSet is nil")
	}

	candidates := gatherCandidates(fs, diagnostics)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, skipped := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skipped...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skipped, changes := applyCandidates(fs, selected)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skipped...)
	result.FileChanges = changes
	if len(applied) == 0 {
		return result, ErrNoFixes
	}
	if opts.DryRun {
		return result, nil
	}
	return result, writeChanges(changes)
}

// gatherCandidates lists every fix with edits, giving each a stable id.
func gatherCandidates(fs *source.FileSet, diagnostics []diag.Diagnostic) []candidate {
	var cands []candidate
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			if len(f.Edits) == 0 {
				continue
			}
			id := fixID(fs, d, idx)
			if seen[id] {
				continue
			}
			seen[id] = true
			cands = append(cands, candidate{diag: d, fix: f, id: id, order: len(cands)})
		}
	}
	return cands
}

// fixID names a fix by code, file and position, e.g. SEM3101@main.toml#get:42.
func fixID(fs *source.FileSet, d diag.Diagnostic, idx int) string {
	id := fmt.Sprintf("%s@%s:%d", d.Code.ID(), formatFilePath(fs, d.Primary.File), d.Primary.Start)
	if idx > 0 {
		id += fmt.Sprintf(".%d", idx)
	}
	return id
}

func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		return candidates[i].order < candidates[j].order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.id == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		return candidates, nil
	default:
		return candidates[:1], nil
	}
}

// placedEdit is an edit moved into the real file that holds its text.
type placedEdit struct {
	file    source.FileID
	start   int
	end     int
	newText string
}

func applyCandidates(fs *source.FileSet, selected []candidate) ([]AppliedFix, []SkippedFix, []FileChange) {
	buffers := make(map[source.FileID][]byte)
	appliedEdits := make(map[source.FileID][]placedEdit)
	editCount := make(map[source.FileID]int)

	var applied []AppliedFix
	var skipped []SkippedFix
	for _, cand := range selected {
		edits, reason := placeEdits(fs, cand.fix.Edits)
		if reason == "" {
			for _, e := range edits {
				if conflictsWithExisting(appliedEdits[e.file], e) {
					reason = fmt.Sprintf("conflicts with an earlier fix in %s", formatFilePath(fs, e.file))
					break
				}
			}
		}
		if reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: reason})
			continue
		}

		// later edits first, so earlier offsets stay valid within one fix
		sort.SliceStable(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
		for _, e := range edits {
			buf := buffers[e.file]
			if buf == nil {
				buf = append([]byte(nil), fs.Get(e.file).Content...)
			}
			start := e.start + cumulativeDelta(appliedEdits[e.file], e.start)
			end := e.end + cumulativeDelta(appliedEdits[e.file], e.end)
			suffix := append([]byte(nil), buf[end:]...)
			buffers[e.file] = append(append(buf[:start], e.newText...), suffix...)
			editCount[e.file]++
		}
		for _, e := range edits {
			appliedEdits[e.file] = insertEditSorted(appliedEdits[e.file], e)
		}

		applied = append(applied, AppliedFix{
			ID:          cand.id,
			Title:       cand.fix.Title,
			Code:        cand.diag.Code,
			Message:     cand.diag.Message,
			PrimaryPath: formatFilePath(fs, cand.diag.Primary.File),
			EditCount:   len(edits),
		})
	}

	changes := make([]FileChange, 0, len(buffers))
	for id, buf := range buffers {
		changes = append(changes, FileChange{Path: fs.Get(id).Path, EditCount: editCount[id], Content: buf})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return applied, skipped, changes
}

// placeEdits moves edits out of virtual body files into their unit files.
func placeEdits(fs *source.FileSet, edits []diag.FixEdit) ([]placedEdit, string) {
	out := make([]placedEdit, 0, len(edits))
	for _, edit := range edits {
		if int(edit.Span.File) >= fs.Len() {
			return nil, "edit points outside the loaded files"
		}
		file := fs.Get(edit.Span.File)
		sp := edit.Span
		if file.Flags&source.FileVirtual != 0 {
			hash := strings.LastIndexByte(file.Path, '#')
			if hash < 0 {
				return nil, "target file is virtual"
			}
			owner := file.Path[:hash]
			ownerID, ok := fs.GetLatest(owner)
			if !ok {
				return nil, fmt.Sprintf("unit %s is not loaded", owner)
			}
			base, err := safecast.Conv[uint32](project.BodyOffset(fs.Get(ownerID), string(file.Content)))
			if err != nil {
				return nil, "function body is not stored verbatim in its unit"
			}
			sp = sp.Shift(base)
			sp.File = ownerID
		}
		if sp.End < sp.Start || int(sp.End) > len(fs.Get(sp.File).Content) {
			return nil, "edit span out of range"
		}
		out = append(out, placedEdit{file: sp.File, start: int(sp.Start), end: int(sp.End), newText: edit.NewText})
	}
	return out, ""
}

func writeChanges(changes []FileChange) error {
	var errs []error
	for _, ch := range changes {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(ch.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(ch.Path, ch.Content, mode); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", ch.Path, err))
		}
	}
	return errors.Join(errs...)
}

// spansConflict reports whether two edits overlap. Spans are half-open; two
// insertions never conflict, and an insertion conflicts with a span that
// strictly contains its position.
func spansConflict(a, b placedEdit) bool {
	if a.start == a.end && b.start == b.end {
		return false
	}
	if a.start == a.end {
		return b.start <= a.start && a.start < b.end
	}
	if b.start == b.end {
		return a.start <= b.start && b.start < a.end
	}
	return a.start < b.end && b.start < a.end
}

func conflictsWithExisting(existing []placedEdit, e placedEdit) bool {
	for _, prev := range existing {
		if spansConflict(prev, e) {
			return true
		}
	}
	return false
}

// cumulativeDelta is how far pos has moved because of edits applied before it.
func cumulativeDelta(edits []placedEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		if e.start > pos {
			break
		}
		if e.end <= pos {
			delta += len(e.newText) - (e.end - e.start)
		}
	}
	return delta
}

func insertEditSorted(edits []placedEdit, edit placedEdit) []placedEdit {
	i := sort.Search(len(edits), func(i int) bool {
		if edits[i].start == edit.start {
			return edits[i].end >= edit.end
		}
		return edits[i].start > edit.start
	})
	edits = append(edits, placedEdit{})
	copy(edits[i+1:], edits[i:])
	edits[i] = edit
	return edits
}

func formatFilePath(fs *source.FileSet, id source.FileID) string {
	if fs == nil || int(id) >= fs.Len() {
		return ""
	}
	return fs.Get(id).FormatPath("auto", fs.BaseDir())
}
