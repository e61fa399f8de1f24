package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/diag"
	"quill/internal/matchcheck"
	"quill/internal/observ"
	"quill/internal/project"
	"quill/internal/source"
)

// cacheSchemaVersion must change whenever DiskPayload changes shape.
const cacheSchemaVersion uint16 = 1

// DiskCache stores per-entry results keyed by the unit graph hash and the
// options that produced them. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is everything needed to replay a file's result without
// resolving, checking or lowering it again.
type DiskPayload struct {
	Schema      uint16             `msgpack:"schema"`
	Entry       string             `msgpack:"entry"`
	Virtual     []CachedFile       `msgpack:"virtual"`
	Diagnostics []CachedDiagnostic `msgpack:"diagnostics"`
	Dropped     int                `msgpack:"dropped"`
	IR          string             `msgpack:"ir"`
	Stats       matchcheck.Stats   `msgpack:"stats"`
	Timing      observ.Report      `msgpack:"timing"`
}

// CachedFile is a virtual source text, e.g. a function body.
type CachedFile struct {
	Path    string `msgpack:"path"`
	Content []byte `msgpack:"content"`
}

// CachedSpan locates a span by file path instead of the run-local FileID.
type CachedSpan struct {
	Path  string `msgpack:"path"`
	Start uint32 `msgpack:"start"`
	End   uint32 `msgpack:"end"`
}

type CachedNote struct {
	Span CachedSpan `msgpack:"span"`
	Msg  string     `msgpack:"msg"`
}

type CachedEdit struct {
	Span    CachedSpan `msgpack:"span"`
	NewText string     `msgpack:"new_text"`
}

type CachedFix struct {
	Title string       `msgpack:"title"`
	Edits []CachedEdit `msgpack:"edits"`
}

type CachedDiagnostic struct {
	Severity uint8        `msgpack:"severity"`
	Code     uint16       `msgpack:"code"`
	Message  string       `msgpack:"message"`
	Primary  CachedSpan   `msgpack:"primary"`
	Notes    []CachedNote `msgpack:"notes,omitempty"`
	Fixes    []CachedFix  `msgpack:"fixes,omitempty"`
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app, falling back to
// ~/.cache/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it when needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir is the directory the cache lives in.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put writes payload atomically under key.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	payload.Schema = cacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. A payload written by another
// schema version counts as a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (ok bool, err error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return out.Schema == cacheSchemaVersion, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// keyMaterial is everything besides the unit graph that shapes a result.
type keyMaterial struct {
	Entry   string  `msgpack:"entry"`
	Lower   bool    `msgpack:"lower"`
	Func    string  `msgpack:"func"`
	Options Options `msgpack:"options"`
}

// cacheKey combines the unit graph hash with a hash of the request options.
func cacheKey(unitHash project.Digest, req *Request, entry string) (project.Digest, error) {
	data, err := msgpack.Marshal(keyMaterial{Entry: entry, Lower: req.Lower, Func: req.Func, Options: req.Options})
	if err != nil {
		return project.Digest{}, err
	}
	return project.Combine(unitHash, sha256.Sum256(data)), nil
}

// newPayload captures the virtual files and diagnostics of one run.
func newPayload(entry string, fs *source.FileSet, bag *diag.Bag) *DiskPayload {
	p := &DiskPayload{Entry: entry, Dropped: bag.Dropped()}
	for i := range fs.Len() {
		id, err := safecast.Conv[source.FileID](i)
		if err != nil {
			panic(fmt.Errorf("file id overflow: %w", err))
		}
		f := fs.Get(id)
		if f.Flags&source.FileVirtual != 0 {
			p.Virtual = append(p.Virtual, CachedFile{Path: f.Path, Content: f.Content})
		}
	}
	for _, d := range bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Primary:  cacheSpan(fs, d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: cacheSpan(fs, n.Span), Msg: n.Msg})
		}
		for _, fix := range d.Fixes {
			cf := CachedFix{Title: fix.Title}
			for _, e := range fix.Edits {
				cf.Edits = append(cf.Edits, CachedEdit{Span: cacheSpan(fs, e.Span), NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// restore re-registers the virtual files in fs and replays the diagnostics
// into r.
func (p *DiskPayload) restore(fs *source.FileSet, r diag.Reporter) {
	for _, vf := range p.Virtual {
		fs.AddVirtual(vf.Path, vf.Content)
	}
	for _, cd := range p.Diagnostics {
		var notes []diag.Note
		for _, n := range cd.Notes {
			notes = append(notes, diag.Note{Span: restoreSpan(fs, n.Span), Msg: n.Msg})
		}
		var fixes []diag.Fix
		for _, cf := range cd.Fixes {
			fix := diag.Fix{Title: cf.Title}
			for _, e := range cf.Edits {
				fix.Edits = append(fix.Edits, diag.FixEdit{Span: restoreSpan(fs, e.Span), NewText: e.NewText})
			}
			fixes = append(fixes, fix)
		}
		r.Report(diag.Code(cd.Code), diag.Severity(cd.Severity), restoreSpan(fs, cd.Primary), cd.Message, notes, fixes)
	}
}

func cacheSpan(fs *source.FileSet, sp source.Span) CachedSpan {
	cs := CachedSpan{Start: sp.Start, End: sp.End}
	if int(sp.File) < fs.Len() {
		cs.Path = fs.Get(sp.File).Path
	}
	return cs
}

func restoreSpan(fs *source.FileSet, cs CachedSpan) source.Span {
	sp := source.Span{Start: cs.Start, End: cs.End}
	if id, ok := fs.GetLatest(cs.Path); ok {
		sp.File = id
	}
	return sp
}
