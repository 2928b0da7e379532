// Package indexer orchestrates full and incremental rebuilds: discovery,
// per-file parsing through internal/parser, state mutation, topology and
// BM25 rebuilding, and persistence of the on-disk cache (spec §4.4).
package indexer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/codeindexer/oci/internal/bm25"
	"github.com/codeindexer/oci/internal/config"
	"github.com/codeindexer/oci/internal/debug"
	"github.com/codeindexer/oci/internal/discovery"
	ocierrors "github.com/codeindexer/oci/internal/errors"
	"github.com/codeindexer/oci/internal/parser"
	"github.com/codeindexer/oci/internal/state"
	"github.com/codeindexer/oci/internal/topology"
	"github.com/codeindexer/oci/internal/types"
	"github.com/codeindexer/oci/internal/version"

	"golang.org/x/sync/singleflight"
)

// PersistedDoc is one search document plus the raw fields bm25.DocInput
// needs to rebuild postings from scratch on every run (spec §4.4 step 9
// rebuilds BM25 from "the complete document list" rather than patching
// postings incrementally).
type PersistedDoc struct {
	Doc        types.SearchDoc
	SimpleName string
	ScopedName string
	DocComment string
	CodeText   string
}

// Options controls one Index call.
type Options struct {
	// Force discards any persisted search-document list and rebuilds it
	// from the current discovery set, per spec §4.4 step 2.
	Force bool
}

// Indexer holds the process-lifetime components one project's index is
// built from. The zero value is not usable; construct with New.
type Indexer struct {
	cfg *config.Config

	State    *state.State
	Topology *topology.Graph
	BM25     *bm25.Index

	docsMu sync.Mutex
	docs   []PersistedDoc
	nextID int

	group singleflight.Group
}

// New creates an Indexer for cfg, with empty state/topology/bm25.
func New(cfg *config.Config) *Indexer {
	return &Indexer{
		cfg:      cfg,
		State:    state.New(),
		Topology: topology.NewGraph(),
		BM25:     bm25.New(cfg.BM25),
		nextID:   1,
	}
}

// canonicalRoot resolves cfg.Project.Root to an absolute path for manifest
// comparison.
func (idx *Indexer) canonicalRoot() string {
	abs, err := filepath.Abs(idx.cfg.Project.Root)
	if err != nil {
		return idx.cfg.Project.Root
	}
	return abs
}

// FullIndex resets every index and rebuilds it from a clean discovery pass
// (spec §4.4 full_index).
func (idx *Indexer) FullIndex(ctx context.Context) (*types.Report, error) {
	idx.State.Reset()
	idx.Topology.Reset()
	idx.BM25.Reset()
	idx.docsMu.Lock()
	idx.docs = nil
	idx.nextID = 1
	idx.docsMu.Unlock()

	files, err := discovery.New(idx.cfg).Walk(ctx)
	if err != nil {
		return nil, err
	}

	report := &types.Report{TotalFiles: len(files)}
	relPaths := make([]string, 0, len(files))
	for _, f := range files {
		relPaths = append(relPaths, f.Path)
	}

	idx.parseFiles(ctx, files, report)

	topology.Build(idx.Topology, idx.State, idx.canonicalRoot(), relPaths)
	idx.State.SetTopologyMeta(idx.Topology.Count(), true)

	idx.rebuildBM25()
	report.DocsIndexed = idx.docCount()

	if err := idx.persist(files); err != nil {
		return report, err
	}
	return report, nil
}

// Index runs the incremental algorithm from spec §4.4: it loads the
// manifest and persisted documents, discovers the current file set,
// classifies every file as unchanged/changed/removed, updates state and
// topology only for what changed, rebuilds BM25 from the complete document
// list, and persists the result.
func (idx *Indexer) Index(ctx context.Context, opts Options) (*types.Report, error) {
	// Concurrent Index calls against the same root are deduplicated: the
	// second caller waits for the first's result rather than racing it
	// (spec §5). golang.org/x/sync is the only sync-extras dependency in
	// the example corpus's go.sum footprint, so this uses its singleflight
	// rather than hand-rolling a mutex-guarded "in flight" map.
	key := idx.canonicalRoot()
	v, err, _ := idx.group.Do(key, func() (interface{}, error) {
		return idx.indexLocked(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Report), nil
}

func (idx *Indexer) indexLocked(ctx context.Context, opts Options) (*types.Report, error) {
	dir := CacheDir(idx.cfg, idx.canonicalRoot())

	manifest, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}
	if opts.Force || manifest == nil || manifest.ToolVersion != version.Version || manifest.Root != idx.canonicalRoot() {
		if manifest != nil {
			if err := purgeCacheDir(dir); err != nil {
				return nil, err
			}
		}
		return idx.FullIndex(ctx)
	}

	if snap, err := loadState(dir); err != nil {
		return nil, err
	} else if snap != nil {
		idx.State = state.Restore(*snap)
	}

	persistedDocs, err := loadDocs(dir)
	if err != nil {
		return nil, err
	}
	if opts.Force {
		persistedDocs = nil
	}

	files, err := discovery.New(idx.cfg).Walk(ctx)
	if err != nil {
		return nil, err
	}

	report := &types.Report{TotalFiles: len(files)}
	discoveredByPath := make(map[string]discovery.File, len(files))
	for _, f := range files {
		discoveredByPath[f.Path] = f
	}

	var changed, unchanged []discovery.File
	for _, f := range files {
		fp := types.FileFingerprint{MtimeMS: f.ModTime, Size: f.Size}
		existing, known := manifest.Files[f.Path]

		if known && existing.MtimeMS == fp.MtimeMS && existing.Size == fp.Size {
			unchanged = append(unchanged, f)
			continue
		}

		// Size matches a prior run but mtime moved: a touch, checkout, or
		// rebuild may have rewritten identical bytes. Read once, record the
		// hash either way, and skip the reparse if it matches what was
		// recorded last time the hash was computed.
		if known && existing.Size == fp.Size {
			if hash, err := fileContentHash(f.AbsPath); err == nil {
				fp.ContentHash = hash
				if hash == existing.ContentHash {
					manifest.Files[f.Path] = fp
					unchanged = append(unchanged, f)
					continue
				}
			}
		}

		changed = append(changed, f)
		manifest.Files[f.Path] = fp
	}
	report.SkippedFiles = len(unchanged)

	var removed []string
	for relPath := range manifest.Files {
		if _, ok := discoveredByPath[relPath]; !ok {
			removed = append(removed, relPath)
		}
	}
	sort.Strings(removed)
	for _, relPath := range removed {
		delete(manifest.Files, relPath)
	}
	report.RemovedFiles = len(removed)

	changedOrRemoved := make(map[string]bool, len(changed)+len(removed))
	for _, f := range changed {
		changedOrRemoved[f.Path] = true
	}
	for _, p := range removed {
		changedOrRemoved[p] = true
	}

	idx.docsMu.Lock()
	idx.docs = idx.docs[:0]
	maxID := idx.nextID
	for _, d := range persistedDocs {
		if changedOrRemoved[d.Doc.FilePath] {
			continue
		}
		idx.docs = append(idx.docs, d)
		if d.Doc.ID >= maxID {
			maxID = d.Doc.ID + 1
		}
	}
	idx.nextID = maxID
	idx.docsMu.Unlock()

	for _, relPath := range removed {
		idx.removeFileLocked(relPath)
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })
	idx.parseFiles(ctx, changed, report)

	relPaths := make([]string, 0, len(files))
	for _, f := range files {
		relPaths = append(relPaths, f.Path)
	}
	topology.Build(idx.Topology, idx.State, idx.canonicalRoot(), relPaths)
	idx.State.SetTopologyMeta(idx.Topology.Count(), true)

	idx.rebuildBM25()
	report.DocsIndexed = idx.docCount()

	manifest.ToolVersion = version.Version
	manifest.Root = idx.canonicalRoot()
	populateManifestSymbols(manifest, idx.State)
	if err := saveManifest(dir, manifest); err != nil {
		return report, err
	}
	if err := saveState(dir, idx.State.Snapshot()); err != nil {
		return report, err
	}
	if err := idx.saveDocsAndBM25(dir); err != nil {
		return report, err
	}
	return report, nil
}

// UpdateFile clears and reparses one file, appending its freshly extracted
// documents to the in-memory document list (spec §4.4 update_file). The
// caller is responsible for triggering a BM25 rebuild and persistence.
func (idx *Indexer) UpdateFile(root, relPath string) error {
	absPath := filepath.Join(root, filepath.FromSlash(relPath))
	source, err := readFile(absPath)
	if err != nil {
		return ocierrors.NewIndexingError("update_file", err).WithFile(idx.State.GetOrCreateFileID(relPath), relPath)
	}
	idx.parseOne(relPath, source)
	return nil
}

// RemoveFile clears a file from state and drops its topology node (spec
// §4.4 remove_file).
func (idx *Indexer) RemoveFile(relPath string) {
	idx.removeFileLocked(relPath)
}

func (idx *Indexer) removeFileLocked(relPath string) {
	idx.State.ClearFile(relPath)
	topology.RemoveFile(idx.Topology, relPath)
	idx.dropDocsForFile(relPath)
}

func (idx *Indexer) dropDocsForFile(relPath string) {
	idx.docsMu.Lock()
	defer idx.docsMu.Unlock()
	kept := idx.docs[:0]
	for _, d := range idx.docs {
		if d.Doc.FilePath != relPath {
			kept = append(kept, d)
		}
	}
	idx.docs = kept
}

func (idx *Indexer) docCount() int {
	idx.docsMu.Lock()
	defer idx.docsMu.Unlock()
	return len(idx.docs)
}

// parseFiles parses files concurrently through a bounded worker pool
// (spec §5): no errgroup/worker-pool library appears anywhere in the
// example corpus, so this follows the teacher's own hand-rolled
// goroutine-plus-channel pattern rather than introducing one.
func (idx *Indexer) parseFiles(ctx context.Context, files []discovery.File, report *types.Report) {
	workers := idx.cfg.Index.ParallelWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 0 {
		return
	}

	jobs := make(chan discovery.File)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				source, err := readFile(f.AbsPath)
				if err != nil {
					debug.Component("indexer", "skip %s: %v", f.Path, err)
					mu.Lock()
					report.SkippedFiles++
					mu.Unlock()
					continue
				}
				ok := idx.parseOne(f.Path, source)
				mu.Lock()
				if ok {
					report.ParsedFiles++
				} else {
					report.SkippedFiles++
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- f:
			}
		}
	}()

	wg.Wait()
}

// parseOne parses one file's source and adds its symbols, call edges,
// imports, and search documents to state. Returns false (logging, never
// erroring the whole run) if the extension isn't supported.
func (idx *Indexer) parseOne(relPath string, source []byte) bool {
	// A changed file may already have symbols/docs from a prior run;
	// clearing unconditionally before re-adding keeps this idempotent
	// whether the caller is a fresh full index (nothing to clear) or an
	// incremental update (spec §4.4 update_file: "clear_file then
	// reparse").
	idx.State.ClearFile(relPath)
	idx.dropDocsForFile(relPath)

	ext := path.Ext(relPath)
	lang := parser.Dispatch(ext)
	if lang == nil {
		return false
	}

	fileID := idx.State.GetOrCreateFileID(relPath)
	file := parser.FileContext{
		FileID:    fileID,
		RelPath:   relPath,
		RootScope: parser.RootScopeFor(ext, relPath),
	}

	tree, err := lang.Parse(source)
	if err != nil {
		debug.Component("indexer", "parse %s: %v", relPath, ocierrors.NewParseError(fileID, relPath, err))
		return false
	}
	defer tree.Close()

	symbols := lang.ExtractSymbols(tree, source, file, idx.State.Interner())
	calls := lang.ExtractCalls(tree, source, file, idx.State.Interner())
	imports := lang.ExtractImports(tree, source, file)

	for _, def := range symbols {
		idx.State.AddSymbol(def)
		idx.addDoc(def, source)
	}
	for _, edge := range calls {
		idx.State.AddCallEdge(edge)
	}
	idx.State.SetImports(fileID, imports)

	return true
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// addDoc builds the SearchDoc for one extracted symbol (spec §4.4
// "Search-doc construction") and appends it to the in-memory document
// list under lock.
func (idx *Indexer) addDoc(def types.SymbolDef, source []byte) {
	start, end := def.Location.StartByte, def.Location.EndByte
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start > end {
		start = end
	}
	codeText := string(source[start:end])

	indexedText := codeText
	if def.DocComment != "" {
		indexedText = def.DocComment + "\n" + codeText
	}
	indexedText = truncateChars(indexedText, types.MaxIndexedTextChars)

	preview := leadingLine(codeText, types.MaxPreviewChars)

	idx.docsMu.Lock()
	id := idx.nextID
	idx.nextID++
	idx.docs = append(idx.docs, PersistedDoc{
		Doc: types.SearchDoc{
			ID:          id,
			Symbol:      def.ScopedName,
			FilePath:    def.Location.Path,
			StartByte:   def.Location.StartByte,
			EndByte:     def.Location.EndByte,
			StartLine:   def.Location.StartLine,
			StartCol:    def.Location.StartCol,
			EndLine:     def.Location.EndLine,
			EndCol:      def.Location.EndCol,
			Preview:     preview,
			IndexedText: indexedText,
		},
		SimpleName: def.SimpleName,
		ScopedName: def.ScopedName,
		DocComment: def.DocComment,
		CodeText:   codeText,
	})
	idx.docsMu.Unlock()
}

func readFile(absPath string) ([]byte, error) {
	return os.ReadFile(absPath)
}

// fileContentHash xxhashes a file's current bytes for the mtime-moved/
// size-unchanged fast-path equality check in indexLocked's diff loop.
func fileContentHash(absPath string) (uint64, error) {
	data, err := readFile(absPath)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func truncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// leadingLine collapses whitespace and returns the leading max characters
// of the first line of span (spec §4.4: "single-line, whitespace-collapsed
// leading N characters").
func leadingLine(span string, max int) string {
	line := span
	if idx := strings.IndexByte(span, '\n'); idx >= 0 {
		line = span[:idx]
	}
	line = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
	runes := []rune(line)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}

// rebuildBM25 discards and rebuilds the BM25 index from the complete
// in-memory document list (spec §4.4 step 9).
func (idx *Indexer) rebuildBM25() {
	idx.BM25.Reset()
	idx.docsMu.Lock()
	docs := append([]PersistedDoc(nil), idx.docs...)
	idx.docsMu.Unlock()

	for _, d := range docs {
		idx.BM25.AddDocument(bm25.DocInput{
			Doc:        d.Doc,
			SimpleName: d.SimpleName,
			ScopedName: d.ScopedName,
			DocComment: d.DocComment,
			CodeText:   d.CodeText,
		})
	}
	idx.BM25.Finalize()
	idx.State.SetHasBM25(true)
}

func (idx *Indexer) persist(files []discovery.File) error {
	dir := CacheDir(idx.cfg, idx.canonicalRoot())
	manifest := types.NewManifest(version.Version, idx.canonicalRoot())
	for _, f := range files {
		manifest.Files[f.Path] = types.FileFingerprint{MtimeMS: f.ModTime, Size: f.Size}
	}
	populateManifestSymbols(manifest, idx.State)
	if err := saveManifest(dir, manifest); err != nil {
		return err
	}
	if err := saveState(dir, idx.State.Snapshot()); err != nil {
		return err
	}
	return idx.saveDocsAndBM25(dir)
}

func (idx *Indexer) saveDocsAndBM25(dir string) error {
	idx.docsMu.Lock()
	docs := append([]PersistedDoc(nil), idx.docs...)
	idx.docsMu.Unlock()

	if err := saveDocs(dir, docs); err != nil {
		return err
	}
	return saveBM25(dir, idx.BM25)
}
