package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mealocr/pkg/extract"
	"mealocr/pkg/ocr"
)

// Result is one processed file from a batch or watch run.
type Result struct {
	Path    string
	Receipt *extract.ExtractedReceipt
	Err     error
}

// ProcessDir runs every supported file already in dir through a worker pool.
// fn is called once per file and must be safe for concurrent use.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string, workers int, fn func(Result)) error {
	files := listReceiptFiles(dir)
	p.log.Info().Int("files", len(files)).Int("workers", effectiveWorkers(workers)).Str("dir", dir).Msg("scanning directory")

	fileCh := make(chan string, len(files)+1)
	for _, f := range files {
		fileCh <- filepath.Join(dir, f)
	}
	close(fileCh)
	p.runWorkers(ctx, effectiveWorkers(workers), fileCh, fn)
	return ctx.Err()
}

// Watch processes existing files, then keeps watching dir for new ones until
// ctx is done. Newly created files are debounced so partially written
// uploads are not picked up mid-copy.
func (p *Pipeline) Watch(ctx context.Context, dir string, workers int, fn func(Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	p.log.Info().Str("dir", dir).Msg("watching for new receipts")

	fileCh := make(chan string, 256)
	go func() {
		defer close(fileCh)
		for _, f := range listReceiptFiles(dir) {
			fileCh <- filepath.Join(dir, f)
		}
		// debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create || ev.Op&fsnotify.Write == fsnotify.Write {
					if isSupportedExt(filepath.Base(ev.Name)) {
						pending[ev.Name] = time.Now()
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.log.Warn().Err(err).Msg("watch error")
			case <-ticker.C:
				now := time.Now()
				for path, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- path
						delete(pending, path)
					}
				}
			}
		}
	}()

	p.runWorkers(ctx, effectiveWorkers(workers), fileCh, fn)
	return ctx.Err()
}

func (p *Pipeline) runWorkers(ctx context.Context, workers int, files <-chan string, fn func(Result)) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range files {
				r, err := p.ExtractFile(ctx, path)
				fn(Result{Path: path, Receipt: r, Err: err})
			}
		}()
	}
	wg.Wait()
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func listReceiptFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	return ocr.TypeForPath(strings.ToLower(name)) != ocr.TypeUnknown
}
