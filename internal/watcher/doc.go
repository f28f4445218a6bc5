// Package watcher watches a synonym source on disk and reports debounced
// batches of changes.
//
// A Watcher follows a directory tree with fsnotify. Rapid edits to the
// same file are coalesced by a Debouncer so one save in an editor, or one
// `indexsyn index` run, gives a single rebuild:
//
//	w, err := watcher.New(watcher.Options{Root: dir, Debounce: 500 * time.Millisecond})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx)
//	for batch := range w.Events() {
//	    // rebuild
//	}
package watcher
