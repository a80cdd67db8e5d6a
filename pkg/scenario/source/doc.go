// Package source loads scenario payloads from disk and watches them for
// changes.
//
// # File Source
//
// The file source loads every .json, .yaml and .yml file under a path (a
// single file or a directory tree). YAML documents are re-encoded as JSON
// and parsed the same way. A file that fails to read or parse is reported
// with its error instead of aborting the whole load:
//
//	src := source.NewFileSource("scenarios/", logger)
//	files, err := src.Load(ctx)
//	for _, f := range files {
//	    if f.Err != nil {
//	        continue
//	    }
//	    resp := engine.Evaluate(f.Input, time.Now())
//	}
//
// # Watching
//
// Watcher uses fsnotify and debounces bursts of writes. The callback
// receives the set of changed files, sorted:
//
//	w, err := source.NewWatcher(source.DefaultWatcherConfig("scenarios/"), logger)
//	err = w.Watch(ctx, func(paths []string) { ... })
package source
