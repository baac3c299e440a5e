// Package source loads rule sets into an engine from external storage.
//
// FileSource reads a JSON rules file and can watch it for changes,
// hot-reloading the engine while keeping the previous set when a reload
// fails: a bad deploy must not leave the engine empty. When the rules file
// lives inside a git work tree, GitVersion reads the HEAD commit so
// decisions can be correlated with the exact policy revision that produced
// them.
package source
