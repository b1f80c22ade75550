// Package fs abstracts the filesystem operations behind atomic blob writes so
// tests can inject failures.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: wrapper that fails writes, syncs or renames on demand
//
// Production code uses fs.Default. Tests swap in a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetFault(fs.Fault{FailAfterBytes: 1024})
package fs
