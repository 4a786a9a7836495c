// Package scanner finds processes holding a resource: a memory mapping
// (shared library, executable, mapped file) listed in /proc/<pid>/maps, or an
// open descriptor listed in /proc/<pid>/fd.
//
// A scan is a fresh snapshot. Processes that exit, or that cannot be read,
// between enumeration and inspection simply produce no result; only a
// malformed pid is reported as an error.
package scanner
