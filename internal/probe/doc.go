// Package probe wraps the filesystem attribute checks the scanner needs
// (hidden/system/reparse) and the free-space query preflight uses.
package probe
