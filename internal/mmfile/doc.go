// Package mmfile provides platform-specific helpers for mapping physical
// memory images: anonymous memory for throwaway address spaces and
// file-backed shared mappings for images that outlive the process.
package mmfile
