//go:build !cgo

package knowledge

// OpenKuzu is unavailable without cgo; callers fall back to MemStore.
func OpenKuzu(path string) (Store, error) {
	return nil, ErrKuzuUnavailable
}
