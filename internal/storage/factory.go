package storage

import "fmt"

// NewStore builds the run-artifact store for the requested backend. The
// empty kind falls back to "memory"; "sqlite" is available only when the
// module is built with the sqlite tag.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (want memory or sqlite)", kind)
	}
}

// CloseIfSupported closes stores holding external resources. Stores without
// a Close method, like the in-memory one, are left untouched.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
