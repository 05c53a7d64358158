package storagedata

import "context"

// nullStore accepts every write and never returns an entry.
type nullStore struct{}

func newNullStore() Store { return &nullStore{} }

func (s *nullStore) Driver() Driver { return DriverNull }

func (s *nullStore) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (s *nullStore) Set(context.Context, string, string) error { return nil }

func (s *nullStore) Delete(context.Context, string) error { return nil }
