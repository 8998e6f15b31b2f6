package repo_test

import (
	"testing"

	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/repo/repotest"
	"github.com/pkordes/tripboard/testutil"
)

func TestRedisDocumentStore_Contract(t *testing.T) {
	repotest.RunDocumentStore(t, func(t *testing.T) repo.DocumentStore {
		return repo.NewRedisDocumentStore(testutil.NewRedisClient(t))
	})
}
