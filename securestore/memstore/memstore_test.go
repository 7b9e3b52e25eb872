package memstore_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/securestore/memstore"
	"github.com/jrsteele09/go-auth-client/securestore/storetest"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) securestore.Store {
		return memstore.New()
	})
}
