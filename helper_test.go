package pgc_test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/internal/pgmock"
	"github.com/vireodb/pgc/pgproto"
)

// clearPGEnv keeps ambient PG* environment variables from leaking into
// config parsing during tests.
func clearPGEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD",
		"PGPASSFILE", "PGSERVICE", "PGSERVICEFILE", "PGAPPNAME",
		"PGCONNECT_TIMEOUT", "PGSSLMODE", "PGSSLKEY", "PGSSLCERT", "PGSSLROOTCERT",
	} {
		t.Setenv(k, "")
	}
}

// runMockServer starts a scripted server on a loopback listener and
// returns a connection string for it. The first error the script hits is
// delivered on the returned channel, which is closed when the script
// finishes.
func runMockServer(t *testing.T, script *pgmock.Script) (connString string, serverErrChan chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	serverErrChan = make(chan error, 1)
	go func() {
		defer close(serverErrChan)

		conn, err := ln.Accept()
		if err != nil {
			serverErrChan <- err
			return
		}
		defer conn.Close()

		if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
			serverErrChan <- err
			return
		}

		if err := script.Run(pgproto.NewBackend(conn, conn)); err != nil {
			serverErrChan <- err
		}
	}()

	connString = fmt.Sprintf("postgres://jack:secret@%s/mydb?sslmode=disable", ln.Addr().String())
	return connString, serverErrChan
}

func requireScriptFinished(t *testing.T, serverErrChan chan error) {
	t.Helper()
	select {
	case err := <-serverErrChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for mock server script to finish")
	}
}
