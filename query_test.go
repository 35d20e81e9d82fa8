package pgc_test

import (
	"context"
	"testing"
	"time"

	gofrs "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc"
	gofrsuuid "github.com/vireodb/pgc/ext/gofrs-uuid"
	"github.com/vireodb/pgc/internal/pgmock"
	"github.com/vireodb/pgc/pgproto"
	"github.com/vireodb/pgc/pgtype"
)

func acceptConnSteps() []pgmock.Step {
	return []pgmock.Step{
		pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
		pgmock.SendMessage(&pgproto.AuthenticationOk{}),
		pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}
}

func TestExecSimpleProtocol(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Query{String: "create table widgets (id serial primary key, name text)"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "CREATE TABLE"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.ExpectMessage(&pgproto.Query{String: "update widgets set name='x' where false"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "UPDATE 0"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	commandTag, err := conn.Exec(ctx, "create table widgets (id serial primary key, name text)")
	require.NoError(t, err)
	assert.Equal(t, pgc.CommandTag("CREATE TABLE"), commandTag)
	assert.Equal(t, int64(0), commandTag.RowsAffected())

	commandTag, err = conn.Exec(ctx, "update widgets set name='x' where false")
	require.NoError(t, err)
	assert.Equal(t, int64(0), commandTag.RowsAffected())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func prepareWidgetsSteps(sql string) []pgmock.Step {
	return []pgmock.Step{
		pgmock.ExpectMessage(&pgproto.Parse{Name: "s1", Query: sql}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: 'S', Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ParseComplete{}),
		pgmock.SendMessage(&pgproto.ParameterDescription{ParameterOIDs: []uint32{23}}),
		pgmock.SendMessage(&pgproto.RowDescription{
			Fields: []pgproto.FieldDescription{
				{Name: "id", DataTypeOID: 23, DataTypeSize: 4, TypeModifier: -1},
				{Name: "name", DataTypeOID: 25, DataTypeSize: -1, TypeModifier: -1},
			},
		}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}
}

func TestPrepareAndQuery(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Bind{
			PreparedStatement:    "s1",
			ParameterFormatCodes: []int16{1},
			Parameters:           [][]byte{{0, 0, 0, 5}},
			ResultFormatCodes:    []int16{1, 1},
		}),
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "", MaxRows: 0}),
		pgmock.ExpectMessage(&pgproto.Close{ObjectType: 'P', Name: ""}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 7}, []byte("sprocket")}}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 8}, nil}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 2"}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	rows, err := conn.Query(ctx, sql, int32(5))
	require.NoError(t, err)

	require.True(t, rows.Next())

	var id int32
	var name *string
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, int32(7), id)
	require.NotNil(t, name)
	assert.Equal(t, "sprocket", *name)

	assert.Equal(t, 0, rows.FieldIndex("id"))
	assert.Equal(t, 1, rows.FieldIndex("name"))
	assert.Equal(t, -1, rows.FieldIndex("bogus"))

	value, err := rows.Value(0)
	require.NoError(t, err)
	assert.Equal(t, int32(7), value)

	_, err = rows.Value(7)
	var oob *pgc.OutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, 7, oob.Index)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, int32(8), id)
	assert.Nil(t, name)

	require.False(t, rows.Next())
	require.NoError(t, rows.Err())
	assert.Equal(t, pgc.CommandTag("SELECT 2"), rows.CommandTag())
	assert.Equal(t, int64(2), rows.CommandTag().RowsAffected())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestPrepareStatementIdentity(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	// Only one Parse/Describe/Sync exchange is scripted: the second Prepare
	// must be served from the cache without touching the wire.
	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps, pgmock.WaitForClose())

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	ps1, err := conn.Prepare(ctx, sql)
	require.NoError(t, err)
	ps2, err := conn.Prepare(ctx, sql)
	require.NoError(t, err)

	assert.Same(t, ps1, ps2)
	assert.Equal(t, "s1", ps1.Name)
	assert.Equal(t, []uint32{23}, ps1.ParameterOIDs)
	require.Len(t, ps1.FieldDescriptions, 2)
	assert.Equal(t, "id", ps1.FieldDescriptions[0].Name)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestPrepareErrorDrainsPipeline(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Parse{Name: "s1", Query: "select bogus"}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: 'S', Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "ERROR", Code: "42703", Message: `column "bogus" does not exist`}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		// The session must be usable for the next query.
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	_, err = conn.Prepare(ctx, "select bogus")
	var pgErr *pgc.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "42703", pgErr.SQLState())

	assert.True(t, conn.IsAlive())

	_, err = conn.Exec(ctx, "select 1")
	require.NoError(t, err)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestQueryErrorMidResultDrainsPipeline(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Bind{
			PreparedStatement:    "s1",
			ParameterFormatCodes: []int16{1},
			Parameters:           [][]byte{{0, 0, 0, 5}},
			ResultFormatCodes:    []int16{1, 1},
		}),
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "", MaxRows: 0}),
		pgmock.ExpectMessage(&pgproto.Close{ObjectType: 'P', Name: ""}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 7}, []byte("sprocket")}}),
		pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "ERROR", Code: "57014", Message: "canceling statement due to user request"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	rows, err := conn.Query(ctx, sql, int32(5))
	require.NoError(t, err)

	require.True(t, rows.Next())
	require.False(t, rows.Next())

	var pgErr *pgc.PgError
	require.ErrorAs(t, rows.Err(), &pgErr)
	assert.Equal(t, "57014", pgErr.SQLState())

	// After the error was drained to ReadyForQuery, the session is idle
	// again.
	assert.True(t, conn.IsAlive())
	assert.Equal(t, byte('I'), conn.TxStatus())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestQueryRowScansAndCloses(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps,
		pgmock.ExpectAnyMessage(&pgproto.Bind{}),
		pgmock.ExpectAnyMessage(&pgproto.Execute{}),
		pgmock.ExpectAnyMessage(&pgproto.Close{}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 7}, []byte("sprocket")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		// QueryRow must have fully drained the pipeline: a following simple
		// query works.
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	var id int32
	var name string
	require.NoError(t, conn.QueryRow(ctx, sql, int32(5)).Scan(&id, &name))
	assert.Equal(t, int32(7), id)
	assert.Equal(t, "sprocket", name)

	_, err = conn.Exec(ctx, "select 1")
	require.NoError(t, err)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestQueryWrongArgumentCount(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps, pgmock.WaitForClose())

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	rows, err := conn.Query(ctx, sql, int32(5), "extra")
	require.Error(t, err)
	assert.False(t, rows.Next())

	// The failed Bind was never sent, so the session is immediately usable.
	assert.True(t, conn.IsAlive())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestConnBusyWhileRowsOpen(t *testing.T) {
	clearPGEnv(t)

	sql := "select id, name from widgets where id > $1"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps, prepareWidgetsSteps(sql)...)
	script.Steps = append(script.Steps,
		pgmock.ExpectAnyMessage(&pgproto.Bind{}),
		pgmock.ExpectAnyMessage(&pgproto.Execute{}),
		pgmock.ExpectAnyMessage(&pgproto.Close{}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{{0, 0, 0, 7}, []byte("sprocket")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	rows, err := conn.Query(ctx, sql, int32(5))
	require.NoError(t, err)

	// While the iterator is live no other operation may proceed.
	_, err = conn.Exec(ctx, "select 1")
	assert.ErrorIs(t, err, pgc.ErrConnBusy)

	rows.Close()
	require.NoError(t, rows.Err())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestNotificationReceivedDuringQueryIsBuffered(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Query{String: "select 1"}),
		pgmock.SendMessage(&pgproto.NotificationResponse{PID: 7, Channel: "mychan", Payload: "from another backend"}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, "select 1")
	require.NoError(t, err)

	notifications := conn.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "mychan", notifications[0].Channel)
	assert.Equal(t, "from another backend", notifications[0].Payload)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestDeadConnRejectsOperations(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{Steps: acceptConnSteps()}

	connString, _ := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	require.NoError(t, conn.Close(ctx))

	_, err = conn.Exec(ctx, "select 1")
	assert.ErrorIs(t, err, pgc.ErrDeadConn)

	_, err = conn.Prepare(ctx, "select 1")
	assert.ErrorIs(t, err, pgc.ErrDeadConn)

	_, err = conn.Begin(ctx)
	assert.ErrorIs(t, err, pgc.ErrDeadConn)
}

func TestRegisteredDataTypeIsUsedForDecoding(t *testing.T) {
	clearPGEnv(t)

	const citextOID = 17115

	sql := "select note from memos"

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Parse{Name: "s1", Query: sql}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: 'S', Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ParseComplete{}),
		pgmock.SendMessage(&pgproto.ParameterDescription{}),
		pgmock.SendMessage(&pgproto.RowDescription{
			Fields: []pgproto.FieldDescription{
				{Name: "note", DataTypeOID: citextOID, DataTypeSize: -1, TypeModifier: -1},
			},
		}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.ExpectAnyMessage(&pgproto.Bind{}),
		pgmock.ExpectAnyMessage(&pgproto.Execute{}),
		pgmock.ExpectAnyMessage(&pgproto.Close{}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{[]byte("HeLLo")}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	// Register the extension type under its runtime-discovered OID.
	conn.ConnInfo().InitializeDataTypes(map[string]pgtype.OID{"citext": citextOID})

	var note string
	require.NoError(t, conn.QueryRow(ctx, sql).Scan(&note))
	assert.Equal(t, "HeLLo", note)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

// TestRegisteredExtUUIDCodecRoundTrip registers the ext/gofrs-uuid
// satellite codec on a connection and round-trips a uuid.UUID through the
// extended query protocol: encoded as a parameter and decoded from a
// result column, both via the registry.
func TestRegisteredExtUUIDCodecRoundTrip(t *testing.T) {
	clearPGEnv(t)

	sql := "select id from widgets where id = $1"
	rawUUID := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	script := &pgmock.Script{Steps: acceptConnSteps()}
	script.Steps = append(script.Steps,
		pgmock.ExpectMessage(&pgproto.Parse{Name: "s1", Query: sql}),
		pgmock.ExpectMessage(&pgproto.Describe{ObjectType: 'S', Name: "s1"}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.ParseComplete{}),
		pgmock.SendMessage(&pgproto.ParameterDescription{ParameterOIDs: []uint32{uint32(pgtype.UUIDOID)}}),
		pgmock.SendMessage(&pgproto.RowDescription{
			Fields: []pgproto.FieldDescription{
				{Name: "id", DataTypeOID: uint32(pgtype.UUIDOID), DataTypeSize: 16, TypeModifier: -1},
			},
		}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.ExpectMessage(&pgproto.Bind{
			PreparedStatement:    "s1",
			ParameterFormatCodes: []int16{1},
			Parameters:           [][]byte{rawUUID},
			ResultFormatCodes:    []int16{1},
		}),
		pgmock.ExpectMessage(&pgproto.Execute{Portal: "", MaxRows: 0}),
		pgmock.ExpectMessage(&pgproto.Close{ObjectType: 'P', Name: ""}),
		pgmock.ExpectMessage(&pgproto.Sync{}),
		pgmock.SendMessage(&pgproto.BindComplete{}),
		pgmock.SendMessage(&pgproto.DataRow{Values: [][]byte{rawUUID}}),
		pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "SELECT 1"}),
		pgmock.SendMessage(&pgproto.CloseComplete{}),
		pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
		pgmock.WaitForClose(),
	)

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	// Override the built-in uuid handling with the satellite codec for
	// this connection only.
	conn.ConnInfo().RegisterDataType(pgtype.DataType{Value: &gofrsuuid.UUID{}, Name: "uuid", OID: pgtype.UUIDOID})

	arg := gofrs.Must(gofrs.FromString("00010203-0405-0607-0809-0a0b0c0d0e0f"))

	var id gofrs.UUID
	require.NoError(t, conn.QueryRow(ctx, sql, arg).Scan(&id))
	assert.Equal(t, arg, id)
	assert.Equal(t, "00010203-0405-0607-0809-0a0b0c0d0e0f", id.String())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}
