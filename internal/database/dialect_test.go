package database

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, Queryer) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, db
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]string{
		"mysql":    "mysql",
		"MariaDB":  "mysql",
		"postgres": "postgres",
		"sqlite":   "sqlite",
	} {
		d, err := DialectFor(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, d.Name())
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestMySQL_DSN(t *testing.T) {
	cfg := config.DefaultConfig().Database
	dsn, err := MySQL{}.DSN(cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dsn, "root:root@tcp(localhost:3307)/"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMySQL_SchemaStatements(t *testing.T) {
	mock, q := newMock(t)
	ctx := context.Background()
	d := MySQL{}

	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(sqlmock.NewRows([]string{"Database"}).AddRow("app").AddRow("mysql"))
	mock.ExpectExec("USE `app`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SHOW TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}).AddRow("t"))
	mock.ExpectExec("USE `app`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("DESCRIBE `t`").
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("id", "int", "NO", "PRI", nil, "auto_increment").
			AddRow("name", "varchar(20)", "YES", "", "anon", ""))

	dbs, err := d.ListDatabases(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "mysql"}, dbs)

	tables, err := d.ListTables(ctx, q, "app")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)

	cols, err := d.Describe(ctx, q, "app", "t")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, []string{"id", "int", "NO", "PRI", "NULL", "auto_increment"}, cols[0].Cells())
	assert.Equal(t, "anon", cols[1].DefaultText())
	assert.True(t, cols[1].Nullable())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_UseFailureStopsListing(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectExec("USE `gone`").WillReturnError(assert.AnError)

	_, err := MySQL{}.ListTables(context.Background(), q, "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_RunUsesColumnMetadata(t *testing.T) {
	mock, q := newMock(t)
	ctx := context.Background()

	// A stored procedure call that yields a result set.
	mock.ExpectQuery("CALL top_users(3)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ada"))
	res, err := Run(ctx, q, MySQL{}, "CALL top_users(3)")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Len(t, res.Rows, 1)

	// No result shape: the count comes from ROW_COUNT.
	mock.ExpectQuery("UPDATE t SET name = 'x'").WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("SELECT ROW_COUNT()").
		WillReturnRows(sqlmock.NewRows([]string{"ROW_COUNT()"}).AddRow(4))
	res, err = Run(ctx, q, MySQL{}, "UPDATE t SET name = 'x'")
	require.NoError(t, err)
	assert.False(t, res.HasColumns())
	assert.Equal(t, int64(4), res.RowsAffected)

	mock.ExpectQuery("CREATE TABLE u (id INT)").WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("SELECT ROW_COUNT()").
		WillReturnRows(sqlmock.NewRows([]string{"ROW_COUNT()"}).AddRow(-1))
	res, err = Run(ctx, q, MySQL{}, "CREATE TABLE u (id INT)")
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Statements(t *testing.T) {
	mock, q := newMock(t)
	ctx := context.Background()
	d := Postgres{}

	mock.ExpectQuery(pgListSchemas).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))
	mock.ExpectQuery(pgListTables).WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("t"))
	mock.ExpectQuery(pgDescribe).WithArgs("public", "t").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "key", "column_default", "extra"}).
			AddRow("id", "integer", "NO", "PRI", nil, "identity"))
	mock.ExpectExec(`SET search_path TO "public"`).WillReturnResult(sqlmock.NewResult(0, 0))

	dbs, err := d.ListDatabases(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, dbs)

	tables, err := d.ListTables(ctx, q, "public")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)

	cols, err := d.Describe(ctx, q, "public", "t")
	require.NoError(t, err)
	assert.Equal(t, "PRI", cols[0].Key)

	require.NoError(t, d.UseDatabase(ctx, q, "public"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", ConnectTimeout: "5s"}
	dsn, err := Postgres{}.DSN(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "postgres://u:p%40ss@db:5432/postgres?"), dsn)
	assert.Contains(t, dsn, "connect_timeout=5")
}

func TestBuildStatements_Preview(t *testing.T) {
	d := MySQL{}

	ins, err := BuildInsert(d, "app", "t", []Assignment{{"id", "1"}, {"name", "a"}})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (id, name) VALUES ('1', 'a')", ins.Preview)
	assert.Equal(t, "INSERT INTO `t` (`id`, `name`) VALUES (?, ?)", ins.SQL)
	assert.Equal(t, []any{"1", "a"}, ins.Args)

	upd, err := BuildUpdate(d, "app", "t", []Assignment{{"id", "7"}, {"name", "y"}}, "id", int64(7))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET id='7', name='y' WHERE id='7'", upd.Preview)
	assert.Equal(t, "UPDATE `t` SET `id` = ?, `name` = ? WHERE `id` = ?", upd.SQL)
	assert.Equal(t, []any{"7", "y", int64(7)}, upd.Args)

	del, err := BuildDelete(d, "app", "t", "id", int64(7))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM t WHERE id='7'", del.Preview)
	assert.Equal(t, "DELETE FROM `t` WHERE `id` = ?", del.SQL)

	_, err = BuildInsert(d, "app", "t", nil)
	assert.Error(t, err)
	_, err = BuildUpdate(d, "app", "t", []Assignment{{"id", "1"}}, "", 1)
	assert.Error(t, err)
}

func TestBuildStatements_Postgres(t *testing.T) {
	upd, err := BuildUpdate(Postgres{}, "public", "order items", []Assignment{{"qty", "2"}}, "id", "o'1")
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "order items" SET "qty" = $1 WHERE "id" = $2`, upd.SQL)
	assert.Equal(t, `UPDATE "order items" SET qty='2' WHERE id='o''1'`, upd.Preview)
}

func TestSQLite_TableRef(t *testing.T) {
	assert.Equal(t, `"t"`, SQLite{}.TableRef("main", "t"))
	assert.Equal(t, `"beta"."t"`, SQLite{}.TableRef("beta", "t"))
	assert.Equal(t, `SELECT * FROM "beta"."t"`, SelectAll(SQLite{}, "beta", "t"))
}
