package pgxutil

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToPgxTxOptions(t *testing.T) {
	assert.Equal(t, pgx.TxOptions{}, toPgxTxOptions(nil))

	got := toPgxTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable})
	assert.Equal(t, pgx.Serializable, got.IsoLevel)
	assert.Equal(t, pgx.ReadWrite, got.AccessMode)

	got = toPgxTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true})
	assert.Equal(t, pgx.ReadCommitted, got.IsoLevel)
	assert.Equal(t, pgx.ReadOnly, got.AccessMode)

	got = toPgxTxOptions(&sql.TxOptions{})
	assert.Equal(t, pgx.TxIsoLevel(""), got.IsoLevel)
}
