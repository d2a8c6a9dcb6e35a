package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsync/dirsync/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name    string
		db      config.DB
		want    string
		wantErr error
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL, User: "dirsync", Password: "pw", Host: "db", Port: 3306,
				Name: "dirsync", Extras: "parseTime=true",
			},
			want: "dirsync:pw@tcp(db:3306)/dirsync?parseTime=true",
		},
		{
			name: "postgres escapes credentials",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "dirsync", Password: "p@ss", Host: "db", Port: 5432,
				Name: "dirsync", Extras: "sslmode=disable",
			},
			want: "postgres://dirsync:p%40ss@db:5432/dirsync?sslmode=disable",
		},
		{
			name: "sqlite",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "/var/lib/dirsync/dirsync.db"},
			want: "/var/lib/dirsync/dirsync.db",
		},
		{
			name:    "unknown",
			db:      config.DB{GormEngine: "oracle"},
			wantErr: ErrUnknownEngine,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Create(tc.db)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
