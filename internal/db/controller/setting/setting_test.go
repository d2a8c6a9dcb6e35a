package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Every connection to :memory: opens a fresh database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Set(db, "site_name", []byte("My Site")))

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", settingName: "test", expectedError: ErrDBNil},
		{name: "empty name", dbParam: db, settingName: "", expectedError: ErrSettingNameEmpty},
		{name: "setting not found", dbParam: db, settingName: "nonexistent", expectedError: ErrSettingNotFound},
		{name: "successful get", dbParam: db, settingName: "site_name", expectedValue: []byte("My Site")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Get(tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.settingName, s.Name)
			assert.Equal(t, tc.expectedValue, s.Value)
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Set(db, "key", []byte("one")))
	require.NoError(t, Set(db, "key", []byte("two")))

	s, err := Get(db, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), s.Value)

	var count int64
	db.Model(&models.Setting{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.ErrorIs(t, Set(nil, "key", nil), ErrDBNil)
	require.ErrorIs(t, Set(db, "", nil), ErrSettingNameEmpty)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Set(db, "key", []byte("v")))

	require.NoError(t, Delete(db, "key"))
	require.ErrorIs(t, Delete(db, "key"), ErrSettingNotFound)
	require.ErrorIs(t, Delete(db, ""), ErrSettingNameEmpty)
	require.ErrorIs(t, Delete(nil, "key"), ErrDBNil)
}

func TestCustomAttributes(t *testing.T) {
	db := setupTestDB(t)

	custom, err := LoadCustomAttributes(db)
	require.NoError(t, err)
	assert.Nil(t, custom)

	want := []attribute.Custom{
		{Name: "extensionAttribute1", Type: "integer", Syncable: true},
		{Name: "employeeID", Type: "string", Viewable: true},
	}
	require.NoError(t, SaveCustomAttributes(db, want))

	custom, err = LoadCustomAttributes(db)
	require.NoError(t, err)
	assert.Equal(t, want, custom)

	require.NoError(t, Set(db, KeyCustomAttributes, []byte("not json")))

	_, err = LoadCustomAttributes(db)
	require.Error(t, err)
}
