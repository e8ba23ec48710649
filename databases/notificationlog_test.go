package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/databases/mocks"
)

func TestNotificationLogDatabase_WasEmitted(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("CountDocuments", context.Background(), mock.Anything).
		Return(int64(1), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notification_log").Return(collectionHelper)

	logDba := databases.NewNotificationLogDatabase(dbHelper)

	emitted, err := logDba.WasEmitted(context.Background(), "case-1:d-1:2", "2026-01-05")

	assert.NoError(t, err)
	assert.True(t, emitted)
}

func TestNotificationLogDatabase_MarkEmitted(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var urHelper databases.UpdateResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	urHelper = &mocks.UpdateResultHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), mock.Anything, mock.Anything, mock.Anything).
		Return(urHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notification_log").Return(collectionHelper)

	logDba := databases.NewNotificationLogDatabase(dbHelper)

	err := logDba.MarkEmitted(context.Background(), "case-1:d-1:2", "2026-01-05", time.Now())

	assert.NoError(t, err)
}
