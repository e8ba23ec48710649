package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/integrityline/legal-process-api/config"
	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/databases/mocks"
	"github.com/integrityline/legal-process-api/models"
)

func TestNewCaseDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	caseDB := databases.NewCaseDatabase(db)

	assert.NotEmpty(t, caseDB)
}

func TestCaseDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		(*arg).Details.Title = "mocked-case"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	// Create new database with mocked Database interface
	caseDba := databases.NewCaseDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	investigationCase, err := caseDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, investigationCase)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with a different filter for the correct
	// result
	investigationCase, err = caseDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, "mocked-case", investigationCase.Details.Title)
	assert.NoError(t, err)
}

func TestCaseDatabase_Find(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelperCorrect databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelperCorrect = &mocks.CursorHelper{}

	cursorHelperCorrect.(*mocks.CursorHelper).
		On("All", mock.Anything, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Case)
		(*arg) = []models.Case{{Details: models.CaseDetails{Title: "mocked-case"}}}
	})
	cursorHelperCorrect.(*mocks.CursorHelper).
		On("Close", mock.Anything).
		Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorHelperCorrect, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	cases, err := caseDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, cases)
	assert.EqualError(t, err, "mocked-error")

	cases, err = caseDba.Find(context.Background(), bson.M{"error": false})

	assert.Equal(t, []models.Case{{Details: models.CaseDetails{Title: "mocked-case"}}}, cases)
	assert.NoError(t, err)
}

func TestCaseDatabase_Replace(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var urHelper databases.UpdateResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	urHelper = &mocks.UpdateResultHelper{}

	urHelper.(*mocks.UpdateResultHelper).
		On("MatchedCount").
		Return(int64(1))

	replacement := &models.Case{ID: primitive.NewObjectID(), Version: 3}

	collectionHelper.(*mocks.CollectionHelper).
		On("ReplaceOne", context.Background(), bson.M{"_id": replacement.ID, "__v": int32(2)}, replacement).
		Return(urHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "cases").Return(collectionHelper)

	caseDba := databases.NewCaseDatabase(dbHelper)

	matched, err := caseDba.Replace(context.Background(), bson.M{"_id": replacement.ID, "__v": int32(2)}, replacement)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}
