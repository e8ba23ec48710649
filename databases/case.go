package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/integrityline/legal-process-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	// Replace swaps the whole case document for the given filter and
	// returns the matched count, so callers can detect a lost optimistic
	// version race.
	Replace(ctx context.Context, filter interface{}, replacement *models.Case) (int64, error)
	// DistinctTenants lists the tenant ids that have cases matching the
	// filter, so the sweep can walk tenant by tenant.
	DistinctTenants(ctx context.Context, filter interface{}) ([]string, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	investigationCase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&investigationCase)
	if err != nil {
		return nil, err
	}
	return investigationCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *caseDatabase) Replace(ctx context.Context, filter interface{}, replacement *models.Case) (int64, error) {
	res, err := c.db.Collection(caseName).ReplaceOne(ctx, filter, replacement)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}

func (c *caseDatabase) DistinctTenants(ctx context.Context, filter interface{}) ([]string, error) {
	values, err := c.db.Collection(caseName).Distinct(ctx, "case.tenantID", filter)
	if err != nil {
		return nil, err
	}
	tenants := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			tenants = append(tenants, s)
		}
	}
	return tenants, nil
}
