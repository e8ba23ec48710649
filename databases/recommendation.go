package databases

// go generate: mockery --name RecommendationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/integrityline/legal-process-api/models"
)

const recommendationName = "recommendations"

// RecommendationDatabase contains the methods to use with the recommendation database
type RecommendationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Recommendation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Recommendation, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type recommendationDatabase struct {
	db DatabaseHelper
}

// NewRecommendationDatabase initializes a new instance of recommendation database with the provided db connection
func NewRecommendationDatabase(db DatabaseHelper) RecommendationDatabase {
	return &recommendationDatabase{
		db: db,
	}
}

func (c *recommendationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Recommendation, error) {
	recommendation := &models.Recommendation{}
	err := c.db.Collection(recommendationName).FindOne(ctx, filter, opts...).Decode(&recommendation)
	if err != nil {
		return nil, err
	}
	return recommendation, nil
}

func (c *recommendationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Recommendation, error) {
	var recommendations []models.Recommendation
	curr, err := c.db.Collection(recommendationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &recommendations)
	if err != nil {
		return nil, err
	}
	return recommendations, nil
}

func (c *recommendationDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(recommendationName).InsertOne(ctx, document, opts...)
	return res, err
}

