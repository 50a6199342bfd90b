package databases

// go generate: mockery --name AgencyDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neuradyne/omnivision-api/models"
)

const agencyName = "agencies"

// AgencyDatabase contains the methods to use with the agency database
type AgencyDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Agency, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Agency, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
}

type agencyDatabase struct {
	db DatabaseHelper
}

// NewAgencyDatabase initializes a new instance of agency database with the provided db connection
func NewAgencyDatabase(db DatabaseHelper) AgencyDatabase {
	return &agencyDatabase{
		db: db,
	}
}

func (a *agencyDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Agency, error) {
	agency := &models.Agency{}
	err := a.db.Collection(agencyName).FindOne(ctx, filter, opts...).Decode(&agency)
	if err != nil {
		return nil, err
	}
	return agency, nil
}

func (a *agencyDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Agency, error) {
	var agencies []models.Agency
	cr := a.db.Collection(agencyName).Find(ctx, filter, opts...)
	err := cr.Decode(&agencies)
	if err != nil {
		return nil, err
	}
	return agencies, nil
}

func (a *agencyDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := a.db.Collection(agencyName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (a *agencyDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return a.db.Collection(agencyName).UpdateOne(ctx, filter, update, opts...)
}

func (a *agencyDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return a.db.Collection(agencyName).DeleteOne(ctx, filter, opts...)
}
