package databases

// go generate: mockery --name GroundStaffDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neuradyne/omnivision-api/models"
)

const groundStaffName = "groundstaff"

// GroundStaffDatabase contains the methods to use with the ground staff database
type GroundStaffDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.GroundStaff, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.GroundStaff, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
}

type groundStaffDatabase struct {
	db DatabaseHelper
}

// NewGroundStaffDatabase initializes a new instance of ground staff database with the provided db connection
func NewGroundStaffDatabase(db DatabaseHelper) GroundStaffDatabase {
	return &groundStaffDatabase{
		db: db,
	}
}

func (g *groundStaffDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.GroundStaff, error) {
	staff := &models.GroundStaff{}
	err := g.db.Collection(groundStaffName).FindOne(ctx, filter, opts...).Decode(&staff)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (g *groundStaffDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.GroundStaff, error) {
	var staff []models.GroundStaff
	cr := g.db.Collection(groundStaffName).Find(ctx, filter, opts...)
	err := cr.Decode(&staff)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (g *groundStaffDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := g.db.Collection(groundStaffName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (g *groundStaffDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return g.db.Collection(groundStaffName).DeleteOne(ctx, filter, opts...)
}
