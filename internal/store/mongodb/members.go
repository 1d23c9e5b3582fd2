package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

type memberRepo struct{ c *Client }

func (r *memberRepo) coll() *mongo.Collection {
	return r.c.db.Collection(collectionMembers)
}

func (r *memberRepo) Get(ctx context.Context, teamID, memberID string) (*domain.Member, error) {
	var m domain.Member
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "member_id", Value: memberID},
	}).Decode(&m)
	if err != nil {
		return nil, mapErr(err, "member not found")
	}
	return &m, nil
}

func (r *memberRepo) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Member, error) {
	var m domain.Member
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "telegram_id", Value: telegramID},
	}).Decode(&m)
	if err != nil {
		return nil, mapErr(err, "member not found")
	}
	return &m, nil
}

func (r *memberRepo) GetByPhone(ctx context.Context, teamID, phone string) (*domain.Member, error) {
	var m domain.Member
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "phone", Value: phone},
	}).Decode(&m)
	if err != nil {
		return nil, mapErr(err, "member not found")
	}
	return &m, nil
}

func (r *memberRepo) List(ctx context.Context, teamID string) ([]*domain.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "member_id", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.D{{Key: "team_id", Value: teamID}}, opts)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var members []*domain.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, mapErr(err, "")
	}
	return members, nil
}

func (r *memberRepo) Count(ctx context.Context, teamID string) (int, error) {
	n, err := r.coll().CountDocuments(ctx, bson.D{{Key: "team_id", Value: teamID}})
	if err != nil {
		return 0, mapErr(err, "")
	}
	return int(n), nil
}

func (r *memberRepo) CountAdmins(ctx context.Context, teamID string) (int, error) {
	n, err := r.coll().CountDocuments(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "is_admin", Value: true},
		{Key: "status", Value: domain.StatusActive},
	})
	if err != nil {
		return 0, mapErr(err, "")
	}
	return int(n), nil
}

func (r *memberRepo) Create(ctx context.Context, member *domain.Member) error {
	if _, err := r.coll().InsertOne(ctx, member); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.Conflict, "a member with this phone number already exists", err)
		}
		return mapErr(err, "")
	}
	return nil
}

func (r *memberRepo) Update(ctx context.Context, member *domain.Member) error {
	filter := bson.D{
		{Key: "team_id", Value: member.TeamID},
		{Key: "member_id", Value: member.MemberID},
	}
	res, err := r.coll().ReplaceOne(ctx, filter, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.Conflict, "a member with this phone number already exists", err)
		}
		return mapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return errs.E(errs.NotFound, "member not found")
	}
	return nil
}
