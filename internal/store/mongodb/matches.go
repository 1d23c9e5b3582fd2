package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/store"
)

type matchRepo struct{ c *Client }

func (r *matchRepo) coll() *mongo.Collection {
	return r.c.db.Collection(collectionMatches)
}

func (r *matchRepo) Get(ctx context.Context, teamID, matchID string) (*domain.Match, error) {
	var m domain.Match
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "match_id", Value: matchID},
	}).Decode(&m)
	if err != nil {
		return nil, mapErr(err, "match not found")
	}
	return &m, nil
}

func (r *matchRepo) List(ctx context.Context, teamID string) ([]*domain.Match, error) {
	opts := options.Find().SetSort(bson.D{{Key: "kickoff_at", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.D{{Key: "team_id", Value: teamID}}, opts)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var matches []*domain.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, mapErr(err, "")
	}
	return matches, nil
}

func (r *matchRepo) Count(ctx context.Context, teamID string) (int, error) {
	n, err := r.coll().CountDocuments(ctx, bson.D{{Key: "team_id", Value: teamID}})
	if err != nil {
		return 0, mapErr(err, "")
	}
	return int(n), nil
}

func (r *matchRepo) Create(ctx context.Context, match *domain.Match) error {
	if _, err := r.coll().InsertOne(ctx, match); err != nil {
		return mapErr(err, "")
	}
	return nil
}

func (r *matchRepo) Update(ctx context.Context, match *domain.Match) error {
	filter := bson.D{
		{Key: "team_id", Value: match.TeamID},
		{Key: "match_id", Value: match.MatchID},
	}
	res, err := r.coll().ReplaceOne(ctx, filter, match)
	if err != nil {
		return mapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return errs.E(errs.NotFound, "match not found")
	}
	return nil
}

func (r *matchRepo) SetAvailability(ctx context.Context, av *domain.Availability) error {
	filter := bson.D{
		{Key: "team_id", Value: av.TeamID},
		{Key: "match_id", Value: av.MatchID},
		{Key: "player_id", Value: av.PlayerID},
	}
	update := bson.D{{Key: "$set", Value: av}}
	opts := options.Update().SetUpsert(true)
	_, err := r.c.db.Collection(collectionAvailability).UpdateOne(ctx, filter, update, opts)
	return mapErr(err, "")
}

func (r *matchRepo) ListAvailability(ctx context.Context, teamID, matchID string) ([]*domain.Availability, error) {
	filter := bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "match_id", Value: matchID},
	}
	cursor, err := r.c.db.Collection(collectionAvailability).Find(ctx, filter)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var avail []*domain.Availability
	if err := cursor.All(ctx, &avail); err != nil {
		return nil, mapErr(err, "")
	}
	return avail, nil
}

type auditRepo struct{ c *Client }

func (r *auditRepo) Record(ctx context.Context, rec *store.AuditRecord) error {
	_, err := r.c.db.Collection(collectionAudit).InsertOne(ctx, rec)
	return mapErr(err, "")
}
