package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

type teamRepo struct{ c *Client }

func (r *teamRepo) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	var team domain.Team
	err := r.c.db.Collection(collectionTeams).
		FindOne(ctx, bson.D{{Key: "team_id", Value: teamID}}).
		Decode(&team)
	if err != nil {
		return nil, mapErr(err, "team not found")
	}
	return &team, nil
}

func (r *teamRepo) List(ctx context.Context) ([]*domain.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "team_id", Value: 1}})
	cursor, err := r.c.db.Collection(collectionTeams).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var teams []*domain.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, mapErr(err, "")
	}
	return teams, nil
}

func (r *teamRepo) Put(ctx context.Context, team *domain.Team) error {
	filter := bson.D{{Key: "team_id", Value: team.TeamID}}
	update := bson.D{{Key: "$set", Value: team}}
	opts := options.Update().SetUpsert(true)
	_, err := r.c.db.Collection(collectionTeams).UpdateOne(ctx, filter, update, opts)
	return mapErr(err, "")
}

func (r *teamRepo) SetDisabled(ctx context.Context, teamID string, disabled bool) error {
	filter := bson.D{{Key: "team_id", Value: teamID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "disabled", Value: disabled},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	res, err := r.c.db.Collection(collectionTeams).UpdateOne(ctx, filter, update)
	if err != nil {
		return mapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return errs.E(errs.NotFound, "team not found")
	}
	return nil
}
