package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

type playerRepo struct{ c *Client }

func (r *playerRepo) coll() *mongo.Collection {
	return r.c.db.Collection(collectionPlayers)
}

func (r *playerRepo) Get(ctx context.Context, teamID, playerID string) (*domain.Player, error) {
	var p domain.Player
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "player_id", Value: playerID},
	}).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "player not found")
	}
	return &p, nil
}

func (r *playerRepo) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Player, error) {
	var p domain.Player
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "telegram_id", Value: telegramID},
	}).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "player not found")
	}
	return &p, nil
}

func (r *playerRepo) GetByPhone(ctx context.Context, teamID, phone string) (*domain.Player, error) {
	var p domain.Player
	err := r.coll().FindOne(ctx, bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "phone", Value: phone},
	}).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "player not found")
	}
	return &p, nil
}

func (r *playerRepo) List(ctx context.Context, teamID string) ([]*domain.Player, error) {
	opts := options.Find().SetSort(bson.D{{Key: "player_id", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.D{{Key: "team_id", Value: teamID}}, opts)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var players []*domain.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, mapErr(err, "")
	}
	return players, nil
}

func (r *playerRepo) Count(ctx context.Context, teamID string) (int, error) {
	n, err := r.coll().CountDocuments(ctx, bson.D{{Key: "team_id", Value: teamID}})
	if err != nil {
		return 0, mapErr(err, "")
	}
	return int(n), nil
}

func (r *playerRepo) Create(ctx context.Context, player *domain.Player) error {
	if _, err := r.coll().InsertOne(ctx, player); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.Conflict, "a player with this phone number already exists", err)
		}
		return mapErr(err, "")
	}
	return nil
}

func (r *playerRepo) Update(ctx context.Context, player *domain.Player) error {
	filter := bson.D{
		{Key: "team_id", Value: player.TeamID},
		{Key: "player_id", Value: player.PlayerID},
	}
	res, err := r.coll().ReplaceOne(ctx, filter, player)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.Conflict, "a player with this phone number already exists", err)
		}
		return mapErr(err, "")
	}
	if res.MatchedCount == 0 {
		return errs.E(errs.NotFound, "player not found")
	}
	return nil
}
