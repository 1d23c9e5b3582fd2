package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

type inviteRepo struct{ c *Client }

func (r *inviteRepo) coll() *mongo.Collection {
	return r.c.db.Collection(collectionInvites)
}

func (r *inviteRepo) Get(ctx context.Context, inviteID string) (*domain.Invite, error) {
	var inv domain.Invite
	err := r.coll().FindOne(ctx, bson.D{{Key: "invite_id", Value: inviteID}}).Decode(&inv)
	if err != nil {
		return nil, mapErr(err, "invite not found")
	}
	return &inv, nil
}

func (r *inviteRepo) Create(ctx context.Context, invite *domain.Invite) error {
	if _, err := r.coll().InsertOne(ctx, invite); err != nil {
		return mapErr(err, "")
	}
	return nil
}

// MarkUsed sets used_at only when it is still unset. The filter on a missing
// used_at field makes the update a compare-and-set: exactly one of N
// concurrent redemptions matches, and the rest see InviteAlreadyUsed.
func (r *inviteRepo) MarkUsed(ctx context.Context, inviteID string, usedAt time.Time) error {
	filter := bson.D{
		{Key: "invite_id", Value: inviteID},
		{Key: "used_at", Value: bson.D{{Key: "$exists", Value: false}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "used_at", Value: usedAt}}}}

	res, err := r.coll().UpdateOne(ctx, filter, update)
	if err != nil {
		return mapErr(err, "")
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the invite does not exist or it is already used.
	if _, err := r.Get(ctx, inviteID); err != nil {
		return err
	}
	return errs.E(errs.InviteAlreadyUsed, errs.CannedMessage(errs.InviteAlreadyUsed))
}

func (r *inviteRepo) ListPending(ctx context.Context, teamID string, now time.Time) ([]*domain.Invite, error) {
	filter := bson.D{
		{Key: "team_id", Value: teamID},
		{Key: "used_at", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: 1}})
	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err, "")
	}
	defer cursor.Close(ctx)

	var invites []*domain.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, mapErr(err, "")
	}
	return invites, nil
}
