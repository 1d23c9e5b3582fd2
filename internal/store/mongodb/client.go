// Package mongodb implements the store interfaces on MongoDB. Collections:
// teams, players, members, invites, matches, availability, audit. Invite
// redemption uses a compare-and-set update plus a session transaction so two
// concurrent redemptions of one token leave exactly one winner.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/store"
)

const (
	collectionTeams        = "teams"
	collectionPlayers      = "players"
	collectionMembers      = "members"
	collectionInvites      = "invites"
	collectionMatches      = "matches"
	collectionAvailability = "availability"
	collectionAudit        = "audit"
)

// Client wraps a mongo connection and database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies reachability. Startup fails fast when
// the server cannot be pinged.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	opts := options.Client().ApplyURI(uri)
	cl, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cl.Ping(pingCtx, nil); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	c := &Client{client: cl, db: cl.Database(database)}
	if err := c.ensureIndexes(ctx); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Stores returns the repository bundle backed by this client.
func (c *Client) Stores() store.Stores {
	return store.Stores{
		Teams:   &teamRepo{c},
		Players: &playerRepo{c},
		Members: &memberRepo{c},
		Invites: &inviteRepo{c},
		Matches: &matchRepo{c},
		Audit:   &auditRepo{c},
		Tx:      &txRunner{c},
	}
}

// ensureIndexes creates the unique indexes that back the domain invariants:
// (team_id, phone) and (team_id, player_id/member_id) unique, telegram_id
// unique per team where set.
func (c *Client) ensureIndexes(ctx context.Context) error {
	partialTelegram := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$exists", Value: true}}}})

	specs := map[string][]mongo.IndexModel{
		collectionTeams: {
			{Keys: bson.D{{Key: "team_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionPlayers: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "player_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "telegram_id", Value: 1}}, Options: partialTelegram},
		},
		collectionMembers: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "member_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "telegram_id", Value: 1}}, Options: partialTelegram},
		},
		collectionInvites: {
			{Keys: bson.D{{Key: "invite_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		collectionMatches: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "match_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionAvailability: {
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "match_id", Value: 1}, {Key: "player_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range specs {
		if _, err := c.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// --- transactions ---

type txRunner struct{ c *Client }

// WithinTx runs fn inside a causally-consistent session transaction.
// Read-your-write consistency for invite redemption comes from majority
// read/write concerns.
func (t *txRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.c.client.StartSession()
	if err != nil {
		return errs.Wrap(errs.DependencyUnavailable, errs.CannedMessage(errs.DependencyUnavailable), err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txOpts)
	return err
}

// mapErr classifies driver errors into the shared taxonomy.
func mapErr(err error, missing string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.E(errs.NotFound, missing)
	case mongo.IsDuplicateKeyError(err):
		return errs.Wrap(errs.Conflict, errs.CannedMessage(errs.Conflict), err)
	default:
		return errs.Wrap(errs.DependencyUnavailable, errs.CannedMessage(errs.DependencyUnavailable), err)
	}
}
