// Package mongostore implements store.Store on MongoDB. Lists and users are
// single documents, so every conditional write is atomic on its own.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

const (
	listsCollection = "shopping_lists"
	usersCollection = "users"
)

type Store struct {
	client *mongo.Client
	lists  *mongo.Collection
	users  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the primary and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{client: client, lists: db.Collection(listsCollection), users: db.Collection(usersCollection)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	_, err = s.lists.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "members.user_id", Value: 1}},
		Options: options.Index().SetName("members_user_id"),
	})
	if err != nil {
		return fmt.Errorf("create shopping_lists.members index: %w", err)
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "invitations.list_id", Value: 1}},
		Options: options.Index().SetName("invitations_list_id"),
	})
	if err != nil {
		return fmt.Errorf("create users.invitations index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateErr(err error) (store.Result, error) {
	switch {
	case errors.Is(err, mongo.ErrUnacknowledgedWrite):
		return store.Result{Acknowledged: false}, nil
	case mongo.IsDuplicateKeyError(err):
		return store.Result{}, store.ErrDuplicate
	default:
		return store.Result{}, err
	}
}

func fromUpdate(r *mongo.UpdateResult, err error) (store.Result, error) {
	if err != nil {
		return translateErr(err)
	}
	return store.Result{Acknowledged: true, Matched: r.MatchedCount, Changed: r.ModifiedCount}, nil
}

func fromDelete(r *mongo.DeleteResult, err error) (store.Result, error) {
	if err != nil {
		return translateErr(err)
	}
	return store.Result{Acknowledged: true, Matched: r.DeletedCount, Changed: r.DeletedCount}, nil
}

func fromInsert(_ *mongo.InsertOneResult, err error) (store.Result, error) {
	if err != nil {
		return translateErr(err)
	}
	return store.Applied, nil
}

// Lists

func (s *Store) FindListByID(ctx context.Context, id string) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := s.lists.FindOne(ctx, bson.M{"_id": id}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find list %s: %w", id, err)
	}
	return &list, nil
}

func (s *Store) FindListsByMember(ctx context.Context, userID string) ([]*models.ShoppingList, error) {
	cur, err := s.lists.Find(ctx, bson.M{"members.user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find lists of %s: %w", userID, err)
	}
	var lists []*models.ShoppingList
	if err := cur.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("decode lists of %s: %w", userID, err)
	}
	return lists, nil
}

func (s *Store) InsertList(ctx context.Context, list *models.ShoppingList) (store.Result, error) {
	doc := list.Clone()
	if doc.Items == nil {
		doc.Items = []models.Item{}
	}
	return fromInsert(s.lists.InsertOne(ctx, doc))
}

func (s *Store) DeleteList(ctx context.Context, id string) (store.Result, error) {
	return fromDelete(s.lists.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *Store) UpdateListFields(ctx context.Context, id string, upd models.ListFieldsUpdate, now time.Time) (store.Result, error) {
	return fromUpdate(s.lists.UpdateOne(ctx, bson.M{"_id": id}, listFieldsPipeline(upd, now)))
}

func (s *Store) AddMember(ctx context.Context, listID string, m models.MemberRef) (store.Result, error) {
	filter, update := addMemberWrite(listID, m)
	return fromUpdate(s.lists.UpdateOne(ctx, filter, update))
}

func (s *Store) RemoveMember(ctx context.Context, listID, userID string) (store.Result, error) {
	filter, update := removeMemberWrite(listID, userID)
	return fromUpdate(s.lists.UpdateOne(ctx, filter, update))
}

func (s *Store) InsertItem(ctx context.Context, listID string, item models.Item) (store.Result, error) {
	filter, update := insertItemWrite(listID, item)
	return fromUpdate(s.lists.UpdateOne(ctx, filter, update))
}

func (s *Store) UpdateItem(ctx context.Context, listID, itemID string, upd models.ItemUpdate) (store.Result, error) {
	filter, update := updateItemWrite(listID, itemID, upd)
	return fromUpdate(s.lists.UpdateOne(ctx, filter, update))
}

func (s *Store) DeleteItem(ctx context.Context, listID, itemID string) (store.Result, error) {
	filter, update := deleteItemWrite(listID, itemID)
	return fromUpdate(s.lists.UpdateOne(ctx, filter, update))
}

func (s *Store) RenameMember(ctx context.Context, userID, name string) (store.Result, error) {
	members, err := fromUpdate(s.lists.UpdateMany(ctx,
		bson.M{"members.user_id": userID},
		bson.M{"$set": bson.M{"members.$[m].name": name}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m.user_id": userID}},
		}),
	))
	if err != nil || !members.Acknowledged {
		return members, err
	}
	owners, err := fromUpdate(s.lists.UpdateMany(ctx,
		bson.M{"owner.user_id": userID},
		bson.M{"$set": bson.M{"owner.name": name}},
	))
	if err != nil || !owners.Acknowledged {
		return owners, err
	}
	members.Changed += owners.Changed
	return members, nil
}

// Users

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) (store.Result, error) {
	doc := *user
	if doc.Invitations == nil {
		doc.Invitations = []models.Invitation{}
	}
	return fromInsert(s.users.InsertOne(ctx, &doc))
}

func (s *Store) UpdateUserNames(ctx context.Context, id, firstName, lastName string) (store.Result, error) {
	return fromUpdate(s.users.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"first_name": firstName, "last_name": lastName}}))
}

func (s *Store) AddInvitation(ctx context.Context, email string, inv models.Invitation) (store.Result, error) {
	filter, update := addInvitationWrite(email, inv)
	return fromUpdate(s.users.UpdateOne(ctx, filter, update))
}

func (s *Store) RemoveInvitation(ctx context.Context, userID, listID string) (store.Result, error) {
	filter, update := removeInvitationWrite(userID, listID)
	return fromUpdate(s.users.UpdateOne(ctx, filter, update))
}

func (s *Store) PullInvitationsForList(ctx context.Context, listID string) (store.Result, error) {
	return fromUpdate(s.users.UpdateMany(ctx,
		bson.M{"invitations.list_id": listID},
		bson.M{"$pull": bson.M{"invitations": bson.M{"list_id": listID}}}))
}
