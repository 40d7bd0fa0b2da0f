package userRepo

import (
	"context"
	"fmt"
	"sync"

	"sportevents/database/stream"
	"sportevents/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreUserRepo implements UserRepository on Cloud Firestore, one document per uid.
type FirestoreUserRepo struct {
	client *firestore.Client
}

func NewFirestoreUserRepo(client *firestore.Client) *FirestoreUserRepo {
	return &FirestoreUserRepo{client: client}
}

func (r *FirestoreUserRepo) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(UsersCollection).Doc(id)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

func (r *FirestoreUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return decodeUser(snap)
}

func (r *FirestoreUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, err := r.doc(user.ID).Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

func (r *FirestoreUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: firestoreField(k), Value: v})
	}
	if _, err := r.doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return nil
}

// Watch wraps a snapshot listener. A deleted document ends the stream with ErrNotFound.
func (r *FirestoreUserRepo) Watch(ctx context.Context, id string) (stream.Subscription[models.User], error) {
	iter := r.doc(id).Snapshots(ctx)
	var stopOnCancel sync.Once
	next := func(ctx context.Context) (*models.User, error) {
		// Next has no context parameter; stopping the iterator unblocks it on Close.
		stopOnCancel.Do(func() { context.AfterFunc(ctx, iter.Stop) })
		snap, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("user listener failed: %w", err)
		}
		if !snap.Exists() {
			return nil, ErrNotFound
		}
		return decodeUser(snap)
	}
	release := func() error {
		iter.Stop()
		return nil
	}
	return stream.Start(ctx, next, release), nil
}

// firestoreField maps stored Mongo field names to the camelCase names used in Firestore.
func firestoreField(name string) string {
	switch name {
	case "sport_list":
		return "sportList"
	case "fcm_token":
		return "fcmToken"
	case "profile_image":
		return "profileImage"
	case "updated_at":
		return "updatedAt"
	default:
		return name
	}
}
