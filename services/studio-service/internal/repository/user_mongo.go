package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"
)

const userCollection = "users"

type userDocument struct {
	ID                     bson.ObjectID `bson:"_id,omitempty"`
	Name                   string        `bson:"name"`
	Email                  string        `bson:"email"`
	Password               string        `bson:"password"`
	Phone                  *string       `bson:"phone,omitempty"`
	Role                   string        `bson:"role"`
	Status                 string        `bson:"status"`
	IsEmailVerified        bool          `bson:"isEmailVerified"`
	EmailVerificationToken *string       `bson:"emailVerificationToken,omitempty"`
	ResetPasswordToken     *string       `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires   *time.Time    `bson:"resetPasswordExpires,omitempty"`
	JoinDate               time.Time     `bson:"joinDate"`
}

func newUserDocument(user *model.User) userDocument {
	return userDocument{
		Name:                   user.Name,
		Email:                  user.Email,
		Password:               user.PasswordHash,
		Phone:                  user.Phone,
		Role:                   string(user.Role),
		Status:                 string(user.Status),
		IsEmailVerified:        user.IsEmailVerified,
		EmailVerificationToken: user.EmailVerificationToken,
		ResetPasswordToken:     user.ResetPasswordToken,
		ResetPasswordExpires:   user.ResetPasswordExpires,
		JoinDate:               user.JoinDate,
	}
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:                     d.ID.Hex(),
		Name:                   d.Name,
		Email:                  d.Email,
		PasswordHash:           d.Password,
		Phone:                  d.Phone,
		Role:                   model.Role(d.Role),
		Status:                 model.Status(d.Status),
		IsEmailVerified:        d.IsEmailVerified,
		EmailVerificationToken: d.EmailVerificationToken,
		ResetPasswordToken:     d.ResetPasswordToken,
		ResetPasswordExpires:   d.ResetPasswordExpires,
		JoinDate:               d.JoinDate,
	}
}

// userUpdate translates params into a $set/$unset update document.
func userUpdate(params UpdateUserParams) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if params.PasswordHash != nil {
		set["password"] = *params.PasswordHash
	}
	if params.Role != nil {
		set["role"] = string(*params.Role)
	}
	if params.Status != nil {
		set["status"] = string(*params.Status)
	}
	if params.IsEmailVerified != nil {
		set["isEmailVerified"] = *params.IsEmailVerified
	}

	if params.ClearEmailVerificationToken {
		unset["emailVerificationToken"] = ""
	} else if params.EmailVerificationToken != nil {
		set["emailVerificationToken"] = *params.EmailVerificationToken
	}

	if params.ClearResetPassword {
		unset["resetPasswordToken"] = ""
		unset["resetPasswordExpires"] = ""
	} else {
		if params.ResetPasswordToken != nil {
			set["resetPasswordToken"] = *params.ResetPasswordToken
		}
		if params.ResetPasswordExpires != nil {
			set["resetPasswordExpires"] = params.ResetPasswordExpires.UTC()
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "emailVerificationToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "joinDate", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.JoinDate.IsZero() {
		user.JoinDate = time.Now().UTC()
	}

	doc := newUserDocument(user)
	result, err := r.db.Collection(userCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	user.ID = objectID.Hex()

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"emailVerificationToken": token})
}

func (r *userMongoRepository) GetUserByResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": now.UTC()},
	})
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoUpdate
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		userUpdate(params),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeUser(result)
}

func (r *userMongoRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	result := r.db.Collection(userCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})

	return decodeUser(result)
}

func (r *userMongoRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "joinDate", Value: -1}})

	if params.Limit > 0 {
		findOptions.SetLimit(int64(params.Limit))
	}
	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	filter := bson.M{}
	if params.Status != nil {
		filter["status"] = string(*params.Status)
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.toModel())
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	return decodeUser(r.db.Collection(userCollection).FindOne(ctx, filter))
}

func decodeUser(result *mongo.SingleResult) (*model.User, error) {
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc userDocument
	if err := result.Decode(&doc); err != nil {
		return nil, err
	}

	return doc.toModel(), nil
}
