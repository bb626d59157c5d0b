package ddb

import (
	"context"

	"lingodrill/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileStore keeps one item per (user, bot). Each Apply* is a single
// conditional UpdateItem so a half-updated profile is never observable.
type ProfileStore struct {
	table string
	cli   *dynamodb.Client
}

func NewProfileStore(table string, cli *dynamodb.Client) *ProfileStore {
	createTableIfNotExists(cli, table)
	return &ProfileStore{table: table, cli: cli}
}

func (s *ProfileStore) Get(ctx context.Context, userID int64, botID string) (types.Profile, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		ConsistentRead: awsBool(true),
		Key:            profileItemKey(userID, botID),
	})
	if err != nil {
		return types.Profile{}, types.Err(types.ErrStoreAccess, err, "")
	}
	if out.Item == nil {
		return types.Profile{}, types.ErrNotFound
	}
	var p types.Profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p types.Profile) (types.Profile, error) {
	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return types.Profile{}, err
	}
	av["PK"] = &ddbTypes.AttributeValueMemberS{Value: pkUser(p.UserID)}
	av["SK"] = &ddbTypes.AttributeValueMemberS{Value: skProfile(p.BotID)}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.table,
		Item:                av,
		ConditionExpression: awsString("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errorAs(err, &cc) {
			return types.Profile{}, types.Err(types.ErrInvalidState, nil, "profile %d/%s already exists", p.UserID, p.BotID)
		}
		return types.Profile{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return p, nil
}

func (s *ProfileStore) ApplySession(ctx context.Context, userID int64, botID string, u types.SessionUpdate) (types.Profile, error) {
	expr := newUpdateExpr()
	if u.ExercisesInSession != nil {
		expr.set("exercises_in_session", mustMarshalAttr(*u.ExercisesInSession))
	}
	if u.ExercisesInSet != nil {
		expr.set("exercises_in_set", mustMarshalAttr(*u.ExercisesInSet))
	}
	if u.ErrorsInSet != nil {
		expr.set("errors_in_set", mustMarshalAttr(*u.ErrorsInSet))
	}
	if u.CurrentStreakDays != nil {
		expr.set("current_streak_days", mustMarshalAttr(*u.CurrentStreakDays))
	}
	if u.LastExerciseAt != nil {
		expr.set("last_exercise_at", mustMarshalAttr(u.LastExerciseAt))
	}
	if u.SessionStartedAt != nil {
		expr.set("session_started_at", mustMarshalAttr(u.SessionStartedAt))
	}
	if u.SessionFrozenUntil != nil {
		expr.set("session_frozen_until", mustMarshalAttr(u.SessionFrozenUntil))
	}
	if u.ClearFrozenUntil {
		expr.remove("session_frozen_until")
	}
	if u.ClearReminders {
		expr.remove("wants_reminders")
		expr.remove("last_break_reminder_type")
		expr.remove("last_break_reminder_at")
	}
	return s.update(ctx, userID, botID, expr)
}

func (s *ProfileStore) ApplyProfile(ctx context.Context, userID int64, botID string, u types.ProfileUpdate) (types.Profile, error) {
	expr := newUpdateExpr()
	if u.UserLanguage != nil {
		expr.set("user_language", mustMarshalAttr(*u.UserLanguage))
	}
	if u.Level != nil {
		expr.set("language_level", mustMarshalAttr(*u.Level))
	}
	if u.TypeWeights != nil {
		expr.set("type_weights", mustMarshalAttr(u.TypeWeights))
	}
	return s.update(ctx, userID, botID, expr)
}

func (s *ProfileStore) ApplyStatus(ctx context.Context, userID int64, botID string, status types.UserStatus) (types.Profile, error) {
	expr := newUpdateExpr()
	expr.set("status", mustMarshalAttr(status))
	return s.update(ctx, userID, botID, expr)
}

func (s *ProfileStore) update(ctx context.Context, userID int64, botID string, expr *updateExpr) (types.Profile, error) {
	out, err := s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &s.table,
		Key:                       profileItemKey(userID, botID),
		UpdateExpression:          awsString(expr.expression()),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.valuesOrNil(),
		ConditionExpression:       awsString("attribute_exists(PK)"),
		ReturnValues:              ddbTypes.ReturnValueAllNew,
	})
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errorAs(err, &cc) {
			return types.Profile{}, types.ErrNotFound
		}
		return types.Profile{}, types.Err(types.ErrStoreAccess, err, "")
	}
	var p types.Profile
	if err := attributevalue.UnmarshalMap(out.Attributes, &p); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func profileItemKey(userID int64, botID string) map[string]ddbTypes.AttributeValue {
	return map[string]ddbTypes.AttributeValue{
		"PK": &ddbTypes.AttributeValueMemberS{Value: pkUser(userID)},
		"SK": &ddbTypes.AttributeValueMemberS{Value: skProfile(botID)},
	}
}
