package ddb

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"lingodrill/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExerciseStore serves exercise lookups from two views of the same rows:
// a per-language catalog partition keyed by level/type/topic for selection,
// and a by-id partition for direct fetches. A per-user set item records which
// exercises the user has already been handed; GetNew marks the exercise as
// seen before returning it.
type ExerciseStore struct {
	table string
	cli   *dynamodb.Client
}

func NewExerciseStore(table string, cli *dynamodb.Client) *ExerciseStore {
	createTableIfNotExists(cli, table)
	return &ExerciseStore{table: table, cli: cli}
}

func skCatalog(level types.LanguageLevel, t types.ExerciseType, topic types.Topic, id int64) string {
	return fmt.Sprintf("EX#%s#%s#%s#%d", level, t, topic, id)
}

// Put assigns an id and writes both the catalog row and the by-id row.
func (s *ExerciseStore) Put(ctx context.Context, ex types.Exercise) (types.Exercise, error) {
	id, err := nextID(ctx, s.cli, s.table, "exercise")
	if err != nil {
		return types.Exercise{}, types.Err(types.ErrStoreAccess, err, "")
	}
	ex.ExerciseID = id
	body, err := attributevalue.MarshalMap(ex)
	if err != nil {
		return types.Exercise{}, err
	}
	for _, key := range [][2]string{
		{pkCatalog(ex.TargetLanguage), skCatalog(ex.LanguageLevel, ex.Type, ex.Topic, id)},
		{pkExercise(id), skRow},
	} {
		item := make(map[string]ddbTypes.AttributeValue, len(body)+2)
		for k, v := range body {
			item[k] = v
		}
		item["PK"] = &ddbTypes.AttributeValueMemberS{Value: key[0]}
		item["SK"] = &ddbTypes.AttributeValueMemberS{Value: key[1]}
		if _, err := s.cli.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &s.table,
			Item:      item,
		}); err != nil {
			return types.Exercise{}, types.Err(types.ErrStoreAccess, err, "")
		}
	}
	return ex, nil
}

func (s *ExerciseStore) GetNew(ctx context.Context, c types.ExerciseCriteria) (*types.Exercise, error) {
	prefix := fmt.Sprintf("EX#%s#%s#%s#", c.LanguageLevel, c.Type, c.Topic)
	return s.pickUnseen(ctx, c, prefix)
}

func (s *ExerciseStore) GetAnyNew(ctx context.Context, c types.ExerciseCriteria) (*types.Exercise, error) {
	prefix := fmt.Sprintf("EX#%s#", c.LanguageLevel)
	return s.pickUnseen(ctx, c, prefix)
}

func (s *ExerciseStore) GetForRepetition(ctx context.Context, userID int64) (*types.Exercise, error) {
	seen, err := s.seenIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(seen) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return s.GetByID(ctx, ids[rand.Intn(len(ids))])
}

func (s *ExerciseStore) pickUnseen(ctx context.Context, c types.ExerciseCriteria, skPrefix string) (*types.Exercise, error) {
	seen, err := s.seenIDs(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	var startKey map[string]ddbTypes.AttributeValue
	for {
		resp, err := s.cli.Query(ctx, &dynamodb.QueryInput{
			TableName:              &s.table,
			KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
				":pk": &ddbTypes.AttributeValueMemberS{Value: pkCatalog(c.TargetLanguage)},
				":sk": &ddbTypes.AttributeValueMemberS{Value: skPrefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, types.Err(types.ErrStoreAccess, err, "")
		}
		for _, item := range resp.Items {
			var ex types.Exercise
			if err := attributevalue.UnmarshalMap(item, &ex); err != nil {
				return nil, err
			}
			if seen[ex.ExerciseID] {
				continue
			}
			if err := s.markSeen(ctx, c.UserID, ex.ExerciseID); err != nil {
				return nil, err
			}
			return &ex, nil
		}
		if resp.LastEvaluatedKey == nil {
			return nil, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

func (s *ExerciseStore) GetByID(ctx context.Context, id int64) (*types.Exercise, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkExercise(id)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skRow},
		},
	})
	if err != nil {
		return nil, types.Err(types.ErrStoreAccess, err, "")
	}
	if out.Item == nil {
		return nil, nil
	}
	var ex types.Exercise
	if err := attributevalue.UnmarshalMap(out.Item, &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

func (s *ExerciseStore) seenIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkUser(userID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skSeen()},
		},
	})
	if err != nil {
		return nil, types.Err(types.ErrStoreAccess, err, "")
	}
	seen := make(map[int64]bool)
	if out.Item == nil {
		return seen, nil
	}
	ns, ok := out.Item["ids"].(*ddbTypes.AttributeValueMemberNS)
	if !ok {
		return seen, nil
	}
	for _, raw := range ns.Value {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		seen[id] = true
	}
	return seen, nil
}

func (s *ExerciseStore) markSeen(ctx context.Context, userID, exerciseID int64) error {
	_, err := s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkUser(userID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skSeen()},
		},
		UpdateExpression:         awsString("ADD #ids :id"),
		ExpressionAttributeNames: map[string]string{"#ids": "ids"},
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":id": &ddbTypes.AttributeValueMemberNS{Value: []string{itoa(exerciseID)}},
		},
	})
	if err != nil {
		return types.Err(types.ErrStoreAccess, err, "")
	}
	return nil
}
