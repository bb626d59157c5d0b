package ddb

import (
	"context"
	"fmt"
	"hash/fnv"

	"lingodrill/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AnswerStore keeps all answers for one exercise under a single partition.
// The sort key embeds a hash of the answer text so GetAllByAnswer is a single
// begins_with query instead of a partition scan.
type AnswerStore struct {
	table string
	cli   *dynamodb.Client
}

func NewAnswerStore(table string, cli *dynamodb.Client) *AnswerStore {
	createTableIfNotExists(cli, table)
	return &AnswerStore{table: table, cli: cli}
}

func answerTextHash(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *AnswerStore) Create(ctx context.Context, a types.StoredAnswer) (types.StoredAnswer, error) {
	id, err := nextID(ctx, s.cli, s.table, "answer")
	if err != nil {
		return types.StoredAnswer{}, types.Err(types.ErrStoreAccess, err, "")
	}
	a.AnswerID = id
	av, err := attributevalue.MarshalMap(a)
	if err != nil {
		return types.StoredAnswer{}, err
	}
	av["PK"] = &ddbTypes.AttributeValueMemberS{Value: pkExerciseAnswers(a.ExerciseID)}
	av["SK"] = &ddbTypes.AttributeValueMemberS{Value: skAnswer(answerTextHash(a.Answer), id)}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return types.StoredAnswer{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return a, nil
}

func (s *AnswerStore) GetAllByAnswer(ctx context.Context, exerciseID int64, answerText string) ([]types.StoredAnswer, error) {
	prefix := skAnswerPrefix(answerTextHash(answerText))
	var out []types.StoredAnswer
	var startKey map[string]ddbTypes.AttributeValue
	for {
		resp, err := s.cli.Query(ctx, &dynamodb.QueryInput{
			TableName:              &s.table,
			KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
				":pk": &ddbTypes.AttributeValueMemberS{Value: pkExerciseAnswers(exerciseID)},
				":sk": &ddbTypes.AttributeValueMemberS{Value: prefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, types.Err(types.ErrStoreAccess, err, "")
		}
		for _, item := range resp.Items {
			var a types.StoredAnswer
			if err := attributevalue.UnmarshalMap(item, &a); err != nil {
				return nil, err
			}
			// The hash collides across distinct texts; keep exact matches only.
			if a.Answer == answerText {
				out = append(out, a)
			}
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return out, nil
}
