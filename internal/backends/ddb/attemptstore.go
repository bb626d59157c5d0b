package ddb

import (
	"context"

	"lingodrill/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AttemptStore persists attempt rows one item each. Create is a counter bump
// plus one PutItem; Update is one UpdateItem.
type AttemptStore struct {
	table string
	cli   *dynamodb.Client
}

func NewAttemptStore(table string, cli *dynamodb.Client) *AttemptStore {
	createTableIfNotExists(cli, table)
	return &AttemptStore{table: table, cli: cli}
}

func (s *AttemptStore) Create(ctx context.Context, a types.Attempt) (types.Attempt, error) {
	id, err := nextID(ctx, s.cli, s.table, "attempt")
	if err != nil {
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	a.AttemptID = id
	av, err := attributevalue.MarshalMap(a)
	if err != nil {
		return types.Attempt{}, err
	}
	av["PK"] = &ddbTypes.AttributeValueMemberS{Value: pkAttempt(id)}
	av["SK"] = &ddbTypes.AttributeValueMemberS{Value: skRow}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return a, nil
}

func (s *AttemptStore) Update(ctx context.Context, attemptID int64, r types.AttemptResolution) (types.Attempt, error) {
	expr := newUpdateExpr()
	expr.set("is_correct", mustMarshalAttr(r.IsCorrect))
	expr.set("feedback", mustMarshalAttr(r.Feedback))
	expr.set("answer_id", mustMarshalAttr(r.AnswerID))
	out, err := s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkAttempt(attemptID)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skRow},
		},
		UpdateExpression:          awsString(expr.expression()),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.valuesOrNil(),
		ConditionExpression:       awsString("attribute_exists(PK)"),
		ReturnValues:              ddbTypes.ReturnValueAllNew,
	})
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errorAs(err, &cc) {
			return types.Attempt{}, types.ErrNotFound
		}
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	var a types.Attempt
	if err := attributevalue.UnmarshalMap(out.Attributes, &a); err != nil {
		return types.Attempt{}, err
	}
	return a, nil
}
