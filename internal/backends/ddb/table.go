package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// Single-table layout. Entity type is encoded in the PK prefix; ids come from
// per-entity counter items bumped with an atomic ADD.
const (
	SUser     = "USER"
	SAttempt  = "ATTEMPT"
	SExercise = "EXERCISE"
	SCatalog  = "EXERCISES"
	SSeq      = "SEQ"
)

func pkUser(userID int64) string { return fmt.Sprintf("%s#%d", SUser, userID) }

func skProfile(botID string) string { return fmt.Sprintf("PROFILE#%s", botID) }

func skSeen() string { return "SEENEX" }

func pkAttempt(id int64) string { return fmt.Sprintf("%s#%d", SAttempt, id) }

func pkExercise(id int64) string { return fmt.Sprintf("%s#%d", SExercise, id) }

func pkCatalog(lang string) string { return fmt.Sprintf("%s#%s", SCatalog, lang) }

func pkExerciseAnswers(exerciseID int64) string {
	return fmt.Sprintf("EX#%d", exerciseID)
}

func skAnswer(textHash string, id int64) string {
	return fmt.Sprintf("ANSWER#%s#%d", textHash, id)
}

func skAnswerPrefix(textHash string) string { return fmt.Sprintf("ANSWER#%s#", textHash) }

func pkSeq(entity string) string { return fmt.Sprintf("%s#%s", SSeq, entity) }

const skRow = "ROW"

func createTableIfNotExists(client *dynamodb.Client, table string) {
	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errors.As(err, &re) {
		log.Fatalf("Failed to create table %s: %v", table, err)
	}
}

// nextID bumps and returns the counter for an entity type.
func nextID(ctx context.Context, cli *dynamodb.Client, table, entity string) (int64, error) {
	out, err := cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkSeq(entity)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skRow},
		},
		UpdateExpression:         awsString("ADD #n :one"),
		ExpressionAttributeNames: map[string]string{"#n": "n"},
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":one": &ddbTypes.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: ddbTypes.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	n, ok := out.Attributes["n"].(*ddbTypes.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("sequence %s: missing counter attribute", entity)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

func itoa(i int64) string { return strconv.FormatInt(i, 10) }

func mustMarshalAttr(v any) ddbTypes.AttributeValue {
	av, _ := attributevalue.Marshal(v)
	return av
}
func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }

func errorAs(err error, target any) bool { return errors.As(err, target) }
