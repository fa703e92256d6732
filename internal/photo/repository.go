package photo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Repository persists the per-identity photo sub-collection.
type Repository interface {
	Put(ctx context.Context, rec Record) error
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)
	Delete(ctx context.Context, ownerID, objectKey string) error
}

// DynamoRepository implements Repository on a DynamoDB table with the
// USER#/PHOTO# key scheme.
type DynamoRepository struct {
	db    *dynamodb.Client
	table string
}

// NewDynamoRepository builds a DynamoDB-backed photo repository.
func NewDynamoRepository(db *dynamodb.Client, table string) *DynamoRepository {
	return &DynamoRepository{db: db, table: table}
}

// Put upserts one photo record.
func (r *DynamoRepository) Put(ctx context.Context, rec Record) error {
	rec.PK, rec.SK = MakeKeys(rec.OwnerID, rec.ObjectKey)
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	return err
}

// ListByOwner returns every record under the owner's partition.
func (r *DynamoRepository) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	pk, skPrefix := MakeKeys(ownerID, "")
	var records []Record

	paginator := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
			":sk": &types.AttributeValueMemberS{Value: skPrefix},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query photo records: %w", err)
		}
		var batch []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode photo records: %w", err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

// Delete removes one record. Deleting an absent record is not an error.
func (r *DynamoRepository) Delete(ctx context.Context, ownerID, objectKey string) error {
	pk, sk := MakeKeys(ownerID, objectKey)
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	return err
}
