package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/karvix-api/internal/domain"
)

// OrderRepo provides typed DynamoDB operations for the orders table.
type OrderRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepo(client *dynamodb.Client, tableName string) *OrderRepo {
	return &OrderRepo{client: client, tableName: tableName}
}

// Put inserts a new order at version 1.
func (r *OrderRepo) Put(ctx context.Context, o *domain.Order) error {
	o.Version = 1
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(order_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("order %s: %w", o.OrderID, domain.ErrConflict)
	}
	if err != nil {
		return persistenceErr("put order", err)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("order_id", orderID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, persistenceErr("get order", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("order not found: %w", domain.ErrNotFound)
	}
	var o domain.Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Save writes o back only if the stored version still equals o.Version, then
// bumps o.Version. A concurrent writer yields domain.ErrConflict.
func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	expected := o.Version
	o.Version = expected + 1
	o.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		o.Version = expected
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("#ver = :expected"),
		ExpressionAttributeNames: map[string]string{"#ver": fieldVersion},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		},
	})
	if err != nil {
		o.Version = expected
		if isConditionFailed(err) {
			return fmt.Errorf("order %s changed concurrently: %w", o.OrderID, domain.ErrConflict)
		}
		return persistenceErr("save order", err)
	}
	return nil
}

// ListByParty returns the orders where userID takes part in the given role,
// newest first.
func (r *OrderRepo) ListByParty(ctx context.Context, role domain.Role, userID string) ([]domain.Order, error) {
	index, attr := partyIndex(role)
	if index == "" {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	}
	var orders []domain.Order
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, persistenceErr("query "+index, err)
		}
		var page []domain.Order
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		orders = append(orders, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func partyIndex(role domain.Role) (index, attr string) {
	switch role {
	case domain.RoleCustomer:
		return indexCustomerID, "customer_id"
	case domain.RoleWorker:
		return indexWorkerID, "worker_id"
	case domain.RoleBroker:
		return indexOrderBroker, "broker_id"
	}
	return "", ""
}
