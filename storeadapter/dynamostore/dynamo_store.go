// Package dynamostore: DynamoDB-backed storeadapter.Store using ConditionExpression for atomic conditional writes
// Mirrors the ownership/version conditions of the dynamolock lineage this protocol descends from
// Also exposes the table-admin operations (create/delete/list) that back the administrative CLI
//
// dynamostore: 使用 ConditionExpression 实现原子条件写入的 DynamoDB 版 storeadapter.Store
// 复刻本协议所脱胎的 dynamolock 谱系中的所有权/版本条件
// 同时暴露支撑管理员 CLI 的表管理操作（创建/删除/列出）
package dynamostore

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
	"github.com/yyle88/erero"
)

const (
	attrLockKey        = "lockKey"
	attrLeaseDuration  = "leaseDuration"
	attrVersionNumber  = "versionNumber"
	attrHostIdentifier = "hostIdentifier"
)

// DynamoDBClient is the subset of the DynamoDB API this package needs.
// Exists so tests can supply a fake in place of a real AWS endpoint.
//
// DynamoDBClient 是本包所需的 DynamoDB API 子集
// 存在的目的是让测试可以提供假实现而不是真实的 AWS 端点
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Store is a storeadapter.Store backed by a single DynamoDB table with partition key lockKey.
//
// Store 是由具有分区键 lockKey 的单张 DynamoDB 表支撑的 storeadapter.Store
type Store struct {
	client    DynamoDBClient
	tableName string
}

// New creates a dynamostore.Store against tableName using client.
// New 使用 client 针对 tableName 创建一个 dynamostore.Store
func New(client DynamoDBClient, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

func (s *Store) itemFor(key string, record storeadapter.Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrLockKey:        &types.AttributeValueMemberS{Value: key},
		attrLeaseDuration:  &types.AttributeValueMemberN{Value: strconv.FormatInt(record.LeaseDuration, 10)},
		attrVersionNumber:  &types.AttributeValueMemberS{Value: record.VersionNumber},
		attrHostIdentifier: &types.AttributeValueMemberS{Value: record.HostIdentifier},
	}
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, record storeadapter.Record) error {
	cond := expression.AttributeNotExists(expression.Name(attrLockKey))
	return s.conditionalPut(ctx, key, record, cond)
}

func (s *Store) PutIfVersion(ctx context.Context, key string, record storeadapter.Record, expectedVersion string) error {
	cond := expression.And(
		expression.AttributeExists(expression.Name(attrLockKey)),
		expression.Equal(expression.Name(attrVersionNumber), expression.Value(expectedVersion)),
	)
	return s.conditionalPut(ctx, key, record, cond)
}

func (s *Store) conditionalPut(ctx context.Context, key string, record storeadapter.Record, cond expression.ConditionBuilder) error {
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return erero.Wro(err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      s.itemFor(key, record),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return translateWriteError(err)
}

func (s *Store) DeleteIfVersion(ctx context.Context, key string, expectedVersion string) error {
	cond := expression.And(
		expression.AttributeExists(expression.Name(attrLockKey)),
		expression.Equal(expression.Name(attrVersionNumber), expression.Value(expectedVersion)),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return erero.Wro(err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrLockKey: &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return translateWriteError(err)
}

func (s *Store) Get(ctx context.Context, key string) (*storeadapter.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrLockKey: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, erero.Wro(dlmerrors.ErrTransient)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return &storeadapter.Record{
		LockKey:        stringAttr(out.Item[attrLockKey]),
		LeaseDuration:  numberAttr(out.Item[attrLeaseDuration]),
		VersionNumber:  stringAttr(out.Item[attrVersionNumber]),
		HostIdentifier: stringAttr(out.Item[attrHostIdentifier]),
	}, nil
}

// translateWriteError maps a DynamoDB ConditionalCheckFailedException to dlmerrors.ErrConflict
// and any other failure to dlmerrors.ErrTransient, the way the protocol layer expects.
//
// translateWriteError 将 DynamoDB 的 ConditionalCheckFailedException 映射为 dlmerrors.ErrConflict
// 将其它一切失败映射为协议层所期望的 dlmerrors.ErrTransient
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return dlmerrors.ErrConflict
	}
	return erero.Wro(dlmerrors.ErrTransient)
}

func stringAttr(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func numberAttr(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
