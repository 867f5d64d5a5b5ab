// Package dynamostore (admin.go): Table-provisioning operations for the administrative CLI
// These are explicitly out of the core lock protocol's scope and exist only to back
// cmd/dlmctl, the administrative command-line tool
//
// dynamostore (admin.go): 供管理员 CLI 使用的表管理操作
// 这些操作明确不属于核心锁协议的范围
// 仅用于支撑管理员命令行工具 cmd/dlmctl
package dynamostore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/yyle88/erero"
)

// CreateTable provisions a table with partition key lockKey (string), the schema this lock manager requires.
// Returns nil both when the table was created and when it already existed.
//
// CreateTable 使用分区键 lockKey（字符串）创建表，对应锁管理器所需的模式
// 表被创建或表已存在时均返回 nil
func (s *Store) CreateTable(ctx context.Context, client DynamoDBClient) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrLockKey), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrLockKey), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var exists *types.ResourceInUseException
		if errors.As(err, &exists) {
			return nil
		}
		return erero.Wro(err)
	}
	return nil
}

// DeleteTable removes the table. Returns nil both when it was deleted and when it did not exist.
// DeleteTable 删除表；表被删除或表本就不存在时均返回 nil
func (s *Store) DeleteTable(ctx context.Context, client DynamoDBClient) error {
	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return erero.Wro(err)
	}
	return nil
}

// ListTables lists every table name visible to client, paging through ListTables as needed.
// ListTables 列出 client 可见的每张表名，按需翻页调用 ListTables
func ListTables(ctx context.Context, client DynamoDBClient) ([]string, error) {
	var names []string
	var start *string
	for {
		out, err := client.ListTables(ctx, &dynamodb.ListTablesInput{ExclusiveStartTableName: start})
		if err != nil {
			return nil, erero.Wro(err)
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			break
		}
		start = out.LastEvaluatedTableName
	}
	return names, nil
}
