package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/viper"

	"github.com/go-xlan/dlm-go-suo/storeadapter/dynamostore"
)

// newDynamoClient loads the default AWS config chain, applying --region/--endpoint overrides,
// the same opts-append idiom the rest of the example pack uses to build store SDK clients.
//
// newDynamoClient 加载默认的 AWS 配置链，并应用 --region/--endpoint 覆盖项
// 采用示例代码库中构建存储 SDK 客户端时相同的 opts 追加写法
func newDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := viper.GetString("region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var dynamoOpts []func(*dynamodb.Options)
	if ep := viper.GetString("endpoint"); ep != "" {
		dynamoOpts = append(dynamoOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(ep)
		})
	}

	return dynamodb.NewFromConfig(awsCfg, dynamoOpts...), nil
}

func newStore(ctx context.Context, tableName string) (*dynamostore.Store, *dynamodb.Client, error) {
	client, err := newDynamoClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return dynamostore.New(client, tableName), client, nil
}
