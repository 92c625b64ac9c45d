package commands

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/andreasom/oml-storage-go/pkg/config"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	dynamostorage "github.com/andreasom/oml-storage-go/storage/dynamodb"
	"github.com/andreasom/oml-storage-go/storageid"
)

func newDynamoDBCommand() *cobra.Command {
	return newBackendCommand("dynamodb", "Exercise the DynamoDB backend", func() (demoStorage, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.DynamoDB.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.DynamoDB.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), optFns...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.EndpointOverride != "" {
				o.BaseEndpoint = &cfg.DynamoDB.EndpointOverride
			}
		})

		s := dynamostorage.New[storageid.SequentialID, demoItem](
			client, cfg.DynamoDB.Table,
			newDemoItem,
			deserializeDemoItem,
			storageid.GenerateSequentialID,
			storageid.ParseSequentialID,
		)
		s.SetMetrics(metrics.New(prometheusRegisterer()))
		return s, nil
	})
}
