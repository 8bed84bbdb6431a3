package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type AWSAuthenticationMethod string

const (
	Static     AWSAuthenticationMethod = "static"
	Default    AWSAuthenticationMethod = "default"
	AssumeRole AWSAuthenticationMethod = "role"
)

type AWSSDKConfig struct {
	AWSAuthenticationMethod AWSAuthenticationMethod `mapstructure:"auth_method"`
	EndpointURL             string                  `mapstructure:"endpoint_url"`
	AccessKeyID             string                  `mapstructure:"access_key_id"`
	SecretAccessKey         Password                `mapstructure:"secret_access_key"`
	SessionToken            Password                `mapstructure:"session_token"`
	Region                  string                  `mapstructure:"region"`
	RoleARN                 string                  `mapstructure:"role_arn"`
}

func GetAwsSdkConfig(conf AWSSDKConfig) (*aws.Config, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if conf.EndpointURL != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           conf.EndpointURL,
				SigningRegion: conf.Region,
			}, nil
		}

		// returning EndpointNotFoundError will allow the service to fallback to its default resolution
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	switch conf.AWSAuthenticationMethod {
	case Static:
		creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(conf.AccessKeyID, string(conf.SecretAccessKey), string(conf.SessionToken)))
		awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(conf.Region),
			awsconfig.WithCredentialsProvider(creds),
			awsconfig.WithEndpointResolverWithOptions(customResolver),
		)
		if err != nil {
			return nil, fmt.Errorf("cannot load the AWS configs: %s", err)
		}

		return &awsCfg, nil
	case AssumeRole:
		stsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(conf.Region),
			awsconfig.WithEndpointResolverWithOptions(customResolver),
		)
		if err != nil {
			return nil, fmt.Errorf("cannot load the AWS configs: %s", err)
		}

		stsSvc := sts.NewFromConfig(stsCfg)
		creds := aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(stsSvc, conf.RoleARN))
		awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(conf.Region),
			awsconfig.WithCredentialsProvider(creds),
			awsconfig.WithEndpointResolverWithOptions(customResolver),
		)
		if err != nil {
			return nil, fmt.Errorf("cannot load the AWS configs: %s", err)
		}

		return &awsCfg, nil
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(conf.Region),
			awsconfig.WithEndpointResolverWithOptions(customResolver),
		)
		if err != nil {
			return nil, fmt.Errorf("cannot load the AWS configs: %s", err)
		}

		return &awsCfg, nil
	}
}
