package iotplatform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"github.com/aws/aws-sdk-go-v2/service/iot/types"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

// AWSIotPlatformService implements the identity platform gateway on AWS IoT
// Core. One policy, named in the config, is shared by the whole fleet.
type AWSIotPlatformService struct {
	iotSDK     *iot.Client
	policyName string
	logger     *logrus.Entry
}

type AWSIotPlatformBuilder struct {
	Logger *logrus.Entry
	Config config.IotPlatformConfig
}

func NewAWSIotPlatformService(builder AWSIotPlatformBuilder) (services.IotCoreService, error) {
	awsCfg, err := config.GetAwsSdkConfig(builder.Config.AWSSDKConfig)
	if err != nil {
		return nil, fmt.Errorf("could not build AWS SDK config: %w", err)
	}

	if builder.Config.PolicyName == "" {
		return nil, fmt.Errorf("iot platform policy name is not set")
	}

	return &AWSIotPlatformService{
		iotSDK:     iot.NewFromConfig(*awsCfg),
		policyName: builder.Config.PolicyName,
		logger:     builder.Logger,
	}, nil
}

func (svc *AWSIotPlatformService) CreateThing(ctx context.Context, thingName string, attributes map[string]string) error {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	_, err := svc.iotSDK.CreateThing(ctx, &iot.CreateThingInput{
		ThingName: aws.String(thingName),
		AttributePayload: &types.AttributePayload{
			Attributes: attributes,
		},
	})
	if err != nil {
		// Retried provisioning attempts recreate the same thing name.
		var rae *types.ResourceAlreadyExistsException
		if errors.As(err, &rae) {
			lFunc.Warnf("thing '%s' already exists", thingName)
			return nil
		}

		return err
	}

	lFunc.Debugf("created thing '%s'", thingName)
	return nil
}

func (svc *AWSIotPlatformService) CreateCertificateWithKeys(ctx context.Context) (*services.CertificateKeysOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	output, err := svc.iotSDK.CreateKeysAndCertificate(ctx, &iot.CreateKeysAndCertificateInput{
		SetAsActive: true,
	})
	if err != nil {
		return nil, err
	}

	lFunc.Debugf("created certificate '%s'", aws.ToString(output.CertificateId))
	return &services.CertificateKeysOutput{
		CertificateID:  aws.ToString(output.CertificateId),
		CertificateArn: aws.ToString(output.CertificateArn),
		CertificatePem: aws.ToString(output.CertificatePem),
		PrivateKey:     aws.ToString(output.KeyPair.PrivateKey),
		PublicKey:      aws.ToString(output.KeyPair.PublicKey),
	}, nil
}

func (svc *AWSIotPlatformService) AttachCertificate(ctx context.Context, thingName string, certificateArn string) error {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	_, err := svc.iotSDK.AttachPolicy(ctx, &iot.AttachPolicyInput{
		PolicyName: aws.String(svc.policyName),
		Target:     aws.String(certificateArn),
	})
	if err != nil {
		return fmt.Errorf("could not attach policy '%s' to certificate: %w", svc.policyName, err)
	}

	_, err = svc.iotSDK.AttachThingPrincipal(ctx, &iot.AttachThingPrincipalInput{
		ThingName: aws.String(thingName),
		Principal: aws.String(certificateArn),
	})
	if err != nil {
		return fmt.Errorf("could not attach certificate to thing '%s': %w", thingName, err)
	}

	lFunc.Debugf("attached certificate to thing '%s' with policy '%s'", thingName, svc.policyName)
	return nil
}

func (svc *AWSIotPlatformService) UpdateCertificateStatus(ctx context.Context, certificateID string, status string) error {
	_, err := svc.iotSDK.UpdateCertificate(ctx, &iot.UpdateCertificateInput{
		CertificateId: aws.String(certificateID),
		NewStatus:     types.CertificateStatus(status),
	})

	return err
}

func (svc *AWSIotPlatformService) DescribeCertificate(ctx context.Context, certificateID string) (string, error) {
	output, err := svc.iotSDK.DescribeCertificate(ctx, &iot.DescribeCertificateInput{
		CertificateId: aws.String(certificateID),
	})
	if err != nil {
		return "", err
	}

	return string(output.CertificateDescription.Status), nil
}

func (svc *AWSIotPlatformService) DeleteThing(ctx context.Context, thingName string) error {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	_, err := svc.iotSDK.DeleteThing(ctx, &iot.DeleteThingInput{
		ThingName: aws.String(thingName),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			lFunc.Warnf("thing '%s' does not exist at the platform", thingName)
			return nil
		}

		return err
	}

	lFunc.Debugf("deleted thing '%s'", thingName)
	return nil
}
