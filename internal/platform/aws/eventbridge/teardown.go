package eventbridge

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/retry"
)

// deleteRoleAndPolicy detaches and deletes the trigger policy, then deletes
// the role. IAM reports DeleteConflict while an attachment is still being
// released, so both deletes retry on it.
func (c *Cron) deleteRoleAndPolicy(ctx context.Context, log logr.Logger, args config.CronArgs) error {
	var errs []error
	provErr := func(op, name string, err error) {
		errs = append(errs, &resource.ProvisioningError{Kind: resource.Cron, Op: op, Name: name, Err: err})
	}
	retryConflicts := []retry.Option{
		retry.WithRetryIf(isDeleteConflict),
		retry.WithInitialDelay(c.teardownRetry),
		retry.WithMaxRetries(5),
	}

	policyARN, err := c.findPolicy(ctx, args.TriggerPolicyName)
	if err != nil {
		provErr("resolve policy", args.TriggerPolicyName, err)
	}

	if policyARN != "" {
		if _, err := c.clients.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(args.TriggerRoleName),
			PolicyArn: aws.String(policyARN),
		}); err != nil && !isNoSuchEntity(err) {
			provErr("detach policy", args.TriggerPolicyName, err)
		}

		// A policy with non-default versions cannot be deleted.
		if err := c.pruneVersions(ctx, policyARN, 1); err != nil && !isNoSuchEntity(err) {
			provErr("delete policy versions", args.TriggerPolicyName, err)
		}

		err := retry.WithExponentialBackoff(ctx, func() error {
			_, err := c.clients.IAM.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(policyARN)})
			if isNoSuchEntity(err) {
				return nil
			}
			return err
		}, retryConflicts...)
		if err != nil {
			provErr("delete policy", args.TriggerPolicyName, err)
		} else {
			log.Info("policy deleted", "policy", args.TriggerPolicyName)
		}
	}

	err = retry.WithExponentialBackoff(ctx, func() error {
		_, err := c.clients.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(args.TriggerRoleName)})
		if isNoSuchEntity(err) {
			return nil
		}
		return err
	}, retryConflicts...)
	if err != nil {
		provErr("delete role", args.TriggerRoleName, err)
	} else {
		log.Info("role deleted", "role", args.TriggerRoleName)
	}

	return errors.Join(errs...)
}
